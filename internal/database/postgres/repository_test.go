package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/dmitryglazkov/shortly/internal/database"
	"github.com/dmitryglazkov/shortly/internal/models"
)

var (
	errUnknown      = errors.New("unknown error")
	errAffectedRows = errors.New("affected rows error")
)

var columns = []string{"id", "short_code", "original_url", "clicks", "created_at", "updated_at", "expires_at", "is_active"}

func setupURLRepository(t testing.TB) (*URLRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}

	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewURLRepository(db)

	t.Cleanup(func() {
		mockDB.Close()
		db.Close()
	})

	return repo, mock
}

func TestURLRepository_Create(t *testing.T) {
	t.Run("short code exists", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", nil).
			WillReturnError(&pgconn.PgError{Code: uniqueViolationErrCode})

		url, err := repo.Create(context.TODO(), "code1", "https://example.com", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrShortCodeExists)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", nil).
			WillReturnError(errUnknown)

		url, err := repo.Create(context.TODO(), "code1", "https://example.com", nil)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 0, time.Time{}, time.Time{}, nil, true)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", nil).
			WillReturnRows(rows)

		url, err := repo.Create(context.TODO(), "code1", "https://example.com", nil)

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, "code1", url.ShortCode)
		assert.Equal(t, "https://example.com", url.OriginalURL)
		assert.True(t, url.IsActive)
		assert.Zero(t, url.Clicks)
		assert.Nil(t, url.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success with expiration", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		expiresAt := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 0, time.Time{}, time.Time{}, expiresAt, true)

		mock.ExpectQuery(`INSERT INTO urls`).
			WithArgs("code1", "https://example.com", &expiresAt).
			WillReturnRows(rows)

		url, err := repo.Create(context.TODO(), "code1", "https://example.com", &expiresAt)

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.NotNil(t, url.ExpiresAt)
		assert.Equal(t, expiresAt, *url.ExpiresAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_GetByShortCode(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("code1").
			WillReturnRows(sqlmock.NewRows(columns))

		url, err := repo.GetByShortCode(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("code1").
			WillReturnError(errUnknown)

		url, err := repo.GetByShortCode(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 5, time.Time{}, time.Time{}, nil, true)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs("code1").
			WillReturnRows(rows)

		url, err := repo.GetByShortCode(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, int64(5), url.Clicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_Update(t *testing.T) {
	newURL := "https://new.example.com"
	inactive := false

	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("code1", newURL).
			WillReturnRows(sqlmock.NewRows(columns))

		url, err := repo.Update(context.TODO(), "code1", models.URLUpdate{OriginalURL: &newURL})

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", newURL, 0, time.Time{}, time.Time{}, nil, true)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("code1", newURL).
			WillReturnRows(rows)

		url, err := repo.Update(context.TODO(), "code1", models.URLUpdate{OriginalURL: &newURL})

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, newURL, url.OriginalURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deactivation", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 0, time.Time{}, time.Time{}, nil, false)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("code1", false).
			WillReturnRows(rows)

		url, err := repo.Update(context.TODO(), "code1", models.URLUpdate{IsActive: &inactive})

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.False(t, url.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_Delete(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("affected rows error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewErrorResult(errAffectedRows))

		err := repo.Delete(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errAffectedRows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`DELETE FROM urls`).
			WithArgs("code1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_IncrementClicks(t *testing.T) {
	t.Run("url not found", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("code1").
			WillReturnRows(sqlmock.NewRows(columns))

		url, err := repo.IncrementClicks(context.TODO(), "code1")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrURLNotFound)
		assert.Nil(t, url)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(1, "code1", "https://example.com", 6, time.Time{}, time.Time{}, nil, true)

		mock.ExpectQuery(`UPDATE urls`).
			WithArgs("code1").
			WillReturnRows(rows)

		url, err := repo.IncrementClicks(context.TODO(), "code1")

		assert.NoError(t, err)
		assert.NotNil(t, url)
		assert.Equal(t, int64(6), url.Clicks)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_InsertClick(t *testing.T) {
	click := &models.ClickEvent{
		URLID:     1,
		IPAddress: "203.0.113.7",
		UserAgent: "curl/8.0",
		Referrer:  "https://referrer.example.com",
	}

	t.Run("unknown error", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`INSERT INTO click_analytics`).
			WithArgs(click.URLID, click.IPAddress, click.UserAgent, click.Referrer).
			WillReturnError(errUnknown)

		err := repo.InsertClick(context.TODO(), click)

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectExec(`INSERT INTO click_analytics`).
			WithArgs(click.URLID, click.IPAddress, click.UserAgent, click.Referrer).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.InsertClick(context.TODO(), click)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_List(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		rows := sqlmock.NewRows(columns).
			AddRow(2, "code2", "https://two.example.com", 0, time.Time{}, time.Time{}, nil, true).
			AddRow(1, "code1", "https://one.example.com", 3, time.Time{}, time.Time{}, nil, true)

		mock.ExpectQuery(`SELECT \* FROM urls`).
			WithArgs(10, 0).
			WillReturnRows(rows)

		urls, err := repo.List(context.TODO(), 10, 0)

		assert.NoError(t, err)
		assert.Len(t, urls, 2)
		assert.Equal(t, "code2", urls[0].ShortCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestURLRepository_Count(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo, mock := setupURLRepository(t)

		mock.ExpectQuery(`SELECT count`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		count, err := repo.Count(context.TODO())

		assert.NoError(t, err)
		assert.Equal(t, int64(42), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
