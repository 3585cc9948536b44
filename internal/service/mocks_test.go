package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitryglazkov/shortly/internal/models"
)

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error) {
	args := r.Called(ctx, shortCode, originalURL, expiresAt)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Update(ctx context.Context, shortCode string, upd models.URLUpdate) (*models.URL, error) {
	args := r.Called(ctx, shortCode, upd)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Delete(ctx context.Context, shortCode string) error {
	args := r.Called(ctx, shortCode)
	return args.Error(0)
}

func (r *MockURLRepository) List(ctx context.Context, limit, offset int) ([]models.URL, error) {
	args := r.Called(ctx, limit, offset)
	urls, _ := args.Get(0).([]models.URL)
	return urls, args.Error(1)
}

func (r *MockURLRepository) Count(ctx context.Context) (int64, error) {
	args := r.Called(ctx)
	count, _ := args.Get(0).(int64)
	return count, args.Error(1)
}

func (r *MockURLRepository) IncrementClicks(ctx context.Context, shortCode string) (*models.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) InsertClick(ctx context.Context, click *models.ClickEvent) error {
	args := r.Called(ctx, click)
	return args.Error(0)
}

type MockURLCache struct {
	mock.Mock
}

func (c *MockURLCache) SetURL(ctx context.Context, url *models.URL, ttl time.Duration) {
	c.Called(ctx, url, ttl)
}

func (c *MockURLCache) GetURL(ctx context.Context, shortCode string) *models.URL {
	args := c.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url
}

func (c *MockURLCache) DeleteURL(ctx context.Context, shortCode string) {
	c.Called(ctx, shortCode)
}
