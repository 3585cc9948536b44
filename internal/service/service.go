package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/dmitryglazkov/shortly/internal/cache"
	"github.com/dmitryglazkov/shortly/internal/models"
)

var (
	// ErrInvalidURL is returned when the original URL is not a well-formed absolute URL.
	ErrInvalidURL = errors.New("invalid original url")
	// ErrEmptyUpdate is returned when an update request contains no fields to change.
	ErrEmptyUpdate = errors.New("no fields to update")
	// ErrURLDeactivated is returned when the mapping exists but has been deactivated.
	ErrURLDeactivated = errors.New("url is deactivated")
	// ErrURLExpired is returned when the mapping exists but its expiration has passed.
	ErrURLExpired = errors.New("url has expired")
)

const shortCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// URLRepository defines the interface for working with URLs at the business logic layer.
type URLRepository interface {
	// Create inserts a new shortened URL. Returns database.ErrShortCodeExists
	// when the short code is already taken.
	Create(ctx context.Context, shortCode, originalURL string, expiresAt *time.Time) (*models.URL, error)

	// GetByShortCode retrieves a URL by its short code without side effects.
	GetByShortCode(ctx context.Context, shortCode string) (*models.URL, error)

	// Update applies a partial patch to a URL and refreshes its update timestamp.
	Update(ctx context.Context, shortCode string, upd models.URLUpdate) (*models.URL, error)

	// Delete removes a URL by its short code.
	Delete(ctx context.Context, shortCode string) error

	// List returns a page of URLs ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]models.URL, error)

	// Count returns the total number of stored URLs.
	Count(ctx context.Context) (int64, error)

	// IncrementClicks atomically increments the click counter of a URL.
	IncrementClicks(ctx context.Context, shortCode string) (*models.URL, error)

	// InsertClick records a single click analytics event.
	InsertClick(ctx context.Context, click *models.ClickEvent) error
}

// URLCache is the fail-open cache consulted on the redirect path. All methods
// degrade to no-ops or absent results on failure; none return errors.
type URLCache interface {
	SetURL(ctx context.Context, url *models.URL, ttl time.Duration)
	GetURL(ctx context.Context, shortCode string) *models.URL
	DeleteURL(ctx context.Context, shortCode string)
}

// ClickInfo carries the request metadata recorded with each redirect.
type ClickInfo struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// URLService implements the redirect resolution and mutation flows over a
// URL repository and a fail-open cache.
type URLService struct {
	repo            URLRepository
	cache           URLCache
	logger          *slog.Logger
	shortCodeLength int

	wg sync.WaitGroup
}

// NewURLService creates a new instance of URLService with the provided
// repository, cache and short code length.
func NewURLService(repo URLRepository, urlCache URLCache, logger *slog.Logger, shortCodeLength int) *URLService {
	return &URLService{
		repo:            repo,
		cache:           urlCache,
		logger:          logger,
		shortCodeLength: shortCodeLength,
	}
}

// checkServable is the single gate deciding whether a mapping may serve
// redirects. Both the redirect path and the explicit click increment go
// through it.
func checkServable(url *models.URL) error {
	if !url.IsActive {
		return ErrURLDeactivated
	}
	if url.Expired(time.Now()) {
		return ErrURLExpired
	}

	return nil
}

func validOriginalURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}

// Resolve returns the servable mapping for a short code, consulting the cache
// first and falling back to the database on a miss. On success it records the
// click in the background; the caller never waits for analytics writes.
func (s *URLService) Resolve(ctx context.Context, shortCode string, click ClickInfo) (*models.URL, error) {
	const op = "service.URLService.Resolve"

	mapping := s.cache.GetURL(ctx, shortCode)
	hit := mapping != nil

	if !hit {
		var err error

		mapping, err = s.repo.GetByShortCode(ctx, shortCode)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
		}
	}

	if err := checkServable(mapping); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !hit {
		s.cache.SetURL(ctx, mapping, cache.TTLFor(mapping, time.Now()))
	}

	s.recordClick(mapping, click)

	return mapping, nil
}

// recordClick launches the analytics insert and the click increment as two
// independent background writes. Failures are logged and discarded; they must
// never affect the already-decided redirect response.
func (s *URLService) recordClick(mapping *models.URL, click ClickInfo) {
	event := &models.ClickEvent{
		URLID:     mapping.ID,
		IPAddress: click.IPAddress,
		UserAgent: click.UserAgent,
		Referrer:  click.Referrer,
	}
	shortCode := mapping.ShortCode

	s.wg.Add(2)

	go func() {
		defer s.wg.Done()

		if err := s.repo.InsertClick(context.Background(), event); err != nil {
			s.logger.Error("failed to record click analytics",
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}
	}()

	go func() {
		defer s.wg.Done()

		if _, err := s.repo.IncrementClicks(context.Background(), shortCode); err != nil {
			s.logger.Error("failed to increment clicks",
				slog.String("short_code", shortCode),
				slog.Any("err", err),
			)
		}
	}()
}

// Wait blocks until all background analytics writes have finished. Used on
// shutdown so in-flight click records are not lost.
func (s *URLService) Wait() {
	s.wg.Wait()
}

// Shorten creates a new mapping for the original URL under the supplied
// custom code, or a generated one when no custom code is given. The new
// mapping is cached ahead of its first read.
func (s *URLService) Shorten(ctx context.Context, originalURL, customCode string, expiresAt *time.Time) (*models.URL, error) {
	const op = "service.URLService.Shorten"

	if !validOriginalURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidURL)
	}

	shortCode := customCode
	if shortCode == "" {
		var err error

		shortCode, err = gonanoid.Generate(shortCodeAlphabet, s.shortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}
	}

	mapping, err := s.repo.Create(ctx, shortCode, originalURL, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
	}

	s.cache.SetURL(ctx, mapping, cache.TTLFor(mapping, time.Now()))

	return mapping, nil
}

// Update applies a partial patch to an existing mapping. On success the cache
// entry is invalidated, strictly after the database write; the next read
// repopulates it through the miss path.
func (s *URLService) Update(ctx context.Context, shortCode string, upd models.URLUpdate) (*models.URL, error) {
	const op = "service.URLService.Update"

	if upd.Empty() {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyUpdate)
	}

	mapping, err := s.repo.Update(ctx, shortCode, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update url: %w", op, err)
	}

	s.cache.DeleteURL(ctx, shortCode)

	return mapping, nil
}

// Delete removes a mapping and invalidates its cache entry.
func (s *URLService) Delete(ctx context.Context, shortCode string) error {
	const op = "service.URLService.Delete"

	if err := s.repo.Delete(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	s.cache.DeleteURL(ctx, shortCode)

	return nil
}

// RegisterClick is the explicit, synchronous click increment. Unlike the
// redirect path it never touches the cache: it is a direct read-modify-write
// against the database, gated by the same servable predicate.
func (s *URLService) RegisterClick(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.RegisterClick"

	mapping, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	if err := checkServable(mapping); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mapping, err = s.repo.IncrementClicks(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to increment clicks: %w", op, err)
	}

	return mapping, nil
}

// Get retrieves a mapping directly from the database, bypassing the cache.
func (s *URLService) Get(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "service.URLService.Get"

	mapping, err := s.repo.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url: %w", op, err)
	}

	return mapping, nil
}

// List returns a page of mappings and the total number of stored mappings.
func (s *URLService) List(ctx context.Context, page, limit int) ([]models.URL, int64, error) {
	const op = "service.URLService.List"

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count urls: %w", op, err)
	}

	urls, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to list urls: %w", op, err)
	}

	return urls, total, nil
}
