package http

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitryglazkov/shortly/internal/models"
	"github.com/dmitryglazkov/shortly/internal/service"
)

type MockURLService struct {
	mock.Mock
}

func (s *MockURLService) Resolve(ctx context.Context, shortCode string, click service.ClickInfo) (*models.URL, error) {
	args := s.Called(ctx, shortCode, click)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) Shorten(ctx context.Context, originalURL, customCode string, expiresAt *time.Time) (*models.URL, error) {
	args := s.Called(ctx, originalURL, customCode, expiresAt)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) Update(ctx context.Context, shortCode string, upd models.URLUpdate) (*models.URL, error) {
	args := s.Called(ctx, shortCode, upd)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) Delete(ctx context.Context, shortCode string) error {
	args := s.Called(ctx, shortCode)
	return args.Error(0)
}

func (s *MockURLService) RegisterClick(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) Get(ctx context.Context, shortCode string) (*models.URL, error) {
	args := s.Called(ctx, shortCode)
	url, _ := args.Get(0).(*models.URL)
	return url, args.Error(1)
}

func (s *MockURLService) List(ctx context.Context, page, limit int) ([]models.URL, int64, error) {
	args := s.Called(ctx, page, limit)
	urls, _ := args.Get(0).([]models.URL)
	total, _ := args.Get(1).(int64)
	return urls, total, args.Error(2)
}
