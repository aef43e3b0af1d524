package service

import (
	"context"
	"errors"
	"testing"

	"cclink/internal/database"
	"cclink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var errUnknown = errors.New("unknown error")

type MockMappingRepository struct {
	mock.Mock
}

func (r *MockMappingRepository) Create(ctx context.Context, code, originalURL string) (*models.Mapping, error) {
	args := r.Called(ctx, code, originalURL)
	mapping, _ := args.Get(0).(*models.Mapping)
	return mapping, args.Error(1)
}

func (r *MockMappingRepository) GetByCode(ctx context.Context, code string) (*models.Mapping, error) {
	args := r.Called(ctx, code)
	mapping, _ := args.Get(0).(*models.Mapping)
	return mapping, args.Error(1)
}

func (r *MockMappingRepository) GetByURL(ctx context.Context, originalURL string) (*models.Mapping, error) {
	args := r.Called(ctx, originalURL)
	mapping, _ := args.Get(0).(*models.Mapping)
	return mapping, args.Error(1)
}

func (r *MockMappingRepository) List(ctx context.Context) ([]models.Mapping, error) {
	args := r.Called(ctx)
	mappings, _ := args.Get(0).([]models.Mapping)
	return mappings, args.Error(1)
}

func setupMappingService(t testing.TB) (*MappingService, *MockMappingRepository) {
	t.Helper()

	repoMock := new(MockMappingRepository)
	svc := NewMappingService(repoMock, 6)

	t.Cleanup(func() {
		repoMock.AssertExpectations(t)
	})

	return svc, repoMock
}

func TestMappingService_ShortenURL(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrMappingNotFound)
		repoMock.
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(1).
			Return(&models.Mapping{Code: "abc123", OriginalURL: "https://example.com"}, nil)

		mapping, created, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.NoError(t, err)
		assert.True(t, created)
		assert.NotNil(t, mapping)
		assert.Equal(t, "abc123", mapping.Code)
	})

	t.Run("generated code has configured length", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrMappingNotFound)
		repoMock.
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(1).
			Run(func(args mock.Arguments) {
				assert.Len(t, args.String(1), 6)
			}).
			Return(&models.Mapping{Code: "abc123", OriginalURL: "https://example.com"}, nil)

		_, _, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.NoError(t, err)
	})

	t.Run("existing url returns existing mapping", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(&models.Mapping{Code: "abc123", OriginalURL: "https://example.com"}, nil)

		mapping, created, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.NoError(t, err)
		assert.False(t, created)
		assert.NotNil(t, mapping)
		assert.Equal(t, "abc123", mapping.Code)
		repoMock.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retries on code collision", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrMappingNotFound)
		repoMock.
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(1).
			Return(nil, database.ErrCodeExists).
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(1).
			Return(&models.Mapping{Code: "xyz789", OriginalURL: "https://example.com"}, nil)

		mapping, created, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.NoError(t, err)
		assert.True(t, created)
		assert.NotNil(t, mapping)
		assert.Equal(t, "xyz789", mapping.Code)
	})

	t.Run("lost race on identical url", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrMappingNotFound)
		repoMock.
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(1).
			Return(nil, database.ErrURLExists)
		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(&models.Mapping{Code: "abc123", OriginalURL: "https://example.com"}, nil)

		mapping, created, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.NoError(t, err)
		assert.False(t, created)
		assert.NotNil(t, mapping)
		assert.Equal(t, "abc123", mapping.Code)
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrMappingNotFound)
		repoMock.
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(5).
			Return(nil, database.ErrCodeExists)

		mapping, created, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.False(t, created)
		assert.Nil(t, mapping)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByURL", mock.Anything, "https://example.com").
			Times(1).
			Return(nil, database.ErrMappingNotFound)
		repoMock.
			On("Create", mock.Anything, mock.AnythingOfType("string"), "https://example.com").
			Times(1).
			Return(nil, errUnknown)

		mapping, created, err := svc.ShortenURL(context.TODO(), "https://example.com")

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.False(t, created)
		assert.Nil(t, mapping)
	})
}

func TestMappingService_ResolveCode(t *testing.T) {
	t.Run("mapping not found", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByCode", mock.Anything, "abc123").
			Times(1).
			Return(nil, database.ErrMappingNotFound)

		mapping, err := svc.ResolveCode(context.TODO(), "abc123")

		assert.Error(t, err)
		assert.ErrorIs(t, err, database.ErrMappingNotFound)
		assert.Nil(t, mapping)
	})

	t.Run("success", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("GetByCode", mock.Anything, "abc123").
			Times(1).
			Return(&models.Mapping{Code: "abc123", OriginalURL: "https://example.com"}, nil)

		mapping, err := svc.ResolveCode(context.TODO(), "abc123")

		assert.NoError(t, err)
		assert.NotNil(t, mapping)
		assert.Equal(t, "https://example.com", mapping.OriginalURL)
	})
}

func TestMappingService_ListMappings(t *testing.T) {
	t.Run("repository error", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		repoMock.
			On("List", mock.Anything).
			Times(1).
			Return(nil, errUnknown)

		mappings, err := svc.ListMappings(context.TODO())

		assert.Error(t, err)
		assert.ErrorIs(t, err, errUnknown)
		assert.Nil(t, mappings)
	})

	t.Run("success", func(t *testing.T) {
		svc, repoMock := setupMappingService(t)

		want := []models.Mapping{
			{Code: "abc123", OriginalURL: "https://example.com"},
			{Code: "xyz789", OriginalURL: "https://example.org"},
		}

		repoMock.
			On("List", mock.Anything).
			Times(1).
			Return(want, nil)

		mappings, err := svc.ListMappings(context.TODO())

		assert.NoError(t, err)
		assert.Equal(t, want, mappings)
	})
}
