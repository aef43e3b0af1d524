package service

import (
	"context"
	"errors"
	"fmt"

	"cclink/internal/database"
	"cclink/internal/models"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// ErrMaxRetriesExceeded is returned when the maximum number of retries for generating a short code is exceeded.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

// codeAlphabet is the alphabet short codes are drawn from. Six characters
// give 62^6 (~5.7e10) combinations, which keeps collisions rare at any
// realistic store size.
const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// MappingRepository defines the interface for working with mappings at the business logic layer.
type MappingRepository interface {
	// Create inserts a new mapping if neither the code nor the URL is taken.
	// Returns database.ErrCodeExists or database.ErrURLExists on conflict.
	Create(ctx context.Context, code, originalURL string) (*models.Mapping, error)

	// GetByCode retrieves a mapping by its short code.
	// Returns database.ErrMappingNotFound if no mapping exists.
	GetByCode(ctx context.Context, code string) (*models.Mapping, error)

	// GetByURL retrieves a mapping by its original URL.
	// Returns database.ErrMappingNotFound if no mapping exists.
	GetByURL(ctx context.Context, originalURL string) (*models.Mapping, error)

	// List returns every stored mapping.
	List(ctx context.Context) ([]models.Mapping, error)
}

// MappingService assigns short codes and resolves them back to URLs.
type MappingService struct {
	repo       MappingRepository
	codeLength int
}

// NewMappingService creates a new MappingService with the provided repository and short code length.
func NewMappingService(repo MappingRepository, codeLength int) *MappingService {
	return &MappingService{
		repo:       repo,
		codeLength: codeLength,
	}
}

// ShortenURL assigns a short code to originalURL and stores the mapping.
// If the URL has been shortened before, the existing mapping is returned
// and created is false. Candidate codes are generated at random and
// retried on collision up to a bounded number of attempts.
func (s *MappingService) ShortenURL(ctx context.Context, originalURL string) (mapping *models.Mapping, created bool, err error) {
	const op = "service.MappingService.ShortenURL"
	const maxRetries = 5

	existing, err := s.repo.GetByURL(ctx, originalURL)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, database.ErrMappingNotFound) {
		return nil, false, fmt.Errorf("%s: failed to look up url: %w", op, err)
	}

	for i := 0; i < maxRetries; i++ {
		code, err := gonanoid.Generate(codeAlphabet, s.codeLength)
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		mapping, err := s.repo.Create(ctx, code, originalURL)
		if err != nil {
			if errors.Is(err, database.ErrCodeExists) {
				continue
			}

			if errors.Is(err, database.ErrURLExists) {
				// Lost a race against a concurrent shorten of the same URL;
				// the winner's mapping is the one to hand back.
				existing, err := s.repo.GetByURL(ctx, originalURL)
				if err != nil {
					return nil, false, fmt.Errorf("%s: failed to look up url: %w", op, err)
				}
				return existing, false, nil
			}

			return nil, false, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return mapping, true, nil
	}

	return nil, false, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveCode retrieves the mapping associated with the provided short code.
func (s *MappingService) ResolveCode(ctx context.Context, code string) (*models.Mapping, error) {
	const op = "service.MappingService.ResolveCode"

	mapping, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return mapping, nil
}

// ListMappings returns every stored mapping.
func (s *MappingService) ListMappings(ctx context.Context) ([]models.Mapping, error) {
	const op = "service.MappingService.ListMappings"

	mappings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list mappings: %w", op, err)
	}

	return mappings, nil
}
