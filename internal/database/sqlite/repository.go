package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cclink/internal/database"
	"cclink/internal/models"

	"github.com/jmoiron/sqlx"
)

type mappingRecord struct {
	ID          int64     `db:"id"`
	Code        string    `db:"code"`
	OriginalURL string    `db:"original_url"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *mappingRecord) ToMapping() *models.Mapping {
	return &models.Mapping{
		ID:          r.ID,
		Code:        r.Code,
		OriginalURL: r.OriginalURL,
		CreatedAt:   r.CreatedAt,
	}
}

// MappingRepository persists code to URL mappings in a SQLite database.
// Uniqueness of both the code and the original URL is enforced by the
// schema, so inserts are atomic insert-if-absent operations.
type MappingRepository struct {
	db *sqlx.DB
}

func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{
		db: db,
	}
}

func (r *MappingRepository) Create(ctx context.Context, code, originalURL string) (*models.Mapping, error) {
	const op = "database.sqlite.MappingRepository.Create"

	rec := new(mappingRecord)
	query := `INSERT INTO mappings(code, original_url)
		VALUES (?, ?)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, code, originalURL)
	if err != nil {
		if isUniqueViolation(err, "mappings.code") {
			return nil, fmt.Errorf("%s: %w", op, database.ErrCodeExists)
		}
		if isUniqueViolation(err, "mappings.original_url") {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLExists)
		}

		return nil, fmt.Errorf("%s: failed to create mapping record: %w", op, err)
	}

	return rec.ToMapping(), nil
}

func (r *MappingRepository) GetByCode(ctx context.Context, code string) (*models.Mapping, error) {
	const op = "database.sqlite.MappingRepository.GetByCode"

	rec := new(mappingRecord)
	query := `SELECT * FROM mappings WHERE code = ?`

	err := r.db.GetContext(ctx, rec, query, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrMappingNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get mapping record: %w", op, err)
	}

	return rec.ToMapping(), nil
}

func (r *MappingRepository) GetByURL(ctx context.Context, originalURL string) (*models.Mapping, error) {
	const op = "database.sqlite.MappingRepository.GetByURL"

	rec := new(mappingRecord)
	query := `SELECT * FROM mappings WHERE original_url = ?`

	err := r.db.GetContext(ctx, rec, query, originalURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrMappingNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get mapping record: %w", op, err)
	}

	return rec.ToMapping(), nil
}

// List returns every stored mapping in insertion order.
func (r *MappingRepository) List(ctx context.Context) ([]models.Mapping, error) {
	const op = "database.sqlite.MappingRepository.List"

	var recs []mappingRecord
	query := `SELECT * FROM mappings ORDER BY id`

	if err := r.db.SelectContext(ctx, &recs, query); err != nil {
		return nil, fmt.Errorf("%s: failed to list mapping records: %w", op, err)
	}

	mappings := make([]models.Mapping, 0, len(recs))
	for i := range recs {
		mappings = append(mappings, *recs[i].ToMapping())
	}

	return mappings, nil
}
