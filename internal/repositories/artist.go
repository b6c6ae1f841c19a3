package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/kopisync/internal/models"
)

// ArtistRepository persists known performers.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// FindByName returns the oldest artist whose name matches exactly.
func (r *ArtistRepository) FindByName(ctx context.Context, name string) (*models.Artist, error) {
	var a models.Artist
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, english_name, created_at FROM artists WHERE name = ? ORDER BY id ASC LIMIT 1`, name,
	).Scan(&a.ID, &a.Name, &a.EnglishName, &a.CreatedAt)
	if err != nil {
		return nil, notFound(err, "artist", name)
	}
	return &a, nil
}

// Create inserts an artist and sets its id.
func (r *ArtistRepository) Create(ctx context.Context, a *models.Artist) error {
	if a.Name == "" {
		return fmt.Errorf("validation failed: artist name is required")
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO artists (name, english_name) VALUES (?, ?)`, a.Name, a.EnglishName)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	a.ID, err = insertID(res)
	return err
}
