package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/kopisync/internal/models"
)

// HallRepository persists the stages of a venue.
type HallRepository struct {
	db *sql.DB
}

// NewHallRepository creates a new HallRepository with the given database connection
func NewHallRepository(db *sql.DB) *HallRepository {
	return &HallRepository{db: db}
}

// Upsert inserts the hall or updates the row with the same kopis_id, always pointing it at h.VenueID.
func (r *HallRepository) Upsert(ctx context.Context, h *models.Hall) (created bool, err error) {
	if err := h.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	if h.KopisID != nil {
		var id int64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM halls WHERE kopis_id = ?`, *h.KopisID).Scan(&id)
		switch {
		case err == nil:
			h.ID = id
			_, err := r.db.ExecContext(ctx, `
				UPDATE halls
				SET venue_id = ?, name = ?, seats = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
				WHERE id = ?
			`, h.VenueID, h.Name, h.Seats, h.IsActive, h.ID)
			if err != nil {
				return false, fmt.Errorf("failed to update hall: %w", err)
			}
			return false, nil
		case err != sql.ErrNoRows:
			return false, fmt.Errorf("failed to look up hall: %w", err)
		}
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO halls (venue_id, kopis_id, name, seats, is_active) VALUES (?, ?, ?, ?, ?)`,
		h.VenueID, h.KopisID, h.Name, h.Seats, h.IsActive,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert hall: %w", err)
	}
	if h.ID, err = insertID(res); err != nil {
		return false, err
	}
	return true, nil
}

// ListByVenue returns the halls of a venue ordered by id.
func (r *HallRepository) ListByVenue(ctx context.Context, venueID int64) ([]*models.Hall, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, venue_id, kopis_id, name, seats, is_active FROM halls WHERE venue_id = ? ORDER BY id ASC`, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query halls: %w", err)
	}
	defer rows.Close()

	var halls []*models.Hall
	for rows.Next() {
		var h models.Hall
		if err := rows.Scan(&h.ID, &h.VenueID, &h.KopisID, &h.Name, &h.Seats, &h.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan hall: %w", err)
		}
		halls = append(halls, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return halls, nil
}
