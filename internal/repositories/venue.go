package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/kopisync/internal/models"
)

const venueColumns = `id, kopis_id, name, address, city, province, country, seats, hall_count, opening_year,
	facility_type, phone, website, latitude, longitude, is_active, data_source, created_at, updated_at`

// VenueRepository persists performance facilities.
type VenueRepository struct {
	db *sql.DB
}

// NewVenueRepository creates a new VenueRepository with the given database connection
func NewVenueRepository(db *sql.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// Get retrieves a venue by local id.
func (r *VenueRepository) Get(ctx context.Context, id int64) (*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE id = ?`
	return r.scan(r.db.QueryRowContext(ctx, query, id), id)
}

// GetByKopisID retrieves a venue by its provider facility id.
func (r *VenueRepository) GetByKopisID(ctx context.Context, kopisID string) (*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE kopis_id = ?`
	return r.scan(r.db.QueryRowContext(ctx, query, kopisID), kopisID)
}

// Upsert inserts the venue or updates the row with the same kopis_id in place.
//
// On return v.ID holds the local id. created reports whether a new row was inserted.
func (r *VenueRepository) Upsert(ctx context.Context, v *models.Venue) (created bool, err error) {
	if err := v.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	if v.KopisID != nil {
		var id int64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM venues WHERE kopis_id = ?`, *v.KopisID).Scan(&id)
		switch {
		case err == nil:
			v.ID = id
			return false, r.update(ctx, v)
		case err != sql.ErrNoRows:
			return false, fmt.Errorf("failed to look up venue: %w", err)
		}
	}

	return true, r.insert(ctx, v)
}

func (r *VenueRepository) insert(ctx context.Context, v *models.Venue) error {
	query := `
		INSERT INTO venues (kopis_id, name, address, city, province, country, seats, hall_count, opening_year,
			facility_type, phone, website, latitude, longitude, is_active, data_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		v.KopisID, v.Name, v.Address, v.City, v.Province, v.Country, v.Seats, v.HallCount, v.OpeningYear,
		v.FacilityType, v.Phone, v.Website, v.Latitude, v.Longitude, v.IsActive, v.DataSource,
	)
	if err != nil {
		return fmt.Errorf("failed to insert venue: %w", err)
	}

	v.ID, err = insertID(res)
	return err
}

func (r *VenueRepository) update(ctx context.Context, v *models.Venue) error {
	query := `
		UPDATE venues
		SET name = ?, address = ?, city = ?, province = ?, country = ?, seats = ?, hall_count = ?, opening_year = ?,
			facility_type = ?, phone = ?, website = ?, latitude = ?, longitude = ?, is_active = ?, data_source = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		v.Name, v.Address, v.City, v.Province, v.Country, v.Seats, v.HallCount, v.OpeningYear,
		v.FacilityType, v.Phone, v.Website, v.Latitude, v.Longitude, v.IsActive, v.DataSource, v.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	return nil
}

// Count returns the number of venues.
func (r *VenueRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count venues: %w", err)
	}
	return n, nil
}

func (r *VenueRepository) scan(row scanner, key any) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(
		&v.ID, &v.KopisID, &v.Name, &v.Address, &v.City, &v.Province, &v.Country, &v.Seats, &v.HallCount,
		&v.OpeningYear, &v.FacilityType, &v.Phone, &v.Website, &v.Latitude, &v.Longitude, &v.IsActive,
		&v.DataSource, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "venue", key)
	}
	return &v, nil
}
