package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/kopisync/internal/models"
)

const concertColumns = `id, kopis_id, title, venue_id, venue_kopis_id, facility_name, start_date, end_date, concert_time,
	poster_url, status, genre, area, cast_members, crew_members, runtime, age_restriction, synopsis, price_info,
	production_company, production_company_plan, production_company_agency, production_company_host,
	production_company_sponsor, is_open_run, is_visit, is_child, is_daehakro, is_festival, kopis_updated_at,
	data_source, created_at, updated_at`

// ConcertRepository persists performances and their child rows.
type ConcertRepository struct {
	db *sql.DB
}

// NewConcertRepository creates a new ConcertRepository with the given database connection
func NewConcertRepository(db *sql.DB) *ConcertRepository {
	return &ConcertRepository{db: db}
}

// GetByKopisID retrieves a concert by its provider performance id.
func (r *ConcertRepository) GetByKopisID(ctx context.Context, kopisID string) (*models.Concert, error) {
	query := `SELECT ` + concertColumns + ` FROM concerts WHERE kopis_id = ?`
	return r.scan(r.db.QueryRowContext(ctx, query, kopisID), kopisID)
}

// Upsert inserts the concert or updates the row with the same kopis_id in place.
//
// On return c.ID holds the local id.
func (r *ConcertRepository) Upsert(ctx context.Context, c *models.Concert) (created bool, err error) {
	if err := c.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	if c.KopisID != nil {
		var id int64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM concerts WHERE kopis_id = ?`, *c.KopisID).Scan(&id)
		switch {
		case err == nil:
			c.ID = id
			return false, r.update(ctx, c)
		case err != sql.ErrNoRows:
			return false, fmt.Errorf("failed to look up concert: %w", err)
		}
	}

	return true, r.insert(ctx, c)
}

func (r *ConcertRepository) args(c *models.Concert) []any {
	return []any{
		c.KopisID, c.Title, c.VenueID, c.VenueKopisID, c.FacilityName, dateArg(c.StartDate), dateArg(c.EndDate),
		c.ConcertTime, c.PosterURL, string(c.Status), c.Genre, c.Area, c.Cast, c.Crew, c.Runtime, c.AgeLimit,
		c.Synopsis, c.PriceInfo, c.ProductionCompany, c.ProductionCompanyPlan, c.ProductionCompanyAgency,
		c.ProductionCompanyHost, c.ProductionCompanySponsor, c.IsOpenRun, c.IsVisit, c.IsChild, c.IsDaehakro,
		c.IsFestival, timestampArg(c.KopisUpdatedAt), c.DataSource,
	}
}

func (r *ConcertRepository) insert(ctx context.Context, c *models.Concert) error {
	query := `
		INSERT INTO concerts (kopis_id, title, venue_id, venue_kopis_id, facility_name, start_date, end_date,
			concert_time, poster_url, status, genre, area, cast_members, crew_members, runtime, age_restriction,
			synopsis, price_info, production_company, production_company_plan, production_company_agency,
			production_company_host, production_company_sponsor, is_open_run, is_visit, is_child, is_daehakro,
			is_festival, kopis_updated_at, data_source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query, r.args(c)...)
	if err != nil {
		return fmt.Errorf("failed to insert concert: %w", err)
	}

	c.ID, err = insertID(res)
	return err
}

func (r *ConcertRepository) update(ctx context.Context, c *models.Concert) error {
	query := `
		UPDATE concerts
		SET kopis_id = ?, title = ?, venue_id = ?, venue_kopis_id = ?, facility_name = ?, start_date = ?,
			end_date = ?, concert_time = ?, poster_url = ?, status = ?, genre = ?, area = ?, cast_members = ?,
			crew_members = ?, runtime = ?, age_restriction = ?, synopsis = ?, price_info = ?,
			production_company = ?, production_company_plan = ?, production_company_agency = ?,
			production_company_host = ?, production_company_sponsor = ?, is_open_run = ?, is_visit = ?,
			is_child = ?, is_daehakro = ?, is_festival = ?, kopis_updated_at = ?, data_source = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := r.db.ExecContext(ctx, query, append(r.args(c), c.ID)...); err != nil {
		return fmt.Errorf("failed to update concert: %w", err)
	}
	return nil
}

// Count returns the number of concerts.
func (r *ConcertRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM concerts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count concerts: %w", err)
	}
	return n, nil
}

// ReplaceTicketVendors deletes the concert's vendors and inserts vendors in order.
//
// display_order is the position in vendors.
func (r *ConcertRepository) ReplaceTicketVendors(ctx context.Context, concertID int64, vendors []models.TicketVendor) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM concert_ticket_vendors WHERE concert_id = ?`, concertID); err != nil {
			return fmt.Errorf("failed to delete ticket vendors: %w", err)
		}

		for i, v := range vendors {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO concert_ticket_vendors (concert_id, vendor_name, vendor_url, display_order) VALUES (?, ?, ?, ?)`,
				concertID, v.VendorName, v.VendorURL, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert ticket vendor: %w", err)
			}
		}
		return nil
	})
}

// ListTicketVendors returns the concert's vendors in display order.
func (r *ConcertRepository) ListTicketVendors(ctx context.Context, concertID int64) ([]models.TicketVendor, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, concert_id, vendor_name, vendor_url, display_order
		FROM concert_ticket_vendors
		WHERE concert_id = ?
		ORDER BY display_order ASC
	`, concertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket vendors: %w", err)
	}
	defer rows.Close()

	var vendors []models.TicketVendor
	for rows.Next() {
		var v models.TicketVendor
		if err := rows.Scan(&v.ID, &v.ConcertID, &v.VendorName, &v.VendorURL, &v.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan ticket vendor: %w", err)
		}
		vendors = append(vendors, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return vendors, nil
}

// ReplaceImages deletes the concert's images of imageType and inserts urls in order.
func (r *ConcertRepository) ReplaceImages(ctx context.Context, concertID int64, imageType models.ImageType, urls []string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM concert_images WHERE concert_id = ? AND image_type = ?`, concertID, string(imageType))
		if err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}

		for i, u := range urls {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO concert_images (concert_id, image_url, image_type, display_order) VALUES (?, ?, ?, ?)`,
				concertID, u, string(imageType), i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert image: %w", err)
			}
		}
		return nil
	})
}

// ListImages returns the concert's images of imageType in display order.
func (r *ConcertRepository) ListImages(ctx context.Context, concertID int64, imageType models.ImageType) ([]models.ConcertImage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, concert_id, image_url, image_type, display_order
		FROM concert_images
		WHERE concert_id = ? AND image_type = ?
		ORDER BY display_order ASC
	`, concertID, string(imageType))
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []models.ConcertImage
	for rows.Next() {
		var img models.ConcertImage
		if err := rows.Scan(&img.ID, &img.ConcertID, &img.ImageURL, &img.ImageType, &img.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return images, nil
}

// LinkArtist associates an artist with a concert. linked is false when the pair already existed.
func (r *ConcertRepository) LinkArtist(ctx context.Context, concertID, artistID int64) (linked bool, err error) {
	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM concert_artists WHERE concert_id = ? AND artist_id = ?)`, concertID, artistID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check concert artist: %w", err)
	}
	if exists {
		return false, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO concert_artists (concert_id, artist_id) VALUES (?, ?)`, concertID, artistID,
	); err != nil {
		return false, fmt.Errorf("failed to link artist: %w", err)
	}
	return true, nil
}

// ListArtistIDs returns the ids of the artists linked to a concert.
func (r *ConcertRepository) ListArtistIDs(ctx context.Context, concertID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT artist_id FROM concert_artists WHERE concert_id = ? ORDER BY artist_id ASC`, concertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query concert artists: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan concert artist: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

func (r *ConcertRepository) scan(row scanner, key any) (*models.Concert, error) {
	var c models.Concert
	err := row.Scan(
		&c.ID, &c.KopisID, &c.Title, &c.VenueID, &c.VenueKopisID, &c.FacilityName, &c.StartDate, &c.EndDate,
		&c.ConcertTime, &c.PosterURL, &c.Status, &c.Genre, &c.Area, &c.Cast, &c.Crew, &c.Runtime, &c.AgeLimit,
		&c.Synopsis, &c.PriceInfo, &c.ProductionCompany, &c.ProductionCompanyPlan, &c.ProductionCompanyAgency,
		&c.ProductionCompanyHost, &c.ProductionCompanySponsor, &c.IsOpenRun, &c.IsVisit, &c.IsChild,
		&c.IsDaehakro, &c.IsFestival, &c.KopisUpdatedAt, &c.DataSource, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "concert", key)
	}
	return &c, nil
}
