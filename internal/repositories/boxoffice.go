package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/kopisync/internal/models"
)

// BoxofficeRepository persists box-office ranking slots.
type BoxofficeRepository struct {
	db *sql.DB
}

// NewBoxofficeRepository creates a new BoxofficeRepository with the given database connection
func NewBoxofficeRepository(db *sql.DB) *BoxofficeRepository {
	return &BoxofficeRepository{db: db}
}

// slotFilter builds the WHERE clause selecting exactly one slot. The nationwide slot only
// matches rows without an area code.
func slotFilter(slot models.RankingSlot) (string, []any) {
	where := `kopis_genre_code = ? AND sync_start_date = ? AND sync_end_date = ?`
	args := []any{slot.GenreCode, dateArg(&slot.StartDate), dateArg(&slot.EndDate)}

	if slot.AreaCode == nil {
		where += ` AND kopis_area_code IS NULL`
	} else {
		where += ` AND kopis_area_code = ?`
		args = append(args, *slot.AreaCode)
	}
	return where, args
}

// ReplaceSlot deletes every row of the slot and inserts rankings in one transaction.
//
// Each ranking takes its genre, area and period from slot.
func (r *BoxofficeRepository) ReplaceSlot(ctx context.Context, slot models.RankingSlot, rankings []*models.BoxofficeRanking) error {
	where, args := slotFilter(slot)

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM concert_boxoffice_rankings WHERE `+where, args...); err != nil {
			return fmt.Errorf("failed to delete ranking slot: %w", err)
		}

		for _, rk := range rankings {
			rk.GenreCode = slot.GenreCode
			rk.AreaCode = slot.AreaCode
			rk.SyncStartDate, rk.SyncEndDate = slot.StartDate, slot.EndDate

			res, err := tx.ExecContext(ctx, `
				INSERT INTO concert_boxoffice_rankings (concert_id, kopis_genre_code, genre_name, kopis_area_code,
					area_name, ranking, performance_count, venue_name, seat_count, sync_start_date, sync_end_date,
					is_featured)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				rk.ConcertID, rk.GenreCode, rk.GenreName, rk.AreaCode, rk.AreaName, rk.Ranking, rk.PerformanceCount,
				rk.VenueName, rk.SeatCount, dateArg(&rk.SyncStartDate), dateArg(&rk.SyncEndDate), rk.IsFeatured,
			)
			if err != nil {
				return fmt.Errorf("failed to insert ranking %d: %w", rk.Ranking, err)
			}
			if rk.ID, err = insertID(res); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListSlot returns the rows of one slot ordered by rank.
func (r *BoxofficeRepository) ListSlot(ctx context.Context, slot models.RankingSlot) ([]*models.BoxofficeRanking, error) {
	where, args := slotFilter(slot)
	query := `
		SELECT id, concert_id, kopis_genre_code, genre_name, kopis_area_code, area_name, ranking, performance_count,
			venue_name, seat_count, sync_start_date, sync_end_date, synced_at, is_featured
		FROM concert_boxoffice_rankings
		WHERE ` + where + `
		ORDER BY ranking ASC
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rankings: %w", err)
	}
	defer rows.Close()

	var rankings []*models.BoxofficeRanking
	for rows.Next() {
		var rk models.BoxofficeRanking
		err := rows.Scan(
			&rk.ID, &rk.ConcertID, &rk.GenreCode, &rk.GenreName, &rk.AreaCode, &rk.AreaName, &rk.Ranking,
			&rk.PerformanceCount, &rk.VenueName, &rk.SeatCount, &rk.SyncStartDate, &rk.SyncEndDate, &rk.SyncedAt,
			&rk.IsFeatured,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		rankings = append(rankings, &rk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return rankings, nil
}

// CountFeatured returns the number of featured rows across all slots.
func (r *BoxofficeRepository) CountFeatured(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM concert_boxoffice_rankings WHERE is_featured = ?`, true).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rankings: %w", err)
	}
	return n, nil
}
