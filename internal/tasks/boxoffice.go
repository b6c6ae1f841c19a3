package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/services"
	"github.com/desertthunder/kopisync/internal/shared"
)

// featuredRank is the lowest rank flagged as featured.
const featuredRank = 3

// SyncBoxoffice replaces the top ranking rows of every configured area plus the nationwide slot.
//
// Each slot is fetched before its rows are touched, so a failed fetch leaves the previous rows in place.
func (e *KopisEngine) SyncBoxoffice(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	return e.run(ctx, models.SyncBoxoffice, progress, e.syncBoxoffice(progress))
}

// rankingArea is one area of a box-office run. A nil code is the nationwide slot.
type rankingArea struct {
	code *string
	name *string
}

func (a rankingArea) label() string {
	if a.code == nil {
		return "nationwide"
	}
	return *a.code
}

func (e *KopisEngine) rankingAreas() []rankingArea {
	areas := make([]rankingArea, 0, len(e.opts.Areas)+1)
	for _, a := range e.opts.Areas {
		areas = append(areas, rankingArea{code: models.StringPtr(a.Code), name: models.StringPtr(a.Name)})
	}
	return append(areas, rankingArea{})
}

func (e *KopisEngine) syncBoxoffice(progress chan<- ProgressUpdate) runFunc {
	return func(ctx context.Context, result *SyncResult, logger *log.Logger) error {
		end := e.today()
		start := end.AddDate(0, 0, -e.opts.BoxofficeWindowDays)
		genre := e.opts.BoxofficeGenre

		areas := e.rankingAreas()
		for i, area := range areas {
			if err := ctx.Err(); err != nil {
				return err
			}
			slot := models.RankingSlot{GenreCode: genre.Code, AreaCode: area.code, StartDate: start, EndDate: end}

			rows, errs, err := e.syncSlot(ctx, slot, area, logger)
			result.Errors += errs
			if err != nil {
				result.Errors++
				logger.Warn("failed to sync ranking slot", "area", area.label(), "error", err)
				continue
			}
			result.Added += rows
			sendProgress(progress, slotUpdate(i+1, len(areas), area.label(), rows))
		}
		return nil
	}
}

// syncSlot fetches one slot and replaces its rows. It returns the rows written and the number of
// entries skipped because their performance is not stored locally.
func (e *KopisEngine) syncSlot(ctx context.Context, slot models.RankingSlot, area rankingArea, logger *log.Logger) (int, int, error) {
	items, err := e.provider.FetchBoxoffice(ctx, services.BoxofficeQuery{
		StartDate: slot.StartDate,
		EndDate:   slot.EndDate,
		GenreCode: slot.GenreCode,
		AreaCode:  models.Deref(slot.AreaCode),
	})
	if err != nil {
		return 0, 0, err
	}

	ranked := topRanked(items, e.opts.TopN)
	skipped := 0
	rankings := make([]*models.BoxofficeRanking, 0, len(ranked))
	for _, r := range ranked {
		concert, err := e.concerts.GetByKopisID(ctx, r.item.PerformanceID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return 0, skipped, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
			}
			skipped++
			logger.Warn("skipping ranking without local concert",
				"area", area.label(), "rank", r.rank, "kopis_id", r.item.PerformanceID,
				"error", fmt.Errorf("%w: %s", shared.ErrConcertNotResolved, r.item.PerformanceID))
			continue
		}

		rankings = append(rankings, &models.BoxofficeRanking{
			ConcertID:        concert.ID,
			GenreName:        models.StringPtr(e.opts.BoxofficeGenre.Name),
			AreaName:         area.name,
			Ranking:          r.rank,
			PerformanceCount: services.ParseCount(r.item.PerformanceCount),
			VenueName:        models.StringPtr(r.item.VenueName),
			SeatCount:        services.ParseCount(r.item.SeatCount),
			IsFeatured:       r.rank <= featuredRank,
		})
	}

	if err := e.boxoffice.ReplaceSlot(ctx, slot, rankings); err != nil {
		return 0, skipped, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}
	logger.Debug("ranking slot replaced", "area", area.label(), "rows", len(rankings), "skipped", skipped)
	return len(rankings), skipped, nil
}

type rankedItem struct {
	rank int
	item services.BoxofficeItem
}

// topRanked orders items by their parsed rank and keeps the first n. Unparseable ranks are dropped.
func topRanked(items []services.BoxofficeItem, n int) []rankedItem {
	ranked := make([]rankedItem, 0, len(items))
	for _, item := range items {
		rank := services.ParseCount(item.Rank)
		if rank == nil || *rank <= 0 {
			continue
		}
		ranked = append(ranked, rankedItem{rank: *rank, item: item})
	}
	slices.SortStableFunc(ranked, func(a, b rankedItem) int { return a.rank - b.rank })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
