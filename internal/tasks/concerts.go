package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/services"
	"github.com/desertthunder/kopisync/internal/shared"
)

// SyncConcerts lists every configured genre across the forward horizon and upserts each performance.
//
// Performances whose facility has no local venue are skipped and counted as errors. Failed listing
// windows are counted once each and the remaining windows are still processed.
func (e *KopisEngine) SyncConcerts(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	return e.run(ctx, models.SyncConcerts, progress, e.syncConcerts(progress))
}

func (e *KopisEngine) syncConcerts(progress chan<- ProgressUpdate) runFunc {
	return func(ctx context.Context, result *SyncResult, logger *log.Logger) error {
		watermark, err := e.meta.ReadWatermark(ctx, models.SyncConcerts)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
		}

		items, err := e.listConcerts(ctx, watermark, result, logger, progress)
		if err != nil {
			return err
		}
		sendProgress(progress, listingFetchedUpdate(models.SyncConcerts, len(items)))

		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			sendProgress(progress, itemUpdate(models.SyncConcerts, i+1, len(items), item.Title))

			created, err := e.syncConcert(ctx, item.PerformanceID, logger)
			if err != nil {
				result.Errors++
				if errors.Is(err, shared.ErrVenueNotResolved) {
					logger.Warn("skipping concert without local venue", "kopis_id", item.PerformanceID, "error", err)
				} else {
					logger.Warn("failed to sync concert", "kopis_id", item.PerformanceID, "title", item.Title, "error", err)
				}
				continue
			}
			if created {
				result.Added++
			} else {
				result.Updated++
			}
		}
		return nil
	}
}

// listConcerts collects the horizon listing for every genre, deduplicated by performance id.
func (e *KopisEngine) listConcerts(
	ctx context.Context, watermark time.Time, result *SyncResult, logger *log.Logger, progress chan<- ProgressUpdate,
) ([]services.ConcertListItem, error) {
	today := e.today()
	horizon := today.AddDate(0, 0, e.opts.HorizonDays)

	seen := make(map[string]struct{})
	var items []services.ConcertListItem
	for _, genre := range e.opts.ConcertGenres {
		sendProgress(progress, fetchingListingUpdate(models.SyncConcerts, genre.Name))

		listed, err := e.provider.FetchConcertsInHorizon(ctx, services.ConcertQuery{
			StartDate: today,
			EndDate:   horizon,
			GenreCode: genre.Code,
			AfterDate: watermark,
		})
		if err != nil {
			var horizonErr *services.HorizonError
			if !errors.As(err, &horizonErr) {
				return nil, fmt.Errorf("failed to list %s performances: %w", genre.Code, err)
			}
			result.Errors += len(horizonErr.Failures)
			logger.Warn("some listing windows failed", "genre", genre.Code, "failed", len(horizonErr.Failures))
		}

		for _, item := range listed {
			if _, ok := seen[item.PerformanceID]; ok {
				continue
			}
			seen[item.PerformanceID] = struct{}{}
			items = append(items, item)
		}
		logger.Info("performances listed", "genre", genre.Code, "count", len(listed))
	}
	return items, nil
}

// syncConcert fetches one performance detail and writes it with its child rows.
func (e *KopisEngine) syncConcert(ctx context.Context, performanceID string, logger *log.Logger) (bool, error) {
	detail, err := e.provider.FetchConcertDetail(ctx, performanceID)
	if err != nil {
		return false, err
	}

	venue, err := e.venues.GetByKopisID(ctx, detail.FacilityID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, fmt.Errorf("%w: facility %q", shared.ErrVenueNotResolved, detail.FacilityID)
		}
		return false, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	concert := concertFromKopis(detail, venue.ID)
	created, err := e.concerts.Upsert(ctx, concert)
	if err != nil {
		return false, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	if err := e.concerts.ReplaceTicketVendors(ctx, concert.ID, ticketVendors(detail.Relates)); err != nil {
		return created, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}
	if err := e.concerts.ReplaceImages(ctx, concert.ID, models.ImageIntroduction, nonEmpty(detail.IntroductionURLs)); err != nil {
		return created, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}
	if err := e.concerts.ReplaceImages(ctx, concert.ID, models.ImagePoster, nonEmpty([]string{detail.Poster})); err != nil {
		return created, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	if err := e.linkArtists(ctx, concert, logger); err != nil {
		return created, err
	}

	logger.Debug("concert synced", "kopis_id", performanceID, "id", concert.ID, "venue_id", venue.ID, "created", created)
	return created, nil
}

// linkArtists associates the concert with existing artists whose name matches a cast entry exactly.
// Unknown names are never created.
func (e *KopisEngine) linkArtists(ctx context.Context, concert *models.Concert, logger *log.Logger) error {
	for _, name := range ParseCastNames(models.Deref(concert.Cast)) {
		artist, err := e.artists.FindByName(ctx, name)
		if errors.Is(err, shared.ErrNotFound) {
			logger.Debug("no artist matches cast entry", "name", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
		}
		if _, err := e.concerts.LinkArtist(ctx, concert.ID, artist.ID); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
		}
	}
	return nil
}

// concertStatus maps the provider performance state onto the local tri-state.
func concertStatus(state string) models.ConcertStatus {
	switch strings.TrimSpace(state) {
	case "공연중":
		return models.ConcertOngoing
	case "공연완료":
		return models.ConcertCompleted
	default:
		return models.ConcertUpcoming
	}
}

func concertFromKopis(d *services.ConcertDetail, venueID int64) *models.Concert {
	return &models.Concert{
		KopisID:      models.StringPtr(d.PerformanceID),
		Title:        d.Title,
		VenueID:      venueID,
		VenueKopisID: models.StringPtr(d.FacilityID),
		FacilityName: models.StringPtr(d.FacilityName),
		StartDate:    services.ParseProviderDate(d.StartDate),
		EndDate:      services.ParseProviderDate(d.EndDate),
		ConcertTime:  models.StringPtr(d.ScheduleGuidance),
		PosterURL:    models.StringPtr(d.Poster),
		Status:       concertStatus(d.State),
		Genre:        models.StringPtr(d.Genre),
		Area:         models.StringPtr(d.Area),
		Cast:         models.StringPtr(strings.TrimSpace(d.Cast)),
		Crew:         models.StringPtr(strings.TrimSpace(d.Crew)),
		Runtime:      models.StringPtr(d.Runtime),
		AgeLimit:     models.StringPtr(d.Age),
		Synopsis:     models.StringPtr(d.Synopsis),
		PriceInfo:    models.StringPtr(d.PriceInfo),

		ProductionCompany:        models.StringPtr(d.Company),
		ProductionCompanyPlan:    models.StringPtr(d.CompanyPlan),
		ProductionCompanyAgency:  models.StringPtr(d.CompanyAgency),
		ProductionCompanyHost:    models.StringPtr(d.CompanyHost),
		ProductionCompanySponsor: models.StringPtr(d.CompanySponsor),

		IsOpenRun:  services.ParseFlag(d.OpenRun),
		IsVisit:    services.ParseFlag(d.Visit),
		IsChild:    services.ParseFlag(d.Child),
		IsDaehakro: services.ParseFlag(d.Daehakro),
		IsFestival: services.ParseFlag(d.Festival),

		KopisUpdatedAt: services.ParseTimestamp(d.UpdatedAt),
		DataSource:     models.DataSourceKopis,
	}
}

func ticketVendors(relates []services.Relate) []models.TicketVendor {
	vendors := make([]models.TicketVendor, 0, len(relates))
	for _, r := range relates {
		u := strings.TrimSpace(r.URL)
		if u == "" {
			continue
		}
		vendors = append(vendors, models.TicketVendor{
			VendorName:   models.StringPtr(strings.TrimSpace(r.Name)),
			VendorURL:    u,
			DisplayOrder: len(vendors),
		})
	}
	return vendors
}

func nonEmpty(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
