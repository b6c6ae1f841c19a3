package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/services"
	"github.com/desertthunder/kopisync/internal/shared"
)

// SyncVenues lists facilities changed since the stored watermark and upserts each with its halls.
//
// A failed detail fetch or upsert is counted and the loop moves on; failures reading the
// watermark or listing facilities abort the run.
func (e *KopisEngine) SyncVenues(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	return e.run(ctx, models.SyncVenues, progress, e.syncVenues(progress))
}

func (e *KopisEngine) syncVenues(progress chan<- ProgressUpdate) runFunc {
	return func(ctx context.Context, result *SyncResult, logger *log.Logger) error {
		watermark, err := e.meta.ReadWatermark(ctx, models.SyncVenues)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
		}

		sendProgress(progress, fetchingListingUpdate(models.SyncVenues, "facility"))
		items, err := e.provider.FetchAllVenues(ctx, watermark)
		if err != nil {
			return fmt.Errorf("failed to list facilities: %w", err)
		}
		logger.Info("facilities listed", "count", len(items), "after", watermark.Format(shared.ProviderDateFormat))
		sendProgress(progress, listingFetchedUpdate(models.SyncVenues, len(items)))

		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			sendProgress(progress, itemUpdate(models.SyncVenues, i+1, len(items), item.FacilityName))

			created, hallErrs, err := e.syncVenue(ctx, item, logger)
			if err != nil {
				result.Errors++
				logger.Warn("failed to sync venue", "kopis_id", item.FacilityID, "name", item.FacilityName, "error", err)
				continue
			}
			result.Errors += hallErrs
			if created {
				result.Added++
			} else {
				result.Updated++
			}
		}
		return nil
	}
}

// syncVenue upserts one facility and its halls.
//
// Hall failures do not fail the venue; their count is returned alongside.
func (e *KopisEngine) syncVenue(ctx context.Context, item services.VenueListItem, logger *log.Logger) (bool, int, error) {
	detail, err := e.provider.FetchVenueDetail(ctx, item.FacilityID)
	if err != nil {
		return false, 0, err
	}

	venue := venueFromKopis(item, detail)
	created, err := e.venues.Upsert(ctx, venue)
	if err != nil {
		return false, 0, fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	hallErrs := 0
	for _, h := range detail.Halls {
		hall := hallFromKopis(venue.ID, h)
		if _, err := e.halls.Upsert(ctx, hall); err != nil {
			hallErrs++
			logger.Warn("failed to sync hall", "kopis_id", h.HallID, "venue_kopis_id", item.FacilityID, "error", err)
		}
	}
	logger.Debug("venue synced", "kopis_id", item.FacilityID, "id", venue.ID, "halls", len(detail.Halls), "created", created)
	return created, hallErrs, nil
}

// venueFromKopis maps a listing row and its detail onto a venue record.
// Province and city come from the listing since the detail omits them.
func venueFromKopis(item services.VenueListItem, detail *services.VenueDetail) *models.Venue {
	name := detail.FacilityName
	if name == "" {
		name = item.FacilityName
	}
	facilityType := detail.FacilityType
	if facilityType == "" {
		facilityType = item.FacilityType
	}
	hallCount := services.ParseCount(detail.HallCount)
	if hallCount == nil {
		hallCount = services.ParseCount(item.HallCount)
	}
	openingYear := services.ParseYear(detail.OpeningYear)
	if openingYear == nil {
		openingYear = services.ParseYear(item.OpeningYear)
	}

	return &models.Venue{
		KopisID:      models.StringPtr(item.FacilityID),
		Name:         name,
		Address:      models.StringPtr(detail.Address),
		City:         models.StringPtr(item.City),
		Province:     models.StringPtr(item.Province),
		Country:      models.StringPtr(models.DefaultCountry),
		Seats:        services.ParseCount(detail.Seats),
		HallCount:    hallCount,
		OpeningYear:  openingYear,
		FacilityType: models.StringPtr(facilityType),
		Phone:        models.StringPtr(detail.Phone),
		Website:      models.StringPtr(detail.Website),
		Latitude:     services.ParseFloat(detail.Latitude),
		Longitude:    services.ParseFloat(detail.Longitude),
		IsActive:     true,
		DataSource:   models.DataSourceKopis,
	}
}

func hallFromKopis(venueID int64, h services.HallDetail) *models.Hall {
	return &models.Hall{
		VenueID:  venueID,
		KopisID:  models.StringPtr(h.HallID),
		Name:     h.Name,
		Seats:    services.ParseCount(h.Seats),
		IsActive: true,
	}
}
