package services

import (
	"context"
	"time"
)

// Provider is the read-only view of the KOPIS API used by the sync engine.
type Provider interface {
	// FetchAllVenues lists every facility changed after afterDate (zero for all).
	FetchAllVenues(ctx context.Context, afterDate time.Time) ([]VenueListItem, error)

	// FetchVenueDetail retrieves a facility with its halls.
	FetchVenueDetail(ctx context.Context, facilityID string) (*VenueDetail, error)

	// FetchConcertsInHorizon lists performances across an arbitrary date range.
	// A partial failure returns the listed items together with a [*HorizonError].
	FetchConcertsInHorizon(ctx context.Context, q ConcertQuery) ([]ConcertListItem, error)

	// FetchConcertDetail retrieves a performance detail record.
	FetchConcertDetail(ctx context.Context, performanceID string) (*ConcertDetail, error)

	// FetchBoxoffice retrieves the ranking list for one genre/area slot.
	FetchBoxoffice(ctx context.Context, q BoxofficeQuery) ([]BoxofficeItem, error)
}

var _ Provider = (*KopisClient)(nil)
