// package models defines the data model for the KOPIS sync engine
package models

import (
	"fmt"
	"time"
)

// Data source tags stored on venues and concerts.
const (
	DataSourceKopis  = "KOPIS"
	DataSourceManual = "MANUAL"
)

// DefaultCountry is stored on every venue sourced from KOPIS.
const DefaultCountry = "대한민국"

// SyncType identifies a sync domain and is the primary key of sync_metadata.
type SyncType string

const (
	SyncVenues    SyncType = "venues"
	SyncConcerts  SyncType = "concerts"
	SyncBoxoffice SyncType = "boxoffice"
)

// SyncStatus is the lifecycle state recorded in sync_metadata.
type SyncStatus string

const (
	StatusInProgress SyncStatus = "in_progress"
	StatusSuccess    SyncStatus = "success"
	StatusFailed     SyncStatus = "failed"
)

// ConcertStatus is the local tri-state derived from the provider's performance state.
type ConcertStatus string

const (
	ConcertUpcoming  ConcertStatus = "upcoming"
	ConcertOngoing   ConcertStatus = "ongoing"
	ConcertCompleted ConcertStatus = "completed"
)

// ImageType classifies rows in concert_images.
type ImageType string

const (
	ImageIntroduction ImageType = "introduction"
	ImagePoster       ImageType = "poster"
	ImageOther        ImageType = "other"
)

// SyncMetadata is the per-domain watermark and status row.
type SyncMetadata struct {
	SyncType          SyncType
	Status            SyncStatus
	LastSyncDate      *time.Time
	ItemsAdded        int
	ItemsUpdated      int
	LastSyncTimestamp time.Time
}

// Venue is a performance facility.
type Venue struct {
	ID           int64
	KopisID      *string
	Name         string
	Address      *string
	City         *string
	Province     *string
	Country      *string
	Seats        *int
	HallCount    *int
	OpeningYear  *int
	FacilityType *string
	Phone        *string
	Website      *string
	Latitude     *float64
	Longitude    *float64
	IsActive     bool
	DataSource   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks the fields required for persistence.
func (v *Venue) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("venue name is required")
	}
	if v.DataSource == DataSourceKopis && (v.KopisID == nil || *v.KopisID == "") {
		return fmt.Errorf("venue from %s requires a kopis id", DataSourceKopis)
	}
	return nil
}

// Hall is a stage inside a venue.
type Hall struct {
	ID       int64
	VenueID  int64
	KopisID  *string
	Name     string
	Seats    *int
	IsActive bool
}

// Validate checks the fields required for persistence.
func (h *Hall) Validate() error {
	if h.VenueID == 0 {
		return fmt.Errorf("hall requires a venue id")
	}
	if h.Name == "" {
		return fmt.Errorf("hall name is required")
	}
	return nil
}

// Concert is a performance run at a venue.
type Concert struct {
	ID           int64
	KopisID      *string
	Title        string
	VenueID      int64
	VenueKopisID *string
	FacilityName *string
	StartDate    *time.Time
	EndDate      *time.Time
	ConcertTime  *string
	PosterURL    *string
	Status       ConcertStatus
	Genre        *string
	Area         *string
	Cast         *string
	Crew         *string
	Runtime      *string
	AgeLimit     *string
	Synopsis     *string
	PriceInfo    *string

	ProductionCompany        *string
	ProductionCompanyPlan    *string
	ProductionCompanyAgency  *string
	ProductionCompanyHost    *string
	ProductionCompanySponsor *string

	IsOpenRun  bool
	IsVisit    bool
	IsChild    bool
	IsDaehakro bool
	IsFestival bool

	KopisUpdatedAt *time.Time
	DataSource     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the fields required for persistence.
func (c *Concert) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("concert title is required")
	}
	if c.VenueID == 0 {
		return fmt.Errorf("concert requires a resolved venue")
	}
	switch c.Status {
	case ConcertUpcoming, ConcertOngoing, ConcertCompleted:
	default:
		return fmt.Errorf("invalid concert status %q", c.Status)
	}
	return nil
}

// TicketVendor is a booking link for a concert.
type TicketVendor struct {
	ID           int64
	ConcertID    int64
	VendorName   *string
	VendorURL    string
	DisplayOrder int
}

// ConcertImage is an image attached to a concert.
type ConcertImage struct {
	ID           int64
	ConcertID    int64
	ImageURL     string
	ImageType    ImageType
	DisplayOrder int
}

// Artist is a known performer.
type Artist struct {
	ID          int64
	Name        string
	EnglishName *string
	CreatedAt   time.Time
}

// BoxofficeRanking is one ranked row of a (genre, area, period) slot.
type BoxofficeRanking struct {
	ID               int64
	ConcertID        int64
	GenreCode        string
	GenreName        *string
	AreaCode         *string
	AreaName         *string
	Ranking          int
	PerformanceCount *int
	VenueName        *string
	SeatCount        *int
	SyncStartDate    time.Time
	SyncEndDate      time.Time
	SyncedAt         time.Time
	IsFeatured       bool
}

// RankingSlot identifies the rows replaced together by a box-office sync.
//
// A nil AreaCode is the nationwide slot.
type RankingSlot struct {
	GenreCode string
	AreaCode  *string
	StartDate time.Time
	EndDate   time.Time
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
