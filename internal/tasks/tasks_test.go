package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/repositories"
	"github.com/desertthunder/kopisync/internal/services"
	"github.com/desertthunder/kopisync/internal/shared"
	tu "github.com/desertthunder/kopisync/internal/testing"
)

var testNow = time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC)

// fakeProvider serves canned KOPIS records and records the calls it receives.
type fakeProvider struct {
	venues        []services.VenueListItem
	venueDetails  map[string]*services.VenueDetail
	venueListErr  error
	concerts      map[string][]services.ConcertListItem
	horizonErr    error
	concertDetail map[string]*services.ConcertDetail
	boxoffice     map[string][]services.BoxofficeItem
	boxofficeErr  map[string]error

	venueAfter     []time.Time
	concertQueries []services.ConcertQuery
	detailCalls    map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		venueDetails:  map[string]*services.VenueDetail{},
		concerts:      map[string][]services.ConcertListItem{},
		concertDetail: map[string]*services.ConcertDetail{},
		boxoffice:     map[string][]services.BoxofficeItem{},
		boxofficeErr:  map[string]error{},
		detailCalls:   map[string]int{},
	}
}

func (f *fakeProvider) FetchAllVenues(_ context.Context, afterDate time.Time) ([]services.VenueListItem, error) {
	f.venueAfter = append(f.venueAfter, afterDate)
	return f.venues, f.venueListErr
}

func (f *fakeProvider) FetchVenueDetail(_ context.Context, id string) (*services.VenueDetail, error) {
	d, ok := f.venueDetails[id]
	if !ok {
		return nil, fmt.Errorf("%w: status 500", shared.ErrProviderStatus)
	}
	return d, nil
}

func (f *fakeProvider) FetchConcertsInHorizon(_ context.Context, q services.ConcertQuery) ([]services.ConcertListItem, error) {
	f.concertQueries = append(f.concertQueries, q)
	return f.concerts[q.GenreCode], f.horizonErr
}

func (f *fakeProvider) FetchConcertDetail(_ context.Context, id string) (*services.ConcertDetail, error) {
	f.detailCalls[id]++
	d, ok := f.concertDetail[id]
	if !ok {
		return nil, fmt.Errorf("%w: empty detail", shared.ErrProviderDecode)
	}
	return d, nil
}

func (f *fakeProvider) FetchBoxoffice(_ context.Context, q services.BoxofficeQuery) ([]services.BoxofficeItem, error) {
	if err := f.boxofficeErr[q.AreaCode]; err != nil {
		return nil, err
	}
	return f.boxoffice[q.AreaCode], nil
}

func (f *fakeProvider) addVenue(id, name string, halls ...services.HallDetail) {
	f.venues = append(f.venues, services.VenueListItem{
		FacilityID: id, FacilityName: name, Province: "서울", City: "서초구", HallCount: "2", OpeningYear: "1988",
	})
	f.venueDetails[id] = &services.VenueDetail{
		FacilityID: id, FacilityName: name, Seats: "4,102", Address: "서울특별시 서초구 남부순환로 2406",
		Latitude: "37.4786", Longitude: "127.0114", Halls: halls,
	}
}

func (f *fakeProvider) addConcert(genre, id, facilityID, title string) *services.ConcertDetail {
	f.concerts[genre] = append(f.concerts[genre], services.ConcertListItem{PerformanceID: id, Title: title})
	d := &services.ConcertDetail{
		PerformanceID: id,
		FacilityID:    facilityID,
		Title:         title,
		StartDate:     "2025.04.01",
		EndDate:       "2025.04.02",
		State:         "공연예정",
		Poster:        "http://www.kopis.or.kr/upload/" + id + ".jpg",
		UpdatedAt:     "2025-03-01 12:00:00",
	}
	f.concertDetail[id] = d
	return d
}

func newTestEngine(t *testing.T, p services.Provider, opts EngineOpts) (*KopisEngine, *sql.DB) {
	t.Helper()
	db := tu.NewTestDB(t)
	opts.Now = tu.NewClock(testNow).Now
	opts.Logger = shared.NewLogger(io.Discard)
	return NewKopisEngine(db, p, opts), db
}

func TestSyncVenues(t *testing.T) {
	ctx := context.Background()

	t.Run("Upsert Is Idempotent", func(t *testing.T) {
		p := newFakeProvider()
		p.addVenue("FC000001", "예술의전당",
			services.HallDetail{Name: "콘서트홀", HallID: "FC000001-01", Seats: "2,505"},
			services.HallDetail{Name: "리사이틀홀", HallID: "FC000001-02", Seats: "354"},
		)
		engine, db := newTestEngine(t, p, EngineOpts{})
		venues := repositories.NewVenueRepository(db)

		result, err := engine.SyncVenues(ctx, nil)
		if err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		if result.Added != 1 || result.Updated != 0 || result.Errors != 0 {
			t.Errorf("expected 1/0/0, got %d/%d/%d", result.Added, result.Updated, result.Errors)
		}

		result, err = engine.SyncVenues(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if result.Added != 0 || result.Updated != 1 {
			t.Errorf("expected 0 added and 1 updated, got %d/%d", result.Added, result.Updated)
		}

		count, err := venues.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count venues: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 venue, got %d", count)
		}

		v, err := venues.GetByKopisID(ctx, "FC000001")
		if err != nil {
			t.Fatalf("failed to load venue: %v", err)
		}
		if v.Seats == nil || *v.Seats != 4102 {
			t.Errorf("expected seats 4102, got %v", v.Seats)
		}
		if models.Deref(v.City) != "서초구" || models.Deref(v.Province) != "서울" {
			t.Errorf("expected city and province from listing, got %v/%v", v.City, v.Province)
		}
		if models.Deref(v.Country) != models.DefaultCountry {
			t.Errorf("expected country %s, got %v", models.DefaultCountry, v.Country)
		}
		if v.OpeningYear == nil || *v.OpeningYear != 1988 {
			t.Errorf("expected opening year 1988, got %v", v.OpeningYear)
		}

		halls, err := repositories.NewHallRepository(db).ListByVenue(ctx, v.ID)
		if err != nil {
			t.Fatalf("failed to list halls: %v", err)
		}
		if len(halls) != 2 {
			t.Errorf("expected 2 halls, got %d", len(halls))
		}
	})

	t.Run("Watermark Advances To Run Date", func(t *testing.T) {
		p := newFakeProvider()
		engine, db := newTestEngine(t, p, EngineOpts{})

		if _, err := engine.SyncVenues(ctx, nil); err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		if _, err := engine.SyncVenues(ctx, nil); err != nil {
			t.Fatalf("second sync failed: %v", err)
		}

		if len(p.venueAfter) != 2 {
			t.Fatalf("expected 2 listing calls, got %d", len(p.venueAfter))
		}
		if !p.venueAfter[0].Equal(repositories.DefaultWatermark) {
			t.Errorf("expected default watermark on first run, got %v", p.venueAfter[0])
		}
		if got := p.venueAfter[1].Format(time.DateOnly); got != "2025-03-15" {
			t.Errorf("expected watermark 2025-03-15, got %s", got)
		}

		meta, err := repositories.NewSyncMetadataRepository(db).Get(ctx, models.SyncVenues)
		if err != nil {
			t.Fatalf("failed to load metadata: %v", err)
		}
		if meta.Status != models.StatusSuccess {
			t.Errorf("expected status success, got %s", meta.Status)
		}
	})

	t.Run("Detail Failure Is Counted", func(t *testing.T) {
		p := newFakeProvider()
		p.addVenue("FC000001", "예술의전당")
		p.venues = append(p.venues, services.VenueListItem{FacilityID: "FC999999", FacilityName: "없는 공연장"})
		engine, _ := newTestEngine(t, p, EngineOpts{})

		result, err := engine.SyncVenues(ctx, nil)
		if err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}
		if result.Added != 1 || result.Errors != 1 {
			t.Errorf("expected 1 added and 1 error, got %d/%d", result.Added, result.Errors)
		}
	})

	t.Run("Hall Failure Counts Per Hall", func(t *testing.T) {
		p := newFakeProvider()
		p.addVenue("FC000001", "예술의전당",
			services.HallDetail{Name: "콘서트홀", HallID: "FC000001-01", Seats: "2,505"},
			services.HallDetail{Name: "리사이틀홀", HallID: "FC000001-02", Seats: "354"},
		)
		engine, db := newTestEngine(t, p, EngineOpts{})
		if _, err := db.Exec(`DROP TABLE halls`); err != nil {
			t.Fatalf("failed to drop halls: %v", err)
		}

		result, err := engine.SyncVenues(ctx, nil)
		if err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}
		if result.Added != 1 || result.Errors != 2 {
			t.Errorf("expected 1 added and 2 errors, got %d/%d", result.Added, result.Errors)
		}

		venue, err := repositories.NewVenueRepository(db).GetByKopisID(ctx, "FC000001")
		if err != nil {
			t.Fatalf("expected venue to be stored, got %v", err)
		}
		if venue.Name != "예술의전당" {
			t.Errorf("expected 예술의전당, got %s", venue.Name)
		}
	})

	t.Run("Listing Failure Fails Run", func(t *testing.T) {
		p := newFakeProvider()
		p.venueListErr = fmt.Errorf("%w: connection refused", shared.ErrProviderTransport)
		engine, db := newTestEngine(t, p, EngineOpts{})

		_, err := engine.SyncVenues(ctx, nil)
		if !errors.Is(err, shared.ErrProviderTransport) {
			t.Fatalf("expected ErrProviderTransport, got %v", err)
		}

		meta, err := repositories.NewSyncMetadataRepository(db).Get(ctx, models.SyncVenues)
		if err != nil {
			t.Fatalf("failed to load metadata: %v", err)
		}
		if meta.Status != models.StatusFailed {
			t.Errorf("expected status failed, got %s", meta.Status)
		}
	})

	t.Run("Missing Provider", func(t *testing.T) {
		engine, db := newTestEngine(t, nil, EngineOpts{})

		_, err := engine.SyncVenues(ctx, nil)
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}

		_, err = repositories.NewSyncMetadataRepository(db).Get(ctx, models.SyncVenues)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected no metadata row, got %v", err)
		}
	})

	t.Run("Rejects While In Progress", func(t *testing.T) {
		p := newFakeProvider()
		engine, db := newTestEngine(t, p, EngineOpts{LockTimeout: time.Hour})
		meta := repositories.NewSyncMetadataRepository(db)

		acquired, err := meta.TryAcquire(ctx, models.SyncVenues, time.Hour)
		if err != nil || !acquired {
			t.Fatalf("expected to acquire lock, got %v/%v", acquired, err)
		}

		_, err = engine.SyncVenues(ctx, nil)
		if !errors.Is(err, shared.ErrSyncInProgress) {
			t.Fatalf("expected ErrSyncInProgress, got %v", err)
		}
		if len(p.venueAfter) != 0 {
			t.Errorf("expected no provider calls, got %d", len(p.venueAfter))
		}

		row, err := meta.Get(ctx, models.SyncVenues)
		if err != nil {
			t.Fatalf("failed to load metadata: %v", err)
		}
		if row.Status != models.StatusInProgress {
			t.Errorf("expected lock to remain held, got %s", row.Status)
		}
	})

	t.Run("Sends Progress", func(t *testing.T) {
		p := newFakeProvider()
		p.addVenue("FC000001", "예술의전당")
		engine, _ := newTestEngine(t, p, EngineOpts{})

		progress := make(chan ProgressUpdate, 32)
		if _, err := engine.SyncVenues(ctx, progress); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) == 0 {
			t.Fatal("expected progress updates")
		}
		if phases[0] != Started {
			t.Errorf("expected first phase %s, got %s", Started, phases[0])
		}
		if last := phases[len(phases)-1]; last != Completed {
			t.Errorf("expected last phase %s, got %s", Completed, last)
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		p := newFakeProvider()
		p.addVenue("FC000001", "예술의전당")
		engine, _ := newTestEngine(t, p, EngineOpts{})

		if _, err := engine.SyncVenues(ctx, make(chan ProgressUpdate)); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
	})
}

func TestSyncConcerts(t *testing.T) {
	ctx := context.Background()
	genres := []shared.CodeName{{Code: "CCCA", Name: "서양음악(클래식)"}}

	seedVenue := func(t *testing.T, db *sql.DB, kopisID string) int64 {
		t.Helper()
		v := &models.Venue{
			KopisID: models.StringPtr(kopisID), Name: "예술의전당", IsActive: true, DataSource: models.DataSourceKopis,
		}
		if _, err := repositories.NewVenueRepository(db).Upsert(ctx, v); err != nil {
			t.Fatalf("failed to seed venue: %v", err)
		}
		return v.ID
	}

	t.Run("Upsert Is Idempotent", func(t *testing.T) {
		p := newFakeProvider()
		d := p.addConcert("CCCA", "PF250001", "FC000001", "신년음악회")
		d.State = "공연중"
		d.Relates = []services.Relate{
			{Name: "인터파크", URL: "https://tickets.interpark.com/goods/1"},
			{Name: "빈 링크", URL: ""},
			{Name: "예스24", URL: "https://ticket.yes24.com/Perf/1"},
		}
		d.IntroductionURLs = []string{"http://www.kopis.or.kr/upload/a.jpg", "http://www.kopis.or.kr/upload/b.jpg"}

		engine, db := newTestEngine(t, p, EngineOpts{ConcertGenres: genres})
		venueID := seedVenue(t, db, "FC000001")
		concerts := repositories.NewConcertRepository(db)

		result, err := engine.SyncConcerts(ctx, nil)
		if err != nil {
			t.Fatalf("first sync failed: %v", err)
		}
		if result.Added != 1 || result.Updated != 0 || result.Errors != 0 {
			t.Errorf("expected 1/0/0, got %d/%d/%d", result.Added, result.Updated, result.Errors)
		}

		result, err = engine.SyncConcerts(ctx, nil)
		if err != nil {
			t.Fatalf("second sync failed: %v", err)
		}
		if result.Added != 0 || result.Updated != 1 {
			t.Errorf("expected 0 added and 1 updated, got %d/%d", result.Added, result.Updated)
		}

		count, err := concerts.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count concerts: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 concert, got %d", count)
		}

		c, err := concerts.GetByKopisID(ctx, "PF250001")
		if err != nil {
			t.Fatalf("failed to load concert: %v", err)
		}
		if c.VenueID != venueID {
			t.Errorf("expected venue id %d, got %d", venueID, c.VenueID)
		}
		if c.Status != models.ConcertOngoing {
			t.Errorf("expected status ongoing, got %s", c.Status)
		}

		vendors, err := concerts.ListTicketVendors(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to list vendors: %v", err)
		}
		if len(vendors) != 2 {
			t.Fatalf("expected 2 vendors, got %d", len(vendors))
		}
		if vendors[1].VendorURL != "https://ticket.yes24.com/Perf/1" || vendors[1].DisplayOrder != 1 {
			t.Errorf("expected second vendor yes24 at order 1, got %s at %d", vendors[1].VendorURL, vendors[1].DisplayOrder)
		}

		intro, err := concerts.ListImages(ctx, c.ID, models.ImageIntroduction)
		if err != nil {
			t.Fatalf("failed to list images: %v", err)
		}
		if len(intro) != 2 {
			t.Errorf("expected 2 introduction images, got %d", len(intro))
		}
		posters, err := concerts.ListImages(ctx, c.ID, models.ImagePoster)
		if err != nil {
			t.Fatalf("failed to list posters: %v", err)
		}
		if len(posters) != 1 {
			t.Errorf("expected 1 poster image, got %d", len(posters))
		}
	})

	t.Run("Queries Horizon From Today", func(t *testing.T) {
		p := newFakeProvider()
		engine, _ := newTestEngine(t, p, EngineOpts{ConcertGenres: genres, HorizonDays: 365})

		if _, err := engine.SyncConcerts(ctx, nil); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if len(p.concertQueries) != 1 {
			t.Fatalf("expected 1 horizon query, got %d", len(p.concertQueries))
		}
		q := p.concertQueries[0]
		if got := q.StartDate.Format(shared.ProviderDateFormat); got != "20250315" {
			t.Errorf("expected start 20250315, got %s", got)
		}
		if got := q.EndDate.Format(shared.ProviderDateFormat); got != "20260315" {
			t.Errorf("expected end 20260315, got %s", got)
		}
		if q.GenreCode != "CCCA" {
			t.Errorf("expected genre CCCA, got %s", q.GenreCode)
		}
		if !q.AfterDate.Equal(repositories.DefaultWatermark) {
			t.Errorf("expected default watermark, got %v", q.AfterDate)
		}
	})

	t.Run("Skips Orphans", func(t *testing.T) {
		p := newFakeProvider()
		p.addConcert("CCCA", "PF250002", "FC404404", "미등록 공연장 공연")
		engine, db := newTestEngine(t, p, EngineOpts{ConcertGenres: genres})

		result, err := engine.SyncConcerts(ctx, nil)
		if err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}
		if result.Added != 0 || result.Updated != 0 || result.Errors != 1 {
			t.Errorf("expected 0/0/1, got %d/%d/%d", result.Added, result.Updated, result.Errors)
		}

		count, err := repositories.NewConcertRepository(db).Count(ctx)
		if err != nil {
			t.Fatalf("failed to count concerts: %v", err)
		}
		if count != 0 {
			t.Errorf("expected 0 concerts, got %d", count)
		}
	})

	t.Run("Counts Failed Windows", func(t *testing.T) {
		p := newFakeProvider()
		p.addConcert("CCCA", "PF250001", "FC000001", "신년음악회")
		p.horizonErr = &services.HorizonError{Failures: []services.WindowError{
			{Err: shared.ErrProviderTransport},
			{Err: shared.ErrProviderStatus},
		}}
		engine, db := newTestEngine(t, p, EngineOpts{ConcertGenres: genres})
		seedVenue(t, db, "FC000001")

		result, err := engine.SyncConcerts(ctx, nil)
		if err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}
		if result.Added != 1 || result.Errors != 2 {
			t.Errorf("expected 1 added and 2 errors, got %d/%d", result.Added, result.Errors)
		}
	})

	t.Run("Deduplicates Across Genres", func(t *testing.T) {
		p := newFakeProvider()
		p.addConcert("CCCA", "PF250001", "FC000001", "신년음악회")
		p.concerts["CCCC"] = []services.ConcertListItem{{PerformanceID: "PF250001", Title: "신년음악회"}}
		engine, db := newTestEngine(t, p, EngineOpts{ConcertGenres: []shared.CodeName{{Code: "CCCA"}, {Code: "CCCC"}}})
		seedVenue(t, db, "FC000001")

		result, err := engine.SyncConcerts(ctx, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Added != 1 {
			t.Errorf("expected 1 added, got %d", result.Added)
		}
		if p.detailCalls["PF250001"] != 1 {
			t.Errorf("expected 1 detail call, got %d", p.detailCalls["PF250001"])
		}
	})

	t.Run("Links Known Artists", func(t *testing.T) {
		p := newFakeProvider()
		d := p.addConcert("CCCA", "PF250001", "FC000001", "신년음악회")
		d.Cast = "김철수, 홍길동(피아노), 외 등"
		engine, db := newTestEngine(t, p, EngineOpts{ConcertGenres: genres})
		seedVenue(t, db, "FC000001")

		artist := &models.Artist{Name: "김철수"}
		if err := repositories.NewArtistRepository(db).Create(ctx, artist); err != nil {
			t.Fatalf("failed to create artist: %v", err)
		}

		for range 2 {
			if _, err := engine.SyncConcerts(ctx, nil); err != nil {
				t.Fatalf("sync failed: %v", err)
			}
		}

		concerts := repositories.NewConcertRepository(db)
		c, err := concerts.GetByKopisID(ctx, "PF250001")
		if err != nil {
			t.Fatalf("failed to load concert: %v", err)
		}
		ids, err := concerts.ListArtistIDs(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to list artists: %v", err)
		}
		if len(ids) != 1 || ids[0] != artist.ID {
			t.Errorf("expected artist %d linked once, got %v", artist.ID, ids)
		}
	})
}

func TestSyncBoxoffice(t *testing.T) {
	ctx := context.Background()
	opts := EngineOpts{
		BoxofficeGenre: shared.CodeName{Code: "CCCA", Name: "서양음악(클래식)"},
		Areas:          []shared.CodeName{{Code: "11", Name: "서울"}},
		TopN:           3,
	}
	end := shared.Today(testNow)
	start := end.AddDate(0, 0, -30)
	seoul := models.RankingSlot{GenreCode: "CCCA", AreaCode: models.StringPtr("11"), StartDate: start, EndDate: end}
	nationwide := models.RankingSlot{GenreCode: "CCCA", StartDate: start, EndDate: end}

	rankingItems := func(ids ...string) []services.BoxofficeItem {
		items := make([]services.BoxofficeItem, len(ids))
		for i, id := range ids {
			items[i] = services.BoxofficeItem{
				PerformanceID: id, Rank: fmt.Sprint(len(ids) - i), VenueName: "예술의전당", SeatCount: "2,505",
			}
		}
		return items
	}

	seed := func(t *testing.T, db *sql.DB, ids ...string) {
		t.Helper()
		v := &models.Venue{KopisID: models.StringPtr("FC000001"), Name: "예술의전당", DataSource: models.DataSourceKopis}
		if _, err := repositories.NewVenueRepository(db).Upsert(ctx, v); err != nil {
			t.Fatalf("failed to seed venue: %v", err)
		}
		concerts := repositories.NewConcertRepository(db)
		for _, id := range ids {
			c := &models.Concert{
				KopisID: models.StringPtr(id), Title: id, VenueID: v.ID, Status: models.ConcertUpcoming,
				DataSource: models.DataSourceKopis,
			}
			if _, err := concerts.Upsert(ctx, c); err != nil {
				t.Fatalf("failed to seed concert: %v", err)
			}
		}
	}

	ids := []string{"PF1", "PF2", "PF3", "PF4", "PF5"}

	t.Run("Replaces Slots", func(t *testing.T) {
		p := newFakeProvider()
		p.boxoffice["11"] = rankingItems(ids...)
		p.boxoffice[""] = rankingItems(ids...)
		engine, db := newTestEngine(t, p, opts)
		seed(t, db, ids...)
		repo := repositories.NewBoxofficeRepository(db)

		for i := range 2 {
			result, err := engine.SyncBoxoffice(ctx, nil)
			if err != nil {
				t.Fatalf("run %d failed: %v", i, err)
			}
			if result.Added != 6 || result.Errors != 0 {
				t.Errorf("expected 6 added and 0 errors, got %d/%d", result.Added, result.Errors)
			}
		}

		featured, err := repo.CountFeatured(ctx)
		if err != nil {
			t.Fatalf("failed to count featured: %v", err)
		}
		if featured != 6 {
			t.Errorf("expected 6 featured rows, got %d", featured)
		}

		rows, err := repo.ListSlot(ctx, seoul)
		if err != nil {
			t.Fatalf("failed to list slot: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("expected 3 rows, got %d", len(rows))
		}
		for i, r := range rows {
			if r.Ranking != i+1 {
				t.Errorf("expected rank %d, got %d", i+1, r.Ranking)
			}
			if !r.IsFeatured {
				t.Errorf("expected rank %d to be featured", r.Ranking)
			}
		}
		if models.Deref(rows[0].AreaName) != "서울" {
			t.Errorf("expected area name 서울, got %v", rows[0].AreaName)
		}
	})

	t.Run("Failed Fetch Keeps Previous Rows", func(t *testing.T) {
		p := newFakeProvider()
		p.boxoffice["11"] = rankingItems(ids...)
		p.boxoffice[""] = rankingItems(ids...)
		engine, db := newTestEngine(t, p, opts)
		seed(t, db, ids...)

		if _, err := engine.SyncBoxoffice(ctx, nil); err != nil {
			t.Fatalf("first run failed: %v", err)
		}

		p.boxofficeErr["11"] = fmt.Errorf("%w: status 503", shared.ErrProviderStatus)
		result, err := engine.SyncBoxoffice(ctx, nil)
		if err != nil {
			t.Fatalf("expected run to succeed, got %v", err)
		}
		if result.Added != 3 || result.Errors != 1 {
			t.Errorf("expected 3 added and 1 error, got %d/%d", result.Added, result.Errors)
		}

		rows, err := repositories.NewBoxofficeRepository(db).ListSlot(ctx, seoul)
		if err != nil {
			t.Fatalf("failed to list slot: %v", err)
		}
		if len(rows) != 3 {
			t.Errorf("expected previous 3 rows to remain, got %d", len(rows))
		}
	})

	t.Run("Unresolved Concerts Are Counted", func(t *testing.T) {
		p := newFakeProvider()
		p.boxoffice[""] = rankingItems("PF1", "PF2", "PF3")
		engine, db := newTestEngine(t, p, EngineOpts{BoxofficeGenre: opts.BoxofficeGenre, TopN: 3})
		seed(t, db, "PF1", "PF3")

		result, err := engine.SyncBoxoffice(ctx, nil)
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if result.Added != 2 || result.Errors != 1 {
			t.Errorf("expected 2 added and 1 error, got %d/%d", result.Added, result.Errors)
		}

		rows, err := repositories.NewBoxofficeRepository(db).ListSlot(ctx, nationwide)
		if err != nil {
			t.Fatalf("failed to list slot: %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("expected 2 rows, got %d", len(rows))
		}
	})
}

func TestTopRanked(t *testing.T) {
	items := []services.BoxofficeItem{
		{PerformanceID: "c", Rank: "3"},
		{PerformanceID: "x", Rank: "-"},
		{PerformanceID: "a", Rank: "1"},
		{PerformanceID: "d", Rank: "4"},
		{PerformanceID: "b", Rank: "2"},
	}

	ranked := topRanked(items, 3)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 items, got %d", len(ranked))
	}
	for i, want := range []string{"a", "b", "c"} {
		if ranked[i].item.PerformanceID != want {
			t.Errorf("expected %s at %d, got %s", want, i, ranked[i].item.PerformanceID)
		}
	}
}

func TestConcertStatus(t *testing.T) {
	tests := []struct {
		state    string
		expected models.ConcertStatus
	}{
		{"공연예정", models.ConcertUpcoming},
		{"공연중", models.ConcertOngoing},
		{"공연완료", models.ConcertCompleted},
		{" 공연중 ", models.ConcertOngoing},
		{"오픈런", models.ConcertUpcoming},
		{"", models.ConcertUpcoming},
	}

	for _, tt := range tests {
		if got := concertStatus(tt.state); got != tt.expected {
			t.Errorf("concertStatus(%q): expected %s, got %s", tt.state, tt.expected, got)
		}
	}
}

func TestSyncResultMerge(t *testing.T) {
	first := &SyncResult{Added: 1, Updated: 2, Errors: 0, StartedAt: testNow, FinishedAt: testNow.Add(time.Minute)}
	second := &SyncResult{Added: 3, Updated: 0, Errors: 1, StartedAt: testNow.Add(time.Minute), FinishedAt: testNow.Add(3 * time.Minute)}

	first.Merge(second)
	first.Merge(nil)

	if first.Added != 4 || first.Updated != 2 || first.Errors != 1 {
		t.Errorf("expected 4/2/1, got %d/%d/%d", first.Added, first.Updated, first.Errors)
	}
	if first.Duration() != 3*time.Minute {
		t.Errorf("expected duration 3m, got %v", first.Duration())
	}
}
