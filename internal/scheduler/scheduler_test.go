package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/desertthunder/kopisync/internal/tasks"
)

// fakeEngine records calls and optionally blocks until released.
type fakeEngine struct {
	mu      sync.Mutex
	calls   []models.SyncType
	block   chan struct{}
	entered chan struct{}
	errs    map[models.SyncType]error
	hold    map[models.SyncType]time.Duration
	events  []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{errs: map[models.SyncType]error{}, hold: map[models.SyncType]time.Duration{}}
}

func (f *fakeEngine) sync(ctx context.Context, syncType models.SyncType) (*tasks.SyncResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, syncType)
	f.events = append(f.events, string(syncType)+":start")
	block, entered, hold := f.block, f.entered, f.hold[syncType]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.events = append(f.events, string(syncType)+":end")
		f.mu.Unlock()
	}()
	if hold > 0 {
		time.Sleep(hold)
	}

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	now := time.Now()
	return &tasks.SyncResult{SyncType: syncType, Added: 1, Updated: 2, StartedAt: now, FinishedAt: now}, f.errs[syncType]
}

func (f *fakeEngine) SyncVenues(ctx context.Context, _ chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error) {
	return f.sync(ctx, models.SyncVenues)
}

func (f *fakeEngine) SyncConcerts(ctx context.Context, _ chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error) {
	return f.sync(ctx, models.SyncConcerts)
}

func (f *fakeEngine) SyncBoxoffice(ctx context.Context, _ chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error) {
	return f.sync(ctx, models.SyncBoxoffice)
}

func (f *fakeEngine) recorded() []models.SyncType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SyncType(nil), f.calls...)
}

func (f *fakeEngine) recordedEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func testOpts() Opts {
	return Opts{VenueHour: 2, ConcertHour: 3, Logger: shared.NewLogger(io.Discard)}
}

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	tests := []struct {
		name     string
		now      time.Time
		hour     int
		expected time.Duration
	}{
		{"Before Target", time.Date(2025, 3, 15, 1, 0, 0, 0, loc), 2, time.Hour},
		{"After Target Rolls Over", time.Date(2025, 3, 15, 5, 0, 0, 0, loc), 2, 21 * time.Hour},
		{"Exactly At Target", time.Date(2025, 3, 15, 2, 0, 0, 0, loc), 2, 24 * time.Hour},
		{"Just Before Target", time.Date(2025, 3, 15, 2, 59, 30, 0, loc), 3, 30 * time.Second},
		{"Month Boundary", time.Date(2025, 1, 31, 23, 0, 0, 0, loc), 3, 4 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.now, tt.hour); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in       string
		expected Kind
		wantErr  bool
	}{
		{"", KindVenues, false},
		{"venues", KindVenues, false},
		{"Concerts", KindConcerts, false},
		{" all ", KindAll, false},
		{"boxoffice", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("ParseKind(%q): expected ErrInvalidArgument, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("ParseKind(%q): expected %s, got %s (%v)", tt.in, tt.expected, got, err)
		}
	}
}

func TestTrigger(t *testing.T) {
	ctx := context.Background()

	t.Run("Venues", func(t *testing.T) {
		engine := newFakeEngine()
		s := New(engine, testOpts())

		result, err := s.Trigger(ctx, KindVenues)
		if err != nil {
			t.Fatalf("trigger failed: %v", err)
		}
		if result.Added != 1 || result.Updated != 2 {
			t.Errorf("expected 1/2, got %d/%d", result.Added, result.Updated)
		}
		if got := engine.recorded(); len(got) != 1 || got[0] != models.SyncVenues {
			t.Errorf("expected venues only, got %v", got)
		}
	})

	t.Run("Concerts Include Box Office", func(t *testing.T) {
		engine := newFakeEngine()
		s := New(engine, testOpts())

		result, err := s.Trigger(ctx, KindConcerts)
		if err != nil {
			t.Fatalf("trigger failed: %v", err)
		}
		if result.Added != 2 || result.Updated != 4 {
			t.Errorf("expected merged 2/4, got %d/%d", result.Added, result.Updated)
		}
		got := engine.recorded()
		if len(got) != 2 || got[0] != models.SyncConcerts || got[1] != models.SyncBoxoffice {
			t.Errorf("expected concerts then boxoffice, got %v", got)
		}
	})

	t.Run("Box Office Runs After Concert Failure", func(t *testing.T) {
		engine := newFakeEngine()
		engine.errs[models.SyncConcerts] = shared.ErrPersistence
		s := New(engine, testOpts())

		_, err := s.Trigger(ctx, KindConcerts)
		if !errors.Is(err, shared.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
		if got := engine.recorded(); len(got) != 2 {
			t.Errorf("expected 2 runs, got %v", got)
		}
	})

	t.Run("All", func(t *testing.T) {
		engine := newFakeEngine()
		s := New(engine, testOpts())

		result, err := s.Trigger(ctx, KindAll)
		if err != nil {
			t.Fatalf("trigger failed: %v", err)
		}
		if result.Added != 3 {
			t.Errorf("expected 3 added, got %d", result.Added)
		}
		if got := engine.recorded(); len(got) != 3 {
			t.Errorf("expected 3 runs, got %v", got)
		}
	})

	t.Run("Unknown Kind", func(t *testing.T) {
		s := New(newFakeEngine(), testOpts())

		if _, err := s.Trigger(ctx, Kind("artists")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Rejects While Busy", func(t *testing.T) {
		engine := newFakeEngine()
		engine.block = make(chan struct{})
		engine.entered = make(chan struct{}, 1)
		s := New(engine, testOpts())

		done := make(chan error, 1)
		go func() {
			_, err := s.Trigger(ctx, KindVenues)
			done <- err
		}()
		<-engine.entered

		if _, err := s.Trigger(ctx, KindVenues); !errors.Is(err, shared.ErrSyncInProgress) {
			t.Errorf("expected ErrSyncInProgress, got %v", err)
		}

		close(engine.block)
		if err := <-done; err != nil {
			t.Errorf("expected first trigger to succeed, got %v", err)
		}
	})
}

func TestFamilyLoop(t *testing.T) {
	t.Run("Runs On Start Then Stops On Cancel", func(t *testing.T) {
		engine := newFakeEngine()
		opts := testOpts()
		opts.RunOnStart = true
		opts.After = func(time.Duration) <-chan time.Time { return make(chan time.Time) }
		s := New(engine, opts)

		ctx, cancel := context.WithCancel(context.Background())
		loop := s.Services()[0]

		done := make(chan error, 1)
		go func() { done <- loop.Serve(ctx) }()

		deadline := time.After(2 * time.Second)
		for len(engine.recorded()) == 0 {
			select {
			case <-deadline:
				t.Fatal("expected startup run")
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("expected loop to stop after cancel")
		}
		if got := engine.recorded(); len(got) != 1 || got[0] != models.SyncVenues {
			t.Errorf("expected one venue run, got %v", got)
		}
	})

	t.Run("Runs At Each Tick", func(t *testing.T) {
		engine := newFakeEngine()
		ticks := make(chan time.Time)
		opts := testOpts()
		opts.After = func(time.Duration) <-chan time.Time { return ticks }
		s := New(engine, opts)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		loop := s.Services()[1]

		done := make(chan error, 1)
		go func() { done <- loop.Serve(ctx) }()

		ticks <- time.Now()
		ticks <- time.Now()

		deadline := time.After(2 * time.Second)
		for len(engine.recorded()) < 4 {
			select {
			case <-deadline:
				t.Fatalf("expected 4 runs from 2 ticks, got %v", engine.recorded())
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()
		<-done

		got := engine.recorded()
		if got[0] != models.SyncConcerts || got[1] != models.SyncBoxoffice {
			t.Errorf("expected concerts then boxoffice, got %v", got)
		}
	})

	t.Run("Startup Concert Run Waits For Venues", func(t *testing.T) {
		engine := newFakeEngine()
		engine.hold[models.SyncVenues] = 100 * time.Millisecond
		opts := testOpts()
		opts.RunOnStart = true
		opts.After = func(time.Duration) <-chan time.Time { return make(chan time.Time) }
		s := New(engine, opts)

		root := NewSupervisor("test", opts.Logger)
		for _, svc := range s.Services() {
			root.Add(svc)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := root.ServeBackground(ctx)

		deadline := time.After(2 * time.Second)
		for len(engine.recorded()) < 3 {
			select {
			case <-deadline:
				t.Fatalf("expected 3 startup runs, got %v", engine.recorded())
			case <-time.After(5 * time.Millisecond):
			}
		}
		cancel()
		<-done

		expected := []string{"venues:start", "venues:end", "concerts:start"}
		got := engine.recordedEvents()
		if len(got) < len(expected) {
			t.Fatalf("expected at least %v, got %v", expected, got)
		}
		for i, e := range expected {
			if got[i] != e {
				t.Errorf("expected event %d to be %s, got %v", i, e, got)
				break
			}
		}
	})

	t.Run("Concert Loop Without Startup Run Does Not Wait", func(t *testing.T) {
		engine := newFakeEngine()
		ticks := make(chan time.Time)
		opts := testOpts()
		opts.After = func(time.Duration) <-chan time.Time { return ticks }
		s := New(engine, opts)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- s.Services()[1].Serve(ctx) }()

		select {
		case ticks <- time.Now():
		case <-time.After(2 * time.Second):
			t.Fatal("expected concert loop to reach its timer")
		}
		cancel()
		<-done
	})

	t.Run("Names", func(t *testing.T) {
		s := New(newFakeEngine(), testOpts())
		svcs := s.Services()
		if len(svcs) != 2 {
			t.Fatalf("expected 2 services, got %d", len(svcs))
		}
		if name := svcs[0].(*familyLoop).String(); name != "venue-sync" {
			t.Errorf("expected venue-sync, got %s", name)
		}
	})
}
