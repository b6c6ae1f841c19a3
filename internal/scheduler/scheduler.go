package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/desertthunder/kopisync/internal/tasks"
	"github.com/thejerf/suture/v4"
)

// Kind selects the families run by a manual trigger.
type Kind string

const (
	KindVenues   Kind = "venues"
	KindConcerts Kind = "concerts"
	KindAll      Kind = "all"
)

// ParseKind parses a trigger kind. An empty string selects [KindVenues].
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindVenues, nil
	case KindVenues, KindConcerts, KindAll:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sync type %q", shared.ErrInvalidArgument, s)
	}
}

// NextRun returns how long to wait from now until the next hour:00 in now's location.
// When now is at or past today's hour:00 the target rolls to tomorrow.
func NextRun(now time.Time, hour int) time.Duration {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !now.Before(target) {
		target = target.AddDate(0, 0, 1)
	}
	return target.Sub(now)
}

// Opts configures a [Scheduler].
type Opts struct {
	VenueHour   int
	ConcertHour int
	RunOnStart  bool
	Now         func() time.Time
	// After is the timer used between runs. Defaults to [time.After].
	After  func(time.Duration) <-chan time.Time
	Logger *log.Logger
}

// Scheduler owns the family locks and the daily loops.
type Scheduler struct {
	engine    tasks.SyncEngine
	opts      Opts
	logger    *log.Logger
	venueMu   sync.Mutex
	concertMu sync.Mutex

	// venuesStarted is closed once the startup venue run has returned.
	venuesStarted chan struct{}
	startedOnce   sync.Once
}

// New creates a scheduler over engine.
func New(engine tasks.SyncEngine, opts Opts) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Scheduler{
		engine:        engine,
		opts:          opts,
		logger:        shared.WithLogger(opts.Logger, "component", "scheduler"),
		venuesStarted: make(chan struct{}),
	}
}

// RunVenues runs the venue family once.
func (s *Scheduler) RunVenues(ctx context.Context) (*tasks.SyncResult, error) {
	if !s.venueMu.TryLock() {
		return nil, fmt.Errorf("%w: %s", shared.ErrSyncInProgress, KindVenues)
	}
	defer s.venueMu.Unlock()

	return s.engine.SyncVenues(ctx, nil)
}

// RunConcerts runs the concert sync and then the box-office sync, merging both results.
// The box-office sync runs even when the concert sync failed.
func (s *Scheduler) RunConcerts(ctx context.Context) (*tasks.SyncResult, error) {
	if !s.concertMu.TryLock() {
		return nil, fmt.Errorf("%w: %s", shared.ErrSyncInProgress, KindConcerts)
	}
	defer s.concertMu.Unlock()

	result := &tasks.SyncResult{SyncType: models.SyncConcerts}

	concerts, concertErr := s.engine.SyncConcerts(ctx, nil)
	result.Merge(concerts)
	if concerts != nil {
		result.RunID = concerts.RunID
	}
	if ctx.Err() != nil {
		return result, errors.Join(concertErr, ctx.Err())
	}

	boxoffice, boxofficeErr := s.engine.SyncBoxoffice(ctx, nil)
	result.Merge(boxoffice)

	return result, errors.Join(concertErr, boxofficeErr)
}

// Trigger runs the selected families synchronously and returns their combined result.
func (s *Scheduler) Trigger(ctx context.Context, kind Kind) (*tasks.SyncResult, error) {
	logger := shared.WithLogger(s.logger, "trigger", string(kind))
	logger.Info("manual sync requested")

	switch kind {
	case KindVenues, "":
		return s.RunVenues(ctx)
	case KindConcerts:
		return s.RunConcerts(ctx)
	case KindAll:
		result, venueErr := s.RunVenues(ctx)
		if result == nil {
			result = &tasks.SyncResult{SyncType: models.SyncVenues}
		}
		if errors.Is(venueErr, shared.ErrSyncInProgress) {
			return result, venueErr
		}
		concerts, concertErr := s.RunConcerts(ctx)
		result.Merge(concerts)
		return result, errors.Join(venueErr, concertErr)
	default:
		return nil, fmt.Errorf("%w: unknown sync type %q", shared.ErrInvalidArgument, kind)
	}
}

// Services returns the supervised daily loops of both families.
//
// With RunOnStart the concert loop holds its startup run until the venue loop's startup run returns.
func (s *Scheduler) Services() []suture.Service {
	return []suture.Service{
		&familyLoop{name: "venue-sync", hour: s.opts.VenueHour, run: s.RunVenues, s: s, afterStart: s.markVenuesStarted},
		&familyLoop{name: "concert-sync", hour: s.opts.ConcertHour, run: s.RunConcerts, s: s, waitFor: s.venuesStarted},
	}
}

func (s *Scheduler) markVenuesStarted() {
	s.startedOnce.Do(func() { close(s.venuesStarted) })
}

// familyLoop runs one sync family at a fixed hour every day.
type familyLoop struct {
	name    string
	hour    int
	run     func(context.Context) (*tasks.SyncResult, error)
	s       *Scheduler
	started atomic.Bool
	// waitFor gates the startup run.
	waitFor <-chan struct{}
	// afterStart is called once the startup run has returned.
	afterStart func()
}

// Serve implements suture.Service. The startup run happens once per process, not on every restart.
func (f *familyLoop) Serve(ctx context.Context) error {
	logger := shared.WithLogger(f.s.logger, "family", f.name)

	if f.s.opts.RunOnStart && f.started.CompareAndSwap(false, true) {
		if f.waitFor != nil {
			logger.Debug("waiting for startup venue sync")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-f.waitFor:
			}
		}
		f.startupRun(ctx, logger)
	}
	f.started.Store(true)

	for {
		wait := NextRun(f.s.opts.Now(), f.hour)
		logger.Info("next sync scheduled", "in", wait.Round(time.Second), "hour", f.hour)

		select {
		case <-ctx.Done():
			logger.Info("sync loop stopped")
			return ctx.Err()
		case <-f.s.opts.After(wait):
			f.runOnce(ctx, logger)
		}
	}
}

func (f *familyLoop) startupRun(ctx context.Context, logger *log.Logger) {
	if f.afterStart != nil {
		defer f.afterStart()
	}
	f.runOnce(ctx, logger)
}

func (f *familyLoop) runOnce(ctx context.Context, logger *log.Logger) {
	result, err := f.run(ctx)
	switch {
	case errors.Is(err, shared.ErrSyncInProgress):
		logger.Warn("family busy, waiting for next slot", "error", err)
	case err != nil:
		logger.Error("scheduled sync failed", "error", err)
	default:
		logger.Info("scheduled sync finished",
			"added", result.Added, "updated", result.Updated, "errors", result.Errors, "duration", result.Duration())
	}
}

func (f *familyLoop) String() string {
	return f.name
}
