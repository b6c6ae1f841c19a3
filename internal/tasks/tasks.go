package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/events"
	"github.com/desertthunder/kopisync/internal/models"
	"github.com/desertthunder/kopisync/internal/repositories"
	"github.com/desertthunder/kopisync/internal/services"
	"github.com/desertthunder/kopisync/internal/shared"
)

// SyncResult aggregates the counters of one or more sync runs.
type SyncResult struct {
	RunID      string          `json:"run_id"`
	SyncType   models.SyncType `json:"sync_type"`
	Added      int             `json:"added"`
	Updated    int             `json:"updated"`
	Errors     int             `json:"errors"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Merge adds the counters of other into r and widens the time span to cover both runs.
func (r *SyncResult) Merge(other *SyncResult) {
	if other == nil {
		return
	}
	r.Added += other.Added
	r.Updated += other.Updated
	r.Errors += other.Errors
	if r.StartedAt.IsZero() || (!other.StartedAt.IsZero() && other.StartedAt.Before(r.StartedAt)) {
		r.StartedAt = other.StartedAt
	}
	if other.FinishedAt.After(r.FinishedAt) {
		r.FinishedAt = other.FinishedAt
	}
}

// Duration returns the wall time of the run.
func (r *SyncResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncEngine defines the KOPIS reconciliation runs.
type SyncEngine interface {
	// SyncVenues reconciles facilities and their halls changed since the last venue run.
	SyncVenues(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)

	// SyncConcerts reconciles performances across the configured genres and horizon.
	SyncConcerts(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)

	// SyncBoxoffice replaces the top ranking slots for the trailing window.
	SyncBoxoffice(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// EngineOpts configures a [KopisEngine]. Zero values fall back to defaults.
type EngineOpts struct {
	ConcertGenres       []shared.CodeName
	BoxofficeGenre      shared.CodeName
	Areas               []shared.CodeName
	HorizonDays         int
	BoxofficeWindowDays int
	TopN                int
	// LockTimeout is the age after which an in_progress row is treated as abandoned.
	LockTimeout time.Duration
	Now         func() time.Time
	Logger      *log.Logger
	Publisher   events.Publisher
}

// KopisEngine implements [SyncEngine] against the KOPIS provider and a SQL store.
type KopisEngine struct {
	provider  services.Provider
	venues    *repositories.VenueRepository
	halls     *repositories.HallRepository
	concerts  *repositories.ConcertRepository
	artists   *repositories.ArtistRepository
	boxoffice *repositories.BoxofficeRepository
	meta      *repositories.SyncMetadataRepository
	opts      EngineOpts
	logger    *log.Logger
}

var _ SyncEngine = (*KopisEngine)(nil)

// NewKopisEngine creates an engine over db. provider may be nil when no API key is configured;
// every run then fails with [shared.ErrMissingCredentials].
func NewKopisEngine(db *sql.DB, provider services.Provider, opts EngineOpts) *KopisEngine {
	if len(opts.ConcertGenres) == 0 {
		opts.ConcertGenres = []shared.CodeName{{Code: "CCCA", Name: "서양음악(클래식)"}}
	}
	if opts.BoxofficeGenre.Code == "" {
		opts.BoxofficeGenre = opts.ConcertGenres[0]
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = services.DefaultHorizonDays
	}
	if opts.BoxofficeWindowDays <= 0 {
		opts.BoxofficeWindowDays = services.MaxWindowDays
	}
	if opts.TopN <= 0 {
		opts.TopN = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}

	return &KopisEngine{
		provider:  provider,
		venues:    repositories.NewVenueRepository(db),
		halls:     repositories.NewHallRepository(db),
		concerts:  repositories.NewConcertRepository(db),
		artists:   repositories.NewArtistRepository(db),
		boxoffice: repositories.NewBoxofficeRepository(db),
		meta:      repositories.NewSyncMetadataRepository(db),
		opts:      opts,
		logger:    opts.Logger,
	}
}

// runFunc is the body of a sync run. It fills in result and returns a run-fatal error.
type runFunc func(ctx context.Context, result *SyncResult, logger *log.Logger) error

// run wraps body with the lock, status bookkeeping, metrics and event publication shared by every sync type.
func (e *KopisEngine) run(ctx context.Context, syncType models.SyncType, progress chan<- ProgressUpdate, body runFunc) (*SyncResult, error) {
	result := &SyncResult{RunID: shared.GenerateID(), SyncType: syncType, StartedAt: e.opts.Now()}
	logger := shared.WithLogger(e.logger, "sync_type", string(syncType), "run_id", result.RunID)

	if e.provider == nil {
		err := fmt.Errorf("%w: KOPIS client is not configured", shared.ErrMissingCredentials)
		return e.finish(ctx, result, logger, progress, err, false)
	}

	acquired, err := e.meta.TryAcquire(ctx, syncType, e.opts.LockTimeout)
	if err != nil {
		return e.finish(ctx, result, logger, progress, fmt.Errorf("%w: %w", shared.ErrPersistence, err), false)
	}
	if !acquired {
		return e.finish(ctx, result, logger, progress, fmt.Errorf("%w: %s", shared.ErrSyncInProgress, syncType), false)
	}

	logger.Info("sync started")
	sendProgress(progress, startedUpdate(syncType))

	err = body(ctx, result, logger)
	if err == nil {
		today := shared.Today(result.StartedAt)
		added, updated := result.Added, result.Updated
		if werr := e.meta.WriteStatus(ctx, syncType, repositories.StatusUpdate{
			Status: models.StatusSuccess, Watermark: &today, Added: &added, Updated: &updated,
		}); werr != nil {
			err = fmt.Errorf("%w: failed to record success: %w", shared.ErrPersistence, werr)
		}
	}

	return e.finish(ctx, result, logger, progress, err, true)
}

// finish records the outcome of a run. held reports whether this run owns the sync_metadata lock.
func (e *KopisEngine) finish(ctx context.Context, result *SyncResult, logger *log.Logger, progress chan<- ProgressUpdate, err error, held bool) (*SyncResult, error) {
	result.FinishedAt = e.opts.Now()
	observeRun(result, err)

	if err != nil {
		if held {
			if werr := e.meta.WriteStatus(context.WithoutCancel(ctx), result.SyncType, repositories.StatusUpdate{Status: models.StatusFailed}); werr != nil {
				logger.Error("failed to record failed status", "error", werr)
			}
		}
		if errors.Is(err, shared.ErrSyncInProgress) {
			logger.Warn("sync skipped, another run holds the lock")
		} else {
			logger.Error("sync failed", "added", result.Added, "updated", result.Updated, "errors", result.Errors, "error", err)
		}
		sendProgress(progress, failedUpdate(result.SyncType, err))
	} else {
		logger.Info("sync completed",
			"added", result.Added, "updated", result.Updated, "errors", result.Errors, "duration", result.Duration())
		sendProgress(progress, completedUpdate(result))
	}

	e.publish(ctx, result, err, logger)
	return result, err
}

func (e *KopisEngine) publish(ctx context.Context, result *SyncResult, runErr error, logger *log.Logger) {
	event := events.SyncEvent{
		RunID:      result.RunID,
		SyncType:   string(result.SyncType),
		Success:    runErr == nil,
		Added:      result.Added,
		Updated:    result.Updated,
		Errors:     result.Errors,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := e.opts.Publisher.Publish(pctx, event); err != nil {
		logger.Warn("failed to publish sync event", "error", err)
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// today returns the current calendar date according to the engine clock.
func (e *KopisEngine) today() time.Time {
	return shared.Today(e.opts.Now())
}
