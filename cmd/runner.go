package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/events"
	"github.com/desertthunder/kopisync/internal/scheduler"
	"github.com/desertthunder/kopisync/internal/services"
	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/desertthunder/kopisync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
	ownsDB     bool
	engine     tasks.SyncEngine
	scheduler  *scheduler.Scheduler
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// DB replaces the configured database when set.
	DB *sql.DB
	// Engine replaces the KOPIS engine when set.
	Engine tasks.SyncEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
		engine:     opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, serveCommand, statusCommand, tokenCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the config file named by --config, then .env and the process environment.
//
// A missing file keeps the embedded defaults.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if err := shared.LoadEnvFile(); err != nil {
		r.logger.Warn("failed to load .env", "error", err)
	}

	config := shared.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := shared.LoadConfig(path)
			if err != nil {
				return err
			}
			config = loaded
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return err
	}
	if err := shared.SetLogLevelString(r.logger, config.LogLevel); err != nil {
		r.logger.Warn("invalid log level", "level", config.LogLevel, "error", err)
	}
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.config = config
	return nil
}

// openDatabase opens and migrates the configured database unless one was injected.
func (r *Runner) openDatabase() error {
	if r.db != nil {
		return nil
	}

	db, dialect, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := shared.RunMigrations(db, dialect); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.ownsDB = true
	return nil
}

// init loads config, opens the database and wires the engine and scheduler.
func (r *Runner) init(cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if err := r.openDatabase(); err != nil {
		return err
	}

	if r.engine == nil {
		engine, err := r.newEngine()
		if err != nil {
			return err
		}
		r.engine = engine
	}

	r.scheduler = scheduler.New(r.engine, scheduler.Opts{
		VenueHour:   r.config.Scheduler.VenueHour,
		ConcertHour: r.config.Scheduler.ConcertHour,
		RunOnStart:  r.config.Scheduler.RunOnStart,
		Logger:      r.logger,
	})
	return nil
}

func (r *Runner) newEngine() (*tasks.KopisEngine, error) {
	kc := r.config.Kopis

	var provider services.Provider
	client, err := services.NewKopisClient(services.KopisOpts{
		APIKey:            kc.APIKey,
		BaseURL:           kc.BaseURL,
		HTTPClient:        r.httpClient,
		Timeout:           time.Duration(kc.TimeoutSeconds) * time.Second,
		RequestsPerSecond: kc.RequestsPerSecond,
		PageSize:          kc.PageSize,
		Logger:            shared.WithLogger(r.logger, "component", "kopis"),
	})
	switch {
	case errors.Is(err, shared.ErrMissingCredentials):
		r.logger.Warn("KOPIS_API_KEY is not set, sync runs will fail until it is configured")
	case err != nil:
		return nil, err
	default:
		provider = client
	}

	publisher, err := events.NewPublisher(r.config.Events, shared.WithLogger(r.logger, "component", "events"))
	if err != nil {
		return nil, err
	}

	boxofficeGenre := shared.CodeName{Code: kc.BoxofficeGenre}
	for _, g := range kc.ConcertGenres {
		if g.Code == kc.BoxofficeGenre {
			boxofficeGenre = g
		}
	}

	return tasks.NewKopisEngine(r.db, provider, tasks.EngineOpts{
		ConcertGenres:       kc.ConcertGenres,
		BoxofficeGenre:      boxofficeGenre,
		Areas:               kc.Areas,
		HorizonDays:         kc.HorizonDays,
		BoxofficeWindowDays: kc.BoxofficeWindowDays,
		TopN:                kc.BoxofficeTopN,
		LockTimeout:         time.Duration(r.config.Scheduler.LockTimeoutMinutes) * time.Minute,
		Logger:              shared.WithLogger(r.logger, "component", "sync"),
		Publisher:           publisher,
	}), nil
}

// close releases the database when the runner opened it.
func (r *Runner) close() {
	if r.ownsDB && r.db != nil {
		if err := r.db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
		r.db = nil
		r.ownsDB = false
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(s string) error {
	if _, err := fmt.Fprintln(r.output, s); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
