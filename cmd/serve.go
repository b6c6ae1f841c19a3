package main

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/kopisync/internal/scheduler"
	"github.com/desertthunder/kopisync/internal/server"
	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the daily venue and concert loops next to the admin HTTP server until ctx is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(cmd); err != nil {
		return err
	}
	defer r.close()

	serverConfig := r.config.Server
	srv := server.New(server.Opts{
		Config:  serverConfig,
		Trigger: r.scheduler,
		DB:      r.db,
		Logger:  r.logger,
	})
	if addr := cmd.String("addr"); addr != "" {
		srv.Addr = addr
	}

	root := scheduler.NewSupervisor("kopisync", shared.WithLogger(r.logger, "component", "supervisor"))
	for _, svc := range r.scheduler.Services() {
		root.Add(svc)
	}
	root.Add(server.NewHTTPService(srv, shutdownTimeout))

	r.logger.Info("starting",
		"addr", srv.Addr,
		"venue_hour", r.config.Scheduler.VenueHour,
		"concert_hour", r.config.Scheduler.ConcertHour,
		"run_on_start", r.config.Scheduler.RunOnStart,
	)

	if err := root.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("stopped")
	return nil
}
