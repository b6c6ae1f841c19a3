package main

import (
	"context"
	"sync"

	"github.com/desertthunder/kopisync/internal/formatter"
	"github.com/desertthunder/kopisync/internal/scheduler"
	"github.com/desertthunder/kopisync/internal/tasks"
	"github.com/desertthunder/kopisync/internal/ui"
	"github.com/urfave/cli/v3"
)

type syncFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.SyncResult, error)

// SyncVenues runs the venue sync once.
func (r *Runner) SyncVenues(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, func(e tasks.SyncEngine) syncFunc { return e.SyncVenues })
}

// SyncConcerts runs the concert sync once.
func (r *Runner) SyncConcerts(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, func(e tasks.SyncEngine) syncFunc { return e.SyncConcerts })
}

// SyncBoxoffice runs the box-office sync once.
func (r *Runner) SyncBoxoffice(ctx context.Context, cmd *cli.Command) error {
	return r.runSync(ctx, cmd, func(e tasks.SyncEngine) syncFunc { return e.SyncBoxoffice })
}

// SyncAll runs venues, then concerts and box office, the same way the manual trigger does.
func (r *Runner) SyncAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.init(cmd); err != nil {
		return err
	}
	defer r.close()

	result, err := r.scheduler.Trigger(ctx, scheduler.KindAll)
	return r.report(cmd, result, err)
}

func (r *Runner) runSync(ctx context.Context, cmd *cli.Command, pick func(tasks.SyncEngine) syncFunc) error {
	if err := r.init(cmd); err != nil {
		return err
	}
	defer r.close()

	var progress chan tasks.ProgressUpdate
	var wg sync.WaitGroup
	if cmd.Bool("progress") {
		progress = make(chan tasks.ProgressUpdate, 64)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for update := range progress {
				r.writePlainln(ui.RenderProgress(update))
			}
		}()
	}

	result, err := pick(r.engine)(ctx, progress)
	if progress != nil {
		close(progress)
		wg.Wait()
	}

	return r.report(cmd, result, err)
}

// report prints the run result and passes err through.
func (r *Runner) report(cmd *cli.Command, result *tasks.SyncResult, err error) error {
	if cmd.Bool("json") && result != nil {
		data, jsonErr := formatter.ResultToJSON(result)
		if jsonErr != nil {
			return jsonErr
		}
		if writeErr := formatter.WriteExport(r.output, append(data, '\n'), ""); writeErr != nil {
			return writeErr
		}
		return err
	}

	if result == nil && err != nil {
		return err
	}
	r.writePlainln(ui.RenderResult(result, err))
	return err
}
