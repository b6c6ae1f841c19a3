package tasks

import (
	"errors"

	"github.com/desertthunder/kopisync/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kopis_sync_runs_total",
		Help: "Sync runs by type and outcome.",
	}, []string{"sync_type", "outcome"})

	syncItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kopis_sync_items_total",
		Help: "Records processed by sync runs.",
	}, []string{"sync_type", "result"})

	syncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kopis_sync_duration_seconds",
		Help:    "Wall time of sync runs.",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"sync_type"})
)

func observeRun(result *SyncResult, err error) {
	syncType := string(result.SyncType)

	outcome := "success"
	switch {
	case errors.Is(err, shared.ErrSyncInProgress):
		outcome = "skipped"
	case err != nil:
		outcome = "failed"
	}
	syncRuns.WithLabelValues(syncType, outcome).Inc()
	if outcome == "skipped" {
		return
	}

	syncItems.WithLabelValues(syncType, "added").Add(float64(result.Added))
	syncItems.WithLabelValues(syncType, "updated").Add(float64(result.Updated))
	syncItems.WithLabelValues(syncType, "error").Add(float64(result.Errors))
	syncDuration.WithLabelValues(syncType).Observe(result.Duration().Seconds())
}
