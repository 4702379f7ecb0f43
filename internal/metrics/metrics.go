// Package metrics registers the application's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SplitsCreated counts split operations that committed.
	SplitsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cabinbuddy_splits_created_total",
		Help: "Number of payment split operations committed.",
	})

	// SnapshotsCreated counts snapshots by source (auto or manual).
	SnapshotsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cabinbuddy_snapshots_created_total",
		Help: "Number of season snapshots created.",
	}, []string{"source"})

	// SnapshotsRestored counts completed restore operations.
	SnapshotsRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cabinbuddy_snapshots_restored_total",
		Help: "Number of season restores completed.",
	})

	// SeasonSummaries counts season summary computations by output
	// format (json, csv, xlsx).
	SeasonSummaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cabinbuddy_season_summaries_total",
		Help: "Number of season summaries computed.",
	}, []string{"format"})

	// OccupancySyncs counts occupancy sync requests by result
	// (updated, locked, rejected).
	OccupancySyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cabinbuddy_occupancy_syncs_total",
		Help: "Number of daily occupancy sync requests.",
	}, []string{"result"})
)
