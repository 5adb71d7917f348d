package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pocketsync",
			Name:      "engine_operations_total",
			Help:      "Engine operations by name and outcome.",
		},
		[]string{"op", "outcome"},
	)

	reconcileItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pocketsync",
			Name:      "reconcile_items_total",
			Help:      "Items processed by reconciliation sweeps, by result.",
		},
		[]string{"result"},
	)

	cacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "pocketsync",
			Name:      "cache_items",
			Help:      "Items currently held in the in-memory cache.",
		},
	)
)

const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeRejected = "rejected"
	outcomeFallback = "offline_fallback"
)
