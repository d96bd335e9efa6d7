// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics exposes the ambient prometheus instrumentation for each
// component share described in spec §2.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// PredicatesEvaluated counts evaluator.Evaluate calls per chain kind.
	PredicatesEvaluated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainhook",
		Name:      "predicates_evaluated_total",
		Help:      "Number of predicate evaluations processed, by chain kind.",
	}, []string{"chain"})

	// TriggersDispatched counts successful trigger dispatches by action kind.
	TriggersDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainhook",
		Name:      "triggers_dispatched_total",
		Help:      "Number of triggers dispatched, by action kind.",
	}, []string{"action"})

	// DispatchFailures counts swallowed transport/storage errors (spec §7).
	DispatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainhook",
		Name:      "dispatch_failures_total",
		Help:      "Number of dispatch attempts that failed and were swallowed.",
	}, []string{"action"})

	// ScanQueueDepth reports the number of specs waiting on a scan worker.
	ScanQueueDepth = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chainhook",
		Name:      "scan_queue_depth",
		Help:      "Pending scan jobs per chain kind.",
	}, []string{"chain"})

	// ScanBlocksEvaluated counts blocks a scan worker has evaluated.
	ScanBlocksEvaluated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainhook",
		Name:      "scan_blocks_evaluated_total",
		Help:      "Blocks evaluated by scan workers, by chain kind.",
	}, []string{"chain"})

	// PredicatesActive tracks the active predicate count per status phase.
	PredicatesActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chainhook",
		Name:      "predicates_active",
		Help:      "Number of predicates currently in each lifecycle phase.",
	}, []string{"phase"})

	// ArchiveRefreshes counts bulk-archive refresh attempts by outcome.
	ArchiveRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chainhook",
		Name:      "archive_refreshes_total",
		Help:      "Bulk archive refresh attempts, by outcome (fresh, downloaded, failed).",
	}, []string{"outcome"})
)

// Register adds every collector in this package to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		PredicatesEvaluated,
		TriggersDispatched,
		DispatchFailures,
		ScanQueueDepth,
		ScanBlocksEvaluated,
		PredicatesActive,
		ArchiveRefreshes,
	)
}
