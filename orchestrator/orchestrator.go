// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package orchestrator

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/omahs/chainhook/blockstore"
	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/metrics"
	"github.com/omahs/chainhook/predicate"
	"github.com/omahs/chainhook/scan"
	"github.com/omahs/chainhook/status"
)

var logger = log.New("pkg", "orchestrator")

// archiveRefreshEvery is N in spec §4.6: "every N events (N=32 is the
// default) trigger a background refresh of the bulk-archive tail".
const archiveRefreshEvery = 32

// Orchestrator implements spec §4.6's single-threaded event loop.
// It owns no locks: every field below is touched only from Run's goroutine,
// matching the "no shared-memory locking in the core" design note (§9).
type Orchestrator struct {
	Network predicate.Network
	Status  status.Store

	BaseQueue chan<- scan.Job
	AppQueue  chan<- scan.Job
	AppBlocks *blockstore.Store

	// BaseTipLow / AppTipLow are the lowest block height each chain's
	// collaborator is willing to serve (spec §4.5 scan bound clamping).
	BaseTipLow uint64
	AppTipLow  uint64

	// RefreshArchive is invoked every archiveRefreshEvery app-chain events;
	// nil disables the refresh entirely (e.g. an embedded/test orchestrator
	// with no archive collaborator wired).
	RefreshArchive func(ctx context.Context)

	appEventCount int
}

// Run drains events until ctx is cancelled or a Terminate event arrives,
// then returns nil — callers treat return as "drained and exited" (spec
// §4.6 "Terminate — drain and exit").
func (o *Orchestrator) Run(ctx context.Context, events <-chan ObserverEvent) error {
	for {
		select {
		case <-ctx.Done():
			// A cancelled context is a clean shutdown signal (SIGINT/SIGTERM
			// or a sibling task's own clean exit), not a failure to report.
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Kind == EventTerminate {
				return nil
			}
			if err := o.handle(ctx, ev); err != nil {
				logger.Warn("event handling failed", "kind", ev.Kind, "err", err)
			}
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev ObserverEvent) error {
	switch ev.Kind {
	case EventPredicateRegistered:
		return o.onRegistered(ctx, ev.Spec)
	case EventPredicateEnabled:
		return o.onEnabled(ctx, ev.Spec)
	case EventPredicateDeregistered:
		return o.onDeregistered(ctx, ev.Spec)
	case EventPredicateExpired:
		return o.onExpired(ctx, ev.Spec)
	case EventBaseChainEvent:
		return o.applyReport(ctx, status.ChainBase, ev.Report)
	case EventAppChainEvent:
		if err := o.applyReport(ctx, status.ChainApp, ev.Report); err != nil {
			return err
		}
		o.updateAppIndex(ctx, ev)
		return nil
	default:
		return errors.Errorf("orchestrator: unhandled event kind %d", ev.Kind)
	}
}

func (o *Orchestrator) onRegistered(ctx context.Context, spec *predicate.NetworkMapSpec) error {
	inst, err := spec.Project(o.Network)
	if err != nil {
		return err
	}
	key := chainKey(spec.Chain, inst.UUID)

	raw, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, "orchestrator: marshal spec")
	}
	if err := o.Status.PutSpec(ctx, key, raw); err != nil {
		return err
	}
	if err := o.Status.PutStatus(ctx, key, status.Record{Phase: status.PhaseNew}); err != nil {
		return err
	}
	metrics.PredicatesActive.WithLabelValues(string(status.PhaseNew)).Inc()

	switch spec.Chain {
	case "base":
		o.BaseQueue <- scan.Job{Instance: inst, StatusKey: key, TipLow: o.BaseTipLow, Spec: spec}
	case "app":
		o.AppQueue <- scan.Job{Instance: inst, StatusKey: key, TipLow: o.AppTipLow, Spec: spec}
	default:
		return errors.Errorf("orchestrator: unknown chain kind %q", spec.Chain)
	}
	return nil
}

func (o *Orchestrator) onEnabled(ctx context.Context, spec *predicate.NetworkMapSpec) error {
	inst, err := spec.Project(o.Network)
	if err != nil {
		return err
	}
	key := chainKey(spec.Chain, inst.UUID)

	raw, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, "orchestrator: marshal spec")
	}
	if err := o.Status.PutSpec(ctx, key, raw); err != nil {
		return err
	}
	if err := status.SetStreaming(ctx, o.Status, key, status.StreamingEvent{Kind: status.StreamingFinishedScanning}); err != nil {
		return err
	}
	metrics.PredicatesActive.WithLabelValues(string(status.PhaseStreaming)).Inc()
	return nil
}

func (o *Orchestrator) onDeregistered(ctx context.Context, spec *predicate.NetworkMapSpec) error {
	key := chainKey(spec.Chain, spec.UUID)
	if rec, err := o.Status.GetStatus(ctx, key); err == nil && rec != nil {
		metrics.PredicatesActive.WithLabelValues(string(rec.Phase)).Dec()
	}
	return o.Status.Delete(ctx, key)
}

// onExpired handles the mid-scan occurrence-cap expiry a scan worker
// publishes (spec §4.5). The worker has already called status.SetExpired
// directly, so this only reconciles the active-predicate gauge: whatever
// phase it held before expiring loses a count, PhaseExpired gains one.
func (o *Orchestrator) onExpired(ctx context.Context, spec *predicate.NetworkMapSpec) error {
	key := chainKey(spec.Chain, spec.UUID)
	rec, err := o.Status.GetStatus(ctx, key)
	if err != nil {
		return err
	}
	if rec != nil && rec.Phase != status.PhaseExpired {
		metrics.PredicatesActive.WithLabelValues(string(rec.Phase)).Dec()
	}
	metrics.PredicatesActive.WithLabelValues(string(status.PhaseExpired)).Inc()
	return nil
}

// applyReport folds one evaluation report into the status store via the
// §4.4 merge rules; the chain event itself is never persisted (spec §4.6
// "do not persist the event itself").
func (o *Orchestrator) applyReport(ctx context.Context, chain string, report chainmodel.Report) error {
	for uuid, blocks := range report.Expired {
		if len(blocks) == 0 {
			continue
		}
		last := blocks[len(blocks)-1]
		key := status.Key{Chain: chain, UUID: uuid}
		if err := status.SetExpired(ctx, o.Status, key, uint64(len(blocks)), last.Index); err != nil {
			logger.Warn("set_expired failed", "uuid", uuid, "err", err)
		}
	}
	for uuid, blocks := range report.Evaluated {
		if len(blocks) == 0 {
			continue
		}
		last := blocks[len(blocks)-1]
		key := status.Key{Chain: chain, UUID: uuid}
		triggered := len(report.Triggered[uuid])
		var err error
		if triggered > 0 {
			err = status.SetStreaming(ctx, o.Status, key, status.StreamingEvent{
				Kind: status.StreamingOccurrence, LastTriggeredHeight: last.Index, TriggeredCount: uint64(triggered),
			})
		} else {
			err = status.SetStreaming(ctx, o.Status, key, status.StreamingEvent{
				Kind: status.StreamingEvaluation, LastEvaluatedHeight: last.Index, EvaluatedCount: uint64(len(blocks)),
			})
		}
		if err != nil {
			logger.Warn("set_streaming failed", "uuid", uuid, "err", err)
		}
	}
	return nil
}

func (o *Orchestrator) updateAppIndex(ctx context.Context, ev ObserverEvent) {
	if o.AppBlocks != nil {
		blocks := ev.Chain.AppliedBlocks
		if blocks != nil {
			for _, b := range blocks.NewBlocks {
				if err := o.AppBlocks.Put(b); err != nil {
					logger.Warn("app block index put failed", "err", err)
				}
			}
		}
		if ev.Chain.Reorg != nil {
			for _, b := range ev.Chain.Reorg.BlocksToApply {
				if err := o.AppBlocks.Put(b); err != nil {
					logger.Warn("app block index put failed", "err", err)
				}
			}
		}
	}

	o.appEventCount++
	if o.appEventCount%archiveRefreshEvery == 0 && o.RefreshArchive != nil {
		go o.RefreshArchive(ctx)
	}
}

func chainKey(chain, uuid string) status.Key {
	return status.Key{Chain: chain, UUID: uuid}
}
