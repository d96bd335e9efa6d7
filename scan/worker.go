// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package scan implements the historical-backfill workers of spec §4.5:
// one per chain kind, fed by a bounded queue of predicate specs, each
// iterating its clamped bound range through the evaluator and dispatcher
// before handing off to streaming.
package scan

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/omahs/chainhook/blockstore"
	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/dispatch"
	"github.com/omahs/chainhook/evaluator"
	"github.com/omahs/chainhook/metrics"
	"github.com/omahs/chainhook/predicate"
	"github.com/omahs/chainhook/status"
)

var logger = log.New("pkg", "scan")

// statusEvery throttles set_scanning updates; the bar itself is redrawn
// every block (matching the teacher's per-block pb.Set64 in
// cmd/thor/main.go's logdb resync), but the status-store write is not.
const statusEvery = 200

// Job is one predicate enqueued for historical backfill on one chain kind.
type Job struct {
	Instance  *predicate.Instance
	StatusKey status.Key
	TipLow    uint64
	Spec      *predicate.NetworkMapSpec
}

// Published is the subset of ObserverEvent the scan worker itself raises
// (spec §4.5 "publish a PredicateEnabled event" / "publish
// PredicateExpired"). Spec carries the full registration so the consumer
// can forward a real orchestrator.PredicateEnabled/PredicateExpired event
// without having to look the spec back up.
type Published struct {
	UUID    string
	Enabled bool
	Expired bool
	Spec    *predicate.NetworkMapSpec
}

// Worker drives one chain kind's scan queue.
type Worker struct {
	Chain     string // "base" | "app", used only to label metrics
	Blocks    *blockstore.Store
	Status    status.Store
	Client    *http.Client
	Queue     <-chan Job
	Published chan<- Published
	ShowBar   bool
}

// Run drains w.Queue until ctx is cancelled or the channel closes.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.Queue:
			if !ok {
				return
			}
			metrics.ScanQueueDepth.WithLabelValues(w.Chain).Set(float64(len(w.Queue)))
			if err := w.runJob(ctx, job); err != nil {
				logger.Warn("scan job failed", "uuid", job.Instance.UUID, "err", err)
			}
		}
	}
}

func (w *Worker) runJob(ctx context.Context, job Job) error {
	inst := job.Instance
	tip, ok := w.Blocks.Tip()
	if !ok {
		tip = job.TipLow
	}
	bounds := ComputeBounds(inst.StartBlock, inst.EndBlock, job.TipLow, tip)
	if bounds.Empty() {
		// Leave New first: set_streaming is illegal from New.
		if err := status.SetScanning(ctx, w.Status, job.StatusKey, 0, 0, 0, 0); err != nil {
			logger.Warn("set_scanning failed", "uuid", inst.UUID, "err", err)
		}
		return w.finish(ctx, job)
	}

	var bar *pb.ProgressBar
	if w.ShowBar {
		bar = pb.New64(int64(bounds.High)).Set64(int64(bounds.Low)).SetMaxWidth(90).Start()
		defer bar.Finish()
	}

	var blocksEvaluated, timesTriggered uint64
	var recordedEvaluated uint64 // blocksEvaluated at the last stored set_scanning
	height := bounds.Low

	err := w.Blocks.Range(bounds.Low, bounds.High, func(block chainmodel.Block) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		active := []evaluator.ActivePredicate{{UUID: inst.UUID, Network: inst.Network, Rule: &inst.Rule, EndBlock: inst.EndBlock}}
		triggers, _, err := evaluator.Evaluate(chainmodel.NewAppliedBlocks([]chainmodel.Block{block}), active)
		if err != nil {
			return err
		}
		blocksEvaluated++
		height = block.Identifier.Index
		metrics.PredicatesEvaluated.WithLabelValues(w.Chain).Inc()
		metrics.ScanBlocksEvaluated.WithLabelValues(w.Chain).Inc()

		for _, trig := range triggers {
			timesTriggered++
			out, err := dispatch.Build(ctx, trig, inst, false, nil)
			if err != nil {
				logger.Warn("dispatch build failed", "uuid", inst.UUID, "err", err)
				continue
			}
			dispatch.Send(w.Client, out)

			if inst.ExpireAfterOccurrence != nil && timesTriggered >= *inst.ExpireAfterOccurrence {
				if err := status.SetExpired(ctx, w.Status, job.StatusKey, blocksEvaluated-recordedEvaluated, height); err != nil {
					logger.Warn("set_expired failed", "uuid", inst.UUID, "err", err)
				}
				if w.Published != nil {
					w.Published <- Published{UUID: inst.UUID, Expired: true, Spec: job.Spec}
				}
				return errStopScan
			}
		}

		if bar != nil {
			bar.Set64(int64(height))
		}
		if blocksEvaluated%statusEvery == 0 {
			if err := status.SetScanning(ctx, w.Status, job.StatusKey, bounds.High-bounds.Low+1, blocksEvaluated, timesTriggered, height); err != nil {
				logger.Warn("set_scanning failed", "uuid", inst.UUID, "err", err)
			} else {
				recordedEvaluated = blocksEvaluated
			}
		}
		return nil
	})

	if err == errStopScan {
		return nil
	}
	if err != nil {
		return err
	}

	// Final Scanning state, so a range shorter than statusEvery also leaves New.
	if err := status.SetScanning(ctx, w.Status, job.StatusKey, bounds.High-bounds.Low+1, blocksEvaluated, timesTriggered, height); err != nil {
		logger.Warn("set_scanning failed", "uuid", inst.UUID, "err", err)
	}
	return w.finish(ctx, job)
}

// errStopScan signals a clean mid-scan stop (occurrence cap reached); it is
// never surfaced to the caller of runJob.
var errStopScan = stopScanError{}

type stopScanError struct{}

func (stopScanError) Error() string { return "scan: occurrence cap reached" }

func (w *Worker) finish(ctx context.Context, job Job) error {
	if err := status.SetStreaming(ctx, w.Status, job.StatusKey, status.StreamingEvent{Kind: status.StreamingFinishedScanning}); err != nil {
		return err
	}
	if w.Published != nil {
		w.Published <- Published{UUID: job.Instance.UUID, Enabled: true, Spec: job.Spec}
	}
	return nil
}
