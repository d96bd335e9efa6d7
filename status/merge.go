// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package status

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrIllegalTransition is returned when a merge is attempted from a phase
// spec §4.4 declares unreachable for that operation. Operations are
// read-modify-write and not globally serialized (spec §5); callers treat
// this as advisory and log it rather than crash the hot path.
var ErrIllegalTransition = errors.New("illegal status transition")

// nowMS returns the current wall-clock time in Unix milliseconds.
var nowMS = func() int64 { return time.Now().UnixMilli() }

// SetScanning implements spec §4.4 set_scanning. last_occurrence becomes
// now if timesTriggered strictly increased versus the previous record (or
// the previous record was New with timesTriggered > 0); otherwise it
// carries forward the previous last_occurrence (0 if there was none).
func SetScanning(ctx context.Context, store Store, key Key, blocksToScan, blocksEvaluated, timesTriggered, currentHeight uint64) error {
	prev, err := store.GetStatus(ctx, key)
	if err != nil {
		return err
	}
	if prev != nil && (prev.Phase == PhaseStreaming || prev.Phase == PhaseInterrupted) {
		return errors.Wrapf(ErrIllegalTransition, "set_scanning from %s", prev.Phase)
	}

	lastOccurrence := int64(0)
	switch {
	case prev == nil:
		if timesTriggered > 0 {
			lastOccurrence = nowMS()
		}
	case prev.Phase == PhaseNew:
		if timesTriggered > 0 {
			lastOccurrence = nowMS()
		}
	default:
		if timesTriggered > prev.TimesTriggered {
			lastOccurrence = nowMS()
		} else {
			lastOccurrence = prev.LastOccurrenceMS
		}
	}

	return store.PutStatus(ctx, key, Record{
		Phase:               PhaseScanning,
		BlocksToScan:        blocksToScan,
		BlocksEvaluated:     blocksEvaluated,
		TimesTriggered:      timesTriggered,
		LastOccurrenceMS:    lastOccurrence,
		LastEvaluatedHeight: currentHeight,
	})
}

// StreamingEventKind discriminates the three SetStreaming update shapes.
type StreamingEventKind int

const (
	StreamingOccurrence StreamingEventKind = iota
	StreamingEvaluation
	StreamingFinishedScanning
)

// StreamingEvent is the closed sum consumed by SetStreaming (spec §4.4
// set_streaming).
type StreamingEvent struct {
	Kind StreamingEventKind

	// StreamingOccurrence
	LastTriggeredHeight uint64
	TriggeredCount      uint64

	// StreamingEvaluation
	LastEvaluatedHeight uint64
	EvaluatedCount      uint64
}

// SetStreaming implements spec §4.4 set_streaming. The previous phase must
// be Scanning, Streaming, Expired, or absent; New/Interrupted are illegal
// here.
func SetStreaming(ctx context.Context, store Store, key Key, event StreamingEvent) error {
	prev, err := store.GetStatus(ctx, key)
	if err != nil {
		return err
	}
	if prev != nil && (prev.Phase == PhaseNew || prev.Phase == PhaseInterrupted) {
		return errors.Wrapf(ErrIllegalTransition, "set_streaming from %s", prev.Phase)
	}

	next := Record{Phase: PhaseStreaming, LastEvaluationMS: nowMS()}
	if prev != nil {
		next.LastOccurrenceMS = prev.LastOccurrenceMS
		next.TimesTriggered = prev.TimesTriggered
		next.BlocksEvaluated = prev.BlocksEvaluated
		next.LastEvaluatedHeight = prev.LastEvaluatedHeight
	}

	switch event.Kind {
	case StreamingOccurrence:
		next.LastOccurrenceMS = nowMS()
		next.TimesTriggered += event.TriggeredCount
		next.BlocksEvaluated += event.TriggeredCount
		next.LastEvaluatedHeight = event.LastTriggeredHeight
	case StreamingEvaluation:
		next.BlocksEvaluated += event.EvaluatedCount
		next.LastEvaluatedHeight = event.LastEvaluatedHeight
	case StreamingFinishedScanning:
		// pure transition; all counters already carried above.
	}

	return store.PutStatus(ctx, key, next)
}

// SetExpired implements spec §4.4 set_expired. Accepted from every phase
// except Interrupted (New, Scanning, Streaming, Expired) and from an absent
// record. Idempotent: calling it again on an
// already-Expired key only advances the counters, it never errors
// (SPEC_FULL.md "Supplemented features" #6 — guards the scan-worker /
// orchestrator double-publish race on occurrence-cap expiry).
func SetExpired(ctx context.Context, store Store, key Key, newBlocksEvaluated, lastEvaluatedHeight uint64) error {
	prev, err := store.GetStatus(ctx, key)
	if err != nil {
		return err
	}
	if prev != nil && prev.Phase == PhaseInterrupted {
		return errors.Wrap(ErrIllegalTransition, "set_expired from interrupted")
	}

	next := Record{Phase: PhaseExpired, LastEvaluatedHeight: lastEvaluatedHeight}
	if prev != nil {
		next.BlocksEvaluated = prev.BlocksEvaluated + newBlocksEvaluated
		next.TimesTriggered = prev.TimesTriggered
		next.LastOccurrenceMS = prev.LastOccurrenceMS
	} else {
		next.BlocksEvaluated = newBlocksEvaluated
	}

	return store.PutStatus(ctx, key, next)
}

// SetInterrupted records a terminal interruption, reachable from any phase.
func SetInterrupted(ctx context.Context, store Store, key Key, reason string) error {
	prev, _ := store.GetStatus(ctx, key) //nolint:errcheck // best-effort carry of counters
	next := Record{Phase: PhaseInterrupted, InterruptReason: reason}
	if prev != nil {
		next.BlocksEvaluated = prev.BlocksEvaluated
		next.TimesTriggered = prev.TimesTriggered
		next.LastOccurrenceMS = prev.LastOccurrenceMS
		next.LastEvaluatedHeight = prev.LastEvaluatedHeight
	}
	return store.PutStatus(ctx, key, next)
}
