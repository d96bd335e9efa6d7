// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package evaluator applies the active predicate set to one chain event,
// producing triggers and an evaluation report (spec §4.2). It never
// mutates the event or the predicates and never does I/O: every suspension
// point in the system lives above this package.
package evaluator

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/predicate"
)

var logger = log.New("pkg", "evaluator")

// ActivePredicate pairs a predicate instance with the uuid key the report
// should use. Evaluate borrows both for the duration of one call.
type ActivePredicate struct {
	UUID    string
	Network predicate.Network
	Rule    *predicate.Predicate
	EndBlock *uint64
}

// Evaluate implements spec §4.2. Predicates are processed in the order
// given; within a predicate, blocks are processed in event order and
// transactions in block order. The evaluated/expired/triggered maps
// accumulate every block of the event, in order (spec §8 scenario 3: a
// Reorg{rollback: [B10'], apply: [B10, B11]} lists both apply blocks under
// evaluated, not just the last).
func Evaluate(event chainmodel.ChainEvent, predicates []ActivePredicate) ([]chainmodel.Trigger, chainmodel.Report, error) {
	report := chainmodel.NewReport()
	var triggers []chainmodel.Trigger

	for i := range predicates {
		ap := &predicates[i]
		var apply, rollback []chainmodel.BlockHits

		if event.IsReorg() {
			hits, err := evaluateBlocks(ap, event.Reorg.BlocksToRollback, &report, false)
			if err != nil {
				return nil, chainmodel.Report{}, err
			}
			rollback = hits

			hits, err = evaluateBlocks(ap, event.Reorg.BlocksToApply, &report, true)
			if err != nil {
				return nil, chainmodel.Report{}, err
			}
			apply = hits
		} else {
			hits, err := evaluateBlocks(ap, event.AppliedBlocks.NewBlocks, &report, true)
			if err != nil {
				return nil, chainmodel.Report{}, err
			}
			apply = hits
		}

		if len(apply) > 0 || len(rollback) > 0 {
			triggers = append(triggers, chainmodel.Trigger{
				PredicateUUID: ap.UUID,
				Apply:         apply,
				Rollback:      rollback,
			})
		}
		if len(apply) > 0 {
			report.Triggered[ap.UUID] = append(report.Triggered[ap.UUID], triggeredBlocks(apply)...)
		}
	}

	return triggers, report, nil
}

// triggeredBlocks lists every apply block that produced at least one
// matching transaction for this predicate in this event. Rollback blocks
// are left out, as they are of the evaluated map, so every triggered block
// is also an evaluated one.
func triggeredBlocks(apply []chainmodel.BlockHits) []chainmodel.BlockIdentifier {
	out := make([]chainmodel.BlockIdentifier, 0, len(apply))
	for _, hit := range apply {
		out = append(out, hit.Block.Identifier)
	}
	return out
}

// evaluateBlocks runs one predicate over an ordered block slice, recording
// each block into report.Evaluated (when trackEvaluated) or report.Expired
// based on the predicate's end_block, and returns the blocks with at least
// one matching transaction.
func evaluateBlocks(ap *ActivePredicate, blocks []chainmodel.Block, report *chainmodel.Report, trackEvaluated bool) ([]chainmodel.BlockHits, error) {
	var out []chainmodel.BlockHits
	for bi := range blocks {
		block := &blocks[bi]
		expired := ap.EndBlock != nil && block.Identifier.Index > *ap.EndBlock

		if expired {
			report.Expired[ap.UUID] = append(report.Expired[ap.UUID], block.Identifier)
			continue
		}
		if trackEvaluated {
			report.Evaluated[ap.UUID] = append(report.Evaluated[ap.UUID], block.Identifier)
		}

		var hits []*chainmodel.Transaction
		for ti := range block.Transactions {
			tx := &block.Transactions[ti]
			matched, err := ap.Rule.Evaluate(tx, ap.Network)
			if err != nil {
				return nil, err
			}
			if matched {
				hits = append(hits, tx)
			}
		}
		if len(hits) > 0 {
			out = append(out, chainmodel.BlockHits{Transactions: hits, Block: block})
		}
	}
	return out, nil
}
