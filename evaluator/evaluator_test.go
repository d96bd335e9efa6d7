// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package evaluator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/evaluator"
	"github.com/omahs/chainhook/predicate"
)

func txWithHash(hash string) chainmodel.Transaction {
	return chainmodel.Transaction{Identifier: chainmodel.TransactionIdentifier{Hash: hash}}
}

func block(index uint64, txs ...chainmodel.Transaction) chainmodel.Block {
	return chainmodel.Block{
		Identifier:   chainmodel.BlockIdentifier{Index: index, Hash: "h"},
		Transactions: txs,
	}
}

func TestEvaluate_TxidMatch(t *testing.T) {
	a := strings.Repeat("a", 64)
	b := strings.Repeat("b", 64)
	blk := block(1, txWithHash(a), txWithHash(b))

	rule := predicate.Predicate{Scope: predicate.ScopeTxid, Txid: predicate.ExactMatchingRule{Pattern: a}}
	active := []evaluator.ActivePredicate{{UUID: "X", Rule: &rule}}

	triggers, report, err := evaluator.Evaluate(chainmodel.NewAppliedBlocks([]chainmodel.Block{blk}), active)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Len(t, triggers[0].Apply, 1)
	assert.Len(t, triggers[0].Apply[0].Transactions, 1)
	assert.Equal(t, a, triggers[0].Apply[0].Transactions[0].Identifier.Hash)
	assert.Equal(t, []chainmodel.BlockIdentifier{blk.Identifier}, report.Triggered["X"])
	assert.Equal(t, []chainmodel.BlockIdentifier{blk.Identifier}, report.Evaluated["X"])
}

func TestEvaluate_EndBlockExpiry(t *testing.T) {
	blk := block(11, txWithHash(strings.Repeat("c", 64)))
	end := uint64(10)
	rule := predicate.Predicate{Scope: predicate.ScopeBlock}
	active := []evaluator.ActivePredicate{{UUID: "X", Rule: &rule, EndBlock: &end}}

	triggers, report, err := evaluator.Evaluate(chainmodel.NewAppliedBlocks([]chainmodel.Block{blk}), active)
	require.NoError(t, err)
	assert.Empty(t, triggers)
	assert.Equal(t, []chainmodel.BlockIdentifier{blk.Identifier}, report.Expired["X"])
	assert.Empty(t, report.Evaluated["X"])
}

func TestEvaluate_Reorg(t *testing.T) {
	b10Old := block(10, txWithHash("old"))
	b10New := block(10, txWithHash("new10"))
	b11New := block(11, txWithHash("new11"))

	rule := predicate.Predicate{Scope: predicate.ScopeBlock}
	active := []evaluator.ActivePredicate{{UUID: "X", Rule: &rule}}

	event := chainmodel.NewReorg([]chainmodel.Block{b10Old}, []chainmodel.Block{b10New, b11New})
	triggers, report, err := evaluator.Evaluate(event, active)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Len(t, triggers[0].Rollback, 1)
	assert.Len(t, triggers[0].Apply, 2)
	// rollback blocks never appear in the evaluated map; both apply blocks do.
	assert.Equal(t, []chainmodel.BlockIdentifier{b10New.Identifier, b11New.Identifier}, report.Evaluated["X"])
}

func TestEvaluate_Disjointness(t *testing.T) {
	end := uint64(5)
	blk := block(6, txWithHash("a"))
	rule := predicate.Predicate{Scope: predicate.ScopeBlock}
	active := []evaluator.ActivePredicate{{UUID: "X", Rule: &rule, EndBlock: &end}}

	_, report, err := evaluator.Evaluate(chainmodel.NewAppliedBlocks([]chainmodel.Block{blk}), active)
	require.NoError(t, err)
	_, evaluated := report.Evaluated["X"]
	assert.False(t, evaluated)
	assert.NotEmpty(t, report.Expired["X"])
}

func TestEvaluate_TriggerCoverage(t *testing.T) {
	blk := block(1, txWithHash("a"), txWithHash("b"))
	rule := predicate.Predicate{Scope: predicate.ScopeTxid, Txid: predicate.ExactMatchingRule{Pattern: "a"}}
	active := []evaluator.ActivePredicate{{UUID: "X", Rule: &rule}}

	triggers, report, err := evaluator.Evaluate(chainmodel.NewAppliedBlocks([]chainmodel.Block{blk}), active)
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	for uuid := range report.Triggered {
		_, ok := report.Evaluated[uuid]
		assert.True(t, ok)
	}
}
