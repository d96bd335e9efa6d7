// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chainmodel

// ChainEvent is the input to the evaluator: either a simple block-apply
// batch, or a reorg carrying both the blocks being rolled back and the
// blocks replacing them (spec §3).
type ChainEvent struct {
	// Exactly one of AppliedBlocks / Reorg is populated.
	AppliedBlocks *AppliedBlocksEvent
	Reorg         *ReorgEvent
}

// AppliedBlocksEvent carries newly-canonical blocks, in ascending order.
type AppliedBlocksEvent struct {
	NewBlocks []Block
}

// ReorgEvent carries blocks removed from canonical history and the blocks
// that replace them.
type ReorgEvent struct {
	BlocksToRollback []Block
	BlocksToApply    []Block
}

// NewAppliedBlocks builds a ChainEvent for a simple forward extension.
func NewAppliedBlocks(blocks []Block) ChainEvent {
	return ChainEvent{AppliedBlocks: &AppliedBlocksEvent{NewBlocks: blocks}}
}

// NewReorg builds a ChainEvent describing a fork switch.
func NewReorg(rollback, apply []Block) ChainEvent {
	return ChainEvent{Reorg: &ReorgEvent{BlocksToRollback: rollback, BlocksToApply: apply}}
}

// IsReorg reports whether this event is a Reorg rather than AppliedBlocks.
func (e ChainEvent) IsReorg() bool {
	return e.Reorg != nil
}
