// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chainmodel

// BlockHits pairs a block with the transactions inside it that matched a
// predicate, borrowed from the originating ChainEvent.
type BlockHits struct {
	Transactions []*Transaction
	Block        *Block
}

// Trigger is the concrete (predicate, matched-txs, block, phase) tuple
// produced by the evaluator. It is only ever constructed when Apply or
// Rollback is non-empty.
type Trigger struct {
	PredicateUUID string
	Apply         []BlockHits
	Rollback      []BlockHits
}

// Report is the three-map result of one evaluator call (spec §3): every
// uuid present in Triggered is also present in Evaluated for the same
// block; Expired is disjoint from Evaluated for a given block.
type Report struct {
	Triggered map[string][]BlockIdentifier
	Evaluated map[string][]BlockIdentifier
	Expired   map[string][]BlockIdentifier
}

// NewReport returns an empty Report with its maps allocated.
func NewReport() Report {
	return Report{
		Triggered: make(map[string][]BlockIdentifier),
		Evaluated: make(map[string][]BlockIdentifier),
		Expired:   make(map[string][]BlockIdentifier),
	}
}
