// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chainmodel holds the wire-level data model shared by the base
// chain and app chain: blocks, transactions, chain events, triggers and
// evaluation reports (spec §3).
package chainmodel

// BlockIdentifier uniquely names a block within one chain.
type BlockIdentifier struct {
	Index uint64 `json:"index"`
	Hash  string `json:"hash"`
}

// Equal reports whether two block identifiers name the same block.
func (b BlockIdentifier) Equal(o BlockIdentifier) bool {
	return b.Index == o.Index && b.Hash == o.Hash
}

// TransactionIdentifier uniquely names a transaction within a block.
type TransactionIdentifier struct {
	Hash string `json:"hash"`
}

// OutPoint references a prior transaction output being spent.
type OutPoint struct {
	Txid TransactionIdentifier `json:"txid"`
	Vout uint32                `json:"vout"`
}

// TxIn is a transaction input.
type TxIn struct {
	PreviousOutput OutPoint `json:"previous_output"`
	Witness        []string `json:"witness,omitempty"`
}

// TxOut is a transaction output; ScriptPubkey is hex-encoded with its
// two-character envelope prefix (the "0x" of the upstream wire format)
// still attached (callers strip those first two characters before
// comparison).
type TxOut struct {
	Value        uint64 `json:"value"`
	ScriptPubkey string `json:"script_pubkey"`
}

// StacksOperation is one element of StacksBaseChainOperation (app-chain
// operations observed anchored into the base chain).
type StacksOperation struct {
	Kind string `json:"kind"`
}

const (
	StacksOpStackerRewarded  = "stacker_rewarded"
	StacksOpBlockCommitted   = "block_committed"
	StacksOpLeaderRegistered = "leader_registered"
	StacksOpStxTransferred   = "stx_transferred"
	StacksOpStxLocked        = "stx_locked"
)

// OrdinalOperation is one ordinal-protocol event attached to a transaction.
type OrdinalOperation struct {
	Kind string `json:"kind"`
}

// TransactionMetadata carries the fields predicates and payloads read.
type TransactionMetadata struct {
	Fee              uint64             `json:"fee"`
	Index            uint32             `json:"index"`
	Inputs           []TxIn             `json:"inputs,omitempty"`
	Outputs          []TxOut            `json:"outputs,omitempty"`
	StacksOperations []StacksOperation  `json:"stacks_operations,omitempty"`
	OrdinalOperations []OrdinalOperation `json:"ordinal_operations,omitempty"`
	Brc20Operation   *string            `json:"brc20_operation,omitempty"`
}

// Transaction is one base-chain or app-chain transaction.
type Transaction struct {
	Identifier TransactionIdentifier `json:"transaction_identifier"`
	Operations []string              `json:"operations,omitempty"`
	Metadata   TransactionMetadata   `json:"metadata"`
}

// Block is one block of either chain, carrying its ordered transactions.
type Block struct {
	Identifier       BlockIdentifier `json:"block_identifier"`
	ParentIdentifier BlockIdentifier `json:"parent_block_identifier"`
	Timestamp        int64           `json:"timestamp"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	Transactions     []Transaction   `json:"transactions"`
}
