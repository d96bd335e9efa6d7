// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dispatch

import (
	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/predicate"
)

// transactionPayload is the per-transaction body inside a blockPayload
// (spec §4.3). Conditional fields are nil unless the owning instance's
// presentation flags request them.
type transactionPayload struct {
	TransactionIdentifier chainmodel.TransactionIdentifier `json:"transaction_identifier"`
	Operations            []string                         `json:"operations,omitempty"`
	Metadata              transactionMetadataPayload       `json:"metadata"`
}

type transactionMetadataPayload struct {
	Fee               uint64                       `json:"fee"`
	Index             uint32                       `json:"index"`
	Inputs            []chainmodel.TxIn            `json:"inputs,omitempty"`
	Outputs           []chainmodel.TxOut           `json:"outputs,omitempty"`
	StacksOperations  []chainmodel.StacksOperation `json:"stacks_operations,omitempty"`
	OrdinalOperations []chainmodel.OrdinalOperation `json:"ordinal_operations,omitempty"`
	Brc20Operation    *string                      `json:"brc20_operation,omitempty"`
	Proof             *string                      `json:"proof,omitempty"`
}

// blockPayload is one apply/rollback entry (spec §4.3).
type blockPayload struct {
	BlockIdentifier       chainmodel.BlockIdentifier `json:"block_identifier"`
	ParentBlockIdentifier chainmodel.BlockIdentifier `json:"parent_block_identifier"`
	Timestamp             int64                      `json:"timestamp"`
	Transactions          []transactionPayload       `json:"transactions"`
	Metadata              map[string]any             `json:"metadata,omitempty"`
}

type chainhookPayload struct {
	UUID             string              `json:"uuid"`
	Predicate        predicate.Predicate `json:"predicate"`
	IsStreamingBlocks bool               `json:"is_streaming_blocks"`
}

// Payload is the full JSON body described by spec §4.3.
type Payload struct {
	Apply     []blockPayload   `json:"apply"`
	Rollback  []blockPayload   `json:"rollback"`
	Chainhook chainhookPayload `json:"chainhook"`
}

// buildPayload renders one Trigger into the wire payload shape, looking up
// per-transaction proofs by transaction id (spec §4.3 "deterministic modulo
// the proof map").
func buildPayload(trig chainmodel.Trigger, inst *predicate.Instance, isStreaming bool, proofs map[string]string) Payload {
	return Payload{
		Apply:    buildBlocks(trig.Apply, inst, proofs),
		Rollback: buildBlocks(trig.Rollback, inst, proofs),
		Chainhook: chainhookPayload{
			UUID:              inst.UUID,
			Predicate:         inst.Rule,
			IsStreamingBlocks: isStreaming,
		},
	}
}

func buildBlocks(hits []chainmodel.BlockHits, inst *predicate.Instance, proofs map[string]string) []blockPayload {
	out := make([]blockPayload, 0, len(hits))
	for _, h := range hits {
		out = append(out, blockPayload{
			BlockIdentifier:       h.Block.Identifier,
			ParentBlockIdentifier: h.Block.ParentIdentifier,
			Timestamp:             h.Block.Timestamp,
			Metadata:              h.Block.Metadata,
			Transactions:          buildTransactions(h.Transactions, inst, proofs),
		})
	}
	return out
}

func buildTransactions(txs []*chainmodel.Transaction, inst *predicate.Instance, proofs map[string]string) []transactionPayload {
	out := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		meta := transactionMetadataPayload{
			Fee:               tx.Metadata.Fee,
			Index:             tx.Metadata.Index,
			StacksOperations:  tx.Metadata.StacksOperations,
			OrdinalOperations: tx.Metadata.OrdinalOperations,
			Brc20Operation:    tx.Metadata.Brc20Operation,
		}
		if inst.IncludeInputs {
			meta.Inputs = tx.Metadata.Inputs
			if !inst.IncludeWitness {
				meta.Inputs = stripWitness(meta.Inputs)
			}
		}
		if inst.IncludeOutputs {
			meta.Outputs = tx.Metadata.Outputs
		}
		if inst.IncludeProof {
			if p, ok := proofs[tx.Identifier.Hash]; ok {
				meta.Proof = &p
			}
		}
		out = append(out, transactionPayload{
			TransactionIdentifier: tx.Identifier,
			Operations:            tx.Operations,
			Metadata:              meta,
		})
	}
	return out
}

// stripWitness returns inputs with witness data cleared, used when
// include_inputs is set but include_witness is not.
func stripWitness(in []chainmodel.TxIn) []chainmodel.TxIn {
	if len(in) == 0 {
		return in
	}
	out := make([]chainmodel.TxIn, len(in))
	for i, txin := range in {
		out[i] = chainmodel.TxIn{PreviousOutput: txin.PreviousOutput}
	}
	return out
}
