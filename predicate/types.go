// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

// Scope is the `if_this.scope` discriminator (spec §6). The set is closed:
// no scope outside this list is ever legal, at parse time or at runtime.
type Scope string

const (
	ScopeBlock            Scope = "block"
	ScopeTxid             Scope = "txid"
	ScopeInputs           Scope = "inputs"
	ScopeOutputs          Scope = "outputs"
	ScopeStacksProtocol   Scope = "stacks_protocol"
	ScopeOrdinalsProtocol Scope = "ordinals_protocol"
)

// InputKind discriminates the Inputs predicate variants.
type InputKind string

const (
	InputTxid          InputKind = "txid"
	InputWitnessScript InputKind = "witness_script"
)

// TxinPredicate matches an input spending a specific previous output.
type TxinPredicate struct {
	Txid string `json:"txid"`
	Vout uint32 `json:"vout"`
}

// OutputKind discriminates the Outputs predicate variants.
type OutputKind string

const (
	OutputOpReturn   OutputKind = "op_return"
	OutputP2pkh      OutputKind = "p2pkh"
	OutputP2sh       OutputKind = "p2sh"
	OutputP2wpkh     OutputKind = "p2wpkh"
	OutputP2wsh      OutputKind = "p2wsh"
	OutputDescriptor OutputKind = "descriptor"
)

// DescriptorRange is the half-open [low, high) child-index range a
// wildcard descriptor is evaluated over.
type DescriptorRange struct {
	Low  uint32
	High uint32
}

// DefaultDescriptorRange is used when a wildcard descriptor's predicate
// does not set an explicit range (spec §4.1, §8 "Descriptor range default").
var DefaultDescriptorRange = DescriptorRange{Low: 0, High: 5}

// DescriptorMatchingRule matches the outputs derived from a bitcoin output
// descriptor, optionally across a child-index range.
type DescriptorMatchingRule struct {
	Expression string
	Range      *DescriptorRange
}

// StacksOp discriminates the StacksProtocol predicate variants.
type StacksOp string

const (
	StacksOpKindStackerRewarded  StacksOp = "stacker_rewarded"
	StacksOpKindBlockCommitted   StacksOp = "block_committed"
	StacksOpKindLeaderRegistered StacksOp = "leader_registered"
	StacksOpKindStxTransferred   StacksOp = "stx_transferred"
	StacksOpKindStxLocked        StacksOp = "stx_locked"
)

// OrdinalsMetaProtocol is one element of an InscriptionFeed's meta_protocols
// set.
type OrdinalsMetaProtocol string

const (
	OrdinalsMetaAll   OrdinalsMetaProtocol = "all"
	OrdinalsMetaBrc20 OrdinalsMetaProtocol = "brc-20"
)

// InscriptionFeed matches ordinal/brc20 activity (spec §4.1).
type InscriptionFeed struct {
	MetaProtocols []OrdinalsMetaProtocol // nil means "any ordinal activity"
}

// Predicate is the closed sum described by spec §4.1. Exactly one field
// group is populated, selected by Scope; Evaluate switches on it.
//
// This mirrors the tagged-enum wire shape of the upstream Rust
// BitcoinPredicateType (scope-tagged JSON, see predicate/json.go) using a
// single struct with optional variant payloads rather than an interface,
// the same pattern the api wire types in vechain-thor's api/*_types.go use
// for request bodies with a discriminator field.
type Predicate struct {
	Scope Scope

	// ScopeTxid
	Txid ExactMatchingRule

	// ScopeInputs
	InputKind     InputKind
	InputTxin     TxinPredicate
	InputWitness  MatchingRule

	// ScopeOutputs
	OutputKind       OutputKind
	OutputOpReturn   MatchingRule
	OutputAddress    ExactMatchingRule
	OutputDescriptor DescriptorMatchingRule

	// ScopeStacksProtocol
	StacksOp StacksOp

	// ScopeOrdinalsProtocol
	OrdinalsFeed InscriptionFeed
}

// Action is the closed HttpPost | FileAppend | Noop sum (spec §4.3, §6).
type Action struct {
	HTTPPost   *HTTPPostAction
	FileAppend *FileAppendAction
	Noop       bool
}

// HTTPPostAction delivers a trigger payload via webhook.
type HTTPPostAction struct {
	URL                 string
	AuthorizationHeader string
}

// FileAppendAction appends a trigger payload to a local file.
type FileAppendAction struct {
	Path string
}
