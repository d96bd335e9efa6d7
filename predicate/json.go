// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import (
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// This file implements the JSON wire format from spec §6: the `if_this`/
// `then_that` field names are preserved verbatim (see SPEC_FULL.md
// "Supplemented features" #2) rather than renamed to something generic.

type predicateWire struct {
	Scope Scope `json:"scope"`

	// txid
	Equals *string `json:"equals,omitempty"`

	// inputs
	Txid          *TxinPredicate `json:"txid,omitempty"`
	WitnessScript *MatchingRule  `json:"witness_script,omitempty"`

	// outputs
	OpReturn   *MatchingRule            `json:"op_return,omitempty"`
	P2pkh      *ExactMatchingRule       `json:"p2pkh,omitempty"`
	P2sh       *ExactMatchingRule       `json:"p2sh,omitempty"`
	P2wpkh     *ExactMatchingRule       `json:"p2wpkh,omitempty"`
	P2wsh      *ExactMatchingRule       `json:"p2wsh,omitempty"`
	Descriptor *descriptorWire          `json:"descriptor,omitempty"`

	// stacks_protocol
	Operation *StacksOp `json:"operation,omitempty"`

	// ordinals_protocol
	InscriptionFeed *inscriptionFeedWire `json:"inscription_feed,omitempty"`
}

type descriptorWire struct {
	Expression string     `json:"expression"`
	Range      *[2]uint32 `json:"range,omitempty"`
}

type inscriptionFeedWire struct {
	MetaProtocols *[]OrdinalsMetaProtocol `json:"meta_protocols,omitempty"`
}

// MarshalJSON renders the predicate as a scope-tagged object, matching the
// upstream `#[serde(tag = "scope")]` shape.
func (p Predicate) MarshalJSON() ([]byte, error) {
	w := predicateWire{Scope: p.Scope}
	switch p.Scope {
	case ScopeBlock:
	case ScopeTxid:
		w.Equals = &p.Txid.Pattern
	case ScopeInputs:
		switch p.InputKind {
		case InputTxid:
			w.Txid = &p.InputTxin
		case InputWitnessScript:
			w.WitnessScript = &p.InputWitness
		}
	case ScopeOutputs:
		switch p.OutputKind {
		case OutputOpReturn:
			w.OpReturn = &p.OutputOpReturn
		case OutputP2pkh:
			w.P2pkh = &p.OutputAddress
		case OutputP2sh:
			w.P2sh = &p.OutputAddress
		case OutputP2wpkh:
			w.P2wpkh = &p.OutputAddress
		case OutputP2wsh:
			w.P2wsh = &p.OutputAddress
		case OutputDescriptor:
			dw := &descriptorWire{Expression: p.OutputDescriptor.Expression}
			if r := p.OutputDescriptor.Range; r != nil {
				dw.Range = &[2]uint32{r.Low, r.High}
			}
			w.Descriptor = dw
		}
	case ScopeStacksProtocol:
		w.Operation = &p.StacksOp
	case ScopeOrdinalsProtocol:
		fw := &inscriptionFeedWire{}
		if p.OrdinalsFeed.MetaProtocols != nil {
			fw.MetaProtocols = &p.OrdinalsFeed.MetaProtocols
		}
		w.InscriptionFeed = fw
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses a scope-tagged predicate object, rejecting unknown
// scopes and malformed ranges at parse time (spec §9 open question #2,
// SPEC_FULL.md "Supplemented features" #1).
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var w predicateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Predicate{Scope: w.Scope}
	switch w.Scope {
	case ScopeBlock:
	case ScopeTxid:
		if w.Equals == nil {
			return errors.Wrap(ErrInvalidPredicate, "txid predicate requires 'equals'")
		}
		p.Txid = ExactMatchingRule{Pattern: *w.Equals}
	case ScopeInputs:
		switch {
		case w.Txid != nil:
			p.InputKind = InputTxid
			p.InputTxin = *w.Txid
		case w.WitnessScript != nil:
			p.InputKind = InputWitnessScript
			p.InputWitness = *w.WitnessScript
		default:
			return errors.Wrap(ErrInvalidPredicate, "inputs predicate requires 'txid' or 'witness_script'")
		}
	case ScopeOutputs:
		switch {
		case w.OpReturn != nil:
			p.OutputKind, p.OutputOpReturn = OutputOpReturn, *w.OpReturn
		case w.P2pkh != nil:
			p.OutputKind, p.OutputAddress = OutputP2pkh, *w.P2pkh
		case w.P2sh != nil:
			p.OutputKind, p.OutputAddress = OutputP2sh, *w.P2sh
		case w.P2wpkh != nil:
			p.OutputKind, p.OutputAddress = OutputP2wpkh, *w.P2wpkh
		case w.P2wsh != nil:
			p.OutputKind, p.OutputAddress = OutputP2wsh, *w.P2wsh
		case w.Descriptor != nil:
			p.OutputKind = OutputDescriptor
			p.OutputDescriptor.Expression = w.Descriptor.Expression
			if w.Descriptor.Range != nil {
				r := w.Descriptor.Range
				if !(r[0] < r[1]) {
					return errors.Wrap(ErrInvalidPredicate, "descriptor range[0] must be < range[1]")
				}
				p.OutputDescriptor.Range = &DescriptorRange{Low: r[0], High: r[1]}
			}
		default:
			return errors.Wrap(ErrInvalidPredicate, "outputs predicate requires a known variant")
		}
	case ScopeStacksProtocol:
		if w.Operation == nil {
			return errors.Wrap(ErrInvalidPredicate, "stacks_protocol predicate requires 'operation'")
		}
		p.StacksOp = *w.Operation
	case ScopeOrdinalsProtocol:
		if w.InscriptionFeed != nil && w.InscriptionFeed.MetaProtocols != nil {
			p.OrdinalsFeed.MetaProtocols = *w.InscriptionFeed.MetaProtocols
		}
	default:
		return errors.Wrapf(ErrInvalidPredicate, "unknown scope %q", w.Scope)
	}
	return p.validate()
}

type actionWire struct {
	HTTPPost   *HTTPPostAction   `json:"http_post,omitempty"`
	FileAppend *FileAppendAction `json:"file_append,omitempty"`
	Noop       *bool             `json:"noop,omitempty"`
}

// MarshalJSON renders the action's single populated variant.
func (a Action) MarshalJSON() ([]byte, error) {
	w := actionWire{HTTPPost: a.HTTPPost, FileAppend: a.FileAppend}
	if a.Noop {
		t := true
		w.Noop = &t
	}
	return json.Marshal(w)
}

// UnmarshalJSON requires exactly one of http_post/file_append/noop.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w actionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	set := 0
	*a = Action{}
	if w.HTTPPost != nil {
		a.HTTPPost = w.HTTPPost
		set++
	}
	if w.FileAppend != nil {
		a.FileAppend = w.FileAppend
		set++
	}
	if w.Noop != nil && *w.Noop {
		a.Noop = true
		set++
	}
	if set != 1 {
		return errors.Wrap(ErrInvalidPredicate, "then_that must set exactly one of http_post/file_append/noop")
	}
	return nil
}

// networkMapWire mirrors the top-level predicate file shape from spec §6.
type networkMapWire struct {
	UUID      string                      `json:"uuid"`
	OwnerUUID *string                     `json:"owner_uuid,omitempty"`
	Name      string                      `json:"name"`
	Chain     string                      `json:"chain"`
	Version   uint32                      `json:"version"`
	Networks  map[Network]networkFieldsWire `json:"networks"`
}

type networkFieldsWire struct {
	Blocks                []uint64 `json:"blocks,omitempty"`
	StartBlock            *uint64  `json:"start_block,omitempty"`
	EndBlock              *uint64  `json:"end_block,omitempty"`
	ExpireAfterOccurrence *uint64  `json:"expire_after_occurrence,omitempty"`
	IncludeProof          bool     `json:"include_proof,omitempty"`
	IncludeInputs         bool     `json:"include_inputs,omitempty"`
	IncludeOutputs        bool     `json:"include_outputs,omitempty"`
	IncludeWitness        bool     `json:"include_witness,omitempty"`
	IfThis                Predicate `json:"if_this"`
	ThenThat              Action    `json:"then_that"`
}

// ParseNetworkMapSpec parses a predicate file (spec §6).
func ParseNetworkMapSpec(data []byte) (*NetworkMapSpec, error) {
	var w networkMapWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "parsing predicate file")
	}
	if w.Chain != "base" && w.Chain != "app" {
		return nil, errors.Wrapf(ErrInvalidPredicate, "unknown chain %q", w.Chain)
	}
	m := &NetworkMapSpec{
		UUID:     w.UUID,
		Name:     w.Name,
		Chain:    w.Chain,
		Version:  w.Version,
		Networks: make(map[Network]NetworkFields, len(w.Networks)),
	}
	if w.OwnerUUID != nil {
		m.OwnerUUID = *w.OwnerUUID
	}
	for net, f := range w.Networks {
		m.Networks[net] = NetworkFields{
			Blocks:                f.Blocks,
			StartBlock:            f.StartBlock,
			EndBlock:              f.EndBlock,
			ExpireAfterOccurrence: f.ExpireAfterOccurrence,
			IncludeProof:          f.IncludeProof,
			IncludeInputs:         f.IncludeInputs,
			IncludeOutputs:        f.IncludeOutputs,
			IncludeWitness:        f.IncludeWitness,
			Rule:                  f.IfThis,
			Action:                f.ThenThat,
		}
	}
	return m, nil
}

// MarshalJSON renders the network map back to the predicate file shape.
func (m *NetworkMapSpec) MarshalJSON() ([]byte, error) {
	w := networkMapWire{
		UUID:     m.UUID,
		Name:     m.Name,
		Chain:    m.Chain,
		Version:  m.Version,
		Networks: make(map[Network]networkFieldsWire, len(m.Networks)),
	}
	if m.OwnerUUID != "" {
		w.OwnerUUID = &m.OwnerUUID
	}
	for net, f := range m.Networks {
		w.Networks[net] = networkFieldsWire{
			Blocks:                f.Blocks,
			StartBlock:            f.StartBlock,
			EndBlock:              f.EndBlock,
			ExpireAfterOccurrence: f.ExpireAfterOccurrence,
			IncludeProof:          f.IncludeProof,
			IncludeInputs:         f.IncludeInputs,
			IncludeOutputs:        f.IncludeOutputs,
			IncludeWitness:        f.IncludeWitness,
			IfThis:                f.Rule,
			ThenThat:              f.Action,
		}
	}
	return json.Marshal(w)
}
