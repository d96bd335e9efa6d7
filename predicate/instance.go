// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import (
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
)

// Instance is one predicate instance scoped to a single network (spec §3).
type Instance struct {
	UUID      string
	OwnerUUID string
	Name      string
	Network   Network
	Version   uint32

	// Exactly one of Blocks / (StartBlock, EndBlock) / an open-ended tail
	// (StartBlock set, EndBlock nil) is meaningful.
	Blocks     []uint64
	StartBlock *uint64
	EndBlock   *uint64

	ExpireAfterOccurrence *uint64

	Rule   Predicate
	Action Action

	IncludeProof   bool
	IncludeInputs  bool
	IncludeOutputs bool
	IncludeWitness bool

	Enabled   bool
	ExpiredAt *uint64
}

// Key is the status-store key prefix for this instance's chain kind. The
// predicate algebra itself is chain-agnostic; callers (orchestrator, scan
// workers) know which chain they fed this instance from.
func (i *Instance) Key(chainPrefix string) string {
	return chainPrefix + ":" + i.UUID
}

// Validate enforces the registration-time checks from spec §3/§4.1/§9 that
// must reject before a predicate is ever queued to a scan worker:
// unsupported scopes, malformed ranges, and the InputPredicate::WitnessScript
// reservation (open question #2: reject rather than silently accept).
func (i *Instance) Validate() error {
	if i.UUID == "" || uuid.Parse(i.UUID) == nil {
		return errors.Wrapf(ErrInvalidPredicate, "uuid %q is not a valid uuid", i.UUID)
	}
	if !i.Network.Valid() {
		return errors.Wrapf(ErrUnknownNetwork, "network %q", i.Network)
	}
	if i.StartBlock != nil && i.EndBlock != nil && *i.StartBlock > *i.EndBlock {
		return errors.Wrap(ErrInvalidPredicate, "start_block must be <= end_block")
	}
	if err := i.Rule.validate(); err != nil {
		return err
	}
	if i.Action.HTTPPost == nil && i.Action.FileAppend == nil && !i.Action.Noop {
		return errors.Wrap(ErrInvalidPredicate, "action must set exactly one variant")
	}
	return nil
}

// validate checks scope-specific invariants without touching a transaction.
func (p *Predicate) validate() error {
	switch p.Scope {
	case ScopeBlock, ScopeTxid, ScopeStacksProtocol, ScopeOrdinalsProtocol:
		return nil
	case ScopeInputs:
		if p.InputKind == InputWitnessScript {
			return errors.Wrap(ErrUnsupportedPredicate, "inputs.witness_script is reserved")
		}
		if p.InputKind != InputTxid {
			return errors.Wrap(ErrInvalidPredicate, "unknown inputs predicate kind")
		}
		return nil
	case ScopeOutputs:
		if p.OutputKind == OutputDescriptor {
			r := p.OutputDescriptor.Range
			if r != nil && !(r.Low < r.High) {
				return errors.Wrap(ErrInvalidPredicate, "descriptor range[0] must be < range[1]")
			}
		}
		switch p.OutputKind {
		case OutputOpReturn, OutputP2pkh, OutputP2sh, OutputP2wpkh, OutputP2wsh, OutputDescriptor:
			return nil
		default:
			return errors.Wrap(ErrInvalidPredicate, "unknown outputs predicate kind")
		}
	default:
		return errors.Wrapf(ErrInvalidPredicate, "unknown scope %q", p.Scope)
	}
}

// NetworkMapSpec is a serializable envelope carrying identity plus a
// mapping network -> instance fields (spec §3, §6).
type NetworkMapSpec struct {
	UUID      string
	OwnerUUID string
	Name      string
	Version   uint32
	Chain     string // "base" | "app"
	Networks  map[Network]NetworkFields
}

// NetworkFields is the per-network portion of a NetworkMapSpec.
type NetworkFields struct {
	Blocks                []uint64
	StartBlock            *uint64
	EndBlock              *uint64
	ExpireAfterOccurrence *uint64
	IncludeProof          bool
	IncludeInputs         bool
	IncludeOutputs        bool
	IncludeWitness        bool
	Rule                  Predicate
	Action                Action
}

// Project realizes a NetworkMapSpec into an Instance for exactly one
// network (spec §8 "Projection law"): it fails with ErrUnknownNetwork iff
// n is absent from m.Networks; otherwise the returned instance has
// Network == n, and the error returned with it is that of inst.Validate().
func (m *NetworkMapSpec) Project(n Network) (*Instance, error) {
	fields, ok := m.Networks[n]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "network %q not present in predicate %s", n, m.UUID)
	}
	inst := &Instance{
		UUID:                  m.UUID,
		OwnerUUID:             m.OwnerUUID,
		Name:                  m.Name,
		Network:               n,
		Version:               m.Version,
		Blocks:                fields.Blocks,
		StartBlock:            fields.StartBlock,
		EndBlock:              fields.EndBlock,
		ExpireAfterOccurrence: fields.ExpireAfterOccurrence,
		Rule:                  fields.Rule,
		Action:                fields.Action,
		IncludeProof:          fields.IncludeProof,
		IncludeInputs:         fields.IncludeInputs,
		IncludeOutputs:        fields.IncludeOutputs,
		IncludeWitness:        fields.IncludeWitness,
		Enabled:               false,
		ExpiredAt:             nil,
	}
	return inst, inst.Validate()
}
