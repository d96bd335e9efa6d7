// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"

	"github.com/omahs/chainhook/chainmodel"
)

// opReturnOpcode is the mandatory-0x-prefix script_pubkey opcode that
// marks a provably-unspendable data-carrier output (spec §4.1).
const opReturnOpcode = "6a"

// Evaluate is the pure, side-effect-free per-transaction test described by
// spec §4.1. It never mutates tx and never does I/O. net is the instance's
// target network, required to decode addresses and descriptors.
func (p *Predicate) Evaluate(tx *chainmodel.Transaction, net Network) (bool, error) {
	switch p.Scope {
	case ScopeBlock:
		return true, nil
	case ScopeTxid:
		// Case-sensitive hex comparison, no 0x prefix (spec §4.1).
		return tx.Identifier.Hash == p.Txid.Pattern, nil
	case ScopeInputs:
		return p.evaluateInputs(tx)
	case ScopeOutputs:
		return p.evaluateOutputs(tx, net)
	case ScopeStacksProtocol:
		return p.evaluateStacksProtocol(tx), nil
	case ScopeOrdinalsProtocol:
		return p.evaluateOrdinalsProtocol(tx), nil
	default:
		return false, errors.Wrapf(ErrInvalidPredicate, "unknown scope %q", p.Scope)
	}
}

func (p *Predicate) evaluateInputs(tx *chainmodel.Transaction) (bool, error) {
	switch p.InputKind {
	case InputTxid:
		for _, in := range tx.Metadata.Inputs {
			if in.PreviousOutput.Txid.Hash == p.InputTxin.Txid && in.PreviousOutput.Vout == p.InputTxin.Vout {
				return true, nil
			}
		}
		return false, nil
	case InputWitnessScript:
		// Reserved: spec §9 open question #2 — reject rather than
		// silently accept. Validate() already refuses this at
		// registration time; evaluation-time callers that bypass
		// Validate hit the same guard here.
		return false, errors.Wrap(ErrUnsupportedPredicate, "inputs.witness_script")
	default:
		return false, errors.Wrap(ErrInvalidPredicate, "unknown inputs predicate kind")
	}
}

func (p *Predicate) evaluateOutputs(tx *chainmodel.Transaction, net Network) (bool, error) {
	switch p.OutputKind {
	case OutputOpReturn:
		return p.evaluateOpReturn(tx), nil
	case OutputP2pkh, OutputP2sh, OutputP2wpkh, OutputP2wsh:
		return p.evaluateAddress(tx, net)
	case OutputDescriptor:
		return p.evaluateDescriptor(tx, net)
	default:
		return false, errors.Wrap(ErrInvalidPredicate, "unknown outputs predicate kind")
	}
}

// evaluateOpReturn implements the OP_RETURN round-trip property (spec §8):
// for each output whose script_pubkey begins with the opcode (after the
// mandatory 0x prefix), skip the length byte and test the remaining
// payload against the rule.
func (p *Predicate) evaluateOpReturn(tx *chainmodel.Transaction) bool {
	for _, out := range tx.Metadata.Outputs {
		payload, ok := opReturnPayload(out.ScriptPubkey)
		if !ok {
			continue
		}
		if p.OutputOpReturn.MatchOpReturn(payload) {
			return true
		}
	}
	return false
}

// opReturnPayload extracts the hex-encoded data payload from a
// script_pubkey hex string of the form 0x6a<len><data>.
func opReturnPayload(scriptPubkeyHex string) (string, bool) {
	s := strings.TrimPrefix(strings.ToLower(scriptPubkeyHex), "0x")
	if !strings.HasPrefix(s, opReturnOpcode) {
		return "", false
	}
	rest := s[len(opReturnOpcode):]
	// rest is <len-byte-hex><data-hex>; skip the length byte (2 hex chars).
	if len(rest) < 2 {
		return "", false
	}
	return rest[2:], true
}

// evaluateAddress implements the P2pkh|P2sh|P2wpkh|P2wsh Equals(addr)
// variants (spec §4.1, §8 "Address round-trip").
func (p *Predicate) evaluateAddress(tx *chainmodel.Transaction, net Network) (bool, error) {
	params, err := net.Params()
	if err != nil {
		return false, err
	}
	addr, err := btcutil.DecodeAddress(p.OutputAddress.Pattern, params)
	if err != nil {
		return false, nil //nolint:nilerr // an address that doesn't decode just never matches
	}

	// The decoded address's concrete type must agree with the requested
	// output kind: a bech32 address passed to a P2pkh/P2sh predicate must
	// not silently match a witness output, and vice versa (spec §8
	// "Address round-trip").
	switch p.OutputKind {
	case OutputP2wpkh:
		if _, ok := addr.(*btcutil.AddressWitnessPubKeyHash); !ok {
			return false, nil
		}
	case OutputP2wsh:
		if _, ok := addr.(*btcutil.AddressWitnessScriptHash); !ok {
			return false, nil
		}
	case OutputP2pkh:
		if _, ok := addr.(*btcutil.AddressPubKeyHash); !ok {
			return false, nil
		}
	case OutputP2sh:
		if _, ok := addr.(*btcutil.AddressScriptHash); !ok {
			return false, nil
		}
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return false, nil //nolint:nilerr
	}
	want := hex.EncodeToString(script)
	return matchesAnyOutput(tx, want), nil
}

// evaluateDescriptor implements the Descriptor{expression, range} variant.
func (p *Predicate) evaluateDescriptor(tx *chainmodel.Transaction, net Network) (bool, error) {
	params, err := net.Params()
	if err != nil {
		return false, err
	}
	desc, err := parseDescriptorCached(p.OutputDescriptor.Expression, params)
	if err != nil {
		return false, err
	}

	r := DescriptorRange{Low: 0, High: 1}
	if desc.HasWildcard() {
		if p.OutputDescriptor.Range != nil {
			r = *p.OutputDescriptor.Range
		} else {
			r = DefaultDescriptorRange
		}
	}

	for i := r.Low; i < r.High; i++ {
		script, err := desc.scriptPubkeyAt(i, params)
		if err != nil {
			return false, err
		}
		if matchesAnyOutput(tx, hex.EncodeToString(script)) {
			return true, nil
		}
	}
	return false, nil
}

// matchesAnyOutput compares a derived script_pubkey (hex, no envelope) to
// each output's script_pubkey with its 2-byte envelope prefix stripped.
func matchesAnyOutput(tx *chainmodel.Transaction, wantHex string) bool {
	for _, out := range tx.Metadata.Outputs {
		s := out.ScriptPubkey
		if len(s) < 2 {
			continue
		}
		if s[2:] == wantHex {
			return true
		}
	}
	return false
}

func (p *Predicate) evaluateStacksProtocol(tx *chainmodel.Transaction) bool {
	// StackerRewarded currently aliases BlockCommitted; spec §9 open
	// question #1 — preserve the existing equivalence.
	want := string(p.StacksOp)
	if p.StacksOp == StacksOpKindStackerRewarded {
		want = chainmodel.StacksOpBlockCommitted
	} else {
		switch p.StacksOp {
		case StacksOpKindBlockCommitted:
			want = chainmodel.StacksOpBlockCommitted
		case StacksOpKindLeaderRegistered:
			want = chainmodel.StacksOpLeaderRegistered
		case StacksOpKindStxTransferred:
			want = chainmodel.StacksOpStxTransferred
		case StacksOpKindStxLocked:
			want = chainmodel.StacksOpStxLocked
		}
	}
	for _, op := range tx.Metadata.StacksOperations {
		if op.Kind == want {
			return true
		}
	}
	return false
}

func (p *Predicate) evaluateOrdinalsProtocol(tx *chainmodel.Transaction) bool {
	if p.OrdinalsFeed.MetaProtocols == nil {
		return len(tx.Metadata.OrdinalOperations) > 0
	}
	for _, meta := range p.OrdinalsFeed.MetaProtocols {
		switch meta {
		case OrdinalsMetaAll:
			if len(tx.Metadata.OrdinalOperations) > 0 {
				return true
			}
		case OrdinalsMetaBrc20:
			if tx.Metadata.Brc20Operation != nil {
				return true
			}
		}
	}
	return false
}
