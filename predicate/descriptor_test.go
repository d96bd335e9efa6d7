// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate_test

import (
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/predicate"
)

// bip32TestVector1Xpub is the well-known BIP32 test-vector-1 master xpub.
const bip32TestVector1Xpub = "xpub661MyMwAqkbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8"

func wpkhScriptAt(t *testing.T, childIndex uint32) string {
	t.Helper()
	xpub, err := hdkeychain.NewKeyFromString(bip32TestVector1Xpub)
	require.NoError(t, err)
	child, err := xpub.Derive(0)
	require.NoError(t, err)
	child, err = child.Derive(childIndex)
	require.NoError(t, err)
	pub, err := child.ECPubKey()
	require.NoError(t, err)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), &chaincfg.MainNetParams)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return hex.EncodeToString(script)
}

func TestEvaluate_DescriptorRangeDefault(t *testing.T) {
	// spec §8 "Descriptor range default": a wildcard descriptor with no
	// explicit range evaluates over child indices [0, 5).
	expr := "wpkh(" + bip32TestVector1Xpub + "/0/*)"
	tx := outputTx(wpkhScriptAt(t, 4))

	p := predicate.Predicate{
		Scope:            predicate.ScopeOutputs,
		OutputKind:       predicate.OutputDescriptor,
		OutputDescriptor: predicate.DescriptorMatchingRule{Expression: expr},
	}
	ok, err := p.Evaluate(tx, predicate.NetworkMainnet)
	require.NoError(t, err)
	require.True(t, ok, "index 4 is within the default [0,5) range")
}

func TestEvaluate_DescriptorExplicitRangeExcludesIndex(t *testing.T) {
	expr := "wpkh(" + bip32TestVector1Xpub + "/0/*)"
	tx := outputTx(wpkhScriptAt(t, 4))

	p := predicate.Predicate{
		Scope:      predicate.ScopeOutputs,
		OutputKind: predicate.OutputDescriptor,
		OutputDescriptor: predicate.DescriptorMatchingRule{
			Expression: expr,
			Range:      &predicate.DescriptorRange{Low: 0, High: 2},
		},
	}
	ok, err := p.Evaluate(tx, predicate.NetworkMainnet)
	require.NoError(t, err)
	require.False(t, ok, "index 4 is outside an explicit [0,2) range")
}
