// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

// Network is the target base-chain network a predicate instance is scoped
// to (spec §3). It is also used to pick address-decoding parameters.
type Network string

const (
	NetworkMainnet  Network = "mainnet"
	NetworkTestnet  Network = "testnet"
	NetworkRegtest  Network = "regtest"
	NetworkSignet   Network = "signet"
)

// Params returns the chaincfg parameters used to decode addresses for this
// network, grounded on the btcsuite address-decoding stack already present
// in the retrieval pack (ethereum-go-ethereum, luxfi-evm indirect deps;
// leanlp-BTC-coinjoin direct dep).
func (n Network) Params() (*chaincfg.Params, error) {
	switch n {
	case NetworkMainnet:
		return &chaincfg.MainNetParams, nil
	case NetworkTestnet:
		return &chaincfg.TestNet3Params, nil
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams, nil
	case NetworkSignet:
		return &chaincfg.SigNetParams, nil
	default:
		return nil, errors.Wrapf(ErrUnknownNetwork, "network %q", n)
	}
}

// Valid reports whether n is one of the four recognized networks.
func (n Network) Valid() bool {
	_, err := n.Params()
	return err == nil
}
