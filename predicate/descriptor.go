// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// descriptorCache memoizes parseDescriptor: the same expression is parsed
// once per range scan or live stream rather than once per block, since
// extended-key derivation setup (hdkeychain.NewKeyFromString) is the
// expensive part and the parsed form never changes for a fixed predicate.
var descriptorCache, _ = lru.New(256)

type descriptorCacheKey struct {
	expr string
	net  string
}

// parseDescriptorCached wraps parseDescriptor with descriptorCache.
func parseDescriptorCached(expr string, net *chaincfg.Params) (*descriptor, error) {
	key := descriptorCacheKey{expr: expr, net: net.Name}
	if v, ok := descriptorCache.Get(key); ok {
		return v.(*descriptor), nil
	}
	desc, err := parseDescriptor(expr, net)
	if err != nil {
		return nil, err
	}
	descriptorCache.Add(key, desc)
	return desc, nil
}

// descriptor is a parsed bitcoin output descriptor, reduced to what §4.1
// needs: a script function (pkh or wpkh) and an extended key expression
// that is either a single compressed pubkey or an xpub with a wildcard
// child path ("xpub.../0/*"). Multisig (sh(multi(...))), wsh and taproot
// descriptors are rejected by parseDescriptor with ErrUnsupportedPredicate.
type descriptor struct {
	fn         string
	xpub       *hdkeychain.ExtendedKey
	pubkeyHex  string
	hasWildcard bool
}

// parseDescriptor parses the subset of BIP380 descriptor syntax spec §4.1
// requires: `fn(KEY)`, optionally wrapped once in `sh(...)`, where KEY is
// either a hex-encoded compressed public key or an extended public key
// followed by a derivation path ending in the wildcard marker "/*".
func parseDescriptor(expr string, net *chaincfg.Params) (*descriptor, error) {
	expr = strings.TrimSpace(expr)
	fn, inner, err := splitDescriptorFn(expr)
	if err != nil {
		return nil, err
	}
	if fn == "sh" {
		// sh(wpkh(KEY)) nested form; unwrap one level.
		innerFn, innerKey, err := splitDescriptorFn(inner)
		if err == nil && (innerFn == "wpkh" || innerFn == "pkh") {
			fn, inner = innerFn, innerKey
		}
	}

	switch fn {
	case "pkh", "wpkh":
		// supported below
	default:
		return nil, errors.Wrapf(ErrUnsupportedPredicate, "descriptor function %q", fn)
	}

	d := &descriptor{fn: fn}
	if idx := strings.LastIndex(inner, "/*"); idx >= 0 {
		d.hasWildcard = true
		keyPart := inner[:idx]
		// Drop an optional origin info prefix "[fingerprint/path]".
		if i := strings.LastIndex(keyPart, "]"); i >= 0 {
			keyPart = keyPart[i+1:]
		}
		// keyPart is "<xpub>/<derivation-path-without-wildcard>"
		segs := strings.Split(keyPart, "/")
		xpub, err := hdkeychain.NewKeyFromString(segs[0])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidPredicate, "descriptor key: %v", err)
		}
		for _, seg := range segs[1:] {
			if seg == "" {
				continue
			}
			hardened := strings.HasSuffix(seg, "h") || strings.HasSuffix(seg, "'")
			seg = strings.TrimSuffix(strings.TrimSuffix(seg, "h"), "'")
			var idxVal uint32
			for _, c := range seg {
				if c < '0' || c > '9' {
					return nil, errors.Wrap(ErrInvalidPredicate, "descriptor path segment is not numeric")
				}
			}
			for _, c := range seg {
				idxVal = idxVal*10 + uint32(c-'0')
			}
			if hardened {
				idxVal += hdkeychain.HardenedKeyStart
			}
			xpub, err = xpub.Derive(idxVal)
			if err != nil {
				return nil, errors.Wrap(err, "deriving descriptor path")
			}
		}
		d.xpub = xpub
		return d, nil
	}

	if i := strings.LastIndex(inner, "]"); i >= 0 {
		inner = inner[i+1:]
	}
	d.pubkeyHex = inner
	return d, nil
}

func splitDescriptorFn(expr string) (fn string, inner string, err error) {
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return "", "", errors.Wrap(ErrInvalidPredicate, "malformed descriptor expression")
	}
	return expr[:open], expr[open+1 : len(expr)-1], nil
}

// HasWildcard reports whether the descriptor requires a child index to
// derive a concrete address (spec §4.1, §8 "Descriptor range default").
func (d *descriptor) HasWildcard() bool { return d.hasWildcard }

// scriptPubkeyAt derives the script_pubkey bytes for child index i (ignored
// when the descriptor has no wildcard).
func (d *descriptor) scriptPubkeyAt(i uint32, net *chaincfg.Params) ([]byte, error) {
	var pubkeyBytes []byte
	if d.hasWildcard {
		child, err := d.xpub.Derive(i)
		if err != nil {
			return nil, errors.Wrap(err, "deriving descriptor child key")
		}
		pub, err := child.ECPubKey()
		if err != nil {
			return nil, errors.Wrap(err, "descriptor child pubkey")
		}
		pubkeyBytes = pub.SerializeCompressed()
	} else {
		var err error
		pubkeyBytes, err = decodeHexPubkey(d.pubkeyHex)
		if err != nil {
			return nil, err
		}
	}

	switch d.fn {
	case "pkh":
		addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubkeyBytes), net)
		if err != nil {
			return nil, err
		}
		return txscript.PayToAddrScript(addr)
	case "wpkh":
		addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pubkeyBytes), net)
		if err != nil {
			return nil, err
		}
		return txscript.PayToAddrScript(addr)
	default:
		return nil, errors.Wrapf(ErrUnsupportedPredicate, "descriptor function %q", d.fn)
	}
}

func decodeHexPubkey(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrap(ErrInvalidPredicate, "descriptor key is not hex")
	}
	return b, nil
}
