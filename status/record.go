// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package status implements the per-predicate lifecycle + counters record
// and its merge-rule updates against an external keyed KV (spec §4.4).
package status

import "github.com/ethereum/go-ethereum/log"

var logger = log.New("pkg", "status")

// Phase is the tagged-variant discriminator for Record (spec §3).
type Phase string

const (
	PhaseNew         Phase = "new"
	PhaseScanning    Phase = "scanning"
	PhaseStreaming   Phase = "streaming"
	PhaseExpired     Phase = "expired"
	PhaseInterrupted Phase = "interrupted"
)

// Record is one predicate's persisted lifecycle + counters view.
// Fields not meaningful for the current Phase are zero.
type Record struct {
	Phase Phase

	// Scanning
	BlocksToScan uint64

	// Scanning / Streaming / Expired (shared counters, monotone across
	// transitions per spec §3 "Counters are monotonically non-decreasing").
	BlocksEvaluated     uint64
	TimesTriggered      uint64
	LastOccurrenceMS    int64
	LastEvaluatedHeight uint64

	// Streaming only
	LastEvaluationMS int64

	// Interrupted only
	InterruptReason string
}

// Key identifies a predicate's status-store entry, tagged with its chain
// kind (spec §4.4 "Key convention").
type Key struct {
	Chain string // "base" | "app"
	UUID  string
}

const (
	ChainBase = "base"
	ChainApp  = "app"
)

// String renders the key in its wire form, e.g. "base:<uuid>".
func (k Key) String() string {
	return k.Chain + ":" + k.UUID
}

// BaseKey builds a base-chain status key.
func BaseKey(uuid string) Key { return Key{Chain: ChainBase, UUID: uuid} }

// AppKey builds an app-chain status key.
func AppKey(uuid string) Key { return Key{Chain: ChainApp, UUID: uuid} }
