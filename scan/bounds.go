// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scan

// Bounds is the clamped, concrete block range one scan pass covers
// (spec §4.5): "[max(start_block, tip_low), min(end_block, current_tip)]".
type Bounds struct {
	Low  uint64
	High uint64
}

// Empty reports whether the range covers no blocks at all.
func (b Bounds) Empty() bool {
	return b.Low > b.High
}

// ComputeBounds clamps a predicate's requested [startBlock, endBlock] window
// against the chain's available range. A nil startBlock defaults to
// tipLow; a nil endBlock defaults to currentTip (an open-ended tail scans
// up to the live tip and then hands off to streaming).
func ComputeBounds(startBlock, endBlock *uint64, tipLow, currentTip uint64) Bounds {
	low := tipLow
	if startBlock != nil && *startBlock > low {
		low = *startBlock
	}
	high := currentTip
	if endBlock != nil && *endBlock < high {
		high = *endBlock
	}
	return Bounds{Low: low, High: high}
}
