// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package scan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omahs/chainhook/scan"
)

func u64(v uint64) *uint64 { return &v }

func TestComputeBounds_OpenTail(t *testing.T) {
	b := scan.ComputeBounds(u64(10), nil, 0, 100)
	assert.Equal(t, scan.Bounds{Low: 10, High: 100}, b)
}

func TestComputeBounds_ClampedByTipLow(t *testing.T) {
	b := scan.ComputeBounds(nil, u64(50), 20, 100)
	assert.Equal(t, scan.Bounds{Low: 20, High: 50}, b)
}

func TestComputeBounds_Empty(t *testing.T) {
	b := scan.ComputeBounds(u64(200), u64(50), 0, 100)
	assert.True(t, b.Empty())
}
