// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package archive_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/archive"
)

func TestIsFresh(t *testing.T) {
	local := "ABCDEF0123456789ABCDEF0123456789"
	remote := []byte("abcdef0123456789abcdef0123456789-extra-trailer-bytes")
	assert.True(t, archive.IsFresh(local, remote))
	assert.False(t, archive.IsFresh(local, []byte("ffffffff")))
	assert.False(t, archive.IsFresh("short", remote))
}

func TestReplay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.tsv")
	require.NoError(t, os.WriteFile(path, []byte("1\t{\"a\":1}\n2\t{\"a\":2}\n\nbad-line\n"), 0o600))

	var heights []uint64
	require.NoError(t, archive.Replay(path, func(r archive.Record) error {
		heights = append(heights, r.Height)
		return nil
	}))
	assert.Equal(t, []uint64{1, 2}, heights)
}
