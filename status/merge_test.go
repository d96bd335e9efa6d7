// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package status_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/status"
)

func TestSetScanning_OccurrenceFreshness(t *testing.T) {
	ctx := context.Background()
	store := status.NewMemoryStore()
	key := status.BaseKey("p1")

	require.NoError(t, status.SetScanning(ctx, store, key, 100, 10, 0, 10))
	rec, err := store.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.LastOccurrenceMS)

	require.NoError(t, status.SetScanning(ctx, store, key, 100, 20, 2, 20))
	rec, err = store.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.NotZero(t, rec.LastOccurrenceMS)

	stamped := rec.LastOccurrenceMS
	require.NoError(t, status.SetScanning(ctx, store, key, 100, 30, 2, 30))
	rec, err = store.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, stamped, rec.LastOccurrenceMS)
}

func TestSetScanning_IllegalFromStreaming(t *testing.T) {
	ctx := context.Background()
	store := status.NewMemoryStore()
	key := status.BaseKey("p1")

	require.NoError(t, store.PutStatus(ctx, key, status.Record{Phase: status.PhaseStreaming}))
	err := status.SetScanning(ctx, store, key, 1, 1, 0, 1)
	assert.ErrorIs(t, err, status.ErrIllegalTransition)
}

func TestSetStreaming_MonotoneCounters(t *testing.T) {
	ctx := context.Background()
	store := status.NewMemoryStore()
	key := status.BaseKey("p1")

	require.NoError(t, store.PutStatus(ctx, key, status.Record{Phase: status.PhaseScanning, BlocksEvaluated: 50}))

	err := status.SetStreaming(ctx, store, key, status.StreamingEvent{
		Kind: status.StreamingEvaluation, LastEvaluatedHeight: 51, EvaluatedCount: 1,
	})
	require.NoError(t, err)
	rec, err := store.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(51), rec.BlocksEvaluated)
	assert.Equal(t, uint64(0), rec.TimesTriggered)
	assert.Equal(t, int64(0), rec.LastOccurrenceMS)

	err = status.SetStreaming(ctx, store, key, status.StreamingEvent{
		Kind: status.StreamingOccurrence, LastTriggeredHeight: 52, TriggeredCount: 1,
	})
	require.NoError(t, err)
	rec, err = store.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint64(52), rec.BlocksEvaluated)
	assert.Equal(t, uint64(1), rec.TimesTriggered)
	assert.NotZero(t, rec.LastOccurrenceMS)
	assert.Equal(t, uint64(52), rec.LastEvaluatedHeight)
}

func TestSetStreaming_IllegalFromNew(t *testing.T) {
	ctx := context.Background()
	store := status.NewMemoryStore()
	key := status.BaseKey("p1")

	require.NoError(t, store.PutStatus(ctx, key, status.Record{Phase: status.PhaseNew}))
	err := status.SetStreaming(ctx, store, key, status.StreamingEvent{Kind: status.StreamingFinishedScanning})
	assert.ErrorIs(t, err, status.ErrIllegalTransition)
}

func TestSetExpired_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := status.NewMemoryStore()
	key := status.BaseKey("p1")

	require.NoError(t, store.PutStatus(ctx, key, status.Record{Phase: status.PhaseStreaming, BlocksEvaluated: 10, TimesTriggered: 3}))
	require.NoError(t, status.SetExpired(ctx, store, key, 1, 11))
	require.NoError(t, status.SetExpired(ctx, store, key, 1, 12))

	rec, err := store.GetStatus(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, status.PhaseExpired, rec.Phase)
	assert.Equal(t, uint64(12), rec.BlocksEvaluated)
	assert.Equal(t, uint64(3), rec.TimesTriggered)
	assert.Equal(t, uint64(12), rec.LastEvaluatedHeight)
}

func TestResolve_FallsBackToAppKey(t *testing.T) {
	ctx := context.Background()
	store := status.NewMemoryStore()

	require.NoError(t, store.PutStatus(ctx, status.AppKey("p1"), status.Record{Phase: status.PhaseStreaming}))

	rec, key, err := status.Resolve(ctx, store, "p1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, status.ChainApp, key.Chain)
}
