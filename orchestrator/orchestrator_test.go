// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/orchestrator"
	"github.com/omahs/chainhook/predicate"
	"github.com/omahs/chainhook/scan"
	"github.com/omahs/chainhook/status"
)

const testUUID = "11111111-1111-1111-1111-111111111111"

func testSpec() *predicate.NetworkMapSpec {
	return &predicate.NetworkMapSpec{
		UUID:    testUUID,
		Name:    "test",
		Version: 1,
		Chain:   "base",
		Networks: map[predicate.Network]predicate.NetworkFields{
			predicate.NetworkMainnet: {
				Rule:   predicate.Predicate{Scope: predicate.ScopeBlock},
				Action: predicate.Action{Noop: true},
			},
		},
	}
}

func TestOrchestrator_RegisterEnqueuesScanJob(t *testing.T) {
	store := status.NewMemoryStore()
	baseQ := make(chan scan.Job, 1)

	o := &orchestrator.Orchestrator{
		Network:   predicate.NetworkMainnet,
		Status:    store,
		BaseQueue: baseQ,
	}

	events := make(chan orchestrator.ObserverEvent, 2)
	events <- orchestrator.PredicateRegistered(testSpec())
	events <- orchestrator.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx, events))

	select {
	case job := <-baseQ:
		assert.Equal(t, testUUID, job.Instance.UUID)
	default:
		t.Fatal("expected a scan job to be enqueued")
	}

	rec, err := store.GetStatus(context.Background(), status.BaseKey(testUUID))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, status.PhaseNew, rec.Phase)
}

func TestOrchestrator_BaseChainEventAppliesMergeRules(t *testing.T) {
	store := status.NewMemoryStore()
	require.NoError(t, store.PutStatus(context.Background(), status.BaseKey("p1"), status.Record{Phase: status.PhaseStreaming}))

	o := &orchestrator.Orchestrator{
		Network: predicate.NetworkMainnet,
		Status:  store,
	}

	report := chainmodel.NewReport()
	report.Evaluated["p1"] = []chainmodel.BlockIdentifier{{Index: 10, Hash: "h"}}
	report.Triggered["p1"] = []chainmodel.BlockIdentifier{{Index: 10, Hash: "h"}}

	events := make(chan orchestrator.ObserverEvent, 2)
	events <- orchestrator.BaseChainEvent(chainmodel.NewAppliedBlocks(nil), report)
	events <- orchestrator.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx, events))

	rec, err := store.GetStatus(context.Background(), status.BaseKey("p1"))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, uint64(10), rec.LastEvaluatedHeight)
	assert.Equal(t, uint64(1), rec.TimesTriggered)
}
