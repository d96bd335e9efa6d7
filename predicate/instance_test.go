// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/predicate"
)

const instanceTestUUID = "22222222-2222-2222-2222-222222222222"

func testNetworkMapSpec() *predicate.NetworkMapSpec {
	return &predicate.NetworkMapSpec{
		UUID:  instanceTestUUID,
		Chain: "base",
		Networks: map[predicate.Network]predicate.NetworkFields{
			predicate.NetworkMainnet: {
				Rule:   predicate.Predicate{Scope: predicate.ScopeBlock},
				Action: predicate.Action{Noop: true},
			},
		},
	}
}

func TestProject_FailsWhenNetworkAbsent(t *testing.T) {
	m := testNetworkMapSpec()
	_, err := m.Project(predicate.NetworkTestnet)
	assert.ErrorIs(t, err, predicate.ErrUnknownNetwork)
}

func TestProject_ReturnsInstanceScopedToRequestedNetwork(t *testing.T) {
	m := testNetworkMapSpec()
	inst, err := m.Project(predicate.NetworkMainnet)
	require.NoError(t, err)
	assert.Equal(t, predicate.NetworkMainnet, inst.Network)
	assert.Equal(t, instanceTestUUID, inst.UUID)
}

func TestValidate_RejectsWitnessScriptInput(t *testing.T) {
	inst := &predicate.Instance{
		UUID:    instanceTestUUID,
		Network: predicate.NetworkMainnet,
		Rule:    predicate.Predicate{Scope: predicate.ScopeInputs, InputKind: predicate.InputWitnessScript},
		Action:  predicate.Action{Noop: true},
	}
	err := inst.Validate()
	assert.ErrorIs(t, err, predicate.ErrUnsupportedPredicate)
}

func TestValidate_RejectsMalformedUUID(t *testing.T) {
	inst := &predicate.Instance{
		UUID:    "not-a-uuid",
		Network: predicate.NetworkMainnet,
		Rule:    predicate.Predicate{Scope: predicate.ScopeBlock},
		Action:  predicate.Action{Noop: true},
	}
	err := inst.Validate()
	assert.ErrorIs(t, err, predicate.ErrInvalidPredicate)
}
