// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omahs/chainhook/predicate"
)

func TestMatchingRule_OpReturnRoundTrip(t *testing.T) {
	// spec §8 "OP_RETURN round-trip": Equals(p) matches regardless of 0x
	// prefixing or letter case in p.
	payload := "68656c6c6f" // "hello" hex

	rule := predicate.EqualsRule("0x" + payload)
	assert.True(t, rule.MatchOpReturn(payload))

	rule = predicate.EqualsRule("0x" + "68656C6C6F") // same bytes, upper hex
	assert.True(t, rule.MatchOpReturn(payload))
}

func TestMatchingRule_StartsWithEndsWith(t *testing.T) {
	assert.True(t, predicate.StartsWithRule("0x6865").MatchOpReturn("68656c6c6f"))
	assert.True(t, predicate.EndsWithRule("0x6c6f").MatchOpReturn("68656c6c6f"))
	assert.False(t, predicate.StartsWithRule("0xffff").MatchOpReturn("68656c6c6f"))
}

func TestMatchingRule_JSONRoundTrip(t *testing.T) {
	rule := predicate.StartsWithRule("0xdead")
	raw, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.JSONEq(t, `{"starts_with":"0xdead"}`, string(raw))

	var decoded predicate.MatchingRule
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.True(t, decoded.MatchOpReturn("dead"))
}

func TestExactMatchingRule_RequiresEquals(t *testing.T) {
	var decoded predicate.ExactMatchingRule
	err := json.Unmarshal([]byte(`{"starts_with":"x"}`), &decoded)
	assert.Error(t, err)
}
