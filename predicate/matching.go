// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// MatchingRule is the closed StartsWith | EndsWith | Equals sub-algebra
// used by OP_RETURN matching (spec §4.1).
type MatchingRule struct {
	op      string
	pattern string
}

const (
	matchStartsWith = "starts_with"
	matchEndsWith   = "ends_with"
	matchEquals     = "equals"
)

// StartsWithRule builds a MatchingRule that matches a prefix.
func StartsWithRule(pattern string) MatchingRule { return MatchingRule{matchStartsWith, pattern} }

// EndsWithRule builds a MatchingRule that matches a suffix.
func EndsWithRule(pattern string) MatchingRule { return MatchingRule{matchEndsWith, pattern} }

// EqualsRule builds a MatchingRule that matches exactly.
func EqualsRule(pattern string) MatchingRule { return MatchingRule{matchEquals, pattern} }

// ExactMatchingRule is the Equals-only singleton used by Txid/P2pkh/P2sh/
// P2wpkh/P2wsh predicates.
type ExactMatchingRule struct {
	Pattern string
}

// encodedPattern lower-cases and hex-encodes a matching pattern the way
// spec §4.1 requires: strip a leading "0x" and lowercase it, otherwise
// hex-encode the raw ASCII bytes.
func encodedPattern(pattern string) string {
	if strings.HasPrefix(pattern, "0x") {
		return strings.ToLower(strings.TrimPrefix(pattern, "0x"))
	}
	return hex.EncodeToString([]byte(pattern))
}

// MatchOpReturn tests a hex-encoded OP_RETURN data payload (already
// stripped of opcode + length byte) against the rule.
func (r MatchingRule) MatchOpReturn(payloadHex string) bool {
	pattern := encodedPattern(r.pattern)
	switch r.op {
	case matchStartsWith:
		return strings.HasPrefix(payloadHex, pattern)
	case matchEndsWith:
		return strings.HasSuffix(payloadHex, pattern)
	case matchEquals:
		return payloadHex == pattern
	default:
		return false
	}
}

type matchingRuleWire struct {
	StartsWith *string `json:"starts_with,omitempty"`
	EndsWith   *string `json:"ends_with,omitempty"`
	Equals     *string `json:"equals,omitempty"`
}

// MarshalJSON renders the rule as its single populated variant field.
func (r MatchingRule) MarshalJSON() ([]byte, error) {
	var w matchingRuleWire
	switch r.op {
	case matchStartsWith:
		w.StartsWith = &r.pattern
	case matchEndsWith:
		w.EndsWith = &r.pattern
	case matchEquals:
		w.Equals = &r.pattern
	default:
		return nil, errors.Errorf("matching rule: unset variant")
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts exactly one of starts_with/ends_with/equals.
func (r *MatchingRule) UnmarshalJSON(data []byte) error {
	var w matchingRuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	set := 0
	if w.StartsWith != nil {
		*r = StartsWithRule(*w.StartsWith)
		set++
	}
	if w.EndsWith != nil {
		*r = EndsWithRule(*w.EndsWith)
		set++
	}
	if w.Equals != nil {
		*r = EqualsRule(*w.Equals)
		set++
	}
	if set != 1 {
		return errors.Wrap(ErrInvalidPredicate, "matching rule must set exactly one of starts_with/ends_with/equals")
	}
	return nil
}

// MarshalJSON renders the exact-rule as {"equals": pattern}.
func (r ExactMatchingRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(matchingRuleWire{Equals: &r.Pattern})
}

// UnmarshalJSON requires the equals field to be set.
func (r *ExactMatchingRule) UnmarshalJSON(data []byte) error {
	var w matchingRuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Equals == nil {
		return errors.Wrap(ErrInvalidPredicate, "exact matching rule requires 'equals'")
	}
	r.Pattern = *w.Equals
	return nil
}
