// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package predicate

import "github.com/pkg/errors"

// Error kinds from spec §7. Evaluation is total over a well-formed
// predicate: these come from registration-time parsing and validation,
// and from Evaluate only for a predicate that never passed Validate.
var (
	// ErrInvalidPredicate covers shape/range violations: unknown scope,
	// malformed matching rule, start_block > end_block, descriptor
	// range[0] >= range[1], and similar.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrUnsupportedPredicate is returned for reserved variants that are
	// not yet evaluable (InputPredicate::WitnessScript).
	ErrUnsupportedPredicate = errors.New("unsupported predicate")

	// ErrUnknownNetwork is returned by Project when the requested network
	// is absent from a NetworkMapSpec.
	ErrUnknownNetwork = errors.New("unknown network")
)
