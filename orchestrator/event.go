// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package orchestrator is the single-threaded event loop of spec §4.6: it
// registers/enables/deregisters predicates, routes chain events through the
// status-store merge rules, and bridges scan workers into streaming.
package orchestrator

import (
	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/predicate"
)

// EventKind discriminates the closed ObserverEvent sum (spec §4.6).
type EventKind int

const (
	EventPredicateRegistered EventKind = iota
	EventPredicateEnabled
	EventPredicateDeregistered
	EventPredicateExpired
	EventBaseChainEvent
	EventAppChainEvent
	EventTerminate
)

// ObserverEvent is the upstream block source's event stream (spec §4.6,
// §6). Only the field matching Kind is populated.
type ObserverEvent struct {
	Kind EventKind

	Spec  *predicate.NetworkMapSpec
	Chain chainmodel.ChainEvent
	Report chainmodel.Report
}

func PredicateRegistered(spec *predicate.NetworkMapSpec) ObserverEvent {
	return ObserverEvent{Kind: EventPredicateRegistered, Spec: spec}
}

func PredicateEnabled(spec *predicate.NetworkMapSpec) ObserverEvent {
	return ObserverEvent{Kind: EventPredicateEnabled, Spec: spec}
}

func PredicateDeregistered(spec *predicate.NetworkMapSpec) ObserverEvent {
	return ObserverEvent{Kind: EventPredicateDeregistered, Spec: spec}
}

// PredicateExpired mirrors spec §4.5's mid-scan "publish PredicateExpired":
// the status record has already moved to Expired by the time this arrives,
// this only lets the orchestrator keep its active-predicate gauge honest.
func PredicateExpired(spec *predicate.NetworkMapSpec) ObserverEvent {
	return ObserverEvent{Kind: EventPredicateExpired, Spec: spec}
}

func BaseChainEvent(event chainmodel.ChainEvent, report chainmodel.Report) ObserverEvent {
	return ObserverEvent{Kind: EventBaseChainEvent, Chain: event, Report: report}
}

func AppChainEvent(event chainmodel.ChainEvent, report chainmodel.Report) ObserverEvent {
	return ObserverEvent{Kind: EventAppChainEvent, Chain: event, Report: report}
}

func Terminate() ObserverEvent {
	return ObserverEvent{Kind: EventTerminate}
}
