// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package dispatch turns a Trigger into one of the three action outcomes
// (spec §4.3): an HTTP request ready to send, a file path plus bytes to
// append, or a bare in-memory payload.
package dispatch

import (
	"bytes"
	"context"
	"net/http"
	"os"

	json "github.com/goccy/go-json"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/omahs/chainhook/chainmodel"
	"github.com/omahs/chainhook/metrics"
	"github.com/omahs/chainhook/predicate"
)

var logger = log.New("pkg", "dispatch")

// ErrSerialization wraps a payload marshal failure (spec §7 SerializationError).
var ErrSerialization = errors.New("dispatch: serialization error")

// Outcome is the closed sum a Dispatch call produces, matching the action
// variant on the owning predicate instance.
type Outcome struct {
	HTTPRequest *http.Request
	FilePath    string
	FileBytes   []byte
	Payload     Payload
}

// Build renders trig into a Payload and an Outcome for inst.Action. It never
// performs network I/O; HTTPRequest is caller-issued (spec §5 "dispatcher
// tasks" own the suspension point, not this package).
func Build(ctx context.Context, trig chainmodel.Trigger, inst *predicate.Instance, isStreaming bool, proofs map[string]string) (Outcome, error) {
	payload := buildPayload(trig, inst, isStreaming, proofs)

	switch {
	case inst.Action.HTTPPost != nil:
		body, err := json.Marshal(payload)
		if err != nil {
			return Outcome{}, errors.Wrap(ErrSerialization, err.Error())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, inst.Action.HTTPPost.URL, bytes.NewReader(body))
		if err != nil {
			return Outcome{}, errors.Wrap(ErrSerialization, err.Error())
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", inst.Action.HTTPPost.AuthorizationHeader)
		return Outcome{HTTPRequest: req, Payload: payload}, nil

	case inst.Action.FileAppend != nil:
		body, err := json.Marshal(payload)
		if err != nil {
			return Outcome{}, errors.Wrap(ErrSerialization, err.Error())
		}
		return Outcome{FilePath: inst.Action.FileAppend.Path, FileBytes: body, Payload: payload}, nil

	default:
		return Outcome{Payload: payload}, nil
	}
}

// actionLabel names the dispatched action variant for metrics, matching
// the wire discriminators used elsewhere in this package's JSON shape.
func actionLabel(o Outcome) string {
	switch {
	case o.HTTPRequest != nil:
		return "http_post"
	case o.FilePath != "":
		return "file_append"
	default:
		return "noop"
	}
}

// Send delivers o via its action variant — an HTTP POST, a file append, or
// nothing for Noop — and swallows transport/storage errors per spec §7
// ("Transport and storage errors are logged and swallowed in hot paths").
func Send(client *http.Client, o Outcome) {
	action := actionLabel(o)

	switch {
	case o.HTTPRequest != nil:
		resp, err := client.Do(o.HTTPRequest)
		if err != nil {
			logger.Warn("webhook delivery failed", "url", o.HTTPRequest.URL.String(), "err", err)
			metrics.DispatchFailures.WithLabelValues(action).Inc()
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			logger.Warn("webhook delivery rejected", "url", o.HTTPRequest.URL.String(), "status", resp.StatusCode)
			metrics.DispatchFailures.WithLabelValues(action).Inc()
			return
		}

	case o.FilePath != "":
		f, err := os.OpenFile(o.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Warn("file append open failed", "path", o.FilePath, "err", err)
			metrics.DispatchFailures.WithLabelValues(action).Inc()
			return
		}
		defer f.Close()
		if _, err := f.Write(append(o.FileBytes, '\n')); err != nil {
			logger.Warn("file append write failed", "path", o.FilePath, "err", err)
			metrics.DispatchFailures.WithLabelValues(action).Inc()
			return
		}

	default:
		// Noop: nothing to deliver.
	}

	metrics.TriggersDispatched.WithLabelValues(action).Inc()
}
