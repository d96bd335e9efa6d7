// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package opsapi is the ops HTTP surface mentioned in spec §1 ("the HTTP
// admin surface for CRUD on predicates... external collaborator, touched
// only through interfaces"). It exposes a healthz probe, prometheus
// metrics, and a read-only predicate-status lookup; it does not implement
// predicate CRUD, which stays outside the core.
package opsapi

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omahs/chainhook/status"
)

// Server is the router + dependencies backing the ops surface.
type Server struct {
	Status status.Store
}

// Router builds the mux.Router, matching the teacher's mount-by-prefix
// shape (api/admin/health/health_api.go Mount, api/metrics_server.go).
func (s *Server) Router() http.Handler {
	root := mux.NewRouter()
	root.Path("/healthz").Methods(http.MethodGet).HandlerFunc(s.handleHealthz)
	root.PathPrefix("/metrics").Handler(promhttp.Handler())
	root.Path("/status/{uuid}").Methods(http.MethodGet).HandlerFunc(s.handleStatus)
	return handlers.CompressHandler(root)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	rec, key, err := status.Resolve(r.Context(), s.Status, uuid)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if rec == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Key    string        `json:"key"`
		Record status.Record `json:"record"`
	}{Key: key.String(), Record: *rec})
}

// Serve starts an HTTP server bound to addr and blocks until ctx is done,
// then shuts it down (matching the teacher's StartMetricsServer lifecycle
// in api/metrics_server.go, adapted to the blocking-serve style cmd/chainhookd
// already uses for its own goroutines).
func Serve(ctx context.Context, addr string, s *Server) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
