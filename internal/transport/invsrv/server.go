// SPDX-License-Identifier: BSD-3-Clause

package invsrv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// PatchOp mirrors the RFC-6902-style replace operation sysinv sends
// (spec.md §6).
type PatchOp struct {
	Path  string `json:"path"`
	Value string `json:"value"`
	Op    string `json:"op"`
}

// relearnBody is the JSON payload a relearn POST carries.
type relearnBody struct {
	HostUUID string `json:"host_uuid"`
}

// errorBody is the fixed JSON error shape (spec.md §6).
type errorBody struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
	Action string `json:"action"`
}

// Handlers are the callbacks Server dispatches decoded requests to.
type Handlers struct {
	SensorModify func(ctx context.Context, sensorUUID string, ops []PatchOp) error
	GroupModify  func(ctx context.Context, groupUUID string, ops []PatchOp) error
	Relearn      func(ctx context.Context, hostUUID string) error
}

// Server is the inbound inventory/orchestration HTTP listener, bound to
// loopback, accepting only POST/PATCH from a sysinv/1.0 client.
type Server struct {
	Handlers Handlers
	Logger   *slog.Logger

	httpSrv *http.Server
}

// NewServer builds a Server bound to the given loopback address.
func NewServer(addr string, h Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Handlers: h, Logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.route)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe starts the listener; it blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("User-Agent"), "sysinv/1.0") {
		writeError(w, http.StatusForbidden, ErrWrongUserAgent, "reject")
		return
	}

	if (r.Method == http.MethodPatch || r.Method == http.MethodPost) && r.ContentLength < 0 {
		writeError(w, http.StatusLengthRequired, ErrLengthRequired, "reject")
		return
	}

	switch {
	case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/isensors/"):
		s.handleSensorModify(w, r)
	case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/isensorgroups/"):
		s.handleGroupModify(w, r)
	case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/isensorgroups/"):
		s.handleRelearn(w, r)
	default:
		writeError(w, http.StatusBadRequest, ErrUnknownResource, "reject")
	}
}

// statusFor maps a Handlers error onto the documented status code
// (spec.md §6: 400/403/404/409/411). Handlers wrap a lookup-miss in
// ErrNotFound and a relearn-in-progress refusal in ErrRelearnInProgress;
// anything else defaults to 409, the shape every other PATCH-application
// failure in this contract takes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRelearnInProgress):
		return http.StatusConflict
	default:
		return http.StatusConflict
	}
}

func (s *Server) handleSensorModify(w http.ResponseWriter, r *http.Request) {
	uuid := lastSegment(r.URL.Path)
	var ops []PatchOp
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		writeError(w, http.StatusBadRequest, err, "reject")
		return
	}
	if s.Handlers.SensorModify == nil {
		writeError(w, http.StatusNotFound, ErrUnknownResource, "reject")
		return
	}
	if err := s.Handlers.SensorModify(r.Context(), uuid, ops); err != nil {
		writeError(w, statusFor(err), err, "reject")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleGroupModify(w http.ResponseWriter, r *http.Request) {
	uuid := lastSegment(r.URL.Path)
	var ops []PatchOp
	if err := json.NewDecoder(r.Body).Decode(&ops); err != nil {
		writeError(w, http.StatusBadRequest, err, "reject")
		return
	}
	if s.Handlers.GroupModify == nil {
		writeError(w, http.StatusNotFound, ErrUnknownResource, "reject")
		return
	}
	if err := s.Handlers.GroupModify(r.Context(), uuid, ops); err != nil {
		writeError(w, statusFor(err), err, "reject")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleRelearn(w http.ResponseWriter, r *http.Request) {
	var body relearnBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err, "reject")
		return
	}
	if s.Handlers.Relearn == nil {
		writeError(w, http.StatusNotFound, ErrUnknownResource, "reject")
		return
	}
	if err := s.Handlers.Relearn(r.Context(), body.HostUUID); err != nil {
		writeError(w, statusFor(err), err, "retry")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, status int, err error, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Status: "fail", Reason: err.Error(), Action: action})
}

func lastSegment(path string) string {
	path = strings.TrimRight(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return path
	}
	return path[idx+1:]
}
