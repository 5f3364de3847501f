// SPDX-License-Identifier: BSD-3-Clause

package invsrv

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(h Handlers) *Server {
	return NewServer("127.0.0.1:0", h, nil)
}

func do(s *Server, method, path, userAgent, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	rec := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestRejectsWrongUserAgent(t *testing.T) {
	s := newTestServer(Handlers{})
	rec := do(s, http.MethodPatch, "/v1/isensors/abc", "curl/7.0", "[]")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "fail", body.Status)
}

func TestSensorModifyDispatches(t *testing.T) {
	var gotUUID string
	var gotOps []PatchOp
	s := newTestServer(Handlers{
		SensorModify: func(ctx context.Context, sensorUUID string, ops []PatchOp) error {
			gotUUID = sensorUUID
			gotOps = ops
			return nil
		},
	})
	body := `[{"path":"/actions_minor","value":"alarm","op":"replace"}]`
	rec := do(s, http.MethodPatch, "/v1/isensors/sensor-uuid-1", "sysinv/1.0 (ihost)", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sensor-uuid-1", gotUUID)
	require.Len(t, gotOps, 1)
	assert.Equal(t, "/actions_minor", gotOps[0].Path)
}

func TestGroupModifyDispatches(t *testing.T) {
	var gotUUID string
	s := newTestServer(Handlers{
		GroupModify: func(ctx context.Context, groupUUID string, ops []PatchOp) error {
			gotUUID = groupUUID
			return nil
		},
	})
	rec := do(s, http.MethodPatch, "/v1/isensorgroups/group-uuid-1", "sysinv/1.0", `[]`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "group-uuid-1", gotUUID)
}

func TestRelearnDispatchesHostUUID(t *testing.T) {
	var gotHost string
	s := newTestServer(Handlers{
		Relearn: func(ctx context.Context, hostUUID string) error {
			gotHost = hostUUID
			return nil
		},
	})
	rec := do(s, http.MethodPost, "/v1/isensorgroups/relearn", "sysinv/1.0", `{"host_uuid":"host-1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "host-1", gotHost)
}

func TestRelearnFailureReturnsConflict(t *testing.T) {
	s := newTestServer(Handlers{
		Relearn: func(ctx context.Context, hostUUID string) error {
			return ErrUnknownResource
		},
	})
	rec := do(s, http.MethodPost, "/v1/isensorgroups/relearn", "sysinv/1.0", `{"host_uuid":"host-1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUnrecognizedResourceRejected(t *testing.T) {
	s := newTestServer(Handlers{})
	rec := do(s, http.MethodGet, "/v1/ihosts/", "sysinv/1.0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingHandlerReturnsNotFound(t *testing.T) {
	s := newTestServer(Handlers{})
	rec := do(s, http.MethodPatch, "/v1/isensors/abc", "sysinv/1.0", "[]")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
