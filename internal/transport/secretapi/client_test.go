// SPDX-License-Identifier: BSD-3-Clause

package secretapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResolvesReferenceThenPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/secrets/reference":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "host-1", body["host_uuid"])
			_ = json.NewEncoder(w).Encode(referenceResponse{Reference: "ref-abc"})
		case r.URL.Path == "/v1/secrets/payload/ref-abc":
			_ = json.NewEncoder(w).Encode(payloadResponse{Password: "s3cr3t"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	pw, err := c.Password(context.Background(), "host-1")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", pw)
}

func TestPasswordMissingReferenceReturnsSecretNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Password(context.Background(), "host-missing")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestPasswordExpiredReferenceReturnsReferenceExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/secrets/reference":
			_ = json.NewEncoder(w).Encode(referenceResponse{Reference: "stale-ref"})
		default:
			w.WriteHeader(http.StatusGone)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Password(context.Background(), "host-1")
	assert.ErrorIs(t, err, ErrReferenceExpired)
}
