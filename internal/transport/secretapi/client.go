// SPDX-License-Identifier: BSD-3-Clause

package secretapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type referenceResponse struct {
	Reference string `json:"reference"`
}

type payloadResponse struct {
	Password string `json:"password"`
}

// Client resolves a host's BMC password through the secret store, per
// the two-step request-reference/fetch-payload contract of spec.md §6.
// Nothing returned from here is ever written to disk.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a Client with an otelhttp-instrumented transport.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

// Password fetches the current BMC password for hostUUID, requesting a
// reference and then resolving it in a single round trip pair. Callers
// should invoke this immediately before each worker launch rather than
// reusing a previously fetched value (spec.md §6: "no on-disk caching").
func (c *Client) Password(ctx context.Context, hostUUID string) (string, error) {
	ref, err := c.reference(ctx, hostUUID)
	if err != nil {
		return "", err
	}
	return c.payload(ctx, ref)
}

func (c *Client) reference(ctx context.Context, hostUUID string) (string, error) {
	body, err := json.Marshal(map[string]string{"host_uuid": hostUUID})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/secrets/reference", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrSecretNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", ErrSecretNotFound
	}

	var rr referenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return "", err
	}
	return rr.Reference, nil
}

func (c *Client) payload(ctx context.Context, reference string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/secrets/payload/"+reference, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return "", ErrReferenceExpired
	}
	if resp.StatusCode != http.StatusOK {
		return "", ErrReferenceExpired
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var pr payloadResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return "", err
	}
	return pr.Password, nil
}
