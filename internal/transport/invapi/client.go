// SPDX-License-Identifier: BSD-3-Clause

package invapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/starlingx/hwmond/internal/bmcmodel"
	"github.com/starlingx/hwmond/internal/httpqueue"
	"github.com/starlingx/hwmond/internal/model"
)

// patchOp is one RFC-6902-style replace operation the inventory API's
// PATCH endpoints expect (spec.md §6).
type patchOp struct {
	Path  string `json:"path"`
	Value string `json:"value"`
	Op    string `json:"op"`
}

type createResponse struct {
	UUID string `json:"uuid"`
}

// TokenSource supplies the current opaque auth token and refreshes it.
type TokenSource interface {
	Token() string
	Refresh(ctx context.Context) error
}

// Client is the inventory/orchestration HTTP client (spec.md §6). It
// implements both model.Inventory (so the model lifecycle can load,
// create, and delete sensors/groups) and httpqueue.Transmitter (so
// httpqueue.Queue can drive Submit's retry/watermark machinery over it).
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource

	mu sync.RWMutex
}

// NewClient builds a Client with an otelhttp-instrumented transport, per
// the teacher's convention of wrapping outbound HTTP clients for tracing.
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Tokens:  tokens,
	}
}

var (
	_ httpqueue.Transmitter = (*Client)(nil)
	_ model.Inventory       = (*Client)(nil)
)

// Do implements httpqueue.Transmitter: issue one raw HTTP call and
// report back its status and body rather than erroring on non-2xx, so
// the queue's FSM decides retry/refresh policy.
func (c *Client) Do(ctx context.Context, req *httpqueue.Request) (httpqueue.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.BaseURL+req.Path, bytes.NewReader(req.Payload))
	if err != nil {
		return httpqueue.Response{}, err
	}
	httpReq.Header.Set("User-Agent", "hwmon/1.0")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Auth-Token", c.Tokens.Token())

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return httpqueue.Response{Status: 0}, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return httpqueue.Response{Status: resp.StatusCode, Body: body}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "hwmon/1.0")
	req.Header.Set("X-Auth-Token", c.Tokens.Token())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ClassifyStatus(0)
	}
	defer resp.Body.Close()

	if err := ClassifyStatus(resp.StatusCode); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) post(ctx context.Context, path string, body any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "hwmon/1.0")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", c.Tokens.Token())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", ClassifyStatus(0)
	}
	defer resp.Body.Close()

	if err := ClassifyStatus(resp.StatusCode); err != nil {
		return "", err
	}
	var cr createResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	return cr.UUID, nil
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "hwmon/1.0")
	req.Header.Set("X-Auth-Token", c.Tokens.Token())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ClassifyStatus(0)
	}
	defer resp.Body.Close()
	return ClassifyStatus(resp.StatusCode)
}

func (c *Client) patch(ctx context.Context, path string, ops []patchOp) error {
	payload, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "hwmon/1.0")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", c.Tokens.Token())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return ClassifyStatus(0)
	}
	defer resp.Body.Close()
	return ClassifyStatus(resp.StatusCode)
}

// LoadSensors implements model.Inventory.
func (c *Client) LoadSensors(ctx context.Context, hostUUID string) ([]bmcmodel.Sensor, error) {
	var out []bmcmodel.Sensor
	err := c.get(ctx, fmt.Sprintf("/v1/ihosts/%s/isensors", hostUUID), &out)
	return out, err
}

// LoadGroups implements model.Inventory.
func (c *Client) LoadGroups(ctx context.Context, hostUUID string) ([]bmcmodel.Group, error) {
	var out []bmcmodel.Group
	err := c.get(ctx, fmt.Sprintf("/v1/ihosts/%s/isensorgroups", hostUUID), &out)
	return out, err
}

// AddSensor implements model.Inventory.
func (c *Client) AddSensor(ctx context.Context, hostUUID string, s bmcmodel.Sensor) (string, error) {
	return c.post(ctx, "/v1/isensors/", s)
}

// AddGroup implements model.Inventory.
func (c *Client) AddGroup(ctx context.Context, hostUUID string, g bmcmodel.Group) (string, error) {
	return c.post(ctx, "/v1/isensorgroups/", g)
}

// DeleteSensor implements model.Inventory.
func (c *Client) DeleteSensor(ctx context.Context, uuid string) error {
	return c.delete(ctx, "/v1/isensors/"+uuid)
}

// DeleteGroup implements model.Inventory.
func (c *Client) DeleteGroup(ctx context.Context, uuid string) error {
	return c.delete(ctx, "/v1/isensorgroups/"+uuid)
}

// GroupSensors implements model.Inventory: patches a group's "/sensors"
// path with a comma-joined sensor uuid list (spec.md §6).
func (c *Client) GroupSensors(ctx context.Context, groupUUID string, sensorUUIDs []string) error {
	return c.patch(ctx, "/v1/isensorgroups/"+groupUUID, []patchOp{
		{Path: "/sensors", Value: strings.Join(sensorUUIDs, ","), Op: "replace"},
	})
}

// PatchSensorAttribute sets a single sensor attribute via PATCH.
func (c *Client) PatchSensorAttribute(ctx context.Context, sensorUUID, key, value string) error {
	return c.patch(ctx, "/v1/isensors/"+sensorUUID, []patchOp{{Path: "/" + key, Value: value, Op: "replace"}})
}

// PatchGroupAttribute sets a single group attribute via PATCH.
func (c *Client) PatchGroupAttribute(ctx context.Context, groupUUID, key, value string) error {
	return c.patch(ctx, "/v1/isensorgroups/"+groupUUID, []patchOp{{Path: "/" + key, Value: value, Op: "replace"}})
}
