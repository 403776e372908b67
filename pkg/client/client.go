// Package client calls the ruleconfd API over its Unix domain socket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/lc/ruleconf/internal/socket"
	"github.com/lc/ruleconf/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL
}

// New returns a Client that dials the daemon socket at socketPath.
func New(socketPath string) *Client {
	sock := socket.New()
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return sock.Connect(ctx, socketPath)
	}
	return &Client{
		hc:   &http.Client{Transport: &http.Transport{DialContext: dial}},
		base: "http://unix",
	}
}

// Resolve asks the daemon to resolve a configuration.
func (c *Client) Resolve(ctx context.Context, req api.ResolveRequest) (api.ResolveResponse, error) {
	var out api.ResolveResponse
	err := c.do(ctx, http.MethodPost, "/v1/resolve", req, &out)
	return out, err
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("daemon returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
