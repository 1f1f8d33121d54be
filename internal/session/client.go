package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/danmuck/probectl/internal/auth"
	"github.com/danmuck/probectl/internal/protocol"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 1 << 20
)

// ClientConfig configures the outbound transport wrapper.
type ClientConfig struct {
	Token          string
	Identity       string
	RequestTimeout time.Duration
}

func (c ClientConfig) WithDefaults() ClientConfig {
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return c
}

// Client posts request envelopes to one endpoint at a time and decodes the
// reply. The bearer Authorization header rides on every request for the
// lifetime of the client. Connection pooling is the http.Client's concern;
// nothing is held across waits.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Send posts one action envelope to url and decodes the response. The HTTP
// status line is deliberately ignored; only the application-level status
// field in the body matters to classification. A reply that does not decode
// surfaces as protocol.ErrInvalidResponse.
func (c *Client) Send(ctx context.Context, url, action, body string) (protocol.Response, error) {
	env := protocol.Request{
		Version: protocol.ClientVersion,
		Action:  action,
		UUID:    c.cfg.Identity,
		Body:    body,
	}
	if err := env.Validate(); err != nil {
		return protocol.Response{}, err
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return protocol.Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return protocol.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth.BearerHeader(c.cfg.Token))

	resp, err := c.http.Do(req)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("session: post %s: %w", url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return protocol.Response{}, fmt.Errorf("session: read response from %s: %w", url, err)
	}
	return protocol.DecodeResponse(raw)
}
