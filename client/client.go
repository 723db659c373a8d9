package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Unloader frees a shared compute resource (the auxiliary local-inference
// model) before a job is submitted.  Failures are advisory.
type Unloader interface {
	Unload(ctx context.Context) error
}

// Client is the top level object that allows for interaction with the
// generation engine backend.  All job bookkeeping lives on the client, not
// in package globals, so its lifecycle is scoped to whoever constructed it.
type Client struct {
	serverBaseAddress string
	clientid          string
	httpclient        *http.Client
	logger            *slog.Logger
	unloader          Unloader
	tracker           *tracker

	pollInterval time.Duration

	// injectable for state machine tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new engine client for the given host:port address.
func NewClient(serverAddress string) *Client {
	return &Client{
		serverBaseAddress: serverAddress,
		clientid:          uuid.New().String(),
		httpclient:        &http.Client{Timeout: 30 * time.Second},
		logger:            slog.Default(),
		tracker:           newTracker(),
		pollInterval:      500 * time.Millisecond,
		now:               time.Now,
		sleep:             sleepContext,
	}
}

// ClientID returns the unique client ID for the connection to the engine.
func (c *Client) ClientID() string {
	return c.clientid
}

// HTTPClient returns the underlying http client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpclient
}

// SetHTTPClient replaces the underlying http client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpclient = client
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetUnloader installs the best-effort auxiliary model unloader invoked
// before every submission.
func (c *Client) SetUnloader(u Unloader) {
	c.unloader = u
}

// SetPollInterval overrides the interval used by Wait between poll attempts.
func (c *Client) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.pollInterval = d
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
