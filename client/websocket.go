package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// progressMessage is the subset of engine websocket traffic the listener
// cares about: real per-step progress for the running job.
type progressMessage struct {
	Type string `json:"type"`
	Data struct {
		Value    int    `json:"value"`
		Max      int    `json:"max"`
		PromptID string `json:"prompt_id"`
	} `json:"data"`
}

// ListenProgress connects to the engine's websocket and feeds live step
// counts into the tracker, replacing the time-based extrapolation while
// connected.  The channel is advisory: any failure is logged and the poll
// loop carries on with synthesized progress, so this never returns an
// error to act on.  Blocks until ctx is cancelled.
func (c *Client) ListenProgress(ctx context.Context) {
	url := fmt.Sprintf("ws://%s/ws?clientId=%s", c.serverBaseAddress, c.clientid)

	for ctx.Err() == nil {
		dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			c.logger.Debug("websocket unavailable, relying on extrapolated progress", "error", err)
			if sleepContext(ctx, 5*time.Second) != nil {
				return
			}
			continue
		}

		c.readProgress(ctx, conn)
		conn.Close()
	}
}

func (c *Client) readProgress(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			c.logger.Debug("websocket read ended", "error", err)
			return
		}

		var msg progressMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type != "progress" || msg.Data.Value <= 0 {
			continue
		}

		jobID := msg.Data.PromptID
		if jobID == "" {
			jobID = c.tracker.currentJob()
		}
		if jobID != "" {
			c.tracker.recordLiveStep(jobID, msg.Data.Value)
		}
	}
}
