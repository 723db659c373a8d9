package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cast"
)

/*
engine routes consumed here:

@routes.get("/queue")
@routes.get("/history/{prompt_id}")
@routes.get("/system_stats")

@routes.post("/prompt")
@routes.post("/interrupt")
@routes.post("/history")
@routes.post("/upload/image")
*/

func (c *Client) getJSON(path string, into interface{}) error {
	resp, err := c.httpclient.Get(fmt.Sprintf("http://%s%s", c.serverBaseAddress, path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine returned %d for %s", resp.StatusCode, path)
	}
	return json.Unmarshal(body, into)
}

// GetSystemStats probes the engine for liveness and device information.
func (c *Client) GetSystemStats() (*SystemStats, error) {
	retv := &SystemStats{}
	if err := c.getJSON("/system_stats", retv); err != nil {
		return nil, err
	}
	return retv, nil
}

// Healthy reports whether the engine answers its liveness probe.
func (c *Client) Healthy() bool {
	_, err := c.GetSystemStats()
	return err == nil
}

// GetQueueState lists the pending and running job ids on the engine.
// Each raw queue entry is an array whose second element is the job id.
func (c *Client) GetQueueState() (*QueueState, error) {
	var raw struct {
		Running [][]interface{} `json:"queue_running"`
		Pending [][]interface{} `json:"queue_pending"`
	}
	if err := c.getJSON("/queue", &raw); err != nil {
		return nil, err
	}

	state := &QueueState{}
	for _, entry := range raw.Pending {
		if len(entry) > 1 {
			state.Pending = append(state.Pending, cast.ToString(entry[1]))
		}
	}
	for _, entry := range raw.Running {
		if len(entry) > 1 {
			state.Running = append(state.Running, cast.ToString(entry[1]))
		}
	}
	return state, nil
}

// GetHistory returns the history entry for a job id, or nil when the
// engine has no entry for it yet.
func (c *Client) GetHistory(jobID string) (*HistoryEntry, error) {
	history := make(map[string]HistoryEntry)
	if err := c.getJSON(fmt.Sprintf("/history/%s", jobID), &history); err != nil {
		return nil, err
	}
	if entry, ok := history[jobID]; ok {
		return &entry, nil
	}
	return nil, nil
}

// Interrupt forwards the global cancel.  The engine has no per-job cancel;
// whichever job is currently running there is interrupted, and the tracker
// marks it so the next state observation is terminal.
func (c *Client) Interrupt() error {
	resp, err := c.httpclient.Post(fmt.Sprintf("http://%s/interrupt", c.serverBaseAddress), "application/json", strings.NewReader("{}"))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if id := c.tracker.cancelCurrent(); id != "" {
		c.logger.Info("interrupted running job", "job_id", id)
	}
	return nil
}

// EraseHistory clears the engine's entire job history.
func (c *Client) EraseHistory() error {
	return c.postHistory(`{"clear": "clear"}`)
}

// EraseHistoryItem removes a single job from the engine's history.
func (c *Client) EraseHistoryItem(jobID string) error {
	return c.postHistory(fmt.Sprintf(`{"delete": [%q]}`, jobID))
}

func (c *Client) postHistory(payload string) error {
	resp, err := c.httpclient.Post(fmt.Sprintf("http://%s/history", c.serverBaseAddress), "application/json", strings.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}
