package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// queueItem mirrors the serve process's queue listing payload.
type queueItem struct {
	ID       string `json:"id"`
	Modality string `json:"modality"`
	Prompt   string `json:"prompt"`
	Status   string `json:"status"`
	Seed     int64  `json:"seed"`
	Error    string `json:"error"`
}

type apiEnvelope struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	ID      string      `json:"id"`
	Items   []queueItem `json:"items"`
}

type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(listenAddress string) *apiClient {
	host := listenAddress
	if strings.HasPrefix(host, ":") {
		host = "127.0.0.1" + host
	}
	return &apiClient{
		base: "http://" + host,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *apiClient) call(method, path string, body interface{}) (*apiEnvelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("is `qwengen serve` running? %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("server error: %s", envelope.Error)
	}
	return &envelope, nil
}

func newQueueCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and control the request queue of a running serve process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(ctx)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List queued requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(ctx)
		},
	})

	addCmd := newGenerateCommand(ctx)
	addCmd.Use = "add [prompt...]"
	addCmd.Short = "Enqueue a request without running it"
	addCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runQueueAdd(cmd, ctx, strings.Join(args, " "))
	}
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a pending request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := queueAPI(ctx)
			if err != nil {
				return err
			}
			_, err = api.call(http.MethodDelete, "/queue/"+args[0], nil)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every pending request",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := queueAPI(ctx)
			if err != nil {
				return err
			}
			_, err = api.call(http.MethodDelete, "/queue", nil)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start draining the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := queueAPI(ctx)
			if err != nil {
				return err
			}
			_, err = api.call(http.MethodPost, "/queue/start", nil)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop after the current item finishes",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := queueAPI(ctx)
			if err != nil {
				return err
			}
			_, err = api.call(http.MethodPost, "/queue/stop", nil)
			return err
		},
	})

	return cmd
}

func queueAPI(ctx *commandContext) (*apiClient, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return newAPIClient(cfg.ListenAddress), nil
}

func runQueueList(ctx *commandContext) error {
	api, err := queueAPI(ctx)
	if err != nil {
		return err
	}
	envelope, err := api.call(http.MethodGet, "/queue", nil)
	if err != nil {
		return err
	}
	if len(envelope.Items) == 0 {
		fmt.Println("queue is empty")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "MODALITY", "STATUS", "PROMPT", "DETAIL"})
	for _, item := range envelope.Items {
		detail := ""
		switch item.Status {
		case "done":
			detail = fmt.Sprintf("seed %d", item.Seed)
		case "error":
			detail = item.Error
		}
		tw.AppendRow(table.Row{shortID(item.ID), item.Modality, item.Status, truncate(item.Prompt, 48), detail})
	}
	tw.Render()
	return nil
}

func runQueueAdd(cmd *cobra.Command, ctx *commandContext, prompt string) error {
	api, err := queueAPI(ctx)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{"prompt": prompt}
	flags := cmd.Flags()
	for flag, key := range map[string]string{
		"modality": "modality", "negative": "negative", "preset": "preset",
		"mode": "mode", "aspect": "aspect", "sampler": "sampler",
		"scheduler": "scheduler", "lyrics": "lyrics", "tags": "tags",
	} {
		if value, err := flags.GetString(flag); err == nil && value != "" {
			payload[key] = value
		}
	}
	if size, err := flags.GetInt("size"); err == nil && size != 0 {
		payload["resolution"] = size
	}
	if seed, err := flags.GetInt64("seed"); err == nil && seed != 0 {
		payload["seed"] = seed
	}

	envelope, err := api.call(http.MethodPost, "/queue", payload)
	if err != nil {
		return err
	}
	fmt.Printf("queued %s\n", shortID(envelope.ID))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
