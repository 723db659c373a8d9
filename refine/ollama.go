// Package refine talks to a small local language model to polish prompts
// before they are handed to a graph builder.  The model shares compute
// with the generation engine, so it also knows how to get out of the way.
package refine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"
	"time"
)

// RefineMode selects how aggressively the prompt is rewritten.
type RefineMode string

const (
	ModeRefine RefineMode = "refine"
	ModeExpand RefineMode = "expand"
	ModeStyle  RefineMode = "style"
)

var systemPrompts = map[RefineMode]string{
	ModeRefine: "You are an expert at writing prompts for AI image generation. " +
		"Take the user's simple prompt and enhance it with specific visual details " +
		"(lighting, composition, style), quality modifiers, and artistic style " +
		"suggestions if appropriate. Keep the core subject but make it more vivid. " +
		"Output ONLY the enhanced prompt, nothing else. Keep it under 100 words.",
	ModeExpand: "You are an expert at writing prompts for AI image generation. " +
		"Take the user's prompt and significantly expand it with rich environmental " +
		"details, atmospheric descriptions, specific artistic techniques, color " +
		"palette suggestions, and mood modifiers. " +
		"Output ONLY the expanded prompt, nothing else. Keep it under 150 words.",
	ModeStyle: "You are an expert at writing prompts for AI image generation. " +
		"Take the user's prompt and add a creative artistic style to it, chosen " +
		"from: digital art, oil painting, watercolor, concept art, anime, " +
		"hyperrealistic photography, surrealist, impressionist, noir, vintage, " +
		"cyberpunk, fantasy art. Also add appropriate lighting and mood. " +
		"Output ONLY the styled prompt, nothing else. Keep it under 100 words.",
}

// Refiner is a client for a local Ollama instance.
type Refiner struct {
	BaseURL string
	Model   string

	httpclient *http.Client
	logger     *slog.Logger
}

// NewRefiner creates a refiner for the Ollama server at baseURL.
func NewRefiner(baseURL, model string) *Refiner {
	return &Refiner{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Model:      model,
		httpclient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
}

// SetLogger replaces the refiner's logger.
func (r *Refiner) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

// Refine rewrites the prompt in the requested mode.
func (r *Refiner) Refine(ctx context.Context, prompt string, mode RefineMode) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("no prompt provided")
	}

	system, ok := systemPrompts[mode]
	if !ok {
		system = systemPrompts[ModeRefine]
	}

	payload := chatRequest{
		Model: r.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: "Enhance this prompt: " + prompt},
		},
	}
	payload.Options.Temperature = 0.7
	payload.Options.NumPredict = 200

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refinement failed: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Message chatMessage `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("refinement failed: %w", err)
	}

	refined := cleanup(result.Message.Content)
	if refined == "" {
		return "", errors.New("no response from model")
	}
	return refined, nil
}

// cleanup strips quoting and boilerplate prefixes small models like to add.
func cleanup(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	if rest, found := strings.CutPrefix(s, "Enhanced prompt:"); found {
		s = strings.TrimSpace(rest)
	}
	return s
}

// Unload asks the Ollama runtime to evict the model, freeing shared
// compute ahead of an engine submission.  Best effort only.
func (r *Refiner) Unload(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ollama", "stop", r.Model)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ollama stop %s: %w", r.Model, err)
	}
	r.logger.Info("unloaded auxiliary model", "model", r.Model)
	return nil
}
