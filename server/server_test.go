package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/refine"
	"github.com/beauNate/qwen-image-generator/store"
)

// stubEngine answers just enough of the engine API for handler tests.
func stubEngine(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/system_stats", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"system":{"os":"linux"}}`)
	})
	mux.HandleFunc("/prompt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prompt_id":"job-1"}`)
	})
	mux.HandleFunc("/interrupt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()
	engine := stubEngine(t)
	c := client.NewClient(strings.TrimPrefix(engine.URL, "http://"))
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c.SetLogger(logger)
	srv := New(c, refine.NewRefiner("http://127.0.0.1:1", "test"), st, logger)
	return srv, srv.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var decoded map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	return resp, decoded
}

func TestHealthReportsEngineUp(t *testing.T) {
	_, app := newTestServer(t)
	resp, body := doJSON(t, app, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestGenerateReturnsJobAndSeed(t *testing.T) {
	_, app := newTestServer(t)
	resp, body := doJSON(t, app, "POST", "/generate", map[string]interface{}{
		"modality": "image",
		"prompt":   "a quiet harbor at dawn",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "job-1", body["job_id"])
	assert.NotZero(t, body["seed"])
}

func TestGenerateRecordsPromptHistory(t *testing.T) {
	srv, app := newTestServer(t)
	resp, _ := doJSON(t, app, "POST", "/generate", map[string]interface{}{
		"modality": "image",
		"prompt":   "a quiet harbor at dawn",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	history, err := srv.store.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a quiet harbor at dawn", history[0].Prompt)
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	_, app := newTestServer(t)
	resp, body := doJSON(t, app, "POST", "/generate", map[string]interface{}{
		"modality": "image",
		// no prompt
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["error"])
}

func TestGenerateRejectsAdapterConflict(t *testing.T) {
	_, app := newTestServer(t)
	resp, _ := doJSON(t, app, "POST", "/generate", map[string]interface{}{
		"modality":            "image-edit",
		"prompt":              "rotate the camera",
		"source_image":        "input.png",
		"use_angle_adapter":   true,
		"use_upscale_adapter": true,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestQueueLifecycle(t *testing.T) {
	_, app := newTestServer(t)

	resp, body := doJSON(t, app, "POST", "/queue", map[string]interface{}{
		"modality": "image",
		"prompt":   "first",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, isString := body["id"].(string)
	require.True(t, isString)

	_, body = doJSON(t, app, "GET", "/queue", nil)
	items, isSlice := body["items"].([]interface{})
	require.True(t, isSlice)
	require.Len(t, items, 1)

	resp, _ = doJSON(t, app, "DELETE", "/queue/"+id, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/queue/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBatchCountBounds(t *testing.T) {
	_, app := newTestServer(t)
	resp, _ := doJSON(t, app, "POST", "/batch", map[string]interface{}{
		"modality": "image",
		"prompt":   "x",
		"count":    0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestFavoritesRoundtrip(t *testing.T) {
	_, app := newTestServer(t)

	_, body := doJSON(t, app, "GET", "/favorites", nil)
	assert.Empty(t, body["favorites"])

	resp, _ := doJSON(t, app, "POST", "/favorites", map[string]interface{}{
		"favorites": []string{"a castle", "a comet"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = doJSON(t, app, "GET", "/favorites", nil)
	favorites, isSlice := body["favorites"].([]interface{})
	require.True(t, isSlice)
	assert.Len(t, favorites, 2)
}

func TestHistoryDeleteOutOfRange(t *testing.T) {
	_, app := newTestServer(t)
	resp, _ := doJSON(t, app, "DELETE", "/history/5", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsRoundtripUpdatesRefiner(t *testing.T) {
	srv, app := newTestServer(t)

	_, body := doJSON(t, app, "GET", "/settings", nil)
	settings, isMap := body["settings"].(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, "qwen2.5:0.5b", settings["ollama_model"])

	resp, _ := doJSON(t, app, "POST", "/settings", map[string]interface{}{
		"ollama_model":       "llama3.2:1b",
		"auto_unload_ollama": false,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "llama3.2:1b", srv.refiner.Model)
}
