package refine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRefineCleansModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("streaming must be disabled")
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected message shape: %#v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{
				"role":    "assistant",
				"content": `"Enhanced prompt: a majestic dragon, golden hour light"`,
			},
		})
	}))
	defer srv.Close()

	r := NewRefiner(srv.URL, "qwen2.5:0.5b")
	out, err := r.Refine(context.Background(), "a dragon", ModeRefine)
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if out != "a majestic dragon, golden hour light" {
		t.Errorf("cleanup failed, got %q", out)
	}
}

func TestRefineRejectsEmptyPrompt(t *testing.T) {
	r := NewRefiner("http://localhost:11434", "qwen2.5:0.5b")
	if _, err := r.Refine(context.Background(), "   ", ModeRefine); err == nil {
		t.Fatal("expected error for blank prompt")
	}
}

func TestRefineEmptyModelResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": map[string]string{"content": ""},
		})
	}))
	defer srv.Close()

	r := NewRefiner(srv.URL, "qwen2.5:0.5b")
	if _, err := r.Refine(context.Background(), "a dragon", ModeExpand); err == nil {
		t.Fatal("expected error for empty model response")
	}
}
