package store

import (
	"errors"
	"fmt"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestHistoryDedupesByPrompt(t *testing.T) {
	s := newTestStore(t)

	for _, prompt := range []string{"a cat", "a dog", "a cat"} {
		if err := s.AddHistory(HistoryEntry{Prompt: prompt}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	history, err := s.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries after dedupe, got %d", len(history))
	}
	if history[0].Prompt != "a cat" || history[1].Prompt != "a dog" {
		t.Errorf("expected most recent first, got %v", history)
	}
}

func TestHistoryCappedAtTwenty(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 30; i++ {
		if err := s.AddHistory(HistoryEntry{Prompt: fmt.Sprintf("prompt %d", i)}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	history, err := s.History()
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != historyCap {
		t.Fatalf("expected %d entries, got %d", historyCap, len(history))
	}
	if history[0].Prompt != "prompt 29" {
		t.Errorf("expected newest entry first, got %q", history[0].Prompt)
	}
}

func TestDeleteHistoryBounds(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddHistory(HistoryEntry{Prompt: "only"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.DeleteHistory(5); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if err := s.DeleteHistory(0); err != nil {
		t.Fatalf("delete: %v", err)
	}

	history, _ := s.History()
	if len(history) != 0 {
		t.Errorf("expected empty history, got %v", history)
	}
}

func TestSettingsDefaultsWhenMissing(t *testing.T) {
	s := newTestStore(t)

	settings, err := s.Settings()
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if settings != DefaultSettings() {
		t.Errorf("expected defaults, got %+v", settings)
	}

	settings.OllamaModel = "llama3.1:8b"
	settings.AutoUnloadOllama = false
	if err := s.SaveSettings(settings); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := s.Settings()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded != settings {
		t.Errorf("round trip mismatch: %+v != %+v", reloaded, settings)
	}
}

func TestFavoritesRoundTrip(t *testing.T) {
	s := newTestStore(t)

	favorites, err := s.Favorites()
	if err != nil || len(favorites) != 0 {
		t.Fatalf("expected empty favorites, got %v, %v", favorites, err)
	}

	if err := s.SaveFavorites([]string{"a.png", "b.png"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	favorites, err = s.Favorites()
	if err != nil || len(favorites) != 2 {
		t.Fatalf("expected 2 favorites, got %v, %v", favorites, err)
	}
}
