// Package store persists the small pieces of local state the UI layer
// reads back between sessions: favorites, prompt history and settings.
// Everything is a flat JSON document under one directory, guarded by a
// file lock so a CLI invocation and a running server don't clobber each
// other's writes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	favoritesFile = "favorites.json"
	historyFile   = "prompt_history.json"
	settingsFile  = "settings.json"
	lockFile      = ".store.lock"

	// historyCap bounds the prompt history to the most recent entries
	historyCap = 20
)

var ErrInvalidIndex = errors.New("history index out of range")

// HistoryEntry is one remembered prompt with the knobs it ran with.
type HistoryEntry struct {
	Prompt     string `json:"prompt"`
	Negative   string `json:"negativePrompt,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Resolution int    `json:"resolution,omitempty"`
	Aspect     string `json:"aspect,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

// Settings is the persisted settings record.
type Settings struct {
	OllamaModel      string `json:"ollama_model"`
	AutoUnloadOllama bool   `json:"auto_unload_ollama"`
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		OllamaModel:      "qwen2.5:0.5b",
		AutoUnloadOllama: true,
	}
}

// Store reads and writes the JSON documents under dir.
type Store struct {
	dir  string
	lock *flock.Flock
}

// New creates the directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFile)),
	}, nil
}

func (s *Store) withLock(fn func() error) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer s.lock.Unlock()
	return fn()
}

func (s *Store) readJSON(name string, into interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, into)
}

func (s *Store) writeJSON(name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}

// Favorites returns the saved favorites list, empty when none exist.
func (s *Store) Favorites() ([]string, error) {
	var favorites []string
	err := s.withLock(func() error {
		return s.readJSON(favoritesFile, &favorites)
	})
	return favorites, err
}

// SaveFavorites replaces the favorites list.
func (s *Store) SaveFavorites(favorites []string) error {
	return s.withLock(func() error {
		return s.writeJSON(favoritesFile, favorites)
	})
}

// History returns the prompt history, most recent first.
func (s *Store) History() ([]HistoryEntry, error) {
	var history []HistoryEntry
	err := s.withLock(func() error {
		return s.readJSON(historyFile, &history)
	})
	return history, err
}

// AddHistory prepends an entry, de-duplicating by prompt text and keeping
// only the most recent entries.
func (s *Store) AddHistory(entry HistoryEntry) error {
	return s.withLock(func() error {
		var history []HistoryEntry
		if err := s.readJSON(historyFile, &history); err != nil {
			return err
		}

		deduped := make([]HistoryEntry, 0, len(history)+1)
		deduped = append(deduped, entry)
		for _, h := range history {
			if h.Prompt != entry.Prompt {
				deduped = append(deduped, h)
			}
		}
		if len(deduped) > historyCap {
			deduped = deduped[:historyCap]
		}
		return s.writeJSON(historyFile, deduped)
	})
}

// DeleteHistory removes the entry at index.
func (s *Store) DeleteHistory(index int) error {
	return s.withLock(func() error {
		var history []HistoryEntry
		if err := s.readJSON(historyFile, &history); err != nil {
			return err
		}
		if index < 0 || index >= len(history) {
			return ErrInvalidIndex
		}
		history = append(history[:index], history[index+1:]...)
		return s.writeJSON(historyFile, history)
	})
}

// Settings returns the saved settings merged over the defaults.
func (s *Store) Settings() (Settings, error) {
	settings := DefaultSettings()
	err := s.withLock(func() error {
		return s.readJSON(settingsFile, &settings)
	})
	return settings, err
}

// SaveSettings replaces the settings record.
func (s *Store) SaveSettings(settings Settings) error {
	return s.withLock(func() error {
		return s.writeJSON(settingsFile, settings)
	})
}
