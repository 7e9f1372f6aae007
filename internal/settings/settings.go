// Package settings persists the editor's session settings (window geometry,
// last selected tree path, document filename) as a small key/value store.
package settings

import (
	"encoding/json"
	"fmt"

	"github.com/peterbourgon/diskv/v3"
)

const (
	KeyWindowPosition = "window_position"
	KeyWindowSize     = "window_size"
	KeyPanedPosition  = "paned_position"
	KeyLastPath       = "last_path"
	KeyFilename       = "filename"
)

// Settings is the persisted record.
type Settings struct {
	WindowPosition [2]int `json:"window_position"`
	WindowSize     [2]int `json:"window_size"`
	PanedPosition  int    `json:"paned_position"`
	LastPath       string `json:"last_path"`
	Filename       string `json:"filename"`
}

// Defaults returns the first-run settings for a document at filename.
func Defaults(filename string) Settings {
	return Settings{
		WindowPosition: [2]int{100, 50},
		WindowSize:     [2]int{700, 500},
		PanedPosition:  200,
		LastPath:       "0",
		Filename:       filename,
	}
}

func (s *Settings) fields() map[string]any {
	return map[string]any{
		KeyWindowPosition: &s.WindowPosition,
		KeyWindowSize:     &s.WindowSize,
		KeyPanedPosition:  &s.PanedPosition,
		KeyLastPath:       &s.LastPath,
		KeyFilename:       &s.Filename,
	}
}

// Store keeps one JSON value per settings key in a flat directory.
type Store struct {
	d        *diskv.Diskv
	defaults Settings
}

// Open returns a Store rooted at dir. Values missing from the store read as
// the given defaults.
func Open(dir string, defaults Settings) *Store {
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 64 * 1024,
		}),
		defaults: defaults,
	}
}

// Load returns the stored settings merged over the defaults. On first run
// (nothing stored) the defaults are written back.
func (s *Store) Load() (Settings, error) {
	st := s.defaults
	found := 0
	for key, ptr := range st.fields() {
		if !s.d.Has(key) {
			continue
		}
		raw, err := s.d.Read(key)
		if err != nil {
			return s.defaults, fmt.Errorf("read setting %s: %w", key, err)
		}
		if err := json.Unmarshal(raw, ptr); err != nil {
			return s.defaults, fmt.Errorf("decode setting %s: %w", key, err)
		}
		found++
	}
	if found == 0 {
		if err := s.Save(st); err != nil {
			return st, err
		}
	}
	return st, nil
}

// Save writes every field.
func (s *Store) Save(st Settings) error {
	for key, ptr := range st.fields() {
		raw, err := json.Marshal(ptr)
		if err != nil {
			return fmt.Errorf("encode setting %s: %w", key, err)
		}
		if err := s.d.Write(key, raw); err != nil {
			return fmt.Errorf("write setting %s: %w", key, err)
		}
	}
	return nil
}

// Keys lists the stored keys.
func (s *Store) Keys() []string {
	var keys []string
	for k := range s.d.Keys(nil) {
		keys = append(keys, k)
	}
	return keys
}
