package storage

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/flowboard/pkg/models"
)

// ThemeStore persists the board theme under ThemeKey as a bare string.
type ThemeStore interface {
	// Load returns the stored theme, or light when none (or garbage) is stored.
	Load() models.Theme
	Save(theme models.Theme) error
}

type kvThemeStore struct {
	kv KeyValueStore
}

// NewThemeStore returns a ThemeStore over kv.
func NewThemeStore(kv KeyValueStore) ThemeStore {
	return &kvThemeStore{kv: kv}
}

func (s *kvThemeStore) Load() models.Theme {
	raw, found, err := s.kv.Get(ThemeKey)
	if err != nil || !found {
		return models.ThemeLight
	}
	theme := models.Theme(strings.TrimSpace(string(raw)))
	if !theme.Valid() {
		return models.ThemeLight
	}
	return theme
}

func (s *kvThemeStore) Save(theme models.Theme) error {
	if !theme.Valid() {
		return fmt.Errorf("saving theme: invalid theme %q", theme)
	}
	if err := s.kv.Put(ThemeKey, []byte(theme)); err != nil {
		return fmt.Errorf("saving theme: %w", err)
	}
	return nil
}
