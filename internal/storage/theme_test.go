package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

func TestThemeStore_DefaultsToLight(t *testing.T) {
	assert.Equal(t, models.ThemeLight, NewThemeStore(NewMemoryStore()).Load())
}

func TestThemeStore_SaveLoad(t *testing.T) {
	kv := NewMemoryStore()
	themes := NewThemeStore(kv)

	require.NoError(t, themes.Save(models.ThemeDark))
	assert.Equal(t, models.ThemeDark, NewThemeStore(kv).Load())

	raw, _, err := kv.Get(ThemeKey)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(raw))
}

func TestThemeStore_GarbageFallsBackToLight(t *testing.T) {
	kv := NewMemoryStore()
	require.NoError(t, kv.Put(ThemeKey, []byte("solarized")))
	assert.Equal(t, models.ThemeLight, NewThemeStore(kv).Load())

	require.NoError(t, kv.Put(ThemeKey, []byte(" dark\n")))
	assert.Equal(t, models.ThemeDark, NewThemeStore(kv).Load())
}

func TestThemeStore_RejectsInvalid(t *testing.T) {
	kv := NewMemoryStore()
	assert.Error(t, NewThemeStore(kv).Save("solarized"))

	_, found, _ := kv.Get(ThemeKey)
	assert.False(t, found)
}

func TestThemeStore_ReadErrorFallsBackToLight(t *testing.T) {
	themes := NewThemeStore(failingStore{err: errors.New("locked")})
	assert.Equal(t, models.ThemeLight, themes.Load())
	assert.Error(t, themes.Save(models.ThemeDark))
}
