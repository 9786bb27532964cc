package cli

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/flowboard/internal/storage"
	"github.com/valter-silva-au/flowboard/pkg/models"
)

func useThemes(t *testing.T) storage.ThemeStore {
	t.Helper()
	orig := Themes
	Themes = storage.NewThemeStore(storage.NewMemoryStore())
	t.Cleanup(func() { Themes = orig })
	return Themes
}

func TestTheme_NilStore(t *testing.T) {
	orig := Themes
	defer func() { Themes = orig }()
	Themes = nil

	err := themeCmd.RunE(themeCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "theme store not initialized") {
		t.Errorf("err = %v", err)
	}
}

func TestTheme_Show(t *testing.T) {
	useThemes(t)
	out, err := runCmd(t, themeCmd, nil)
	if err != nil {
		t.Fatalf("theme: %v", err)
	}
	if out != "light\n" {
		t.Errorf("output = %q, want light", out)
	}
}

func TestTheme_SetAndToggle(t *testing.T) {
	themes := useThemes(t)

	tests := []struct {
		arg  string
		want models.Theme
	}{
		{"dark", models.ThemeDark},
		{"toggle", models.ThemeLight},
		{"toggle", models.ThemeDark},
		{"light", models.ThemeLight},
	}
	for _, tt := range tests {
		out, err := runCmd(t, themeCmd, nil, tt.arg)
		if err != nil {
			t.Fatalf("theme %s: %v", tt.arg, err)
		}
		if got := themes.Load(); got != tt.want {
			t.Errorf("after %q theme = %s, want %s", tt.arg, got, tt.want)
		}
		if !strings.Contains(out, "Theme set to "+string(tt.want)) {
			t.Errorf("unexpected output %q", out)
		}
	}
}

func TestTheme_Invalid(t *testing.T) {
	themes := useThemes(t)
	if _, err := runCmd(t, themeCmd, nil, "solarized"); err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if got := themes.Load(); got != models.ThemeLight {
		t.Errorf("theme = %s, want light", got)
	}
}
