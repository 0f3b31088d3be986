package internal

import (
	"strings"
	"testing"

	"github.com/starford/iotodash/internal/filter"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDashboardConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Dashboard.Locale = ""
	cfg.Dashboard.PageSize = 0
	cfg.Dashboard.RefreshDebounce = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
	if cfg.Dashboard.Locale != "en" {
		t.Errorf("locale = %q, want en", cfg.Dashboard.Locale)
	}
	if cfg.Dashboard.PageSize != 50 {
		t.Errorf("page size = %d, want 50", cfg.Dashboard.PageSize)
	}
	if cfg.Dashboard.RefreshDebounce <= 0 {
		t.Errorf("debounce = %v, want positive", cfg.Dashboard.RefreshDebounce)
	}
}

func TestDashboardConfig_PageSizeClamped(t *testing.T) {
	for _, tc := range []struct {
		in, want int
	}{
		{5, 20},
		{1000, 300},
		{75, 75},
	} {
		cfg := NewDefaultConfig().Dashboard
		cfg.PageSize = tc.in
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate(%d): %v", tc.in, err)
		}
		if cfg.PageSize != tc.want {
			t.Errorf("page size %d = %d, want %d", tc.in, cfg.PageSize, tc.want)
		}
	}
}

func TestDashboardConfig_Locale(t *testing.T) {
	cfg := NewDefaultConfig().Dashboard
	cfg.Locale = "ZH-TW"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zh-tw should pass: %v", err)
	}
	if cfg.Locale != "zh-tw" {
		t.Errorf("locale = %q, want zh-tw", cfg.Locale)
	}

	cfg.Locale = "fr"
	if err := cfg.Validate(); err == nil {
		t.Fatal("unsupported locale should fail")
	}
}

func TestDashboardConfig_FoldersRequired(t *testing.T) {
	cfg := NewDefaultConfig().Dashboard
	cfg.Folders.Output = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing output folder should fail")
	}
}

func TestDashboardConfig_CustomFiltersValidated(t *testing.T) {
	cfg := NewDefaultConfig().Dashboard
	cfg.CustomFilters = []filter.CustomFilter{{Name: "Priority", Type: "colour"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad custom filter type should fail")
	}
}

func TestFoldersConfig_TrimsSlashes(t *testing.T) {
	got := FoldersConfig{Input: "/in/", Output: "out", Outcome: "done/", Task: ""}.Settings()
	if got.Input != "in" || got.Outcome != "done" || got.Task != "" {
		t.Errorf("folders = %+v", got)
	}
}
