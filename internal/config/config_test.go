package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalConfig = `
[[providers]]
id = "primary"
kind = "api-football"
api_key_env = "TEST_PRIMARY_KEY"

[[providers]]
id = "secondary"
kind = "football-data"
api_key_env = "TEST_SECONDARY_KEY"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matchsight.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")
	t.Setenv("TEST_SECONDARY_KEY", "key-2")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.FormWindowN != 10 || cfg.H2HWindowM != 5 || cfg.LeagueBaselineL != 100 {
		t.Fatalf("window defaults = %d/%d/%d", cfg.FormWindowN, cfg.H2HWindowM, cfg.LeagueBaselineL)
	}
	if cfg.ValueEVThreshold != 0.05 || cfg.ConfidenceHighReliability != 0.8 {
		t.Fatalf("threshold defaults = %f/%f", cfg.ValueEVThreshold, cfg.ConfidenceHighReliability)
	}
	if cfg.CycleTimeout() != 600*time.Second {
		t.Fatalf("cycle timeout = %s", cfg.CycleTimeout())
	}
	if len(cfg.MarketsEnabled) != 5 {
		t.Fatalf("markets enabled = %v", cfg.MarketsEnabled)
	}
	// Priority defaults to file order.
	if len(cfg.ProviderPriority) != 2 || cfg.ProviderPriority[0] != "primary" {
		t.Fatalf("provider priority = %v", cfg.ProviderPriority)
	}
	if cfg.Providers[0].APIKey != "key-1" || cfg.Providers[1].APIKey != "key-2" {
		t.Fatal("credentials not resolved from environment")
	}
	if cfg.Providers[0].RequestsPerMinute != 30 || cfg.Providers[0].TimeoutSeconds != 30 {
		t.Fatalf("provider defaults = %d rpm / %ds", cfg.Providers[0].RequestsPerMinute, cfg.Providers[0].TimeoutSeconds)
	}
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")
	t.Setenv("TEST_SECONDARY_KEY", "key-2")

	_, err := Load(writeConfig(t, minimalConfig+"\nform_window = 12\n"))
	if err == nil || !strings.Contains(err.Error(), "unknown key") {
		t.Fatalf("err = %v, want unknown key rejection", err)
	}
}

func TestLoad_MissingCredentialFails(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")
	t.Setenv("TEST_SECONDARY_KEY", "")

	_, err := Load(writeConfig(t, minimalConfig))
	if err == nil || !strings.Contains(err.Error(), "TEST_SECONDARY_KEY") {
		t.Fatalf("err = %v, want missing credential failure", err)
	}
}

func TestLoad_RejectsUnknownMarket(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")
	t.Setenv("TEST_SECONDARY_KEY", "key-2")

	_, err := Load(writeConfig(t, "markets_enabled = [\"1x2\", \"handicap\"]\n"+minimalConfig))
	if err == nil || !strings.Contains(err.Error(), "handicap") {
		t.Fatalf("err = %v, want unknown market rejection", err)
	}
}

func TestLoad_RejectsUnknownPriorityProvider(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")
	t.Setenv("TEST_SECONDARY_KEY", "key-2")

	_, err := Load(writeConfig(t, "provider_priority = [\"primary\", \"ghost\"]\n"+minimalConfig))
	if err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Fatalf("err = %v, want unknown provider rejection", err)
	}
}

func TestLoad_RejectsDuplicateProviderIDs(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")

	body := `
[[providers]]
id = "primary"
kind = "api-football"
api_key_env = "TEST_PRIMARY_KEY"

[[providers]]
id = "primary"
kind = "football-data"
api_key_env = "TEST_PRIMARY_KEY"
`
	_, err := Load(writeConfig(t, body))
	if err == nil || !strings.Contains(err.Error(), "duplicate provider id") {
		t.Fatalf("err = %v, want duplicate id rejection", err)
	}
}

func TestLoad_RejectsUnknownProviderKind(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")

	body := `
[[providers]]
id = "primary"
kind = "mystery-feed"
api_key_env = "TEST_PRIMARY_KEY"
`
	_, err := Load(writeConfig(t, body))
	if err == nil {
		t.Fatal("expected validation failure for unknown provider kind")
	}
}

func TestLoad_LeagueOverrides(t *testing.T) {
	t.Setenv("TEST_PRIMARY_KEY", "key-1")
	t.Setenv("TEST_SECONDARY_KEY", "key-2")

	body := minimalConfig + `
[leagues."Premier League"]
tier = 1
home_advantage = 0.15
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	override, ok := cfg.Leagues["Premier League"]
	if !ok || override.Tier != 1 || override.HomeAdvantage != 0.15 {
		t.Fatalf("league override = %+v", cfg.Leagues)
	}
}

func TestParsedLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"debug": "debug",
		"warn":  "warn",
		"error": "error",
		"":      "info",
	}
	for raw, want := range cases {
		cfg := Config{LogLevel: raw}
		if got := cfg.ParsedLogLevel().String(); got != want {
			t.Fatalf("level for %q = %s, want %s", raw, got, want)
		}
	}
}
