package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if len(cfg.News.Sources) == 0 {
		t.Error("expected at least one default source")
	}
	if cfg.Store.Backend != "local" {
		t.Errorf("expected local store backend, got %q", cfg.Store.Backend)
	}
	if len(cfg.Podcast.Voices) != 9 {
		t.Errorf("expected 9 default voices, got %d", len(cfg.Podcast.Voices))
	}
	if err := validate(cfg); err != nil {
		t.Errorf("embedded defaults should validate: %v", err)
	}
}

func TestDefaultSourcesAreTheTwoCategories(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	names := cfg.SourceNames()
	if len(names) != 2 || names[0] != "entertainment" || names[1] != "general" {
		t.Errorf("unexpected enabled sources: %v", names)
	}
	if cfg.GetNewsLimit() != 5 {
		t.Errorf("expected news limit 5, got %d", cfg.GetNewsLimit())
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{}
	if d := cfg.CodegenRetryDelay(); d != 2*time.Second {
		t.Errorf("expected 2s default retry delay, got %v", d)
	}
	cfg.Codegen.RetryDelay = "500ms"
	if d := cfg.CodegenRetryDelay(); d != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", d)
	}
	cfg.Flow.Timeout = "invalid"
	if d := cfg.FlowTimeout(); d != 2*time.Minute {
		t.Errorf("expected 2m fallback for invalid timeout, got %v", d)
	}
}

func TestEnabledSources(t *testing.T) {
	cfg := &Config{
		News: NewsConfig{Sources: []Source{
			{Name: "A", Enabled: true},
			{Name: "B", Enabled: false},
			{Name: "C", Enabled: true},
		}},
	}
	enabled := cfg.EnabledSources()
	if len(enabled) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(enabled))
	}
	if enabled[0].Name != "A" || enabled[1].Name != "C" {
		t.Errorf("unexpected enabled sources: %v", enabled)
	}
}

func TestSecretsFallBackToEnv(t *testing.T) {
	t.Setenv("ASTRA_DB_APPLICATION_TOKEN", "astra-env")
	t.Setenv("LANGFLOW_APPLICATION_TOKEN", "flow-env")

	cfg := &Config{}
	if got := cfg.AstraToken(); got != "astra-env" {
		t.Errorf("AstraToken() = %q, want env value", got)
	}
	cfg.Store.Astra.Token = "astra-file"
	if got := cfg.AstraToken(); got != "astra-file" {
		t.Errorf("AstraToken() = %q, want config value", got)
	}
	if got := cfg.FlowToken(); got != "flow-env" {
		t.Errorf("FlowToken() = %q, want env value", got)
	}
}

func TestAIKeyByProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ant")
	t.Setenv("OPENAI_API_KEY", "oai")

	if (&Config{}).AIEnabled() {
		t.Error("expected AI disabled without ai section")
	}
	cfg := &Config{AI: &AIConfig{Provider: "claude"}}
	if got := cfg.AIKey(); got != "ant" {
		t.Errorf("claude key = %q", got)
	}
	cfg.AI.Provider = "openai"
	if got := cfg.AIKey(); got != "oai" {
		t.Errorf("openai key = %q", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `store:
  backend: astra
news:
  sources:
    - name: Test
      type: rss
      url: https://example.com/feed
      enabled: true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != "astra" {
		t.Errorf("expected astra backend, got %s", cfg.Store.Backend)
	}
	if len(cfg.News.Sources) != 1 || cfg.News.Sources[0].Name != "Test" {
		t.Errorf("expected user sources to replace defaults, got %v", cfg.News.Sources)
	}
	// Untouched sections inherit the defaults
	if cfg.Store.LookupAttempts != 3 {
		t.Errorf("expected inherited lookup_attempts 3, got %d", cfg.Store.LookupAttempts)
	}
	if len(cfg.Profile) == 0 {
		t.Error("expected default profile to be inherited")
	}
}

func TestLoadNonexistentFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sub", "config.yaml")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.News.Sources) == 0 {
		t.Error("expected default sources when config doesn't exist")
	}
	if _, err := os.Stat(cfgPath); err != nil {
		t.Errorf("expected defaults written on first run: %v", err)
	}
}

func TestLoadEnvMissingFileIsNotAnError(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HOTPOT_TEST_A=file\nHOTPOT_TEST_B=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOTPOT_TEST_A", "process")
	t.Setenv("HOTPOT_TEST_B", "")
	os.Unsetenv("HOTPOT_TEST_B")

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if got := os.Getenv("HOTPOT_TEST_A"); got != "process" {
		t.Errorf("HOTPOT_TEST_A = %q, want process", got)
	}
	if got := os.Getenv("HOTPOT_TEST_B"); got != "file" {
		t.Errorf("HOTPOT_TEST_B = %q, want file", got)
	}
}

func validConfig() *Config {
	return &Config{
		Store:   StoreConfig{Backend: "local", LookupAttempts: 3},
		Codegen: CodegenConfig{Attempts: 3},
		Podcast: PodcastConfig{Voices: []string{"alloy"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing name", func(c *Config) { c.News.Sources = []Source{{Type: "rss", URL: "https://example.com"}} }, true},
		{"missing url", func(c *Config) { c.News.Sources = []Source{{Name: "Test", Type: "rss"}} }, true},
		{"invalid type", func(c *Config) { c.News.Sources = []Source{{Name: "Test", Type: "xml", URL: "https://example.com"}} }, true},
		{"file scheme", func(c *Config) { c.News.Sources = []Source{{Name: "Test", Type: "rss", URL: "file:///etc/passwd"}} }, true},
		{"http json", func(c *Config) { c.News.Sources = []Source{{Name: "Test", Type: "json", URL: "http://example.com/x.json"}} }, false},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, true},
		{"zero lookup attempts", func(c *Config) { c.Store.LookupAttempts = 0 }, true},
		{"zero codegen attempts", func(c *Config) { c.Codegen.Attempts = 0 }, true},
		{"empty voices", func(c *Config) { c.Podcast.Voices = nil }, true},
	}
	for _, tt := range tests {
		cfg := validConfig()
		tt.mutate(cfg)
		err := validate(cfg)
		if tt.wantErr && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
		}
	}
}

func TestLoadAIBlockReplacesDefaults(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantProv  string
		wantModel string
	}{
		{"provider switch without model", "ai:\n  provider: claude\n", "claude", ""},
		{"provider and model", "ai:\n  provider: claude\n  model: claude-sonnet-4-5\n", "claude", "claude-sonnet-4-5"},
		{"no ai block", "store:\n  backend: local\n", "openai", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(cfgPath, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing config: %v", err)
			}
			cfg, err := Load(cfgPath)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.AI == nil {
				t.Fatal("expected ai config")
			}
			if cfg.AI.Provider != tt.wantProv || cfg.AI.Model != tt.wantModel {
				t.Errorf("ai = %q/%q, want %q/%q", cfg.AI.Provider, cfg.AI.Model, tt.wantProv, tt.wantModel)
			}
		})
	}
}
