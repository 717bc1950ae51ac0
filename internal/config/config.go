package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/GetMystAdmin/hot-pot/internal/profile"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"` // "json", "rss" or "atom"
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type AstraConfig struct {
	DBID     string `yaml:"db_id"`
	Region   string `yaml:"region"`
	Keyspace string `yaml:"keyspace"`
	Table    string `yaml:"table"`
	Token    string `yaml:"token"`
	// BaseURL overrides the URL derived from DBID and Region.
	BaseURL string `yaml:"base_url,omitempty"`
}

type PostgresConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type StoreConfig struct {
	Backend        string         `yaml:"backend"` // "astra", "postgres" or "local"
	LookupAttempts int            `yaml:"lookup_attempts"`
	Timeout        string         `yaml:"timeout"`
	Astra          AstraConfig    `yaml:"astra"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

type NewsConfig struct {
	Limit   int      `yaml:"limit"`
	Timeout string   `yaml:"timeout"`
	Sources []Source `yaml:"sources"`
}

type PostsFlow struct {
	Endpoint        string `yaml:"endpoint"`
	NewsNode        string `yaml:"news_node"`
	PersonalityNode string `yaml:"personality_node"`
}

type HTMLFlow struct {
	Endpoint     string `yaml:"endpoint"`
	TemplateNode string `yaml:"template_node"`
	PostsNode    string `yaml:"posts_node"`
}

type PodcastFlow struct {
	Endpoint string `yaml:"endpoint"`
}

type FlowConfig struct {
	BaseURL string      `yaml:"base_url"`
	Token   string      `yaml:"token"`
	APIKey  string      `yaml:"api_key"`
	Timeout string      `yaml:"timeout"`
	Posts   PostsFlow   `yaml:"posts"`
	HTML    HTMLFlow    `yaml:"html"`
	Podcast PodcastFlow `yaml:"podcast"`
}

type CodegenConfig struct {
	URL             string `yaml:"url"`
	OutputFormat    string `yaml:"output_format"`
	Model           string `yaml:"model"`
	ImageGeneration bool   `yaml:"image_generation"`
	Variants        int    `yaml:"variants"`
	Attempts        int    `yaml:"attempts"`
	RetryDelay      string `yaml:"retry_delay"`
	AutoGenerate    bool   `yaml:"auto_generate"`
	CacheGenerated  bool   `yaml:"cache_generated"`
}

type PodcastConfig struct {
	TTSModel   string   `yaml:"tts_model"`
	Voices     []string `yaml:"voices"`
	SampleRate int      `yaml:"sample_rate"`
	Player     string   `yaml:"player"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "claude" or "openai"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type Config struct {
	DataDir string          `yaml:"data_dir"`
	Store   StoreConfig     `yaml:"store"`
	News    NewsConfig      `yaml:"news"`
	Flow    FlowConfig      `yaml:"flow"`
	Codegen CodegenConfig   `yaml:"codegen"`
	Podcast PodcastConfig   `yaml:"podcast"`
	AI      *AIConfig       `yaml:"ai,omitempty"`
	Profile []profile.Trait `yaml:"profile"`
	Log     LogConfig       `yaml:"log"`
}

// AstraToken returns the Astra application token (config or env var).
func (c *Config) AstraToken() string {
	if c.Store.Astra.Token != "" {
		return c.Store.Astra.Token
	}
	return os.Getenv("ASTRA_DB_APPLICATION_TOKEN")
}

func (c *Config) PostgresDSN() string {
	if c.Store.Postgres.DSN != "" {
		return c.Store.Postgres.DSN
	}
	return os.Getenv("HOTPOT_DATABASE_URL")
}

func (c *Config) FlowToken() string {
	if c.Flow.Token != "" {
		return c.Flow.Token
	}
	return os.Getenv("LANGFLOW_APPLICATION_TOKEN")
}

// OpenAIKey is used for speech synthesis regardless of the selector provider.
func (c *Config) OpenAIKey() string {
	if c.AI != nil && c.AI.Provider == "openai" && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// AIEnabled returns true if AI is configured with a valid API key.
func (c *Config) AIEnabled() bool {
	return c.AI != nil && c.AIKey() != ""
}

// AIKey returns the resolved API key (config or provider env var).
func (c *Config) AIKey() string {
	if c.AI == nil {
		return ""
	}
	if c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	if c.AI.Provider == "claude" {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

func (c *Config) StoreTimeout() time.Duration {
	return parseDuration(c.Store.Timeout, 15*time.Second)
}

func (c *Config) NewsTimeout() time.Duration {
	return parseDuration(c.News.Timeout, 15*time.Second)
}

func (c *Config) FlowTimeout() time.Duration {
	return parseDuration(c.Flow.Timeout, 2*time.Minute)
}

func (c *Config) CodegenRetryDelay() time.Duration {
	return parseDuration(c.Codegen.RetryDelay, 2*time.Second)
}

// GetNewsLimit returns the per-source article bound, defaulting to 5.
func (c *Config) GetNewsLimit() int {
	if c.News.Limit <= 0 {
		return 5
	}
	return c.News.Limit
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.News.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

// DefaultProfile returns the configured personality profile.
func (c *Config) DefaultProfile() profile.Profile {
	return profile.New(c.Profile...)
}

func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return filepath.Join(xdg.DataHome, "hotpot")
}

func (c *Config) RendersPath() string {
	return filepath.Join(c.DataPath(), "renders")
}

func (c *Config) PodcastPath() string {
	return filepath.Join(c.DataPath(), "podcasts")
}

func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(xdg.StateHome, "hotpot", "hotpot.log")
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "hotpot", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "hotpot", "templates.db")
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}

// LoadEnv loads a .env file into the process environment. Variables already
// set win. A missing file is not an error.
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Non-fatal: embedded defaults still apply if the copy can't be written
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Decode over the defaults so partial files inherit the rest.
	cfg := *defaults
	cfg.News.Sources = nil
	cfg.Profile = nil
	// A partial ai block must not inherit the default provider's model.
	cfg.AI = nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if len(cfg.News.Sources) == 0 {
		cfg.News.Sources = defaults.News.Sources
	}
	if len(cfg.Profile) == 0 {
		cfg.Profile = defaults.Profile
	}
	if cfg.AI == nil && defaults.AI != nil {
		ai := *defaults.AI
		cfg.AI = &ai
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"json": true, "rss": true, "atom": true}
	for i, s := range cfg.News.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: json, rss, atom)", s.Name, s.Type)
		}
	}

	switch cfg.Store.Backend {
	case "astra", "postgres", "local":
	default:
		return fmt.Errorf("store: unknown backend %q (valid: astra, postgres, local)", cfg.Store.Backend)
	}
	if cfg.Store.LookupAttempts < 1 {
		return fmt.Errorf("store: lookup_attempts must be at least 1, got %d", cfg.Store.LookupAttempts)
	}
	if cfg.Codegen.Attempts < 1 {
		return fmt.Errorf("codegen: attempts must be at least 1, got %d", cfg.Codegen.Attempts)
	}
	if len(cfg.Podcast.Voices) == 0 {
		return fmt.Errorf("podcast: voice pool is empty")
	}
	return nil
}
