package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the topicsearch API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Engine     EngineConfig     `yaml:"engine"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Suggest    SuggestConfig    `yaml:"suggest"`
	Usage      UsageConfig      `yaml:"usage"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// EngineConfig holds Elasticsearch connection settings.
type EngineConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Index            string   `yaml:"index"`
	PingTimeoutMs    int      `yaml:"ping_timeout_ms"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RankingConfig names the index fields and tunes the relevance pipeline.
type RankingConfig struct {
	TopicCount         int      `yaml:"topic_count"`
	TopicField         string   `yaml:"topic_field"`
	VisibilityField    string   `yaml:"visibility_field"`
	TitleField         string   `yaml:"title_field"`
	BodyField          string   `yaml:"body_field"`
	KeywordsField      string   `yaml:"keywords_field"`
	Projection         []string `yaml:"projection"`
	FirstPageSize      int      `yaml:"first_page_size"`
	PageSize           int      `yaml:"page_size"`
	MinimumShouldMatch string   `yaml:"minimum_should_match"`
	CutoffFrequency    float64  `yaml:"cutoff_frequency"` // 0 = omitted (removed in Elasticsearch 8)
	AuxiliaryTerm      string   `yaml:"auxiliary_term"`   // empty = no auxiliary clause
	AuxiliaryBoost     float64  `yaml:"auxiliary_boost"`
}

// SuggestConfig holds autocomplete and suggest settings.
type SuggestConfig struct {
	DefaultSize     int    `yaml:"default_size"`
	MaxSize         int    `yaml:"max_size"`
	CompletionField string `yaml:"completion_field"`
	PhraseField     string `yaml:"phrase_field"`
	AutocompleteRaw string `yaml:"autocomplete_raw_field"`
	AutocompleteKey string `yaml:"autocomplete_filter_field"`
	MaxSuggestions  int    `yaml:"max_suggestions"`
}

// UsageConfig holds request counter settings (Redis).
type UsageConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	DailyTTLHours    int      `yaml:"daily_ttl_hours"`
	MonthlyTTLDays   int      `yaml:"monthly_ttl_days"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ResilienceConfig holds circuit breaker settings.
type ResilienceConfig struct {
	BreakerEnabled   bool    `yaml:"breaker_enabled"`
	MinRequests      uint32  `yaml:"min_requests"`
	FailureRatio     float64 `yaml:"failure_ratio"`
	OpenTimeoutSec   int     `yaml:"open_timeout_sec"`
	HalfOpenMaxCalls uint32  `yaml:"half_open_max_calls"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
//
//nolint:gocyclo // flat list of defaults
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Engine.PingTimeoutMs <= 0 {
		c.Engine.PingTimeoutMs = 1000
	}
	if c.Engine.ReadinessTimeout <= 0 {
		c.Engine.ReadinessTimeout = 30
	}
	c.Ranking.applyDefaults()
	c.Suggest.applyDefaults()
	if c.Usage.KeyPrefix == "" {
		c.Usage.KeyPrefix = "topicsearch"
	}
	if c.Usage.DailyTTLHours <= 0 {
		c.Usage.DailyTTLHours = 48
	}
	if c.Usage.MonthlyTTLDays <= 0 {
		c.Usage.MonthlyTTLDays = 62
	}
	if c.Usage.ReadinessTimeout <= 0 {
		c.Usage.ReadinessTimeout = 10
	}
	if c.Resilience.MinRequests == 0 {
		c.Resilience.MinRequests = 10
	}
	if c.Resilience.FailureRatio == 0 {
		c.Resilience.FailureRatio = 0.5
	}
	if c.Resilience.OpenTimeoutSec <= 0 {
		c.Resilience.OpenTimeoutSec = 30
	}
	if c.Resilience.HalfOpenMaxCalls == 0 {
		c.Resilience.HalfOpenMaxCalls = 2
	}
}

func (r *RankingConfig) applyDefaults() {
	if r.TopicCount == 0 {
		r.TopicCount = 100
	}
	if r.TopicField == "" {
		r.TopicField = "categories"
	}
	if r.VisibilityField == "" {
		r.VisibilityField = "info.iframe"
	}
	if r.TitleField == "" {
		r.TitleField = "title"
	}
	if r.BodyField == "" {
		r.BodyField = "body"
	}
	if r.KeywordsField == "" {
		r.KeywordsField = "keywords"
	}
	if len(r.Projection) == 0 {
		r.Projection = []string{"title", "description", "url", "image"}
	}
	if r.FirstPageSize == 0 {
		r.FirstPageSize = 1
	}
	if r.PageSize == 0 {
		r.PageSize = 10
	}
	if r.MinimumShouldMatch == "" {
		r.MinimumShouldMatch = "3<75%"
	}
	if r.AuxiliaryBoost <= 0 {
		r.AuxiliaryBoost = 1
	}
}

func (s *SuggestConfig) applyDefaults() {
	if s.DefaultSize <= 0 {
		s.DefaultSize = 5
	}
	if s.MaxSize <= 0 {
		s.MaxSize = 10
	}
	if s.CompletionField == "" {
		s.CompletionField = "completions"
	}
	if s.PhraseField == "" {
		s.PhraseField = "body"
	}
	if s.AutocompleteRaw == "" {
		s.AutocompleteRaw = "autocompletion.raw"
	}
	if s.AutocompleteKey == "" {
		s.AutocompleteKey = "autocompletion.completion"
	}
	if s.MaxSuggestions <= 0 {
		s.MaxSuggestions = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Engine.Addrs) == 0 {
		return fmt.Errorf("engine.addrs is required")
	}
	if c.Engine.Index == "" {
		return fmt.Errorf("engine.index is required")
	}
	if c.Ranking.TopicCount < 1 {
		return fmt.Errorf("ranking.topic_count must be >= 1, got %d", c.Ranking.TopicCount)
	}
	if c.Ranking.FirstPageSize < 1 || c.Ranking.PageSize < 1 {
		return fmt.Errorf("ranking page sizes must be >= 1, got %d/%d",
			c.Ranking.FirstPageSize, c.Ranking.PageSize)
	}
	if c.Suggest.DefaultSize > c.Suggest.MaxSize {
		return fmt.Errorf("suggest.default_size %d exceeds suggest.max_size %d",
			c.Suggest.DefaultSize, c.Suggest.MaxSize)
	}
	if c.Resilience.FailureRatio <= 0 || c.Resilience.FailureRatio > 1 {
		return fmt.Errorf("resilience.failure_ratio must be in (0, 1], got %v", c.Resilience.FailureRatio)
	}
	if c.Usage.Enabled && len(c.Usage.Addrs) == 0 {
		return fmt.Errorf("usage.addrs is required when usage is enabled")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
