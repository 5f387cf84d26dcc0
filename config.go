package tabforge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	defaults "tabforge/default"
)

// Config represents the user's tabforge configuration. It is built once at
// process entry and passed by reference into the pipeline; nothing mutates
// it afterwards.
type Config struct {
	DataDir    string           `toml:"data_dir"`
	Output     string           `toml:"output"`
	StrictRows bool             `toml:"strict_rows"`
	Generation GenerationConfig `toml:"generation"`
	Analysis   AnalysisConfig   `toml:"analysis"`
	Retry      RetryConfig      `toml:"retry"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
}

// GenerationConfig holds settings for the generation API.
type GenerationConfig struct {
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// AnalysisConfig holds settings for the analysis call. The analysis wants a
// short, nearly deterministic answer, so its parameters are much tighter
// than the generation ones.
type AnalysisConfig struct {
	MaxTokens       int     `toml:"max_tokens"`
	Temperature     float64 `toml:"temperature"`
	CacheTTLMinutes int     `toml:"cache_ttl_minutes"`
}

// RetryConfig bounds the per-batch retry loop of the synthesis engine.
type RetryConfig struct {
	MaxAttempts  int `toml:"max_attempts"`
	BackoffMS    int `toml:"backoff_ms"`
	MaxBackoffMS int `toml:"max_backoff_ms"`
}

// EmbeddingConfig holds settings for the embedding API backing the
// near-duplicate guard. The guard only runs when base_url and api_key are
// both configured.
type EmbeddingConfig struct {
	BaseURL   string  `toml:"base_url"`
	APIKey    string  `toml:"api_key"`
	Model     string  `toml:"model"`
	Threshold float64 `toml:"threshold"`
	Action    string  `toml:"action"`
}

// ConfigDir returns the config directory path.
// Resolution order: $TABFORGE_CONFIG_DIR > $XDG_CONFIG_HOME/tabforge > ~/.config/tabforge
func ConfigDir() string {
	if dir := os.Getenv("TABFORGE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "tabforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "tabforge-config")
	}
	return filepath.Join(home, ".config", "tabforge")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// AnalyzerPromptPath returns the analyzer prompt override file path.
func AnalyzerPromptPath() string {
	return filepath.Join(ConfigDir(), "analyzer_prompt.md")
}

// GeneratorPromptPath returns the generator prompt override file path.
func GeneratorPromptPath() string {
	return filepath.Join(ConfigDir(), "generator_prompt.md")
}

// DefaultConfig returns the default configuration from the embedded default_config.toml.
func DefaultConfig() *Config {
	var cfg Config
	if err := toml.Unmarshal(defaults.DefaultConfigTOML, &cfg); err != nil {
		panic("tabforge: invalid embedded default_config.toml: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.Output == "" {
		cfg.Output = defaults.Output
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = defaults.Generation.BaseURL
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = defaults.Generation.Model
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = defaults.Generation.MaxTokens
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = defaults.Generation.Temperature
	}
	if cfg.Analysis.MaxTokens == 0 {
		cfg.Analysis.MaxTokens = defaults.Analysis.MaxTokens
	}
	if cfg.Analysis.Temperature == 0 {
		cfg.Analysis.Temperature = defaults.Analysis.Temperature
	}
	if cfg.Analysis.CacheTTLMinutes == 0 {
		cfg.Analysis.CacheTTLMinutes = defaults.Analysis.CacheTTLMinutes
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if cfg.Retry.BackoffMS == 0 {
		cfg.Retry.BackoffMS = defaults.Retry.BackoffMS
	}
	if cfg.Retry.MaxBackoffMS == 0 {
		cfg.Retry.MaxBackoffMS = defaults.Retry.MaxBackoffMS
	}
	if cfg.Embedding.Threshold == 0 {
		cfg.Embedding.Threshold = defaults.Embedding.Threshold
	}
	if cfg.Embedding.Action == "" {
		cfg.Embedding.Action = defaults.Embedding.Action
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 1 {
		warnings = append(warnings, fmt.Sprintf("generation temperature %.2f is outside [0, 1]; the backend may reject it", cfg.Generation.Temperature))
	}
	if cfg.Generation.Model != "" && !KnownModel(cfg.Generation.Model) {
		warnings = append(warnings, fmt.Sprintf("model %q is not in the built-in catalog; the backend may not recognize it", cfg.Generation.Model))
	}
	switch cfg.Embedding.Action {
	case "", ActionWarn:
	case ActionReject:
		if !EmbeddingEnabled(cfg) {
			warnings = append(warnings, "embedding action is \"reject\" but the embedding API is not configured; the similarity guard is disabled")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown embedding action %q; expected \"warn\" or \"reject\"", cfg.Embedding.Action))
	}
	if cfg.Retry.MaxAttempts < 1 {
		warnings = append(warnings, "retry max_attempts is below 1; each batch gets a single attempt")
	}
	return warnings
}

// ResolveAPIKey returns the generation API key.
// Priority: $ANTHROPIC_API_KEY env > config value.
func ResolveAPIKey(cfg *Config) string {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Generation.APIKey
	}
	return ""
}

// ResolveBaseURL returns the generation API base URL.
// Priority: $TABFORGE_BASE_URL env > config value.
func ResolveBaseURL(cfg *Config) string {
	if url := os.Getenv("TABFORGE_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Generation.BaseURL
	}
	return ""
}

// ResolveModel returns the generation model name.
// Priority: $TABFORGE_MODEL env > config value.
func ResolveModel(cfg *Config) string {
	if model := os.Getenv("TABFORGE_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Generation.Model
	}
	return ""
}

// ResolveDataDir returns the directory holding sample files and the output file.
// Priority: $TABFORGE_DATA_DIR env > config value.
func ResolveDataDir(cfg *Config) string {
	if dir := os.Getenv("TABFORGE_DATA_DIR"); dir != "" {
		return dir
	}
	if cfg != nil {
		return cfg.DataDir
	}
	return ""
}

// ResolveOutput returns the output file name.
// Priority: $TABFORGE_OUTPUT env > config value.
func ResolveOutput(cfg *Config) string {
	if name := os.Getenv("TABFORGE_OUTPUT"); name != "" {
		return name
	}
	if cfg != nil {
		return cfg.Output
	}
	return ""
}

// ResolveEmbeddingBaseURL returns the embedding API base URL.
// Priority: $TABFORGE_EMBEDDING_BASE_URL env > config value.
func ResolveEmbeddingBaseURL(cfg *Config) string {
	if url := os.Getenv("TABFORGE_EMBEDDING_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Embedding.BaseURL
	}
	return ""
}

// ResolveEmbeddingAPIKey returns the embedding API key.
// Priority: $TABFORGE_EMBEDDING_API_KEY env > config value.
func ResolveEmbeddingAPIKey(cfg *Config) string {
	if key := os.Getenv("TABFORGE_EMBEDDING_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Embedding.APIKey
	}
	return ""
}

// ResolveEmbeddingModel returns the embedding model name.
// Priority: $TABFORGE_EMBEDDING_MODEL env > config value.
func ResolveEmbeddingModel(cfg *Config) string {
	if model := os.Getenv("TABFORGE_EMBEDDING_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Embedding.Model
	}
	return ""
}

// EmbeddingEnabled returns true when both base_url and api_key are configured for embedding.
func EmbeddingEnabled(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return ResolveEmbeddingBaseURL(cfg) != "" && ResolveEmbeddingAPIKey(cfg) != ""
}
