package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment   string             `toml:"environment"` // "development" or "production"
	Server        ServerConfig       `toml:"server"`
	Storage       StorageConfig      `toml:"storage"`
	Logging       LoggingConfig      `toml:"logging"`
	Resolver      ResolverConfig     `toml:"resolver"`
	Conversations ConversationConfig `toml:"conversations"`
	Analysis      AnalysisConfig     `toml:"analysis"`
	MarketData    MarketDataConfig   `toml:"marketdata"`
	Gemini        GeminiConfig       `toml:"gemini"`
	Claude        ClaudeConfig       `toml:"claude"`
	LLM           LLMConfig          `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// ResolverConfig controls fuzzy matching behavior for company name resolution
type ResolverConfig struct {
	MatchCutoff      float64 `toml:"match_cutoff"`      // Minimum similarity to auto-resolve a name (default: 0.8)
	SuggestionCutoff float64 `toml:"suggestion_cutoff"` // Minimum similarity to offer a suggestion (default: 0.6)
	MaxSuggestions   int     `toml:"max_suggestions"`   // Maximum suggestions per unresolved name (default: 3)
}

// ConversationConfig controls pending-conversation lifecycle
type ConversationConfig struct {
	TTL           string `toml:"ttl"`            // Time-to-live since last update (default: "30m")
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for expired-conversation sweeps (default: "*/10 * * * *")
}

// AnalysisConfig controls the per-ticker research pipeline
type AnalysisConfig struct {
	MaxConcurrent  int    `toml:"max_concurrent"`  // Maximum tickers analyzed in parallel (default: 4)
	DefaultTimeout string `toml:"default_timeout"` // Per-request timeout when the client sends none (default: "30s")
	MaxNewsItems   int    `toml:"max_news_items"`  // Articles fetched per ticker (default: 10)
	EventDelay     string `toml:"event_delay"`     // Optional pacing delay between progress events (default: "0s")
}

// MarketDataConfig contains market data API configuration
type MarketDataConfig struct {
	APIKey         string `toml:"api_key"`         // Market data API token
	BaseURL        string `toml:"base_url"`        // Override API base URL (tests, proxies)
	RateLimit      string `toml:"rate_limit"`      // Minimum time between API requests (default: "200ms")
	RequestTimeout string `toml:"request_timeout"` // HTTP request timeout (default: "30s")
	FetchArticles  bool   `toml:"fetch_articles"`  // Fetch article bodies for richer news summaries
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in quaestor.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Resolver: ResolverConfig{
			MatchCutoff:      0.8,
			SuggestionCutoff: 0.6,
			MaxSuggestions:   3,
		},
		Conversations: ConversationConfig{
			TTL:           "30m",
			SweepSchedule: "*/10 * * * *",
		},
		Analysis: AnalysisConfig{
			MaxConcurrent:  4,
			DefaultTimeout: "30s",
			MaxNewsItems:   10,
			EventDelay:     "0s",
		},
		MarketData: MarketDataConfig{
			APIKey:         "",
			RateLimit:      "200ms",
			RequestTimeout: "30s",
			FetchArticles:  false,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s",
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("QUAESTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("QUAESTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("QUAESTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("QUAESTOR_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("QUAESTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("QUAESTOR_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Conversation configuration
	if ttl := os.Getenv("QUAESTOR_CONVERSATION_TTL"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err == nil {
			config.Conversations.TTL = ttl
		}
	}
	if schedule := os.Getenv("QUAESTOR_CONVERSATION_SWEEP_SCHEDULE"); schedule != "" {
		config.Conversations.SweepSchedule = schedule
	}

	// Analysis configuration
	if maxConcurrent := os.Getenv("QUAESTOR_ANALYSIS_MAX_CONCURRENT"); maxConcurrent != "" {
		if mc, err := strconv.Atoi(maxConcurrent); err == nil && mc > 0 {
			config.Analysis.MaxConcurrent = mc
		}
	}
	if timeout := os.Getenv("QUAESTOR_ANALYSIS_DEFAULT_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Analysis.DefaultTimeout = timeout
		}
	}

	// Market data configuration
	if apiKey := os.Getenv("QUAESTOR_MARKETDATA_API_KEY"); apiKey != "" {
		config.MarketData.APIKey = apiKey
	}
	if baseURL := os.Getenv("QUAESTOR_MARKETDATA_BASE_URL"); baseURL != "" {
		config.MarketData.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("QUAESTOR_MARKETDATA_RATE_LIMIT"); rateLimit != "" {
		if _, err := time.ParseDuration(rateLimit); err == nil {
			config.MarketData.RateLimit = rateLimit
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("QUAESTOR_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("QUAESTOR_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("QUAESTOR_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("QUAESTOR_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("QUAESTOR_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("QUAESTOR_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // QUAESTOR_ prefix takes priority
	}
	if model := os.Getenv("QUAESTOR_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("QUAESTOR_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("QUAESTOR_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("QUAESTOR_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}

	// LLM provider configuration
	if provider := os.Getenv("QUAESTOR_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ConversationTTL returns the parsed conversation TTL, falling back to 30 minutes
func (c *Config) ConversationTTL() time.Duration {
	d, err := time.ParseDuration(c.Conversations.TTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// AnalysisTimeout returns the parsed default analysis timeout, falling back to 30 seconds
func (c *Config) AnalysisTimeout() time.Duration {
	d, err := time.ParseDuration(c.Analysis.DefaultTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// EventDelay returns the optional pacing delay between progress events
func (c *Config) EventDelay() time.Duration {
	d, err := time.ParseDuration(c.Analysis.EventDelay)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := trimSpace(c.Environment)
	return env == "production" || env == "prod"
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}
