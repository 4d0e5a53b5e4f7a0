package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Logging     LoggingConfig    `toml:"logging"`
	Storage     StorageConfig    `toml:"storage"`
	Search      SearchConfig     `toml:"search"`
	Fetcher     FetcherConfig    `toml:"fetcher"`
	Extractor   ExtractorConfig  `toml:"extractor"`
	Embeddings  EmbeddingsConfig `toml:"embeddings"`
	Ranker      RankerConfig     `toml:"ranker"`
	Indicator   IndicatorConfig  `toml:"indicator"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Export      ExportConfig     `toml:"export"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"omitempty,oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format string   `toml:"format"`                                                 // "json" or "text"
	Output []string `toml:"output"`                                                 // "stdout", "file"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	SeenTTL        string `toml:"seen_ttl"`         // Retention window for seen-URL entries (duration string)
}

// SearchConfig contains web search provider configuration.
// APIKey and EngineID are both required for search to function; when either
// is missing the search client degrades to empty results.
type SearchConfig struct {
	APIKey        string `toml:"api_key"`
	EngineID      string `toml:"engine_id"`
	Endpoint      string `toml:"endpoint"`
	NumResults    int    `toml:"num_results" validate:"gte=1,lte=10"` // Results per page, provider caps at 10
	MaxUniqueURLs int    `toml:"max_unique_urls" validate:"gte=1"`    // Early pagination stop once this many unique URLs collected
	PageDelay     string `toml:"page_delay"`                          // Polite delay before offset pages (duration string, >= 1s)
	FetchAllPages bool   `toml:"fetch_all_pages"`                     // Walk offsets 11 and 21 in addition to 1
	RateLimit     string `toml:"rate_limit"`                          // Minimum interval between provider requests (duration string)
}

// FetcherConfig contains article download configuration
type FetcherConfig struct {
	MaxConcurrency int    `toml:"max_concurrency" validate:"gte=1"` // Simultaneous in-flight fetches
	Timeout        string `toml:"timeout"`                          // Per-attempt timeout (duration string)
	MaxAttempts    int    `toml:"max_attempts" validate:"gte=1"`    // Attempts per URL before giving up
	BackoffMin     string `toml:"backoff_min"`                      // Minimum retry wait (duration string)
	BackoffMax     string `toml:"backoff_max"`                      // Maximum retry wait (duration string)
	UserAgent      string `toml:"user_agent"`                       // Browser user agent sent with every request
	MaxBodySize    int    `toml:"max_body_size" validate:"gte=1"`   // Maximum response body size in bytes
}

// ExtractorConfig contains content extraction configuration
type ExtractorConfig struct {
	MaxContentLength int `toml:"max_content_length" validate:"gte=1"` // Truncation cutoff for article content
	MinContentLength int `toml:"min_content_length" validate:"gte=0"` // Below this the readability output is considered unusable
}

// EmbeddingsConfig contains embedding provider configuration
type EmbeddingsConfig struct {
	Provider  string `toml:"provider" validate:"oneof=openai gemini"` // "openai" or "gemini"
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	Dimension int    `toml:"dimension" validate:"gte=1"`
	Endpoint  string `toml:"endpoint"` // OpenAI-compatible base URL, ignored by the gemini provider
	Timeout   string `toml:"timeout"`  // Request timeout (duration string)
}

// RankerConfig contains relevance ranking configuration
type RankerConfig struct {
	TopN          int `toml:"top_n" validate:"gte=1"`        // Default size of the final ranked list
	MaxAgeDays    int `toml:"max_age_days" validate:"gte=1"` // Freshness cutoff
	SnippetLength int `toml:"snippet_length" validate:"gte=1"`
}

// IndicatorConfig contains economic indicator provider configuration,
// used by scheduled scans to resolve the latest change for an index.
type IndicatorConfig struct {
	APIKey    string `toml:"api_key"`
	Endpoint  string `toml:"endpoint"`
	Country   string `toml:"country"`    // ISO country code for macro-indicator lookups
	RateLimit string `toml:"rate_limit"` // Minimum interval between provider requests (duration string)
}

// SchedulerConfig contains watchlist scan scheduling configuration
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	Schedule      string `toml:"schedule"`       // Cron schedule format (with seconds field)
	WatchlistPath string `toml:"watchlist_path"` // YAML file listing the indices to scan
	SkipSeen      bool   `toml:"skip_seen"`      // Scheduled scans drop URLs surfaced in earlier runs of the same index
}

// ExportConfig contains digest rendering configuration
type ExportConfig struct {
	OutputDir string   `toml:"output_dir"`
	Formats   []string `toml:"formats" validate:"dive,oneof=md html pdf eml"` // Default digest formats
	EmailFrom string   `toml:"email_from"`                                    // From header for eml digests
	EmailTo   string   `toml:"email_to"`                                      // To header for eml digests
}

// WebSocketConfig contains configuration for WebSocket log streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
	// Whitelist of event types to broadcast via WebSocket. Empty list allows all events.
	AllowedEvents []string `toml:"allowed_events"`
	// Throttle intervals for high-frequency events. Map of event type to duration string.
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in indago.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:    "./data",
				SeenTTL: "720h", // 30 days before a URL may resurface in scheduled scans
			},
		},
		Search: SearchConfig{
			APIKey:        "", // User must provide API key in config file
			EngineID:      "",
			Endpoint:      "https://www.googleapis.com/customsearch/v1",
			NumResults:    10,
			MaxUniqueURLs: 15,
			PageDelay:     "1s",
			FetchAllPages: true,
			RateLimit:     "1s",
		},
		Fetcher: FetcherConfig{
			MaxConcurrency: 5,
			Timeout:        "10s",
			MaxAttempts:    3,
			BackoffMin:     "2s",
			BackoffMax:     "10s",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			MaxBodySize:    10 * 1024 * 1024, // 10MB
		},
		Extractor: ExtractorConfig{
			MaxContentLength: 5000,
			MinContentLength: 200,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "openai",
			APIKey:    "",
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			Endpoint:  "https://api.openai.com/v1",
			Timeout:   "30s",
		},
		Ranker: RankerConfig{
			TopN:          5,
			MaxAgeDays:    45,
			SnippetLength: 200,
		},
		Indicator: IndicatorConfig{
			APIKey:    "",
			Endpoint:  "https://eodhd.com/api",
			Country:   "USA",
			RateLimit: "1s",
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,         // Disabled by default - user must explicitly opt-in
			Schedule:      "0 0 6 * * *", // Daily at 06:00 (cron format with seconds)
			WatchlistPath: "watchlist.yaml",
			SkipSeen:      true,
		},
		Export: ExportConfig{
			OutputDir: "./digests",
			Formats:   []string{"md"},
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info", // Default: info level and above
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
			},
			// Empty AllowedEvents allows all events
			AllowedEvents: []string{},
			// Throttle high-frequency events to prevent flooding during large scans
			ThrottleIntervals: map[string]string{
				"scan_progress": "1s",
			},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: INDAGO_ENV, fallback: GO_ENV)
	if env := os.Getenv("INDAGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("INDAGO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("INDAGO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("INDAGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("INDAGO_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("INDAGO_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
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

	// Storage configuration
	if badgerPath := os.Getenv("INDAGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("INDAGO_BADGER_RESET_ON_STARTUP"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}
	if seenTTL := os.Getenv("INDAGO_BADGER_SEEN_TTL"); seenTTL != "" {
		if _, err := time.ParseDuration(seenTTL); err == nil {
			config.Storage.Badger.SeenTTL = seenTTL
		}
	}

	// Search configuration
	// New prefixed env var (priority) then the provider-standard var
	if apiKey := os.Getenv("INDAGO_SEARCH_API_KEY"); apiKey != "" {
		config.Search.APIKey = apiKey
	} else if apiKey := os.Getenv("GOOGLE_API_KEY"); apiKey != "" {
		config.Search.APIKey = apiKey
	}
	if engineID := os.Getenv("INDAGO_SEARCH_ENGINE_ID"); engineID != "" {
		config.Search.EngineID = engineID
	} else if engineID := os.Getenv("GOOGLE_CSE_ID"); engineID != "" {
		config.Search.EngineID = engineID
	}
	if endpoint := os.Getenv("INDAGO_SEARCH_ENDPOINT"); endpoint != "" {
		config.Search.Endpoint = endpoint
	}
	if numResults := os.Getenv("INDAGO_SEARCH_NUM_RESULTS"); numResults != "" {
		if nr, err := strconv.Atoi(numResults); err == nil {
			config.Search.NumResults = nr
		}
	}
	if maxUnique := os.Getenv("INDAGO_SEARCH_MAX_UNIQUE_URLS"); maxUnique != "" {
		if mu, err := strconv.Atoi(maxUnique); err == nil {
			config.Search.MaxUniqueURLs = mu
		}
	}
	if pageDelay := os.Getenv("INDAGO_SEARCH_PAGE_DELAY"); pageDelay != "" {
		if _, err := time.ParseDuration(pageDelay); err == nil {
			config.Search.PageDelay = pageDelay
		}
	}
	if fetchAll := os.Getenv("INDAGO_SEARCH_FETCH_ALL_PAGES"); fetchAll != "" {
		if fa, err := strconv.ParseBool(fetchAll); err == nil {
			config.Search.FetchAllPages = fa
		}
	}

	// Fetcher configuration
	if maxConcurrency := os.Getenv("INDAGO_FETCHER_MAX_CONCURRENCY"); maxConcurrency != "" {
		if mc, err := strconv.Atoi(maxConcurrency); err == nil {
			config.Fetcher.MaxConcurrency = mc
		}
	}
	if timeout := os.Getenv("INDAGO_FETCHER_TIMEOUT"); timeout != "" {
		if _, err := time.ParseDuration(timeout); err == nil {
			config.Fetcher.Timeout = timeout
		}
	}
	if maxAttempts := os.Getenv("INDAGO_FETCHER_MAX_ATTEMPTS"); maxAttempts != "" {
		if ma, err := strconv.Atoi(maxAttempts); err == nil {
			config.Fetcher.MaxAttempts = ma
		}
	}
	if userAgent := os.Getenv("INDAGO_FETCHER_USER_AGENT"); userAgent != "" {
		config.Fetcher.UserAgent = userAgent
	}
	if maxBodySize := os.Getenv("INDAGO_FETCHER_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Fetcher.MaxBodySize = mbs
		}
	}

	// Extractor configuration
	if maxLen := os.Getenv("INDAGO_EXTRACTOR_MAX_CONTENT_LENGTH"); maxLen != "" {
		if ml, err := strconv.Atoi(maxLen); err == nil {
			config.Extractor.MaxContentLength = ml
		}
	}

	// Embeddings configuration
	if provider := os.Getenv("INDAGO_EMBEDDINGS_PROVIDER"); provider != "" {
		config.Embeddings.Provider = provider
	}
	if apiKey := os.Getenv("INDAGO_EMBEDDINGS_API_KEY"); apiKey != "" {
		config.Embeddings.APIKey = apiKey
	} else if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.Embeddings.Provider == "openai" {
		config.Embeddings.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && config.Embeddings.Provider == "gemini" {
		config.Embeddings.APIKey = apiKey
	}
	if model := os.Getenv("INDAGO_EMBEDDINGS_MODEL"); model != "" {
		config.Embeddings.Model = model
	}
	if dimension := os.Getenv("INDAGO_EMBEDDINGS_DIMENSION"); dimension != "" {
		if d, err := strconv.Atoi(dimension); err == nil {
			config.Embeddings.Dimension = d
		}
	}
	if endpoint := os.Getenv("INDAGO_EMBEDDINGS_ENDPOINT"); endpoint != "" {
		config.Embeddings.Endpoint = endpoint
	}

	// Ranker configuration
	if topN := os.Getenv("INDAGO_RANKER_TOP_N"); topN != "" {
		if tn, err := strconv.Atoi(topN); err == nil {
			config.Ranker.TopN = tn
		}
	}
	if maxAgeDays := os.Getenv("INDAGO_RANKER_MAX_AGE_DAYS"); maxAgeDays != "" {
		if mad, err := strconv.Atoi(maxAgeDays); err == nil {
			config.Ranker.MaxAgeDays = mad
		}
	}
	if snippetLength := os.Getenv("INDAGO_RANKER_SNIPPET_LENGTH"); snippetLength != "" {
		if sl, err := strconv.Atoi(snippetLength); err == nil {
			config.Ranker.SnippetLength = sl
		}
	}

	// Indicator configuration
	if apiKey := os.Getenv("INDAGO_INDICATOR_API_KEY"); apiKey != "" {
		config.Indicator.APIKey = apiKey
	} else if apiKey := os.Getenv("EODHD_API_KEY"); apiKey != "" {
		config.Indicator.APIKey = apiKey
	}
	if endpoint := os.Getenv("INDAGO_INDICATOR_ENDPOINT"); endpoint != "" {
		config.Indicator.Endpoint = endpoint
	}
	if country := os.Getenv("INDAGO_INDICATOR_COUNTRY"); country != "" {
		config.Indicator.Country = country
	}

	// Scheduler configuration
	if enabled := os.Getenv("INDAGO_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("INDAGO_SCHEDULER_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if watchlistPath := os.Getenv("INDAGO_SCHEDULER_WATCHLIST_PATH"); watchlistPath != "" {
		config.Scheduler.WatchlistPath = watchlistPath
	}
	if skipSeen := os.Getenv("INDAGO_SCHEDULER_SKIP_SEEN"); skipSeen != "" {
		if s, err := strconv.ParseBool(skipSeen); err == nil {
			config.Scheduler.SkipSeen = s
		}
	}

	// Export configuration
	if outputDir := os.Getenv("INDAGO_EXPORT_OUTPUT_DIR"); outputDir != "" {
		config.Export.OutputDir = outputDir
	}
	if formats := os.Getenv("INDAGO_EXPORT_FORMATS"); formats != "" {
		parsed := []string{}
		for _, f := range splitString(formats, ",") {
			trimmed := trimSpace(f)
			if trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		if len(parsed) > 0 {
			config.Export.Formats = parsed
		}
	}

	// WebSocket configuration
	if minLevel := os.Getenv("INDAGO_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
	if excludePatterns := os.Getenv("INDAGO_WEBSOCKET_EXCLUDE_PATTERNS"); excludePatterns != "" {
		// Split comma-separated patterns
		patterns := []string{}
		for _, p := range splitString(excludePatterns, ",") {
			trimmed := trimSpace(p)
			if trimmed != "" {
				patterns = append(patterns, trimmed)
			}
		}
		if len(patterns) > 0 {
			config.WebSocket.ExcludePatterns = patterns
		}
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

// Validate checks structural constraints on the loaded configuration.
// Credentials are deliberately not required here: missing keys degrade the
// affected component at runtime instead of blocking startup.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Duration strings are validated by parsing
	durations := map[string]string{
		"search.page_delay":       c.Search.PageDelay,
		"search.rate_limit":       c.Search.RateLimit,
		"fetcher.timeout":         c.Fetcher.Timeout,
		"fetcher.backoff_min":     c.Fetcher.BackoffMin,
		"fetcher.backoff_max":     c.Fetcher.BackoffMax,
		"embeddings.timeout":      c.Embeddings.Timeout,
		"indicator.rate_limit":    c.Indicator.RateLimit,
		"storage.badger.seen_ttl": c.Storage.Badger.SeenTTL,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s: %w", name, err)
		}
	}

	if c.Scheduler.Enabled {
		if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid configuration: scheduler.schedule: %w", err)
		}
	}

	return nil
}

// Duration accessors parse the string duration fields with a fallback when
// the field is empty or malformed.

func (c *SearchConfig) PageDelayDuration() time.Duration {
	return parseDurationOr(c.PageDelay, 1*time.Second)
}

func (c *SearchConfig) RateLimitDuration() time.Duration {
	return parseDurationOr(c.RateLimit, 1*time.Second)
}

func (c *FetcherConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 10*time.Second)
}

func (c *FetcherConfig) BackoffMinDuration() time.Duration {
	return parseDurationOr(c.BackoffMin, 2*time.Second)
}

func (c *FetcherConfig) BackoffMaxDuration() time.Duration {
	return parseDurationOr(c.BackoffMax, 10*time.Second)
}

func (c *EmbeddingsConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

func (c *IndicatorConfig) RateLimitDuration() time.Duration {
	return parseDurationOr(c.RateLimit, 1*time.Second)
}

func (c *BadgerConfig) SeenTTLDuration() time.Duration {
	return parseDurationOr(c.SeenTTL, 720*time.Hour)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
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

// ValidateSchedule validates a cron schedule expression (with seconds field)
// and ensures a minimum 5-minute interval
func ValidateSchedule(schedule string) error {
	// Parse the cron expression
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	// Check for minimum 5-minute interval
	// Validate minute field (second field when seconds are present)
	parts := strings.Fields(schedule)
	if len(parts) < 6 {
		return fmt.Errorf("invalid cron format: expected 6 fields")
	}

	minuteField := parts[1]

	// Check for patterns that violate 5-minute minimum
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	// Check for */n patterns where n < 5
	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
