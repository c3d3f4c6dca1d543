package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every subsystem's settings.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Search   SearchConfig
	Calendar CalendarConfig
	Log      LogConfig
	Owner    OwnerConfig
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	search, err := loadSearchConfig()
	if err != nil {
		return nil, err
	}

	calendar, err := loadCalendarConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Search:   search,
		Calendar: calendar,
		Log:      logCfg,
		Owner:    loadOwnerConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr       string
	Production bool
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	production, err := parseBoolEnv("APP_PRODUCTION", false)
	if err != nil {
		return ServerConfig{}, err
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port, Production: production}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, Production: production}, nil
}

// AIConfig describes the completion model.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	FastModel   string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the primary chat model from this config.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	return c.newModel(ctx, c.Model)
}

// NewFastChatModel builds the small model used for translation and
// tool-decision calls; it falls back to the primary model name.
func (c AIConfig) NewFastChatModel(ctx context.Context) (model.ChatModel, error) {
	name := c.FastModel
	if name == "" {
		name = c.Model
	}
	return c.newModel(ctx, name)
}

func (c AIConfig) newModel(ctx context.Context, name string) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: set ARK_API_KEY + ARK_MODEL, or AK/SK")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       name,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		FastModel:   strings.TrimSpace(os.Getenv("ARK_FAST_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SearchConfig points at the external similarity-search service.
type SearchConfig struct {
	BaseURL        string
	APIKey         string
	TopK           int
	TrustThreshold float64
	TimeoutSeconds int
	// FusionMethod picks how hybrid retrieval merges ranked lists:
	// "rrf" or "weighted".
	FusionMethod string
}

// Enabled reports whether the vector search service can be called.
func (c SearchConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

func loadSearchConfig() (SearchConfig, error) {
	topK := 5
	if v, err := parseOptionalIntEnv("SEARCH_TOP_K"); err != nil {
		return SearchConfig{}, err
	} else if v != nil && *v > 0 {
		topK = *v
	}

	threshold := 0.5
	if v, err := parseOptionalFloatEnv("SEARCH_TRUST_THRESHOLD"); err != nil {
		return SearchConfig{}, err
	} else if v != nil {
		threshold = *v
	}

	timeout := 10
	if v, err := parseOptionalIntEnv("SEARCH_TIMEOUT_SECONDS"); err != nil {
		return SearchConfig{}, err
	} else if v != nil && *v > 0 {
		timeout = *v
	}

	fusion := strings.ToLower(getEnvOrDefault("SEARCH_FUSION", "rrf"))
	if fusion != "rrf" && fusion != "weighted" {
		return SearchConfig{}, fmt.Errorf("invalid SEARCH_FUSION value %q: want rrf or weighted", fusion)
	}

	return SearchConfig{
		BaseURL:        strings.TrimSpace(os.Getenv("SEARCH_BASE_URL")),
		APIKey:         strings.TrimSpace(os.Getenv("SEARCH_API_KEY")),
		TopK:           topK,
		TrustThreshold: threshold,
		TimeoutSeconds: timeout,
		FusionMethod:   fusion,
	}, nil
}

// CalendarConfig covers the calendar/email provider used for booking.
type CalendarConfig struct {
	BaseURL        string
	APIKey         string
	OwnerEmail     string
	TimeoutSeconds int
}

// Enabled reports whether meetings and emails can be executed.
func (c CalendarConfig) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != "" && c.OwnerEmail != ""
}

func loadCalendarConfig() (CalendarConfig, error) {
	timeout := 15
	if v, err := parseOptionalIntEnv("CALENDAR_TIMEOUT_SECONDS"); err != nil {
		return CalendarConfig{}, err
	} else if v != nil && *v > 0 {
		timeout = *v
	}

	return CalendarConfig{
		BaseURL:        strings.TrimSpace(os.Getenv("CALENDAR_BASE_URL")),
		APIKey:         strings.TrimSpace(os.Getenv("CALENDAR_API_KEY")),
		OwnerEmail:     strings.TrimSpace(os.Getenv("CALENDAR_OWNER_EMAIL")),
		TimeoutSeconds: timeout,
	}, nil
}

// LogConfig locates the on-disk conversation log database.
type LogConfig struct {
	SQLitePath string
}

// Enabled reports whether turns should be persisted to sqlite.
func (c LogConfig) Enabled() bool {
	return c.SQLitePath != ""
}

func loadLogConfig() (LogConfig, error) {
	return LogConfig{
		SQLitePath: strings.TrimSpace(os.Getenv("LOG_SQLITE_PATH")),
	}, nil
}

// OwnerConfig names the person this twin answers for.
type OwnerConfig struct {
	Name       string
	GitHubUser string
}

func loadOwnerConfig() OwnerConfig {
	return OwnerConfig{
		Name:       getEnvOrDefault("OWNER_NAME", "Dipesh"),
		GitHubUser: strings.TrimSpace(os.Getenv("OWNER_GITHUB_USER")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
