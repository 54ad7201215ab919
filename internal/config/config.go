package config

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"
	"github.com/ollama/ollama/api"

	"github.com/zhouzirui/code-companion/backend/internal/model/catalog"
)

// 默认值，与原始 Code Companion 页面保持一致。
const (
	DefaultSystemPrompt = "You are an expert AI coding assistant. Provide concise, correct solutions " +
		"with strategic print statements for debugging. Always respond in English."
	DefaultGreeting      = "Hi! I'm DeepSeek. How can I help you code today? 💻"
	DefaultContextWindow = 5
	DefaultContextMin    = 2
	DefaultContextMax    = 20
	DefaultTypingDelay   = 20 * time.Millisecond
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultTemperature   = 0.3
)

// 支持的模型提供方。
const (
	ProviderOllama = "ollama"
	ProviderArk    = "ark"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Chat   ChatConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Chat: chat, Log: loadLogConfig()}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider       string
	BaseURL        string
	DefaultModel   string
	Models         []catalog.Option
	KeepAlive      *time.Duration
	Timeout        time.Duration
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StreamResponse bool

	// Ark 凭证，仅在 AI_PROVIDER=ark 时使用。
	APIKey    string
	AccessKey string
	SecretKey string
	Region    string
}

// Enabled 表示当前提供方的必需配置是否齐全。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderOllama:
		return c.BaseURL != ""
	case ProviderArk:
		return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
	default:
		return false
	}
}

// Catalog 返回可选模型集合，未配置时使用内置列表。
func (c AIConfig) Catalog() *catalog.MemoryStore {
	options := c.Models
	if len(options) == 0 {
		options = catalog.Seed()
	}
	return catalog.NewMemoryStore(options, c.DefaultModel)
}

// NewChatModel 使用配置为指定模型创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%s provider is not configured", c.Provider)
	}
	if modelID == "" {
		modelID = c.DefaultModel
	}

	switch c.Provider {
	case ProviderArk:
		return c.newArkChatModel(ctx, modelID)
	default:
		return c.newOllamaChatModel(ctx, modelID)
	}
}

func (c AIConfig) newOllamaChatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
	options := &api.Options{}
	if c.Temperature != nil {
		options.Temperature = float32(*c.Temperature)
	}
	if c.TopP != nil {
		options.TopP = float32(*c.TopP)
	}
	if c.MaxTokens != nil {
		options.NumPredict = *c.MaxTokens
	}

	cfg := &ollama.ChatModelConfig{
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		HTTPClient: &http.Client{Timeout: c.Timeout},
		Model:      modelID,
		KeepAlive:  c.KeepAlive,
		Options:    options,
	}

	return ollama.NewChatModel(ctx, cfg)
}

func (c AIConfig) newArkChatModel(ctx context.Context, modelID string) (model.BaseChatModel, error) {
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
		Model:       modelID,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOllama))
	if provider != ProviderOllama && provider != ProviderArk {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		val := DefaultTemperature
		temperature = &val
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 120*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	keepAlive, err := parseOptionalDurationEnv("OLLAMA_KEEP_ALIVE")
	if err != nil {
		return AIConfig{}, err
	}

	models, err := catalog.Parse(os.Getenv("OLLAMA_MODELS"))
	if err != nil {
		return AIConfig{}, err
	}

	defaultModel, err := resolveDefaultModel(models)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:       provider,
		DefaultModel:   defaultModel,
		Models:         models,
		KeepAlive:      keepAlive,
		Timeout:        timeout,
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		StreamResponse: stream,
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}

	if provider == ProviderArk {
		cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	} else {
		cfg.BaseURL = getEnvOrDefault("OLLAMA_BASE_URL", DefaultOllamaBaseURL)
	}

	return cfg, nil
}

// resolveDefaultModel 校验 OLLAMA_MODEL 必须出现在模型目录中；
// 未配置时沿用内置默认值，自定义目录不含该值时取目录首项。
func resolveDefaultModel(models []catalog.Option) (string, error) {
	if len(models) == 0 {
		models = catalog.Seed()
	}
	store := catalog.NewMemoryStore(models, catalog.DefaultModelID)

	id := strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
	if id == "" {
		return store.Default().ID, nil
	}
	if _, ok := store.FindByID(id); !ok {
		return "", fmt.Errorf("OLLAMA_MODEL %q is not in the model catalog", id)
	}
	return id, nil
}

// ChatConfig 描述会话窗口与打字效果配置。
type ChatConfig struct {
	SystemPrompt  string
	Greeting      string
	ContextWindow int
	ContextMin    int
	ContextMax    int
	TypingDelay   time.Duration
}

// ValidContextSize 判断窗口大小是否落在允许区间内。
func (c ChatConfig) ValidContextSize(size int) bool {
	return size >= c.ContextMin && size <= c.ContextMax
}

func loadChatConfig() (ChatConfig, error) {
	minSize, err := parseIntEnv("CHAT_CONTEXT_MIN", DefaultContextMin)
	if err != nil {
		return ChatConfig{}, err
	}
	maxSize, err := parseIntEnv("CHAT_CONTEXT_MAX", DefaultContextMax)
	if err != nil {
		return ChatConfig{}, err
	}
	if minSize < 1 || maxSize < minSize {
		return ChatConfig{}, fmt.Errorf("invalid context window bounds [%d, %d]", minSize, maxSize)
	}

	window, err := parseIntEnv("CHAT_CONTEXT_WINDOW", DefaultContextWindow)
	if err != nil {
		return ChatConfig{}, err
	}
	if window < minSize || window > maxSize {
		return ChatConfig{}, fmt.Errorf("CHAT_CONTEXT_WINDOW %d outside [%d, %d]", window, minSize, maxSize)
	}

	delay, err := parseDurationEnv("CHAT_TYPING_DELAY", DefaultTypingDelay)
	if err != nil {
		return ChatConfig{}, err
	}
	if delay < 0 {
		return ChatConfig{}, fmt.Errorf("CHAT_TYPING_DELAY must not be negative")
	}

	return ChatConfig{
		SystemPrompt:  getEnvOrDefault("CHAT_SYSTEM_PROMPT", DefaultSystemPrompt),
		Greeting:      getEnvOrDefault("CHAT_GREETING", DefaultGreeting),
		ContextWindow: window,
		ContextMin:    minSize,
		ContextMax:    maxSize,
		TypingDelay:   delay,
	}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
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

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	val, err := parseOptionalDurationEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
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
