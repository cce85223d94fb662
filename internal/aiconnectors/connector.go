package aiconnectors

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider represents an AI provider type
type Provider string

const (
	ProviderHuggingFace Provider = "huggingface"
	ProviderOpenAI      Provider = "openai"
	ProviderGemini      Provider = "gemini"
	ProviderClaude      Provider = "claude"
	ProviderCohere      Provider = "cohere"
	ProviderOllama      Provider = "ollama"
)

const (
	// DefaultModel is the hosted instruction model used when none is configured
	DefaultModel = "microsoft/Phi-3.5-mini-instruct"

	// DefaultMaxTokens caps the completion length of a recommendation list
	DefaultMaxTokens = 1150

	// DefaultHuggingFaceBaseURL is the OpenAI-compatible inference router
	DefaultHuggingFaceBaseURL = "https://router.huggingface.co/v1"

	defaultOllamaURL = "http://localhost:11434"
)

// ErrNoAPIKey is returned when a hosted provider has no credential configured
var ErrNoAPIKey = errors.New("no API key configured")

// ErrNoChoices is returned when the provider answers without any completion
var ErrNoChoices = errors.New("provider returned no choices")

// Providers lists every supported provider
var Providers = []Provider{
	ProviderHuggingFace,
	ProviderOpenAI,
	ProviderGemini,
	ProviderClaude,
	ProviderCohere,
	ProviderOllama,
}

// apiKeyEnv lists the environment variables consulted, in order, when no key is configured
var apiKeyEnv = map[Provider][]string{
	ProviderHuggingFace: {"HUGGINGFACEHUB_API_TOKEN", "HF_TOKEN"},
	ProviderOpenAI:      {"OPENAI_API_KEY"},
	ProviderGemini:      {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderClaude:      {"ANTHROPIC_API_KEY"},
	ProviderCohere:      {"COHERE_API_KEY"},
}

// ParseProvider maps a configured provider name onto a Provider
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if p == "" {
		return ProviderHuggingFace, nil
	}
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unsupported provider: %s", name)
}

// APIKeyEnv returns the environment variables that can carry the provider's key
func APIKeyEnv(provider Provider) []string {
	return apiKeyEnv[provider]
}

// ResolveAPIKey returns explicit when set, otherwise the first non-empty provider variable
func ResolveAPIKey(provider Provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range apiKeyEnv[provider] {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// RequiresAPIKey reports whether the provider refuses to run without a credential
func RequiresAPIKey(provider Provider) bool {
	return provider != ProviderOllama
}

// ModelConfig contains the configuration for a specific model
type ModelConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Model       string  `json:"model,omitempty"`
}

// ConnectorOptions contains options for creating a connector
type ConnectorOptions struct {
	Provider    Provider    `json:"provider"`
	APIKey      string      `json:"api_key"`
	BaseURL     string      `json:"base_url,omitempty"`
	ModelConfig ModelConfig `json:"model_config,omitempty"`
}

func (o ConnectorOptions) withDefaults() ConnectorOptions {
	if o.Provider == "" {
		o.Provider = ProviderHuggingFace
	}
	if o.ModelConfig.Model == "" {
		o.ModelConfig.Model = DefaultModel
	}
	if o.ModelConfig.MaxTokens <= 0 {
		o.ModelConfig.MaxTokens = DefaultMaxTokens
	}
	if o.Provider == ProviderHuggingFace && o.BaseURL == "" {
		o.BaseURL = DefaultHuggingFaceBaseURL
	}
	o.APIKey = ResolveAPIKey(o.Provider, o.APIKey)
	return o
}

// Connector represents a connection to an AI provider
type Connector struct {
	provider Provider
	llm      llms.Model
	options  ConnectorOptions
}

// NewConnector creates a new connector for the specified provider
func NewConnector(ctx context.Context, options ConnectorOptions) (*Connector, error) {
	options = options.withDefaults()

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.ModelConfig.Model).
		Int("max_tokens", options.ModelConfig.MaxTokens).
		Msg("Creating new connector")

	if RequiresAPIKey(options.Provider) && options.APIKey == "" {
		return nil, fmt.Errorf("provider %s: %w (set one of %s)",
			options.Provider, ErrNoAPIKey, strings.Join(apiKeyEnv[options.Provider], ", "))
	}

	var model llms.Model
	var err error

	switch options.Provider {
	case ProviderHuggingFace, ProviderOpenAI:
		model, err = createOpenAIModel(options)
	case ProviderGemini:
		model, err = createGeminiModel(ctx, options)
	case ProviderClaude:
		model, err = createAnthropicModel(options)
	case ProviderCohere:
		model, err = createCohereModel(options)
	case ProviderOllama:
		model, err = createOllamaModel(options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}

	return &Connector{
		provider: options.Provider,
		llm:      model,
		options:  options,
	}, nil
}

// NewConnectorWithModel wraps an already constructed model
func NewConnectorWithModel(model llms.Model, options ConnectorOptions) *Connector {
	options = options.withDefaults()
	return &Connector{
		provider: options.Provider,
		llm:      model,
		options:  options,
	}
}

func createOpenAIModel(options ConnectorOptions) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(options.ModelConfig.Model),
		openai.WithToken(options.APIKey),
	}
	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}
	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
		googleai.WithDefaultModel(options.ModelConfig.Model),
		googleai.WithDefaultMaxTokens(options.ModelConfig.MaxTokens),
	}
	model, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini model: %w", err)
	}
	return model, nil
}

func createAnthropicModel(options ConnectorOptions) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(options.APIKey),
		anthropic.WithModel(options.ModelConfig.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(options.BaseURL))
	}
	return anthropic.New(opts...)
}

func createCohereModel(options ConnectorOptions) (llms.Model, error) {
	opts := []cohere.Option{
		cohere.WithToken(options.APIKey),
		cohere.WithModel(options.ModelConfig.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, cohere.WithBaseURL(options.BaseURL))
	}
	return cohere.New(opts...)
}

func createOllamaModel(options ConnectorOptions) (llms.Model, error) {
	if options.BaseURL == "" {
		options.BaseURL = defaultOllamaURL
	}
	return ollama.New(
		ollama.WithServerURL(options.BaseURL),
		ollama.WithModel(options.ModelConfig.Model),
	)
}

// callOptions builds the per-call options from the connector configuration
func (c *Connector) callOptions(extra ...llms.CallOption) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithModel(c.options.ModelConfig.Model),
		llms.WithMaxTokens(c.options.ModelConfig.MaxTokens),
	}
	if c.options.ModelConfig.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.options.ModelConfig.Temperature))
	}
	// The inference router only understands the max_tokens field
	if c.provider == ProviderHuggingFace {
		opts = append(opts, openai.WithLegacyMaxTokensField())
	}
	return append(opts, extra...)
}

// Call sends input as a single user message and returns the first choice's text.
// A response without choices is an error, unlike a blank first choice.
func (c *Connector) Call(ctx context.Context, input string, options ...llms.CallOption) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, input),
	}

	resp, err := c.llm.GenerateContent(ctx, messages, c.callOptions(options...)...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Content, nil
}

// Probe checks that the provider is reachable with the configured credentials
func (c *Connector) Probe(ctx context.Context) error {
	if c.provider == ProviderOllama {
		return ValidateOllamaConnection(ctx, c.options.BaseURL, c.options.ModelConfig.Model)
	}

	_, err := c.Call(ctx, "test", llms.WithMaxTokens(10))
	if err != nil {
		lower := strings.ToLower(err.Error())
		if strings.Contains(lower, "429") || strings.Contains(lower, "quota") {
			return fmt.Errorf("quota exceeded - the credential is probably valid but rate limited: %w", err)
		}
		return fmt.Errorf("probe of %s failed: %w", c.provider, err)
	}
	return nil
}

// Provider returns the provider of this connector
func (c *Connector) Provider() Provider {
	return c.provider
}

// Model returns the model name from the config
func (c *Connector) Model() string {
	return c.options.ModelConfig.Model
}

// MaxTokens returns the completion cap applied to every call
func (c *Connector) MaxTokens() int {
	return c.options.ModelConfig.MaxTokens
}
