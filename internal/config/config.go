package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/recommender/internal/aiconnectors"
	"github.com/recommender/internal/llm"
	"github.com/recommender/internal/logging"
	"github.com/recommender/internal/prompts"
	"github.com/recommender/internal/retry"
)

// EnvPrefix is the prefix of environment overrides, e.g. RECOMMENDER_SERVER_PORT
const EnvPrefix = "RECOMMENDER_"

// DefaultPaths are tried in order when no --config is given
var DefaultPaths = []string{"./recommender.toml", "./data/recommender.toml", "$HOME/.recommender.toml"}

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Generation GenerationConfig `koanf:"generation"`
	Prompt     PromptConfig     `koanf:"prompt"`
	Logging    logging.Config   `koanf:"logging"`

	// Source is the file the configuration was read from, empty when none was found
	Source string `koanf:"-"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	WebRoot         string        `koanf:"web_root"`
	StaticDir       string        `koanf:"static_dir"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int32  `koanf:"max_conns" validate:"gte=0"`
}

type GenerationConfig struct {
	Provider    string            `koanf:"provider"`
	APIKey      string            `koanf:"api_key"`
	BaseURL     string            `koanf:"base_url" validate:"omitempty,url"`
	Model       string            `koanf:"model" validate:"required"`
	MaxTokens   int               `koanf:"max_tokens" validate:"min=1"`
	Temperature float64           `koanf:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration     `koanf:"timeout" validate:"gte=0"`
	Retry       retry.RetryConfig `koanf:"retry"`
	Breaker     llm.BreakerConfig `koanf:"breaker"`
}

type PromptConfig struct {
	Template string `koanf:"template"`
}

func defaults() map[string]interface{} {
	genRetry := retry.GenerationRetryConfig()
	breaker := llm.DefaultBreakerConfig()

	return map[string]interface{}{
		"server.port":             8000,
		"server.web_root":         ".",
		"server.static_dir":       "static",
		"server.shutdown_timeout": 10 * time.Second,

		"database.max_conns": 10,

		"generation.provider":    string(aiconnectors.ProviderHuggingFace),
		"generation.model":       aiconnectors.DefaultModel,
		"generation.max_tokens":  aiconnectors.DefaultMaxTokens,
		"generation.temperature": 0.0,
		"generation.timeout":     time.Duration(0),

		"generation.retry.max_retries": genRetry.MaxRetries,
		"generation.retry.base_delay":  genRetry.BaseDelay,
		"generation.retry.max_delay":   genRetry.MaxDelay,
		"generation.retry.multiplier":  genRetry.Multiplier,
		"generation.retry.jitter":      genRetry.Jitter,

		"generation.breaker.enabled":            breaker.Enabled,
		"generation.breaker.failure_threshold":  breaker.FailureThreshold,
		"generation.breaker.open_timeout":       breaker.OpenTimeout,
		"generation.breaker.half_open_requests": breaker.HalfOpenRequests,

		"logging.level":  "info",
		"logging.format": "console",
	}
}

// envSections are matched longest first so nested tables map onto their own keys
var envSections = []string{
	"generation_breaker",
	"generation_retry",
	"generation",
	"database",
	"logging",
	"server",
	"prompt",
}

// envKey maps RECOMMENDER_GENERATION_RETRY_MAX_RETRIES onto generation.retry.max_retries
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range envSections {
		if strings.HasPrefix(key, section+"_") {
			return strings.ReplaceAll(section, "_", ".") + "." + key[len(section)+1:]
		}
	}
	return key
}

// LoadConfig loads defaults, then the TOML file, then RECOMMENDER_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	var source string
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		source = configPath
	} else {
		for _, path := range DefaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %w", path, err)
			}
			source = path
			break
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	config.Source = source

	return &config, nil
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

const sampleConfig = `# Recommender configuration
# Every key can be overridden with RECOMMENDER_<SECTION>_<KEY>, e.g. RECOMMENDER_SERVER_PORT=9000

[server]
port = 8000
web_root = "."
static_dir = "static"
shutdown_timeout = "10s"

[database]
# Falls back to DATABASE_URL, then to DATABASE_URL in the nearest .env file
url = ""
max_conns = 10

[generation]
# huggingface, openai, gemini, claude, cohere or ollama
provider = "huggingface"
# Falls back to HUGGINGFACEHUB_API_TOKEN / HF_TOKEN (or the provider's usual variable)
api_key = ""
model = "microsoft/Phi-3.5-mini-instruct"
max_tokens = 1150
temperature = 0.0
# 0 disables the per-call timeout
timeout = "0s"

[generation.retry]
# 0 means a single attempt
max_retries = 0
base_delay = "2s"
max_delay = "20s"
multiplier = 2.5
jitter = true

[generation.breaker]
enabled = true
failure_threshold = 5
open_timeout = "30s"
half_open_requests = 1

[prompt]
# Go template with {{.count}} {{.contentType}} {{.ageBracket}} {{.genre}} {{.language}}; empty uses the built-in template
template = ""

[logging]
# trace, debug, info, warn, error
level = "info"
# console or json
format = "console"
`

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration
func Validate(config *Config) error {
	if config == nil {
		return errors.New("configuration is nil")
	}

	provider, err := aiconnectors.ParseProvider(config.Generation.Provider)
	if err != nil {
		return fmt.Errorf("invalid configuration: generation.provider: %w", err)
	}
	config.Generation.Provider = string(provider)

	if err := validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := logging.ParseLevel(config.Logging.Level); err != nil {
		return err
	}

	if _, err := prompts.NewPromptBuilder(config.Prompt.Template); err != nil {
		return err
	}

	return nil
}

// ConnectorOptions builds the provider connector options
func (g GenerationConfig) ConnectorOptions() aiconnectors.ConnectorOptions {
	return aiconnectors.ConnectorOptions{
		Provider: aiconnectors.Provider(g.Provider),
		APIKey:   g.APIKey,
		BaseURL:  g.BaseURL,
		ModelConfig: aiconnectors.ModelConfig{
			Temperature: g.Temperature,
			MaxTokens:   g.MaxTokens,
			Model:       g.Model,
		},
	}
}

// ClientOptions builds the resiliency options of the generation client
func (g GenerationConfig) ClientOptions() llm.Options {
	return llm.Options{
		Retry:   g.Retry,
		Timeout: g.Timeout,
		Breaker: g.Breaker,
	}
}
