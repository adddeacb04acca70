package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
)

type Config struct {
	// Provider is one of "openai", "anthropic", "gemini" or "mock".
	Provider string

	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	BreakerFailures uint32
	BreakerOpenFor  time.Duration

	// Timeout bounds a single logical request, retries included.
	Timeout time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		BreakerFailures: 5,
		BreakerOpenFor:  30 * time.Second,
		Timeout:         90 * time.Second,
	}
}

func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Provider = strings.ToLower(envutil.String("LLM_PROVIDER", cfg.Provider))

	cfg.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", "")
	cfg.OpenAI.Model = envutil.String("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", "")

	cfg.Anthropic.APIKey = envutil.String("ANTHROPIC_API_KEY", "")
	cfg.Anthropic.Model = envutil.String("ANTHROPIC_MODEL", cfg.Anthropic.Model)
	cfg.Anthropic.BaseURL = envutil.String("ANTHROPIC_BASE_URL", "")

	cfg.Gemini.APIKey = envutil.String("GEMINI_API_KEY", "")
	cfg.Gemini.Model = envutil.String("GEMINI_MODEL", cfg.Gemini.Model)

	cfg.Retry.MaxAttempts = envutil.Int("LLM_RETRY_MAX_ATTEMPTS", cfg.Retry.MaxAttempts)
	cfg.Retry.InitialWait = envutil.Duration("LLM_RETRY_INITIAL_WAIT", cfg.Retry.InitialWait)
	cfg.Retry.MaxWait = envutil.Duration("LLM_RETRY_MAX_WAIT", cfg.Retry.MaxWait)

	cfg.BreakerFailures = uint32(envutil.Int("LLM_BREAKER_FAILURES", int(cfg.BreakerFailures)))
	cfg.BreakerOpenFor = envutil.Duration("LLM_BREAKER_TIMEOUT", cfg.BreakerOpenFor)
	cfg.Timeout = envutil.Duration("LLM_TIMEOUT", cfg.Timeout)
	return cfg
}

func (c Config) Validate() error {
	switch c.Provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
