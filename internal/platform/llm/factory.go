package llm

import (
	"context"
	"fmt"

	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

// NewProvider builds the configured provider wrapped as
// caller → timeout → retry → breaker → logging → base.
func NewProvider(ctx context.Context, cfg Config, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	p := WithLogging(base, log)
	p = WithBreaker(p, cfg.BreakerFailures, cfg.BreakerOpenFor, log)
	p = WithRetry(p, cfg.Retry)
	return WithTimeout(p, cfg.Timeout), nil
}

// SupportsTools reports whether the configured provider can drive the agent.
func (c Config) SupportsTools() bool {
	return c.Provider == "openai" || c.Provider == "mock"
}
