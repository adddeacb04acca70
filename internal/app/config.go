package app

import (
	"strings"
	"time"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/data/db"
	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	"github.com/yungbote/tutorbridge-backend/internal/platform/envutil"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

const (
	OCRProviderDocumentAI = "documentai"
	OCRProviderVision     = "vision"

	MemoryAuto  = "auto"
	MemoryRedis = "redis"
	MemoryLocal = "memory"
	MemoryNone  = "none"
)

type Config struct {
	Addr           string
	ServiceName    string
	Version        string
	Region         string
	Environment    string
	ShutdownGrace  time.Duration
	RequestTimeout time.Duration
	MaxUploadBytes int64
	CORSOrigins    []string
	AuthSecret     string
	AuthIssuer     string
	MetricsEnabled bool

	DB      db.Config
	Breaker store.BreakerConfig
	LLM     llm.Config
	// AgentProvider overrides LLM.Provider for the tool-calling agent.
	AgentProvider string
	Agent         agent.Config

	OCRProvider       string
	Enforcement       tools.Enforcement
	ConversationStore string
	ConversationTTL   time.Duration
	RedisAddr         string
}

func LoadConfig(log *logger.Logger) Config {
	addr := envutil.String("ADDR", "")
	if addr == "" {
		addr = ":" + envutil.String("PORT", "8080")
	}
	llmCfg := llm.ConfigFromEnv()
	cfg := Config{
		Addr:           addr,
		ServiceName:    envutil.String("SERVICE_NAME", "tutorbridge-backend"),
		Version:        envutil.String("VERSION", "1.0.0"),
		Region:         envutil.String("REGION", "local"),
		Environment:    envutil.String("ENVIRONMENT", "development"),
		ShutdownGrace:  envutil.Duration("SHUTDOWN_GRACE", 15*time.Second),
		RequestTimeout: envutil.Duration("HTTP_REQUEST_TIMEOUT", 120*time.Second),
		MaxUploadBytes: int64(envutil.Int("MAX_UPLOAD_BYTES", 20<<20)),
		CORSOrigins:    splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		AuthSecret:     envutil.String("API_AUTH_SECRET", ""),
		AuthIssuer:     envutil.String("API_AUTH_ISSUER", ""),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),

		DB:            db.ConfigFromEnv(),
		Breaker:       store.BreakerConfigFromEnv(),
		LLM:           llmCfg,
		AgentProvider: strings.ToLower(envutil.String("AGENT_LLM_PROVIDER", llmCfg.Provider)),
		Agent:         agent.ConfigFromEnv(),

		OCRProvider:       strings.ToLower(envutil.String("OCR_PROVIDER", OCRProviderDocumentAI)),
		Enforcement:       tools.EnforcementFromEnv(),
		ConversationStore: strings.ToLower(envutil.String("AGENT_MEMORY", MemoryAuto)),
		ConversationTTL:   envutil.Duration("CONVERSATION_TTL", 24*time.Hour),
		RedisAddr:         envutil.String("REDIS_ADDR", ""),
	}
	if log != nil {
		log.Info("Config loaded",
			"addr", cfg.Addr,
			"service", cfg.ServiceName,
			"db_driver", cfg.DB.Driver,
			"llm_provider", cfg.LLM.Provider,
			"agent_provider", cfg.AgentProvider,
			"ocr_provider", cfg.OCRProvider,
			"enforcement", cfg.Enforcement,
			"agent_memory", cfg.ConversationStore,
			"auth_enabled", cfg.AuthSecret != "",
			"metrics_enabled", cfg.MetricsEnabled,
		)
	}
	return cfg
}

// AgentLLM is the provider config the agent runs on.
func (c Config) AgentLLM() llm.Config {
	out := c.LLM
	if c.AgentProvider != "" {
		out.Provider = c.AgentProvider
	}
	return out
}

// memoryBackend resolves "auto" to redis when REDIS_ADDR is present.
func (c Config) memoryBackend() string {
	switch c.ConversationStore {
	case MemoryRedis, MemoryLocal, MemoryNone:
		return c.ConversationStore
	}
	if c.RedisAddr != "" {
		return MemoryRedis
	}
	return MemoryLocal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
