package app

import (
	"context"
	"fmt"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/clients/redis"
	"github.com/yungbote/tutorbridge-backend/internal/platform/gcp"
	"github.com/yungbote/tutorbridge-backend/internal/platform/llm"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/platform/objectstore"
	"github.com/yungbote/tutorbridge-backend/internal/platform/ocr"
)

type Clients struct {
	LLM llm.Provider
	// AgentLLM is nil when no tool-calling provider is configured.
	AgentLLM      llm.Provider
	OCR           ocr.Engine
	Objects       objectstore.Store
	Conversations agent.ConversationStore

	closers []func() error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// LLM
	provider, err := llm.NewProvider(ctx, cfg.LLM, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm provider: %w", err)
	}
	c.LLM = provider

	agentCfg := cfg.AgentLLM()
	switch {
	case !agentCfg.SupportsTools():
		log.Warn("Agent disabled: provider cannot call tools", "provider", agentCfg.Provider)
	case agentCfg.Provider == cfg.LLM.Provider:
		c.AgentLLM = provider
	default:
		ap, err := llm.NewProvider(ctx, agentCfg, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init agent llm provider: %w", err)
		}
		c.AgentLLM = ap
	}

	// OCR
	switch cfg.OCRProvider {
	case OCRProviderVision:
		v, err := gcp.NewVision(ctx, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init vision client: %w", err)
		}
		c.OCR = v
		c.closers = append(c.closers, v.Close)
	case OCRProviderDocumentAI:
		d, err := gcp.NewDocumentAI(ctx, gcp.DocumentAIConfigFromEnv(), log)
		if err != nil {
			return Clients{}, fmt.Errorf("init documentai client: %w", err)
		}
		c.OCR = d
		c.closers = append(c.closers, d.Close)
	default:
		return Clients{}, fmt.Errorf("unknown OCR_PROVIDER %q", cfg.OCRProvider)
	}

	// Object storage
	storageCfg, resolveErr := gcp.ResolveObjectStorageConfigFromEnv()
	objects, closeObjects, err := resolveObjectStore(ctx, log, storageCfg, resolveErr)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Objects = objects
	c.closers = append(c.closers, closeObjects)

	// Conversation memory
	switch cfg.memoryBackend() {
	case MemoryRedis:
		rs, err := redis.NewConversationStore(log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init redis conversation store: %w", err)
		}
		c.Conversations = rs
		c.closers = append(c.closers, rs.Close)
	case MemoryLocal:
		c.Conversations = agent.NewMemoryConversations(cfg.ConversationTTL)
	case MemoryNone:
		log.Info("Conversation memory disabled")
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}
