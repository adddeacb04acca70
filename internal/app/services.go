package app

import (
	"fmt"

	"github.com/yungbote/tutorbridge-backend/internal/agent"
	"github.com/yungbote/tutorbridge-backend/internal/data/store"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
	"github.com/yungbote/tutorbridge-backend/internal/services/extraction"
	"github.com/yungbote/tutorbridge-backend/internal/services/generation"
	"github.com/yungbote/tutorbridge-backend/internal/tools"
)

type Services struct {
	Generation generation.Service
	Extraction extraction.Service
	Toolkit    *tools.Toolkit
	Registry   *tools.Registry
	// Agent is nil when no tool-calling provider is configured.
	Agent *agent.Agent
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, st *store.Store) (Services, error) {
	log.Info("Wiring services...")

	gen := generation.NewService(clients.LLM, log)
	extract := extraction.NewService(clients.OCR, gen, log)

	kit, err := tools.NewToolkit(tools.Deps{
		Store:      st,
		Generation: gen,
		Objects:    clients.Objects,
		Search:     tools.NewSearchProviderFromEnv(nil),
	}, log)
	if err != nil {
		return Services{}, fmt.Errorf("init toolkit: %w", err)
	}
	registry, err := tools.NewDefaultRegistry(kit, cfg.Enforcement, log)
	if err != nil {
		return Services{}, fmt.Errorf("init tool registry: %w", err)
	}
	log.Info("Tool registry ready", "tools", registry.Names(), "enforcement", cfg.Enforcement)

	out := Services{
		Generation: gen,
		Extraction: extract,
		Toolkit:    kit,
		Registry:   registry,
	}
	if clients.AgentLLM == nil {
		return out, nil
	}

	policy, err := agent.LoadPolicy(log)
	if err != nil {
		return Services{}, fmt.Errorf("load agent policy: %w", err)
	}
	a, err := agent.New(clients.AgentLLM, registry, policy, clients.Conversations, cfg.Agent, log)
	if err != nil {
		return Services{}, fmt.Errorf("init agent: %w", err)
	}
	out.Agent = a
	return out, nil
}
