package app

import (
	httpapi "github.com/yungbote/tutorbridge-backend/internal/http"
	httpH "github.com/yungbote/tutorbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tutorbridge-backend/internal/http/middleware"
	"github.com/yungbote/tutorbridge-backend/internal/observability"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type Middleware struct {
	// Auth is nil when API_AUTH_SECRET is unset.
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Question *httpH.QuestionHandler
	Document *httpH.DocumentHandler
	Lesson   *httpH.LessonHandler
	Grading  *httpH.GradingHandler
	Agent    *httpH.AgentHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Health: httpH.NewHealthHandler(httpH.ServiceInfo{
			Name:    cfg.ServiceName,
			Version: cfg.Version,
			Region:  cfg.Region,
		}),
		Question: httpH.NewQuestionHandler(services.Generation),
		Document: httpH.NewDocumentHandler(services.Extraction, cfg.MaxUploadBytes),
		Lesson:   httpH.NewLessonHandler(services.Generation),
		Grading:  httpH.NewGradingHandler(services.Generation),
	}
	if services.Agent != nil {
		h.Agent = httpH.NewAgentHandler(services.Agent)
	}
	return h
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.AuthSecret == "" {
		return Middleware{}
	}
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, cfg.AuthSecret, cfg.AuthIssuer)}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) httpapi.RouterConfig {
	return httpapi.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		Metrics:         metrics,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		QuestionHandler: handlers.Question,
		DocumentHandler: handlers.Document,
		LessonHandler:   handlers.Lesson,
		GradingHandler:  handlers.Grading,
		AgentHandler:    handlers.Agent,
	}
}
