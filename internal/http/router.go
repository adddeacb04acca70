package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/tutorbridge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/tutorbridge-backend/internal/http/middleware"
	"github.com/yungbote/tutorbridge-backend/internal/observability"
	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	RequestTimeout time.Duration
	Metrics        *observability.Metrics
	// AuthMiddleware guards /api when set.
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler   *httpH.HealthHandler
	QuestionHandler *httpH.QuestionHandler
	DocumentHandler *httpH.DocumentHandler
	LessonHandler   *httpH.LessonHandler
	GradingHandler  *httpH.GradingHandler
	AgentHandler    *httpH.AgentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tutorbridge"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext(cfg.RequestTimeout))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Root)
		r.GET("/health", cfg.HealthHandler.Health)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Questions
		if cfg.QuestionHandler != nil {
			api.POST("/questions/classify", cfg.QuestionHandler.Classify)
			api.POST("/questions/explain", cfg.QuestionHandler.Explain)
			api.POST("/questions/select", cfg.QuestionHandler.Select)
		}

		// Documents
		if cfg.DocumentHandler != nil {
			api.POST("/documents/extract", cfg.DocumentHandler.Extract)
			api.POST("/documents/extract-object", cfg.DocumentHandler.ExtractObject)
			api.POST("/documents/extract-s3", cfg.DocumentHandler.ExtractObject)
			api.POST("/documents/extract-answers", cfg.DocumentHandler.ExtractAnswers)
		}

		// Lessons
		if cfg.LessonHandler != nil {
			api.POST("/lessons/generate", cfg.LessonHandler.Generate)
		}

		// Grading
		if cfg.GradingHandler != nil {
			api.POST("/grading/grade-worksheet", cfg.GradingHandler.GradeWorksheet)
		}

		// Agent
		if cfg.AgentHandler != nil {
			api.POST("/agent/chat", cfg.AgentHandler.Chat)
		}
	}

	return r
}
