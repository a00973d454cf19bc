package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/relocation-intake/internal/http/handlers"
	httpMW "github.com/yungbote/relocation-intake/internal/http/middleware"
	"github.com/yungbote/relocation-intake/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string

	IntakeHandler   *httpH.IntakeHandler
	EventHandler    *httpH.EventHandler
	JobHandler      *httpH.JobHandler
	RealtimeHandler *httpH.RealtimeHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	protected.Use(httpMW.RequireUser())
	{
		// Intake
		if cfg.IntakeHandler != nil {
			protected.POST("/intake/cases", cfg.IntakeHandler.SubmitInitialAnswers)
			protected.GET("/intake/cases", cfg.IntakeHandler.ListCases)
			protected.GET("/intake/cases/:id", cfg.IntakeHandler.GetCase)
			protected.POST("/intake/cases/:id/rounds", cfg.IntakeHandler.BeginRound)
			protected.GET("/intake/rounds/:job_id", cfg.IntakeHandler.PollRound)
		}

		// Events
		if cfg.EventHandler != nil {
			protected.GET("/events", cfg.EventHandler.List)
			protected.GET("/events/latest", cfg.EventHandler.Latest)
			protected.GET("/events/summary", cfg.EventHandler.Summary)
		}

		// Job
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	return r
}
