package server

import (
	"errors"
	"net/http"
	"time"

	"chatanalytics/cmd/analytics-service/internal/domain"
	"chatanalytics/cmd/analytics-service/internal/metrics"
	"chatanalytics/cmd/analytics-service/internal/service"
	"chatanalytics/pkg/auth"
	pkgErrors "chatanalytics/pkg/errors"
	"chatanalytics/pkg/health"
	"chatanalytics/pkg/middleware"
	"chatanalytics/pkg/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// hookEvents maps hook path segments to lifecycle events.
var hookEvents = map[string]domain.EventType{
	"message-received":  domain.EventMessageReceived,
	"memories-recalled": domain.EventMemoriesRecalled,
	"fast-reply":        domain.EventFastReplyEmitted,
	"response-emitted":  domain.EventResponseEmitted,
	"documents-stored":  domain.EventDocumentsStored,
}

// HTTPServer HTTP 服务器
type HTTPServer struct {
	engine  *gin.Engine
	service *service.AnalyticsService
	exposer *metrics.Exposer
	jwt     *auth.JWTManager
	health  *health.HealthChecker
	logger  *zap.Logger
}

// NewHTTPServer 创建 HTTP 服务器. jwt may be nil, in which case feedback is
// rejected as unavailable.
func NewHTTPServer(
	srv *service.AnalyticsService,
	exposer *metrics.Exposer,
	jwt *auth.JWTManager,
	checker *health.HealthChecker,
	logger *zap.Logger,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		engine:  gin.New(),
		service: srv,
		exposer: exposer,
		jwt:     jwt,
		health:  checker,
		logger:  logger.With(zap.String("component", "http_server")),
	}

	s.registerMiddlewares()
	s.registerRoutes()

	return s
}

// Engine 返回 gin 引擎
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

func (s *HTTPServer) registerMiddlewares() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestID())
	s.engine.Use(s.requestLogger())
	s.engine.Use(s.errorHandler())
}

// requestID 请求ID中间件
func (s *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLogger 请求日志中间件
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// scrapes are too frequent to log at info
		level := s.logger.Info
		if path == "/metrics" || path == "/health" || path == "/ready" {
			level = s.logger.Debug
		}
		level("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// errorHandler renders the last handler error as a unified error body.
func (s *HTTPServer) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		resp := pkgErrors.FromError(err).
			WithRequestID(c.GetString("request_id")).
			WithTraceID(observability.TraceID(c.Request.Context())).
			WithRequest(c.Request.Method, c.Request.URL.Path)

		if resp.HTTPStatus() >= http.StatusInternalServerError {
			s.logger.Error("Request error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		} else {
			s.logger.Debug("Request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
		}
		c.JSON(resp.HTTPStatus(), resp)
	}
}

func (s *HTTPServer) registerRoutes() {
	api := s.engine.Group("/api/v1")
	{
		api.POST("/hooks/:event", s.handleHook)

		feedback := api.Group("/feedback")
		if s.jwt != nil {
			feedback.Use(middleware.AuthMiddleware(s.jwt))
		}
		feedback.POST("", s.handleFeedback)
	}

	s.engine.GET("/metrics", s.handleMetrics)
	s.engine.GET("/health", s.healthCheck)
	s.engine.GET("/ready", s.readinessCheck)
}

// handleHook accepts one lifecycle event. Only an undecodable body is rejected.
func (s *HTTPServer) handleHook(c *gin.Context) {
	eventType, ok := hookEvents[c.Param("event")]
	if !ok {
		_ = c.Error(pkgErrors.NewNotFound(pkgErrors.ReasonUnknownEvent, "unknown hook: "+c.Param("event")))
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		_ = c.Error(pkgErrors.NewBadRequest(pkgErrors.ReasonBadRequest, err.Error()))
		return
	}

	if err := s.service.Dispatch(c.Request.Context(), eventType, body); err != nil {
		s.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

type feedbackRequest struct {
	Positive *bool `json:"positive" binding:"required"`
}

func (s *HTTPServer) handleFeedback(c *gin.Context) {
	if s.jwt == nil {
		_ = c.Error(pkgErrors.NewServiceUnavailable("FEEDBACK_DISABLED", "feedback requires auth.jwt_secret"))
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(pkgErrors.NewBadRequest(pkgErrors.ReasonInvalidPayload, err.Error()))
		return
	}

	userID, _ := middleware.GetUserID(c)
	s.service.RecordFeedback(c.Request.Context(), userID, middleware.IsTemporary(c), *req.Positive)

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *HTTPServer) handleMetrics(c *gin.Context) {
	body, err := s.exposer.Render()
	if err != nil {
		_ = c.Error(pkgErrors.NewInternalServerError(pkgErrors.ReasonInternal, err.Error()))
		return
	}
	c.Data(http.StatusOK, metrics.ContentType, body)
}

func (s *HTTPServer) healthCheck(c *gin.Context) {
	results := s.health.Check(c.Request.Context())
	status := s.health.Status(results)

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": results,
	})
}

func (s *HTTPServer) readinessCheck(c *gin.Context) {
	ready, results := s.health.IsReady(c.Request.Context())

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"ready":  ready,
		"checks": results,
	})
}

func (s *HTTPServer) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPayload):
		_ = c.Error(pkgErrors.NewBadRequest(pkgErrors.ReasonInvalidPayload, err.Error()))
	case errors.Is(err, domain.ErrUnknownEvent):
		_ = c.Error(pkgErrors.NewNotFound(pkgErrors.ReasonUnknownEvent, err.Error()))
	default:
		_ = c.Error(pkgErrors.NewInternalServerError(pkgErrors.ReasonInternal, err.Error()))
	}
}
