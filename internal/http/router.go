package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fallakte/internal/service"
)

// NewRouter konfiguriert den Gin-Router mit Middlewares und Routen.
// LLM-gebundene Routen laufen zusätzlich durch den Rate-Limiter.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	limiter service.LLMRateLimiter,
	authH *AuthHandler,
	transcribeH *TranscribeHandler,
	clientH *ClientHandler,
	anamnesisH *AnamnesisHandler,
	sessionH *SessionHandler,
	reportH *ReportHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)

	api := r.Group("/")
	api.Use(JWTAuthMiddleware(jwtSvc))
	llmBound := LLMRateLimitMiddleware(limiter)

	api.POST("/transcribe", llmBound, transcribeH.Transcribe)

	api.POST("/clients", llmBound, clientH.CreateClient)
	api.PUT("/clients/:id", llmBound, clientH.UpdateClient)
	api.GET("/clients", clientH.ListClients)
	api.GET("/clients/:id", clientH.GetClient)
	api.DELETE("/clients/:id", clientH.DeleteClient)
	api.GET("/clients/:id/fragments/search", llmBound, clientH.SearchFragments)

	api.PUT("/clients/:id/anamnesis", llmBound, anamnesisH.Upsert)
	api.GET("/clients/:id/anamnesis", anamnesisH.Get)
	api.DELETE("/clients/:id/anamnesis", anamnesisH.Delete)

	api.POST("/clients/:id/sessions", llmBound, sessionH.CreateSession)
	api.GET("/clients/:id/sessions", sessionH.ListSessions)
	api.PUT("/sessions/:id", llmBound, sessionH.UpdateSession)
	api.GET("/sessions/:id", sessionH.GetSession)

	api.POST("/clients/:id/reports", llmBound, reportH.CreateReport)
	api.GET("/clients/:id/reports", reportH.ListReports)
	api.PUT("/reports/:id", llmBound, reportH.UpdateReport)
	api.GET("/reports/:id", reportH.GetReport)
	api.POST("/reports/:id/send", reportH.SendReport)

	return r
}

// zapLoggerMiddleware loggt jede Anfrage strukturiert.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware erzwingt Content-Type: application/json.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
