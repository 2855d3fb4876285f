package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Platform"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)

	// Stateless analysis surface
	e.POST("/analyze", s.analysisHandler.AnalyzeHandler)
	e.POST("/chat", s.chatHandler.ChatHandler)
	e.POST("/agent/triage", s.triageHandler.TriageHandler)

	// Conversation resource
	e.POST("/conversations", s.conversationHandler.CreateConversationHandler)
	e.GET("/conversations/:id", s.conversationHandler.GetConversationHandler)
	e.POST("/conversations/:id/messages", s.conversationHandler.PostMessageHandler)
	e.POST("/conversations/:id/simulate", s.conversationHandler.SimulateHandler)
	e.POST("/conversations/:id/reset", s.conversationHandler.ResetConversationHandler)
	e.GET("/ws/conversations/:id", s.ConversationSocketHandler)

	// Profile resource
	e.GET("/profile/:user_id", s.profileHandler.GetProfileHandler)
	e.PUT("/profile/:user_id/biometrics", s.profileHandler.UpdateBiometricsHandler)
	e.POST("/profile/:user_id/goals/:goal", s.profileHandler.ToggleGoalHandler)
	e.POST("/profile/:user_id/constraints", s.profileHandler.AddConstraintHandler)
	e.DELETE("/profile/:user_id/constraints", s.profileHandler.RemoveConstraintHandler)
	e.POST("/profile/:user_id/conflicts", s.profileHandler.CheckConflictHandler)

	// Analysis history
	e.GET("/history/:user_id", s.analysisHandler.HistoryHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	if s.db == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "up", "database": "not configured"})
	}
	return c.JSON(http.StatusOK, s.db.Health())
}

func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().Str("request_id", requestID).Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}
