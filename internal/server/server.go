/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and manages
core service dependencies like the database and the Groq client.
*/
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"encode-health/internal/analysis"
	"encode-health/internal/conversation"
	"encode-health/internal/database"
	"encode-health/internal/groqservice"
	"encode-health/internal/intent"
	"encode-health/internal/profile"
	"encode-health/internal/triage"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog/log"
)

const analysisCacheSize = 256

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db provides access to the database service and connection pool.
	// Nil when Postgres is not configured; persistence then degrades to
	// in-memory storage.
	db database.Service

	hub     *TurnHub
	manager *conversation.Manager

	analysisHandler     *analysis.Handler
	chatHandler         *intent.Handler
	triageHandler       *triage.Handler
	profileHandler      *profile.Handler
	conversationHandler *conversation.Handler
}

// NewServer initializes a new Server instance and returns a configured *http.Server.
// It reads configuration from environment variables and sets production-ready
// network timeouts.
func NewServer() *http.Server {
	// Attempt to parse port from environment; fallback to 8080 if not set or invalid.
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port == 0 {
		port = 8080
	}

	logger := log.Logger
	groq := groqservice.NewClient(&logger)
	analysisService := analysis.NewService(groq)

	// Postgres is optional: profiles fall back to memory and history is
	// disabled when it is absent.
	var (
		sessions    analysis.SessionHistory
		profileRepo profile.Repository = profile.NewMemoryRepository()
	)
	db, err := database.NewService()
	if err != nil {
		log.Warn().Err(err).Msg("Database unavailable, using in-memory storage")
		db = nil
	} else {
		store := database.NewSessionStore(db.Pool())
		sessions = store
		profileRepo = profile.NewPostgresRepository(db.Pool())
	}

	analysisHandler, err := analysis.NewHandler(analysisService, analysisCacheSize, sessions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build analysis handler")
	}

	hub := NewTurnHub()
	manager := conversation.NewManager(analysisService, hub)

	var lister profile.SessionLister
	if store, ok := sessions.(*database.SessionStore); ok {
		lister = store
	}

	newApp := &Server{
		port:                port,
		db:                  db,
		hub:                 hub,
		manager:             manager,
		analysisHandler:     analysisHandler,
		chatHandler:         intent.NewHandler(groq),
		triageHandler:       triage.NewHandler(triage.NewService(groq)),
		profileHandler:      profile.NewHandler(profileRepo, lister),
		conversationHandler: conversation.NewHandler(manager),
	}

	// Configure the standard library http.Server with the application's router and timeouts.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,             // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second,        // Maximum duration for reading the entire request.
		WriteTimeout: 60 * time.Second,        // Maximum duration before timing out writes of the response.
	}

	return server
}
