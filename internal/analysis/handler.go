package analysis

import (
	"context"
	"net/http"
	"time"

	"encode-health/internal/database"
	"encode-health/internal/profile"
	"encode-health/internal/utility"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

type analyzeRequest struct {
	Query       string           `json:"query"`
	UserContext string           `json:"userContext"`
	UserProfile *profile.Profile `json:"userProfile"`
	UserID      string           `json:"userId"`
}

type historyResponse struct {
	Sessions []database.AnalysisSession `json:"sessions"`
	Total    int                        `json:"total"`
	Page     int                        `json:"page"`
	Limit    int                        `json:"limit"`
}

// SessionHistory is the slice of the session store the analysis surface needs.
type SessionHistory interface {
	Save(ctx context.Context, userID, query, productName string, healthScore, confidence float64, summary string) (string, error)
	List(ctx context.Context, userID string, limit, offset int) ([]database.AnalysisSession, error)
	Count(ctx context.Context, userID string) (int, error)
}

// Handler serves the stateless analysis endpoint and the session history.
type Handler struct {
	service  *Service
	cache    *lru.Cache[string, AnalysisView]
	sessions SessionHistory
}

// NewHandler builds the analysis handler. sessions may be nil when Postgres is
// not configured; history persistence then becomes a no-op.
func NewHandler(service *Service, cacheSize int, sessions SessionHistory) (*Handler, error) {
	cache, err := lru.New[string, AnalysisView](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Handler{service: service, cache: cache, sessions: sessions}, nil
}

func cacheKey(query, userContext string) string {
	return query + "\x00" + userContext
}

/* =================================================================================
									HANDLERS
=================================================================================*/

// AnalyzeHandler runs one full analysis: rate limit, cache lookup, completion,
// normalization, best-effort session persistence.
func (h *Handler) AnalyzeHandler(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Query == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing query"})
	}

	ip := utility.GetRealIP(c)
	if err := utility.CheckIPRateLimit(ip); err != nil {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many requests, please try again later"})
	}

	// Profile-biased requests skip the cache: the prompt differs per profile.
	key := cacheKey(req.Query, req.UserContext)
	if req.UserProfile == nil {
		if view, ok := h.cache.Get(key); ok {
			log.Info().Str("query", req.Query).Msg("Analysis served from cache")
			return c.JSON(http.StatusOK, view)
		}
	}

	raw, err := h.service.Analyze(c.Request().Context(), req.Query, req.UserContext, req.UserProfile)
	if err != nil {
		log.Error().Err(err).Str("query", req.Query).Msg("Analysis failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to analyze product"})
	}

	view := Normalize(raw)
	if req.UserProfile == nil {
		h.cache.Add(key, view)
	}

	h.persistSession(req.UserID, req.Query, view)

	return c.JSON(http.StatusOK, view)
}

// persistSession records the analysis for the history feed. Failures are
// logged and swallowed: persistence never blocks or fails an analysis.
func (h *Handler) persistSession(userID, query string, view AnalysisView) {
	if h.sessions == nil || userID == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := h.sessions.Save(ctx, userID, query, view.ProductName, view.HealthScore, view.ConfidenceScore, view.Summary); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to persist analysis session")
		}
	}()
}

// HistoryHandler returns a page of the user's past analysis sessions,
// newest first.
func (h *Handler) HistoryHandler(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing user_id"})
	}
	if h.sessions == nil {
		return c.JSON(http.StatusOK, historyResponse{Sessions: []database.AnalysisSession{}})
	}

	page := utility.ParseIntParam(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := utility.Min(utility.ParseIntParam(c, "limit", 10), 50)
	offset := (page - 1) * limit

	ctx := c.Request().Context()
	sessions, err := h.sessions.List(ctx, userID, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list sessions")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load history"})
	}
	total, err := h.sessions.Count(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to count sessions")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load history"})
	}

	if sessions == nil {
		sessions = []database.AnalysisSession{}
	}
	return c.JSON(http.StatusOK, historyResponse{Sessions: sessions, Total: total, Page: page, Limit: limit})
}
