package profile

import (
	"context"
	"errors"
	"net/http"

	"encode-health/internal/database"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

// ConstraintRequest addresses one value in one constraint list.
type ConstraintRequest struct {
	Type  ConstraintKind `json:"type"`
	Value string         `json:"value"`
}

// ConflictCheckRequest carries the ingredient list to screen against allergies.
type ConflictCheckRequest struct {
	Ingredients []string `json:"ingredients"`
}

// ConflictCheckResponse names the first conflicting allergen, if any.
type ConflictCheckResponse struct {
	Allergen    *string `json:"allergen"`
	HasConflict bool    `json:"has_conflict"`
}

// ProfileResponse is the read model: profile plus completeness and recent scans.
type ProfileResponse struct {
	Profile        Profile                    `json:"profile"`
	IsComplete     bool                       `json:"is_complete"`
	RecentSessions []database.AnalysisSession `json:"recent_sessions,omitempty"`
}

// SessionLister is the slice of the history store the profile read path needs.
type SessionLister interface {
	List(ctx context.Context, userID string, limit, offset int) ([]database.AnalysisSession, error)
}

// Handler serves the profile routes. All dependencies are injected.
type Handler struct {
	repo     Repository
	sessions SessionLister
}

// NewHandler builds a profile handler. sessions may be nil when history is
// not configured; the profile read path then omits recent sessions.
func NewHandler(repo Repository, sessions SessionLister) *Handler {
	return &Handler{repo: repo, sessions: sessions}
}

// loadEngine fetches the stored profile (or the default when none exists) and
// wraps it in an engine, recomputing derived values.
func (h *Handler) loadEngine(ctx context.Context, userID string) (*Engine, error) {
	stored, err := h.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return NewEngine(), nil
	}
	if err != nil {
		return nil, err
	}
	return NewEngineFrom(stored), nil
}

func (h *Handler) persist(ctx context.Context, userID string, e *Engine) error {
	return h.repo.Save(ctx, userID, e.Snapshot())
}

/* =================================================================================
									HANDLERS
=================================================================================*/

// GetProfileHandler returns the profile and the user's recent analysis
// sessions, fetched in parallel.
func (h *Handler) GetProfileHandler(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing user_id"})
	}

	var (
		engine   *Engine
		recent   []database.AnalysisSession
		g, grpCtx = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		var err error
		engine, err = h.loadEngine(grpCtx, userID)
		return err
	})

	g.Go(func() error {
		if h.sessions == nil {
			return nil
		}
		sessions, err := h.sessions.List(grpCtx, userID, 5, 0)
		if err != nil {
			// Best effort: history failure must not block the profile read.
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to fetch recent sessions")
			return nil
		}
		recent = sessions
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load profile"})
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		Profile:        engine.Snapshot(),
		IsComplete:     engine.IsComplete(),
		RecentSessions: recent,
	})
}

// UpdateBiometricsHandler replaces the stored biometrics.
func (h *Handler) UpdateBiometricsHandler(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	var bio Biometrics
	if err := c.Bind(&bio); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if bio.WeightKg <= 0 || bio.HeightCm <= 0 || bio.Age <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "weight_kg, height_cm and age must be positive"})
	}

	engine, err := h.loadEngine(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load profile"})
	}

	engine.UpdateBiometrics(bio)

	if err := h.persist(ctx, userID, engine); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save profile"})
	}

	return c.JSON(http.StatusOK, ProfileResponse{Profile: engine.Snapshot(), IsComplete: engine.IsComplete()})
}

// ToggleGoalHandler flips membership of one goal.
func (h *Handler) ToggleGoalHandler(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	goal := c.Param("goal")
	if goal == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing goal"})
	}

	engine, err := h.loadEngine(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load profile"})
	}

	engine.ToggleGoal(goal)

	if err := h.persist(ctx, userID, engine); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save profile"})
	}

	return c.JSON(http.StatusOK, ProfileResponse{Profile: engine.Snapshot(), IsComplete: engine.IsComplete()})
}

// AddConstraintHandler appends an allergy/diet/condition value.
func (h *Handler) AddConstraintHandler(c echo.Context) error {
	return h.mutateConstraint(c, func(e *Engine, req ConstraintRequest) error {
		return e.AddConstraint(req.Type, req.Value)
	})
}

// RemoveConstraintHandler drops an allergy/diet/condition value.
func (h *Handler) RemoveConstraintHandler(c echo.Context) error {
	return h.mutateConstraint(c, func(e *Engine, req ConstraintRequest) error {
		return e.RemoveConstraint(req.Type, req.Value)
	})
}

func (h *Handler) mutateConstraint(c echo.Context, apply func(*Engine, ConstraintRequest) error) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	var req ConstraintRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Value == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing value"})
	}
	if !ValidConstraintKind(req.Type) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "type must be 'allergies', 'diet' or 'conditions'"})
	}

	engine, err := h.loadEngine(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load profile"})
	}

	if err := apply(engine, req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.persist(ctx, userID, engine); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save profile"})
	}

	return c.JSON(http.StatusOK, ProfileResponse{Profile: engine.Snapshot(), IsComplete: engine.IsComplete()})
}

// CheckConflictHandler screens an ingredient list against the stored allergies.
func (h *Handler) CheckConflictHandler(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	var req ConflictCheckRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	engine, err := h.loadEngine(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to load profile")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load profile"})
	}

	resp := ConflictCheckResponse{}
	if allergen, found := engine.HasConflict(req.Ingredients); found {
		resp.Allergen = &allergen
		resp.HasConflict = true
	}
	return c.JSON(http.StatusOK, resp)
}
