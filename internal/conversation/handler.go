package conversation

import (
	"errors"
	"net/http"

	"encode-health/internal/profile"
	"encode-health/internal/simulation"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

type messageRequest struct {
	Type        string           `json:"type"` // "analyze" | "follow_up"
	Query       string           `json:"query"`
	Text        string           `json:"text"`
	UserContext string           `json:"user_context"`
	UserProfile *profile.Profile `json:"user_profile"`
}

type simulateRequest struct {
	ModifierID string `json:"modifier_id"`
}

type simulateResponse struct {
	ActiveModifierIDs []string                `json:"active_modifier_ids"`
	CurrentStats      simulation.CurrentStats `json:"current_stats"`
}

type conversationResponse struct {
	ID          string            `json:"id"`
	State       State             `json:"state"`
	ProductName string            `json:"product_name,omitempty"`
	Turns       []Turn            `json:"turns,omitempty"`
	Simulation  *simulateResponse `json:"simulation,omitempty"`
}

// Handler serves the conversation resource.
type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) lookup(c echo.Context) (*Conversation, error) {
	conv, ok := h.manager.Get(c.Param("id"))
	if !ok {
		return nil, c.JSON(http.StatusNotFound, map[string]string{"error": "Conversation not found"})
	}
	return conv, nil
}

/* =================================================================================
									HANDLERS
=================================================================================*/

// CreateConversationHandler registers a new empty conversation.
func (h *Handler) CreateConversationHandler(c echo.Context) error {
	conv := h.manager.Create()
	log.Info().Str("conversation_id", conv.ID).Msg("Conversation created")
	return c.JSON(http.StatusCreated, conversationResponse{ID: conv.ID, State: conv.State()})
}

// GetConversationHandler returns the full turn log plus the dashboard's live
// simulation state when one is on screen.
func (h *Handler) GetConversationHandler(c echo.Context) error {
	conv, err := h.lookup(c)
	if conv == nil {
		return err
	}
	resp := conversationResponse{
		ID:          conv.ID,
		State:       conv.State(),
		ProductName: conv.ProductName(),
		Turns:       conv.Turns(),
	}
	if ids, stats, ok := conv.SimulationState(); ok {
		resp.Simulation = &simulateResponse{ActiveModifierIDs: ids, CurrentStats: stats}
	}
	return c.JSON(http.StatusOK, resp)
}

// PostMessageHandler runs either the initial analysis or a follow-up,
// depending on the message type.
func (h *Handler) PostMessageHandler(c echo.Context) error {
	conv, lerr := h.lookup(c)
	if conv == nil {
		return lerr
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	ctx := c.Request().Context()

	switch req.Type {
	case "analyze":
		if req.Query == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing query"})
		}
		turn, err := conv.StartAnalysis(ctx, req.Query, req.UserContext, req.UserProfile)
		switch {
		case errors.Is(err, ErrNotEmpty):
			return c.JSON(http.StatusConflict, map[string]string{"error": "Conversation already holds an analysis, reset first"})
		case errors.Is(err, ErrSuperseded):
			return c.JSON(http.StatusConflict, map[string]string{"error": "Analysis superseded"})
		}
		return c.JSON(http.StatusOK, turn)

	case "follow_up":
		if req.Text == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing text"})
		}
		turn, err := conv.SendFollowUp(ctx, req.Text)
		switch {
		case errors.Is(err, ErrBusy):
			return c.JSON(http.StatusConflict, map[string]string{"error": "A follow-up is already in flight"})
		case errors.Is(err, ErrNotReady):
			return c.JSON(http.StatusConflict, map[string]string{"error": "No analysis on screen yet"})
		case errors.Is(err, ErrSuperseded):
			return c.JSON(http.StatusConflict, map[string]string{"error": "Follow-up superseded"})
		}
		return c.JSON(http.StatusOK, turn)

	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "type must be 'analyze' or 'follow_up'"})
	}
}

// SimulateHandler toggles one modifier on the dashboard simulation and
// returns the recomputed live stats.
func (h *Handler) SimulateHandler(c echo.Context) error {
	conv, lerr := h.lookup(c)
	if conv == nil {
		return lerr
	}

	var req simulateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.ModifierID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing modifier_id"})
	}

	ids, stats, err := conv.ToggleModifier(req.ModifierID)
	if errors.Is(err, ErrNotReady) {
		return c.JSON(http.StatusConflict, map[string]string{"error": "No analysis on screen yet"})
	}
	return c.JSON(http.StatusOK, simulateResponse{ActiveModifierIDs: ids, CurrentStats: stats})
}

// ResetConversationHandler clears the log and state.
func (h *Handler) ResetConversationHandler(c echo.Context) error {
	conv, err := h.lookup(c)
	if conv == nil {
		return err
	}
	conv.Reset()
	return c.JSON(http.StatusOK, conversationResponse{ID: conv.ID, State: conv.State()})
}
