package intent

import (
	"context"
	"fmt"
	"net/http"

	"encode-health/internal/groqservice"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TextCompleter is the slice of the Groq client the chat endpoint needs.
type TextCompleter interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

type chatRequest struct {
	ProductContext string `json:"productContext"`
	UserQuery      string `json:"userQuery"`
}

type chatResponse struct {
	Summary   string     `json:"summary"`
	Component *Component `json:"component"`
}

// Handler serves the stateless POST /chat endpoint: intent classification
// picks the widget, the model supplies a one-sentence summary.
type Handler struct {
	llm TextCompleter
}

func NewHandler(llm TextCompleter) *Handler {
	return &Handler{llm: llm}
}

func (h *Handler) ChatHandler(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.UserQuery == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing userQuery"})
	}

	resp := chatResponse{}
	if kind, ok := Classify(req.UserQuery); ok {
		resp.Component = BuildComponent(kind, req.UserQuery)
	}

	prompt := fmt.Sprintf("Context: %s. User asks: %s", req.ProductContext, req.UserQuery)
	summary, err := h.llm.Complete(c.Request().Context(), groqservice.ChatSystemPrompt, prompt, 256)
	if err != nil {
		log.Error().Err(err).Msg("Chat completion failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate chat response"})
	}
	resp.Summary = summary

	return c.JSON(http.StatusOK, resp)
}
