package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"encode-health/internal/analysis"
	"encode-health/internal/groqservice"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LLM is the slice of the Groq client the triage step needs.
type LLM interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// Question is one clarifying question to ask the user before a full analysis.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}

// Questions is the triage response shape. The model is asked for three
// questions but whatever count it returns is passed through.
type Questions struct {
	Questions []Question `json:"questions"`
}

// Service produces pre-analysis clarifying questions for a product.
type Service struct {
	llm LLM
}

func NewService(llm LLM) *Service {
	return &Service{llm: llm}
}

// GenerateQuestions asks the model for clarifying questions about the named
// product.
func (s *Service) GenerateQuestions(ctx context.Context, productName string) (Questions, error) {
	system := groqservice.BuildTriageSystemPrompt(productName)
	raw, err := s.llm.CompleteJSON(ctx, system, productName, 0.5, 512)
	if err != nil {
		return Questions{}, fmt.Errorf("triage completion: %w", err)
	}

	var out Questions
	if err := json.Unmarshal([]byte(analysis.StripCodeFence(raw)), &out); err != nil {
		return Questions{}, fmt.Errorf("triage response parse: %w", err)
	}
	return out, nil
}

/* =================================================================================
									HANDLER
=================================================================================*/

type triageRequest struct {
	ProductName string `json:"productName"`
}

// Handler serves POST /agent/triage.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) TriageHandler(c echo.Context) error {
	var req triageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.ProductName == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Missing productName"})
	}

	questions, err := h.service.GenerateQuestions(c.Request().Context(), req.ProductName)
	if err != nil {
		log.Error().Err(err).Str("product", req.ProductName).Msg("Triage generation failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to generate triage questions"})
	}

	return c.JSON(http.StatusOK, questions)
}
