package analysis

import (
	"context"
	"fmt"

	"encode-health/internal/groqservice"
	"encode-health/internal/profile"
)

// LLM is the slice of the Groq client the analysis pipeline needs.
type LLM interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// Service runs the full analysis pipeline: prompt assembly, completion,
// decode. Callers normalize the result themselves so follow-up flows can
// branch on the raw schema first.
type Service struct {
	llm LLM
}

func NewService(llm LLM) *Service {
	return &Service{llm: llm}
}

// Analyze sends one analysis request. prof may be nil; the personalization
// block is then omitted from the prompt.
func (s *Service) Analyze(ctx context.Context, query, userContext string, prof *profile.Profile) (RawAnalysis, error) {
	system := groqservice.BuildAnalyzeSystemPrompt(userContext, groqservice.BuildProfileBlock(prof))

	raw, err := s.llm.CompleteJSON(ctx, system, query, 0.6, 4096)
	if err != nil {
		return RawAnalysis{}, fmt.Errorf("analysis completion: %w", err)
	}

	decoded, err := Decode([]byte(raw))
	if err != nil {
		return RawAnalysis{}, fmt.Errorf("analysis decode: %w", err)
	}
	return decoded, nil
}
