package triage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLM struct {
	response string
	err      error
	lastSys  string
	lastUser string
}

func (m *mockLLM) CompleteJSON(_ context.Context, system, user string, _ float64, _ int) (string, error) {
	m.lastSys = system
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestGenerateQuestions(t *testing.T) {
	llm := &mockLLM{response: `{"questions": [
		{"id": "q1", "text": "Is this the instant or cup variant?", "type": "choice"},
		{"id": "q2", "text": "How often do you eat it?", "type": "frequency"},
		{"id": "q3", "text": "Do you add the full seasoning packet?", "type": "boolean"}
	]}`}
	svc := NewService(llm)

	out, err := svc.GenerateQuestions(context.Background(), "Instant Ramen")
	require.NoError(t, err)
	require.Len(t, out.Questions, 3)
	assert.Equal(t, "q1", out.Questions[0].ID)
	assert.Equal(t, "Is this the instant or cup variant?", out.Questions[0].Text)
	assert.Contains(t, llm.lastSys, "Instant Ramen")
	assert.Equal(t, "Instant Ramen", llm.lastUser)
}

func TestGenerateQuestionsAnyCount(t *testing.T) {
	llm := &mockLLM{response: `{"questions": [{"id": "q1", "text": "One question only?", "type": "boolean"}]}`}
	svc := NewService(llm)

	out, err := svc.GenerateQuestions(context.Background(), "Oatmeal")
	require.NoError(t, err)
	assert.Len(t, out.Questions, 1)
}

func TestGenerateQuestionsFencedResponse(t *testing.T) {
	llm := &mockLLM{response: "```json\n{\"questions\": [{\"id\": \"q1\", \"text\": \"Fried or baked?\", \"type\": \"choice\"}]}\n```"}
	svc := NewService(llm)

	out, err := svc.GenerateQuestions(context.Background(), "Chips")
	require.NoError(t, err)
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "Fried or baked?", out.Questions[0].Text)
}

func TestGenerateQuestionsUpstreamFailure(t *testing.T) {
	llm := &mockLLM{err: errors.New("rate limited")}
	svc := NewService(llm)

	_, err := svc.GenerateQuestions(context.Background(), "Soda")
	require.Error(t, err)
}

func TestGenerateQuestionsMalformed(t *testing.T) {
	llm := &mockLLM{response: "not json at all"}
	svc := NewService(llm)

	_, err := svc.GenerateQuestions(context.Background(), "Soda")
	require.Error(t, err)
}
