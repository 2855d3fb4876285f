package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"encode-health/internal/analysis"
	"encode-health/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clientFunc func(ctx context.Context, query, userContext string, prof *profile.Profile) (analysis.RawAnalysis, error)

func (f clientFunc) Analyze(ctx context.Context, query, userContext string, prof *profile.Profile) (analysis.RawAnalysis, error) {
	return f(ctx, query, userContext, prof)
}

func rawFromJSON(t *testing.T, body string) analysis.RawAnalysis {
	t.Helper()
	raw, err := analysis.Decode([]byte(body))
	require.NoError(t, err)
	return raw
}

const dashboardBody = `{
	"meta": {"product_name": "Instant Ramen", "category": "Processed"},
	"components": [
		{"id": "summary", "type": "text_block", "data": {"headline": "Sodium heavy."}}
	],
	"simulation": {"base_stats": {"score": 45, "calories": 380}}
}`

func newTestConversation(client AnalysisClient) *Conversation {
	return newConversation("conv-test", client, nil)
}

func TestStartAnalysisSuccess(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return rawFromJSON(t, dashboardBody), nil
	})
	conv := newTestConversation(client)
	require.Equal(t, StateEmpty, conv.State())

	turn, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	assert.Equal(t, StateReady, conv.State())
	assert.Equal(t, "Instant Ramen", conv.ProductName())
	assert.Equal(t, RoleAssistant, turn.Role)
	assert.Equal(t, TurnDashboard, turn.Kind)

	turns := conv.Turns()
	require.Len(t, turns, 1)

	var view analysis.AnalysisView
	require.NoError(t, json.Unmarshal(turns[0].View, &view))
	assert.Equal(t, "Instant Ramen", view.ProductName)
	assert.InDelta(t, 45, view.HealthScore, 0.001)
}

func TestStartAnalysisFailureServesFallback(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return analysis.RawAnalysis{}, errors.New("upstream down")
	})
	conv := newTestConversation(client)

	turn, err := conv.StartAnalysis(context.Background(), "mystery snack", "", nil)
	require.NoError(t, err)
	assert.Equal(t, StateReady, conv.State())

	turns := conv.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, TurnDashboard, turn.Kind)

	var view analysis.AnalysisView
	require.NoError(t, json.Unmarshal(turn.View, &view))
	assert.Equal(t, "mystery snack", view.ProductName)
	assert.Zero(t, view.ConfidenceScore)
	assert.Equal(t, analysis.FallbackDisclosure, view.Summary)
}

func TestSendFollowUpManufacturing(t *testing.T) {
	var gotQuery string
	calls := 0
	client := clientFunc(func(_ context.Context, query, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		calls++
		if calls == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		gotQuery = query
		return rawFromJSON(t, `{
			"components": [{"id": "summary", "data": {"headline": "Extrusion dominates the process."}}],
			"follow_up_data": {
				"type": "manufacturing",
				"manufacturing": {"steps": [{"title": "Extrusion"}, {"title": "Flash frying"}]}
			}
		}`), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	turn, err := conv.SendFollowUp(context.Background(), "how is it made?")
	require.NoError(t, err)

	assert.Equal(t, `Original Product: "Instant Ramen". User Request: "how is it made?"`, gotQuery)

	turns := conv.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, RoleUser, turns[1].Role)
	assert.Equal(t, TurnText, turns[1].Kind)
	assert.Equal(t, "how is it made?", turns[1].Text)

	assert.Equal(t, RoleAssistant, turn.Role)
	assert.Equal(t, TurnManufacturing, turn.Kind)
	assert.Contains(t, string(turn.Widget), "Extrusion")
	assert.Equal(t, StateReady, conv.State())
}

func TestSendFollowUpBattle(t *testing.T) {
	calls := 0
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		calls++
		if calls == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		return rawFromJSON(t, `{
			"follow_up_data": {
				"type": "battle",
				"battle": {"productA": {"name": "Ramen"}, "productB": {"name": "Soba"}, "verdict": "Soba wins"}
			}
		}`), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	turn, err := conv.SendFollowUp(context.Background(), "compare to soba")
	require.NoError(t, err)
	assert.Equal(t, TurnBattle, turn.Kind)
	assert.Contains(t, string(turn.Widget), "Soba wins")
}

func TestSendFollowUpPlainText(t *testing.T) {
	calls := 0
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		calls++
		if calls == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		return rawFromJSON(t, `{"components": [{"id": "summary", "data": {"headline": "Roughly 380 calories per serving."}}]}`), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	turn, err := conv.SendFollowUp(context.Background(), "how many calories?")
	require.NoError(t, err)
	assert.Equal(t, TurnText, turn.Kind)
	assert.Equal(t, "Roughly 380 calories per serving.", turn.Text)
}

func TestSendFollowUpFailureAppendsApology(t *testing.T) {
	calls := 0
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		calls++
		if calls == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		return analysis.RawAnalysis{}, errors.New("timeout")
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	turn, err := conv.SendFollowUp(context.Background(), "is it vegan?")
	require.NoError(t, err)
	assert.Equal(t, TurnText, turn.Kind)
	assert.Equal(t, apologyText, turn.Text)
	assert.Equal(t, StateReady, conv.State())

	// User turn stays in the log even though the reply failed.
	turns := conv.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "is it vegan?", turns[1].Text)
}

func TestSendFollowUpRejectedBeforeAnalysis(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return analysis.RawAnalysis{}, nil
	})
	conv := newTestConversation(client)

	_, err := conv.SendFollowUp(context.Background(), "hello?")
	require.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, conv.Turns())
}

func TestSendFollowUpRejectsConcurrent(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		<-release
		return rawFromJSON(t, `{"components": [{"id": "summary", "data": {"headline": "Done."}}]}`), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conv.SendFollowUp(context.Background(), "first")
		done <- err
	}()

	// Wait until the first follow-up holds the Thinking state.
	require.Eventually(t, func() bool { return conv.State() == StateThinking }, time.Second, 5*time.Millisecond)

	_, err = conv.SendFollowUp(context.Background(), "second")
	require.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)

	// Only the first follow-up's user and assistant turns were appended.
	turns := conv.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[1].Text)
	assert.Equal(t, "Done.", turns[2].Text)
}

func TestResetDiscardsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	var mu sync.Mutex
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		<-release
		return rawFromJSON(t, `{"components": [{"id": "summary", "data": {"headline": "Stale."}}]}`), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := conv.SendFollowUp(context.Background(), "slow question")
		done <- err
	}()
	require.Eventually(t, func() bool { return conv.State() == StateThinking }, time.Second, 5*time.Millisecond)

	conv.Reset()
	close(release)

	require.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StateEmpty, conv.State())
	assert.Empty(t, conv.Turns())
	assert.Empty(t, conv.ProductName())
}

type recordingNotifier struct {
	mu    sync.Mutex
	turns []Turn
	ids   []string
}

func (n *recordingNotifier) PublishTurn(conversationID string, turn Turn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, conversationID)
	n.turns = append(n.turns, turn)
}

func TestNotifierReceivesEveryTurn(t *testing.T) {
	calls := 0
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		calls++
		if calls == 1 {
			return rawFromJSON(t, dashboardBody), nil
		}
		return rawFromJSON(t, `{"components": [{"id": "summary", "data": {"headline": "Answer."}}]}`), nil
	})
	notifier := &recordingNotifier{}
	manager := NewManager(client, notifier)
	conv := manager.Create()

	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)
	_, err = conv.SendFollowUp(context.Background(), "ok?")
	require.NoError(t, err)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.turns, 3)
	assert.Equal(t, conv.ID, notifier.ids[0])
	assert.Equal(t, TurnDashboard, notifier.turns[0].Kind)
}

func TestStartAnalysisRejectedOnLiveConversation(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return rawFromJSON(t, dashboardBody), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	// A second analysis must not silently wipe the log.
	_, err = conv.StartAnalysis(context.Background(), "soba", "", nil)
	require.ErrorIs(t, err, ErrNotEmpty)
	assert.Len(t, conv.Turns(), 1)
	assert.Equal(t, "Instant Ramen", conv.ProductName())

	conv.Reset()
	_, err = conv.StartAnalysis(context.Background(), "soba", "", nil)
	require.NoError(t, err)
}

const simulatedDashboardBody = `{
	"meta": {"product_name": "Instant Ramen"},
	"simulation": {
		"base_stats": {"score": 40, "calories": 380, "sodium_mg": 1600, "protein_g": 9},
		"modifiers": [
			{"id": "drain_noodles", "label": "Drain the noodles", "type": "subtraction",
			 "impact": {"sodium_mg": -600, "score_delta": 15}},
			{"id": "add_egg", "label": "Add an egg", "type": "addition",
			 "impact": {"calories": 70, "protein_g": 6, "score_delta": 5}}
		]
	}
}`

func TestToggleModifierRecomputesDashboardStats(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return rawFromJSON(t, simulatedDashboardBody), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	// Fresh analysis starts with nothing toggled.
	ids, stats, ok := conv.SimulationState()
	require.True(t, ok)
	assert.Empty(t, ids)
	assert.InDelta(t, 40, stats.Score, 0.001)
	assert.InDelta(t, 1600, stats.SodiumMg, 0.001)

	ids, stats, err = conv.ToggleModifier("drain_noodles")
	require.NoError(t, err)
	assert.Equal(t, []string{"drain_noodles"}, ids)
	assert.InDelta(t, 55, stats.Score, 0.001)
	assert.InDelta(t, 1000, stats.SodiumMg, 0.001)

	ids, stats, err = conv.ToggleModifier("add_egg")
	require.NoError(t, err)
	assert.Equal(t, []string{"add_egg", "drain_noodles"}, ids)
	assert.InDelta(t, 60, stats.Score, 0.001)
	assert.InDelta(t, 450, stats.Calories, 0.001)
	assert.InDelta(t, 15, stats.ProteinG, 0.001)

	// Toggling off restores the baseline.
	_, _, err = conv.ToggleModifier("add_egg")
	require.NoError(t, err)
	ids, stats, err = conv.ToggleModifier("drain_noodles")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.InDelta(t, 40, stats.Score, 0.001)
	assert.InDelta(t, 380, stats.Calories, 0.001)
}

func TestToggleModifierUnknownIDLeavesStatsAlone(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return rawFromJSON(t, simulatedDashboardBody), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)

	ids, stats, err := conv.ToggleModifier("no_such_modifier")
	require.NoError(t, err)
	assert.Equal(t, []string{"no_such_modifier"}, ids)
	assert.InDelta(t, 40, stats.Score, 0.001)
	assert.InDelta(t, 380, stats.Calories, 0.001)
}

func TestToggleModifierBeforeAnalysis(t *testing.T) {
	conv := newTestConversation(clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return analysis.RawAnalysis{}, nil
	}))

	_, _, err := conv.ToggleModifier("drain_noodles")
	require.ErrorIs(t, err, ErrNotReady)

	_, _, ok := conv.SimulationState()
	assert.False(t, ok)
}

func TestToggleModifierWorksOnFallbackDashboard(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return analysis.RawAnalysis{}, errors.New("upstream down")
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "mystery snack", "", nil)
	require.NoError(t, err)

	// The offline view carries its own simulation block.
	ids, stats, err := conv.ToggleModifier("mod1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mod1"}, ids)
	assert.InDelta(t, 82, stats.Score, 0.001)
	assert.InDelta(t, 20, stats.ProteinG, 0.001)
}

func TestResetClearsSimulationState(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return rawFromJSON(t, simulatedDashboardBody), nil
	})
	conv := newTestConversation(client)
	_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
	require.NoError(t, err)
	_, _, err = conv.ToggleModifier("drain_noodles")
	require.NoError(t, err)

	conv.Reset()
	_, _, ok := conv.SimulationState()
	assert.False(t, ok)
}

type stallingNotifier struct {
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (n *stallingNotifier) PublishTurn(string, Turn) {
	n.once.Do(func() { close(n.entered) })
	<-n.release
}

func TestSlowNotifierDoesNotBlockConversation(t *testing.T) {
	client := clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return rawFromJSON(t, dashboardBody), nil
	})
	notifier := &stallingNotifier{release: make(chan struct{}), entered: make(chan struct{})}
	conv := newConversation("conv-slow", client, notifier)

	done := make(chan struct{})
	go func() {
		_, err := conv.StartAnalysis(context.Background(), "instant ramen", "", nil)
		assert.NoError(t, err)
		close(done)
	}()

	// Wait until delivery is stalled inside the notifier, then confirm the
	// conversation's own state stays reachable.
	<-notifier.entered
	assert.Equal(t, StateReady, conv.State())
	assert.Len(t, conv.Turns(), 1)
	assert.Equal(t, "Instant Ramen", conv.ProductName())

	close(notifier.release)
	<-done
}

func TestManagerCreateAndGet(t *testing.T) {
	manager := NewManager(clientFunc(func(_ context.Context, _, _ string, _ *profile.Profile) (analysis.RawAnalysis, error) {
		return analysis.RawAnalysis{}, nil
	}), nil)

	conv := manager.Create()
	require.NotEmpty(t, conv.ID)

	got, ok := manager.Get(conv.ID)
	require.True(t, ok)
	assert.Same(t, conv, got)

	_, ok = manager.Get("missing")
	assert.False(t, ok)
}
