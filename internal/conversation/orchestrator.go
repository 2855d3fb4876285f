package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"encode-health/internal/analysis"
	"encode-health/internal/profile"
	"encode-health/internal/simulation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// analysisTimeout bounds every upstream call made on behalf of a
	// conversation, initial analysis and follow-ups alike.
	analysisTimeout = 30 * time.Second

	// apologyText is appended as an assistant turn when a follow-up fails.
	apologyText = "I'm having trouble analyzing that right now."
)

var (
	// ErrBusy rejects a follow-up while another is in flight.
	ErrBusy = errors.New("a follow-up is already in flight")
	// ErrNotReady rejects an operation before any analysis has completed.
	ErrNotReady = errors.New("no analysis on screen yet")
	// ErrNotEmpty rejects a second analysis on a live conversation.
	ErrNotEmpty = errors.New("conversation already holds an analysis, reset first")
	// ErrSuperseded marks a response discarded by a reset.
	ErrSuperseded = errors.New("response superseded")
)

// AnalysisClient is the slice of the analysis pipeline the orchestrator needs.
type AnalysisClient interface {
	Analyze(ctx context.Context, query, userContext string, prof *profile.Profile) (analysis.RawAnalysis, error)
}

// Notifier receives every appended turn, for live delivery to subscribers.
// Implementations may block; the orchestrator only calls it outside its own
// lock so a slow subscriber can never stall conversation state.
type Notifier interface {
	PublishTurn(conversationID string, turn Turn)
}

// Conversation is one append-only analysis session. All exported methods are
// safe for concurrent use.
type Conversation struct {
	ID string

	mu          sync.Mutex
	state       State
	turns       []Turn
	productName string
	userContext string
	prof        *profile.Profile
	sim         *simulation.Simulation
	activeMods  map[string]bool
	generation  uint64

	client   AnalysisClient
	notifier Notifier
}

func newConversation(id string, client AnalysisClient, notifier Notifier) *Conversation {
	return &Conversation{ID: id, state: StateEmpty, client: client, notifier: notifier}
}

// State returns the current lifecycle phase.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ProductName returns the product of the analysis currently on screen.
func (c *Conversation) ProductName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.productName
}

// Turns returns a copy of the turn log.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// appendTurn must be called with c.mu held. Delivery to the notifier happens
// later, via notify, after the lock is released.
func (c *Conversation) appendTurn(role Role, kind TurnKind, text string, view, widget json.RawMessage) Turn {
	turn := Turn{
		ID:        uuid.New().String(),
		Role:      role,
		Kind:      kind,
		Text:      text,
		View:      view,
		Widget:    widget,
		CreatedAt: time.Now().UTC(),
	}
	c.turns = append(c.turns, turn)
	return turn
}

// notify must be called without c.mu held.
func (c *Conversation) notify(turn Turn) {
	if c.notifier != nil {
		c.notifier.PublishTurn(c.ID, turn)
	}
}

func marshalView(view analysis.AnalysisView) json.RawMessage {
	b, err := json.Marshal(view)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

// StartAnalysis runs the initial analysis and appends one dashboard turn.
// Only an empty conversation accepts it: re-analyzing requires an explicit
// Reset, so a live turn log is never silently discarded. A failed upstream
// call still yields a dashboard turn, built from the offline fallback view.
func (c *Conversation) StartAnalysis(ctx context.Context, query, userContext string, prof *profile.Profile) (Turn, error) {
	c.mu.Lock()
	if c.state != StateEmpty {
		c.mu.Unlock()
		return Turn{}, ErrNotEmpty
	}
	c.generation++
	gen := c.generation
	c.state = StatePending
	c.userContext = userContext
	c.prof = prof
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	var view analysis.AnalysisView
	raw, err := c.client.Analyze(ctx, query, userContext, prof)
	if err != nil {
		log.Warn().Err(err).Str("conversation_id", c.ID).Msg("Analysis failed, serving fallback view")
		view = analysis.FallbackView(query)
	} else {
		view = analysis.Normalize(raw)
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return Turn{}, ErrSuperseded
	}
	c.productName = view.ProductName
	c.sim = view.Simulation
	c.activeMods = map[string]bool{}
	c.state = StateReady
	turn := c.appendTurn(RoleAssistant, TurnDashboard, "", marshalView(view), nil)
	c.mu.Unlock()

	c.notify(turn)
	return turn, nil
}

// SendFollowUp appends the user's message immediately, then runs one upstream
// call and appends the assistant's reply. Only one follow-up may be in flight;
// concurrent calls are rejected with ErrBusy rather than queued.
func (c *Conversation) SendFollowUp(ctx context.Context, text string) (Turn, error) {
	c.mu.Lock()
	switch c.state {
	case StateThinking:
		c.mu.Unlock()
		return Turn{}, ErrBusy
	case StateEmpty, StatePending:
		c.mu.Unlock()
		return Turn{}, ErrNotReady
	}
	gen := c.generation
	c.state = StateThinking
	userTurn := c.appendTurn(RoleUser, TurnText, text, nil, nil)
	query := `Original Product: "` + c.productName + `". User Request: "` + text + `"`
	userContext := c.userContext
	prof := c.prof
	c.mu.Unlock()

	c.notify(userTurn)

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	raw, err := c.client.Analyze(ctx, query, userContext, prof)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return Turn{}, ErrSuperseded
	}
	c.state = StateReady

	var turn Turn
	switch {
	case err != nil:
		log.Warn().Err(err).Str("conversation_id", c.ID).Msg("Follow-up failed")
		turn = c.appendTurn(RoleAssistant, TurnText, apologyText, nil, nil)
	default:
		summary := analysis.SummaryText(raw)
		switch fu := raw.FollowUpData; {
		case fu != nil && fu.Type == "battle" && fu.Battle != nil:
			turn = c.appendTurn(RoleAssistant, TurnBattle, summary, nil, fu.Battle.BattleJSON())
		case fu != nil && fu.Type == "manufacturing" && fu.Manufacturing != nil:
			turn = c.appendTurn(RoleAssistant, TurnManufacturing, summary, nil, fu.Manufacturing.StepsJSON())
		default:
			turn = c.appendTurn(RoleAssistant, TurnText, summary, nil, nil)
		}
	}
	c.mu.Unlock()

	c.notify(turn)
	return turn, nil
}

// ToggleModifier flips one modifier in the dashboard simulation's active set
// and recomputes the live stats. The toggle is local state, not a turn: it
// changes what the dashboard shows, not what was said.
func (c *Conversation) ToggleModifier(id string) ([]string, simulation.CurrentStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sim == nil {
		return nil, simulation.CurrentStats{}, ErrNotReady
	}
	c.activeMods = simulation.Toggle(c.activeMods, id)
	return activeIDs(c.activeMods), simulation.ComputeCurrentStats(c.sim, c.activeMods), nil
}

// SimulationState returns the active modifier ids and the stats they produce.
// ok is false before the first analysis lands or when the analysis carried no
// simulation block.
func (c *Conversation) SimulationState() ([]string, simulation.CurrentStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sim == nil {
		return nil, simulation.CurrentStats{}, false
	}
	return activeIDs(c.activeMods), simulation.ComputeCurrentStats(c.sim, c.activeMods), true
}

func activeIDs(active map[string]bool) []string {
	ids := make([]string, 0, len(active))
	for id, on := range active {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Reset clears the log and returns the conversation to its initial state.
// Any in-flight response is discarded when it lands.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.state = StateEmpty
	c.turns = nil
	c.productName = ""
	c.userContext = ""
	c.prof = nil
	c.sim = nil
	c.activeMods = nil
}

/* =================================================================================
									MANAGER
=================================================================================*/

// Manager owns the live conversation set.
type Manager struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	client        AnalysisClient
	notifier      Notifier
}

func NewManager(client AnalysisClient, notifier Notifier) *Manager {
	return &Manager{
		conversations: make(map[string]*Conversation),
		client:        client,
		notifier:      notifier,
	}
}

// Create registers a new empty conversation.
func (m *Manager) Create() *Conversation {
	conv := newConversation(uuid.New().String(), m.client, m.notifier)
	m.mu.Lock()
	m.conversations[conv.ID] = conv
	m.mu.Unlock()
	return conv
}

// Get looks up a conversation by id.
func (m *Manager) Get(id string) (*Conversation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conv, ok := m.conversations[id]
	return conv, ok
}
