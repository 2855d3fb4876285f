package conversation

import (
	"encoding/json"
	"time"
)

/* =================================================================================
								TURN MODEL
=================================================================================*/

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TurnKind identifies the turn's render surface.
type TurnKind string

const (
	// TurnDashboard carries a full normalized analysis view.
	TurnDashboard TurnKind = "dashboard"
	// TurnText carries a plain sentence.
	TurnText TurnKind = "text"
	// TurnBattle carries a head-to-head comparison widget.
	TurnBattle TurnKind = "battle"
	// TurnManufacturing carries a production-steps widget.
	TurnManufacturing TurnKind = "manufacturing"
)

// Turn is one append-only entry in a conversation log. Exactly one of View,
// Widget or Text carries the payload depending on Kind.
type Turn struct {
	ID        string          `json:"id"`
	Role      Role            `json:"role"`
	Kind      TurnKind        `json:"kind"`
	Text      string          `json:"text,omitempty"`
	View      json.RawMessage `json:"view,omitempty"`
	Widget    json.RawMessage `json:"widget,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// State is the conversation lifecycle phase.
type State string

const (
	// StateEmpty: no analysis has run yet.
	StateEmpty State = "empty"
	// StatePending: the initial analysis is in flight.
	StatePending State = "pending"
	// StateReady: a dashboard is on screen, follow-ups accepted.
	StateReady State = "ready"
	// StateThinking: a follow-up is in flight, further follow-ups rejected.
	StateThinking State = "thinking"
)
