package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/bizsim-client/internal/protocol"
)

// -----------------------------------------------------------------------------
// Connection state
// -----------------------------------------------------------------------------

// State is the connection manager's lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateResolving
	StateConnecting
	StateConnected
	StateInvalidLogin
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateResolving:
		return "resolving"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateInvalidLogin:
		return "invalid_login"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

// EventKind selects which Event fields are meaningful.
type EventKind int

const (
	KindState        EventKind = iota // State, Forced
	KindUserList                      // Text: comma separated logins
	KindContractInfo                  // Text, Command (get-contract-ok or market-closed)
	KindFormClosed                    // no payload
	KindServerError                   // Text: error message other than Unauthorized
)

func (k EventKind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindUserList:
		return "user_list"
	case KindContractInfo:
		return "contract_info"
	case KindFormClosed:
		return "form_closed"
	case KindServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Event is one item on the relay.
type Event struct {
	Kind      EventKind
	SessionID uuid.UUID
	At        time.Time // when the I/O side produced it

	// KindState
	State  State
	Forced bool // failure came from resolve/connect rather than a live connection

	// Payload events
	Command protocol.Command // wire command that produced the event
	Text    string
}

// StateEvent builds a KindState event.
func StateEvent(session uuid.UUID, at time.Time, state State, forced bool) Event {
	return Event{
		Kind:      KindState,
		SessionID: session,
		At:        at,
		State:     state,
		Forced:    forced,
	}
}

// IsState reports whether e is a state transition to s.
func (e Event) IsState(s State) bool {
	return e.Kind == KindState && e.State == s
}
