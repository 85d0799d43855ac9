package generation

import (
	"context"
	"errors"
	"sync"

	"github.com/forge-ai/promptforge/shared/events"
	"github.com/forge-ai/promptforge/shared/profile"
	"github.com/forge-ai/promptforge/shared/prompt"
)

// ErrBusy is returned when a generation is already in flight.
var ErrBusy = errors.New("generation already in progress")

type State string

const (
	StateIdle State = "idle"
	StateBusy State = "busy"
)

// Session serializes generations for one user: a call made while another is
// running fails with ErrBusy instead of queueing.
type Session struct {
	orch *Orchestrator
	bus  *events.Bus

	mu    sync.Mutex
	state State
}

func NewSession(orch *Orchestrator, bus *events.Bus) *Session {
	return &Session{orch: orch, bus: bus, state: StateIdle}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generate compiles p against src and runs it.
func (s *Session) Generate(ctx context.Context, p *profile.Profile, src prompt.Sources) (string, error) {
	if !s.transition(StateIdle, StateBusy) {
		return "", ErrBusy
	}
	s.emit(StateBusy, nil)

	out, err := s.orch.Run(ctx, p, prompt.Compile(p, src))

	s.transition(StateBusy, StateIdle)
	s.emit(StateIdle, err)
	return out, err
}

func (s *Session) transition(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

func (s *Session) emit(state State, err error) {
	if s.bus == nil {
		return
	}
	payload := events.GenerationStatePayload{State: string(state)}
	if err != nil {
		payload.Error = err.Error()
	}
	_ = s.bus.Emit(events.GenerationState, payload)
}
