package client

import (
	"cyberarena/internal/protocol"
)

const initialHealth = 100

// GameState is the client-owned snapshot reconstructed from the event
// stream. Only the reducer mutates it; consumers get copies via Snapshot.
type GameState struct {
	// Messages holds the latest message per agent; earlier messages for the
	// same agent are overwritten, not appended.
	Messages map[string]string

	// Statuses holds the latest activity indicator per agent.
	Statuses map[string]protocol.AgentStatus

	// Health is the defended server's integrity, clamped to [0, 100]. It
	// only decreases, except on Reset.
	Health int

	// IsHit pulses true for hitPulseDuration after nonzero damage.
	IsHit bool

	// MitigationScore and DefenseDesc track the last-known defensive
	// posture; updated only when an IMPACT carries them.
	MitigationScore int
	DefenseDesc     string

	// Proposal is a single-slot register: a new PROPOSAL overwrites any
	// unresolved prior one, and a decision clears it.
	Proposal *protocol.Proposal

	CodeData           *protocol.CodeResponse
	EducationalContent string
}

func newGameState() GameState {
	return GameState{
		Messages: make(map[string]string),
		Statuses: make(map[string]protocol.AgentStatus),
		Health:   initialHealth,
	}
}

// clone returns a copy safe to hand to consumers while the reducer keeps
// mutating the original.
func (s GameState) clone() GameState {
	out := s
	out.Messages = make(map[string]string, len(s.Messages))
	for k, v := range s.Messages {
		out.Messages[k] = v
	}
	out.Statuses = make(map[string]protocol.AgentStatus, len(s.Statuses))
	for k, v := range s.Statuses {
		out.Statuses[k] = v
	}
	if s.Proposal != nil {
		p := *s.Proposal
		out.Proposal = &p
	}
	if s.CodeData != nil {
		c := *s.CodeData
		out.CodeData = &c
	}
	return out
}

// reduce applies exactly one event to the state, touching only the fields
// that event type owns. It reports whether the event should trigger the
// hit pulse; the timer itself belongs to the Session.
func reduce(s *GameState, ev protocol.Event) (hit bool) {
	switch ev := ev.(type) {
	case protocol.StateUpdate:
		if ev.Agent == "" || !ev.Status.Valid() {
			return false
		}
		s.Statuses[ev.Agent] = ev.Status

	case protocol.NewMessage:
		if ev.Agent == "" {
			return false
		}
		s.Messages[ev.Agent] = ev.Text

	case protocol.Impact:
		damage := ev.DamageTaken
		if damage < 0 {
			damage = 0
		}
		s.Health -= damage
		if s.Health < 0 {
			s.Health = 0
		}
		if ev.MitigationScore != nil {
			s.MitigationScore = *ev.MitigationScore
		}
		if ev.DefenseDesc != nil {
			s.DefenseDesc = *ev.DefenseDesc
		}
		if damage > 0 {
			s.IsHit = true
			return true
		}

	case protocol.Proposal:
		p := ev
		s.Proposal = &p

	case protocol.CodeResponse:
		c := ev
		s.CodeData = &c

	case protocol.EducationalResponse:
		s.EducationalContent = ev.EduText
	}

	return false
}
