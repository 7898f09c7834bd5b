// Package protocol defines the JSON wire format exchanged between the
// arena server and its clients: one JSON object per WebSocket text frame,
// discriminated by a top-level "type" field.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Server → Client event types
const (
	TypeStateUpdate         = "STATE_UPDATE"
	TypeNewMessage          = "NEW_MESSAGE"
	TypeImpact              = "IMPACT"
	TypeProposal            = "PROPOSAL"
	TypeCodeResponse        = "CODE_RESPONSE"
	TypeEducationalResponse = "EDUCATIONAL_RESPONSE"
)

// Client → Server command types
const (
	TypeStart     = "START"
	TypeSummarize = "SUMMARIZE"
	TypeGetCode   = "GET_CODE"
	TypeExplain   = "EXPLAIN"
	TypeDecision  = "DECISION"
)

// AgentStatus is the transient activity indicator carried by STATE_UPDATE.
type AgentStatus string

const (
	StatusIdle     AgentStatus = "IDLE"
	StatusThinking AgentStatus = "THINKING"
	StatusActing   AgentStatus = "ACTING"
)

func (s AgentStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusThinking, StatusActing:
		return true
	}
	return false
}

// Event is one of the server → client event structs.
type Event interface {
	EventType() string
}

// Command is one of the client → server command structs.
type Command interface {
	CommandType() string
}

// Server → Client events

type StateUpdate struct {
	Type   string      `json:"type"`
	Agent  string      `json:"agent"`
	Status AgentStatus `json:"status"`
}

type NewMessage struct {
	Type  string `json:"type"`
	Agent string `json:"agent"`
	Text  string `json:"text"`
}

// Impact carries the resolution of an attack round. MitigationScore and
// DefenseDesc are optional on the wire; pointers distinguish absent from zero.
type Impact struct {
	Type            string  `json:"type"`
	DamageTaken     int     `json:"damage_taken"`
	MitigationScore *int    `json:"mitigation_score,omitempty"`
	DefenseDesc     *string `json:"defense_desc,omitempty"`
}

type Proposal struct {
	Type        string `json:"type"`
	Team        string `json:"team"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

type CodeResponse struct {
	Type        string `json:"type"`
	Team        string `json:"team"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type EducationalResponse struct {
	Type    string `json:"type"`
	EduText string `json:"edu_text"`
}

func (e StateUpdate) EventType() string         { return TypeStateUpdate }
func (e NewMessage) EventType() string          { return TypeNewMessage }
func (e Impact) EventType() string              { return TypeImpact }
func (e Proposal) EventType() string            { return TypeProposal }
func (e CodeResponse) EventType() string        { return TypeCodeResponse }
func (e EducationalResponse) EventType() string { return TypeEducationalResponse }

// Event constructors fill in the discriminator so callers cannot forget it.

func NewStateUpdate(agent string, status AgentStatus) StateUpdate {
	return StateUpdate{Type: TypeStateUpdate, Agent: agent, Status: status}
}

func NewAgentMessage(agent, text string) NewMessage {
	return NewMessage{Type: TypeNewMessage, Agent: agent, Text: text}
}

func NewImpact(damage int) Impact {
	return Impact{Type: TypeImpact, DamageTaken: damage}
}

func NewDefendedImpact(damage, mitigation int, defenseDesc string) Impact {
	return Impact{
		Type:            TypeImpact,
		DamageTaken:     damage,
		MitigationScore: &mitigation,
		DefenseDesc:     &defenseDesc,
	}
}

func NewProposal(team, action, description string) Proposal {
	return Proposal{Type: TypeProposal, Team: team, Action: action, Description: description}
}

func NewCodeResponse(team, code, title, description string) CodeResponse {
	return CodeResponse{Type: TypeCodeResponse, Team: team, Code: code, Title: title, Description: description}
}

func NewEducationalResponse(text string) EducationalResponse {
	return EducationalResponse{Type: TypeEducationalResponse, EduText: text}
}

// Client → Server commands

type StartCommand struct {
	Type    string `json:"type"`
	Mission string `json:"mission"`
}

type SummarizeCommand struct {
	Type string `json:"type"`
	Team string `json:"team"`
}

type GetCodeCommand struct {
	Type string `json:"type"`
	Team string `json:"team"`
}

type ExplainCommand struct {
	Type string `json:"type"`
}

type DecisionCommand struct {
	Type     string `json:"type"`
	Approved bool   `json:"approved"`
}

func (c StartCommand) CommandType() string     { return TypeStart }
func (c SummarizeCommand) CommandType() string { return TypeSummarize }
func (c GetCodeCommand) CommandType() string   { return TypeGetCode }
func (c ExplainCommand) CommandType() string   { return TypeExplain }
func (c DecisionCommand) CommandType() string  { return TypeDecision }

func NewStartCommand(mission string) StartCommand {
	return StartCommand{Type: TypeStart, Mission: mission}
}

func NewSummarizeCommand(team string) SummarizeCommand {
	return SummarizeCommand{Type: TypeSummarize, Team: team}
}

func NewGetCodeCommand(team string) GetCodeCommand {
	return GetCodeCommand{Type: TypeGetCode, Team: team}
}

func NewExplainCommand() ExplainCommand {
	return ExplainCommand{Type: TypeExplain}
}

func NewDecisionCommand(approved bool) DecisionCommand {
	return DecisionCommand{Type: TypeDecision, Approved: approved}
}

// DecodeEvent parses one inbound frame into its typed event. Frames with an
// unknown type or missing mandatory fields are rejected; the caller logs and
// drops them without touching state.
func DecodeEvent(data []byte) (Event, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	switch env.Type {
	case TypeStateUpdate:
		var ev StateUpdate
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if ev.Agent == "" || !ev.Status.Valid() {
			return nil, fmt.Errorf("%s missing agent or status", env.Type)
		}
		return ev, nil

	case TypeNewMessage:
		var ev NewMessage
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if ev.Agent == "" {
			return nil, fmt.Errorf("%s missing agent", env.Type)
		}
		return ev, nil

	case TypeImpact:
		var ev Impact
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if ev.DamageTaken < 0 {
			return nil, fmt.Errorf("%s negative damage", env.Type)
		}
		return ev, nil

	case TypeProposal:
		var ev Proposal
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if ev.Team == "" || ev.Action == "" {
			return nil, fmt.Errorf("%s missing team or action", env.Type)
		}
		return ev, nil

	case TypeCodeResponse:
		var ev CodeResponse
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil

	case TypeEducationalResponse:
		var ev EducationalResponse
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return ev, nil
	}

	return nil, fmt.Errorf("unknown event type %q", env.Type)
}

// DecodeCommand parses one outbound-direction frame on the server side.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command envelope: %w", err)
	}

	switch env.Type {
	case TypeStart:
		var c StartCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		if c.Mission == "" {
			return nil, fmt.Errorf("%s missing mission", env.Type)
		}
		return c, nil

	case TypeSummarize:
		var c SummarizeCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil

	case TypeGetCode:
		var c GetCodeCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil

	case TypeExplain:
		var c ExplainCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil

	case TypeDecision:
		var c DecisionCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil
	}

	return nil, fmt.Errorf("unknown command type %q", env.Type)
}
