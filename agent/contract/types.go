package contract

import (
	"strings"
	"time"
)

type AgentType string

const (
	AgentTypeTriage    AgentType = "triage"
	AgentTypeTechnical AgentType = "technical"
	AgentTypeBilling   AgentType = "billing"
	AgentTypeRefund    AgentType = "refund"
)

// IssueType is the three-way issue category supplied by the user each turn.
// Free text that does not match a known category parses to IssueUnknown and
// is treated as an explicit unrouted state, never guessed.
type IssueType string

const (
	IssueTechnical IssueType = "technical"
	IssueBilling   IssueType = "billing"
	IssueRefund    IssueType = "refund"
	IssueUnknown   IssueType = "unknown"
)

func ParseIssueType(raw string) IssueType {
	switch IssueType(strings.ToLower(strings.TrimSpace(raw))) {
	case IssueTechnical:
		return IssueTechnical
	case IssueBilling:
		return IssueBilling
	case IssueRefund:
		return IssueRefund
	default:
		return IssueUnknown
	}
}

// UserContext is the per-turn context record. It is built once per turn,
// never mutated afterwards, and discarded when the turn ends.
type UserContext struct {
	Name    string    `json:"name"`
	Premium bool      `json:"premium"`
	Issue   IssueType `json:"issue_type"`
}

type ToolID string

const (
	ToolRefund         ToolID = "refund"
	ToolCheckIssueType ToolID = "check_issue_type"
	ToolRestartService ToolID = "restart_service"
)

// RouteTargetUnrouted marks a turn that cannot be handed to any specialist.
const RouteTargetUnrouted AgentType = "unrouted"

type RouteRequest struct {
	UserMessage string      `json:"user_message"`
	User        UserContext `json:"user"`
	// VisibleTools is the tool set offered to the routing model this turn.
	VisibleTools []ToolID `json:"visible_tools,omitempty"`
}

type RouteDecision struct {
	Target AgentType `json:"target"`
	Reason string    `json:"reason,omitempty"`
}

func (d RouteDecision) Unrouted() bool {
	return d.Target == RouteTargetUnrouted
}

type SpecialistRequest struct {
	UserMessage string      `json:"user_message"`
	User        UserContext `json:"user"`
	RouteReason string      `json:"route_reason,omitempty"`
}

type ToolRequest struct {
	Tool ToolID         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   ToolID `json:"tool"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ReplyEvent is one element of the ordered output stream for a turn.
// Name carries runtime events (handoffs, tool executions); Delta carries
// incremental answer text. A single event sets at most one of the two.
type ReplyEvent struct {
	Name  string `json:"name,omitempty"`
	Delta string `json:"delta,omitempty"`
}

// TurnRecord is the audit row written after a turn completes. It is written
// out only; nothing reads it back into later turns.
type TurnRecord struct {
	SessionID string    `json:"session_id"`
	TurnAt    time.Time `json:"turn_at"`
	UserName  string    `json:"user_name"`
	Premium   bool      `json:"premium"`
	IssueType IssueType `json:"issue_type"`
	Target    AgentType `json:"target"`
	ToolCalls []ToolID  `json:"tool_calls,omitempty"`
	Reply     string    `json:"reply"`
}
