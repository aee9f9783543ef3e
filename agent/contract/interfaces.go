package contract

import "context"

// Router decides which specialist receives the turn. The decision is made by
// an external model and is inherently non-deterministic; callers must treat
// it as an injected dependency, not reproducible logic.
type Router interface {
	Route(ctx context.Context, req RouteRequest) (RouteDecision, error)
}

// Specialist answers a routed turn with an ordered event stream.
type Specialist interface {
	Reply(ctx context.Context, req SpecialistRequest) (ReplyStream, error)
}

type Registry interface {
	Router() Router
	Technical() Specialist
	Billing() Specialist
	Refund() Specialist
}

// ToolGateway executes tool requests on behalf of an agent. Implementations
// re-check tool visibility against the turn context before running a body.
type ToolGateway interface {
	Execute(ctx context.Context, agentType AgentType, user UserContext, reqs []ToolRequest) ([]ToolResult, error)
}

// ReplyStream is a single-consumer ordered stream of turn output. Recv
// returns io.EOF after the last event. Close is safe to call more than once.
type ReplyStream interface {
	Recv() (ReplyEvent, error)
	Close()
}

type TraceStore interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
}
