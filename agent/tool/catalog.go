package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/zhafran/support-triage/agent/contract"
)

// Executor runs one tool against the current turn context. Visibility is
// re-checked on every call; a tool outside the turn's visible set produces a
// ToolResult carrying an error string, never a Go error.
type Executor func(ctx context.Context, user contractx.UserContext, tool contractx.ToolID, args map[string]any) (contractx.ToolResult, error)

func BuildForAgent(agentType contractx.AgentType) ([]*schema.ToolInfo, Executor) {
	return infosForAgent(agentType), NewExecutor(agentType)
}

func NewExecutor(agentType contractx.AgentType) Executor {
	fallback := DefaultExecutor(agentType)
	return func(ctx context.Context, user contractx.UserContext, tool contractx.ToolID, args map[string]any) (contractx.ToolResult, error) {
		if !inCatalog(agentType, tool) {
			return fallback(ctx, user, tool, args)
		}
		if !Enabled(tool, user.Issue, user.Premium) {
			return contractx.ToolResult{
				Tool:  tool,
				Error: fmt.Sprintf("tool=%s is not available for this turn", tool),
			}, nil
		}
		switch tool {
		case contractx.ToolRefund:
			return executeRefund(user), nil
		case contractx.ToolCheckIssueType:
			return executeCheckIssueType(user), nil
		case contractx.ToolRestartService:
			return executeRestartService(user), nil
		default:
			return fallback(ctx, user, tool, args)
		}
	}
}

func DefaultExecutor(agentType contractx.AgentType) Executor {
	return func(_ context.Context, _ contractx.UserContext, tool contractx.ToolID, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agentType),
		}, nil
	}
}

func catalogToolIDs(agentType contractx.AgentType) []contractx.ToolID {
	switch agentType {
	case contractx.AgentTypeTriage:
		return []contractx.ToolID{contractx.ToolCheckIssueType}
	case contractx.AgentTypeTechnical:
		return []contractx.ToolID{contractx.ToolRestartService}
	case contractx.AgentTypeRefund:
		return []contractx.ToolID{contractx.ToolRefund}
	default:
		return nil
	}
}

func inCatalog(agentType contractx.AgentType, tool contractx.ToolID) bool {
	for _, id := range catalogToolIDs(agentType) {
		if id == tool {
			return true
		}
	}
	return false
}

func infosForAgent(agentType contractx.AgentType) []*schema.ToolInfo {
	var infos []*schema.ToolInfo
	for _, id := range catalogToolIDs(agentType) {
		infos = append(infos, toolInfo(id))
	}
	return infos
}

func toolInfo(id contractx.ToolID) *schema.ToolInfo {
	switch id {
	case contractx.ToolRefund:
		return &schema.ToolInfo{
			Name:        string(contractx.ToolRefund),
			Desc:        "Process a refund for the current user. Refunds complete only for premium users.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}
	case contractx.ToolCheckIssueType:
		return &schema.ToolInfo{
			Name:        string(contractx.ToolCheckIssueType),
			Desc:        "Return the user's issue type to help route non-premium users.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}
	case contractx.ToolRestartService:
		return &schema.ToolInfo{
			Name:        string(contractx.ToolRestartService),
			Desc:        "Restart the user's service (technical support).",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		}
	default:
		return nil
	}
}

// Gateway dispatches tool requests to per-agent executors.
type Gateway struct {
	executors map[contractx.AgentType]Executor
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway() *Gateway {
	agents := []contractx.AgentType{
		contractx.AgentTypeTriage,
		contractx.AgentTypeTechnical,
		contractx.AgentTypeBilling,
		contractx.AgentTypeRefund,
	}
	executors := make(map[contractx.AgentType]Executor, len(agents))
	for _, agent := range agents {
		executors[agent] = NewExecutor(agent)
	}
	return &Gateway{executors: executors}
}

func (g *Gateway) Execute(
	ctx context.Context,
	agentType contractx.AgentType,
	user contractx.UserContext,
	reqs []contractx.ToolRequest,
) ([]contractx.ToolResult, error) {
	executor, ok := g.executors[agentType]
	if !ok {
		executor = DefaultExecutor(agentType)
	}

	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		out, err := executor(ctx, user, req.Tool, req.Args)
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}
