package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/zhafran/support-triage/agent/contract"
	toolx "github.com/zhafran/support-triage/agent/tool"
)

// routerImpl is the LLM-backed triage decision. It runs in two phases like
// the specialists: an optional tool-planning call with the triage catalog
// bound, then a structured call that must yield a route target.
type routerImpl struct {
	toolRunner       compose.Runnable[map[string]any, *schema.Message]
	structuredRunner compose.Runnable[map[string]any, routerLLMOutput]
	gateway          contractx.ToolGateway
	allowedTools     map[contractx.ToolID]struct{}
}

var _ contractx.Router = (*routerImpl)(nil)

type routerLLMOutput struct {
	Target string `json:"target"`
	Reason string `json:"reason,omitempty"`
}

func newRouter(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	gateway contractx.ToolGateway,
) (*routerImpl, error) {
	structuredRunner, err := compileRouterGraph(ctx, chatModel, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	infos, _ := toolx.BuildForAgent(contractx.AgentTypeTriage)
	toolModel, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind triage tools: %v", contractx.ErrModelInvoke, err)
	}
	toolRunner, err := compileToolPlanningGraph(ctx, toolModel, systemPrompt, "triage.tool_planning_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	allowed := make(map[contractx.ToolID]struct{}, len(infos))
	for _, info := range infos {
		if info == nil || strings.TrimSpace(info.Name) == "" {
			continue
		}
		allowed[contractx.ToolID(info.Name)] = struct{}{}
	}

	return &routerImpl{
		toolRunner:       toolRunner,
		structuredRunner: structuredRunner,
		gateway:          gateway,
		allowedTools:     allowed,
	}, nil
}

func (r *routerImpl) Route(ctx context.Context, req contractx.RouteRequest) (contractx.RouteDecision, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.RouteDecision{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	var toolResults []contractx.ToolResult
	if len(req.VisibleTools) > 0 {
		results, err := r.runToolPlanning(ctx, req)
		if err != nil {
			return contractx.RouteDecision{}, err
		}
		toolResults = results
	}

	payload := map[string]any{
		"mode":          "route",
		"user_message":  req.UserMessage,
		"user":          req.User,
		"visible_tools": req.VisibleTools,
		"tool_results":  toolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: marshal route payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.structuredRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: route invoke: %v", contractx.ErrModelInvoke, err)
	}

	target, err := parseRouteTarget(out.Target)
	if err != nil {
		return contractx.RouteDecision{}, err
	}

	return contractx.RouteDecision{
		Target: target,
		Reason: strings.TrimSpace(out.Reason),
	}, nil
}

func (r *routerImpl) runToolPlanning(ctx context.Context, req contractx.RouteRequest) ([]contractx.ToolResult, error) {
	payload := map[string]any{
		"mode":          "act",
		"user_message":  req.UserMessage,
		"user":          req.User,
		"visible_tools": req.VisibleTools,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal triage tool payload: %v", contractx.ErrValidation, err)
	}

	msg, err := r.toolRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: triage tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty triage tool planning response", contractx.ErrSchemaViolation)
	}

	reqs, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		// The model may route without consulting any tool.
		return nil, nil
	}

	for _, tr := range reqs {
		if _, ok := r.allowedTools[tr.Tool]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not in the triage catalog", contractx.ErrSchemaViolation, tr.Tool)
		}
	}

	return r.gateway.Execute(ctx, contractx.AgentTypeTriage, req.User, reqs)
}

func parseRouteTarget(raw string) (contractx.AgentType, error) {
	switch contractx.AgentType(strings.ToLower(strings.TrimSpace(raw))) {
	case contractx.AgentTypeTechnical:
		return contractx.AgentTypeTechnical, nil
	case contractx.AgentTypeBilling:
		return contractx.AgentTypeBilling, nil
	case contractx.AgentTypeRefund:
		return contractx.AgentTypeRefund, nil
	case contractx.RouteTargetUnrouted:
		return contractx.RouteTargetUnrouted, nil
	default:
		return "", fmt.Errorf("%w: unsupported route target=%q", contractx.ErrSchemaViolation, raw)
	}
}

func toToolRequests(calls []schema.ToolCall) ([]contractx.ToolRequest, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	reqs := make([]contractx.ToolRequest, 0, len(calls))
	for _, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		rawArgs := strings.TrimSpace(call.Function.Arguments)
		if rawArgs != "" {
			if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		reqs = append(reqs, contractx.ToolRequest{
			Tool: contractx.ToolID(name),
			Args: args,
		})
	}
	return reqs, nil
}
