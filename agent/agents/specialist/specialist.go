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

type specialistImpl struct {
	agentType    contractx.AgentType
	toolRunner   compose.Runnable[map[string]any, *schema.Message] // nil when the role has no tools
	answerRunner compose.Runnable[map[string]any, *schema.Message]
	gateway      contractx.ToolGateway
	allowedTools map[contractx.ToolID]struct{}
}

var _ contractx.Specialist = (*specialistImpl)(nil)

func newSpecialist(
	ctx context.Context,
	agentType contractx.AgentType,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	gateway contractx.ToolGateway,
) (*specialistImpl, error) {
	answerRunner, err := compileAnswerGraph(ctx, chatModel, systemPrompt,
		fmt.Sprintf("%s.answer_graph", agentType))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	spec := &specialistImpl{
		agentType:    agentType,
		answerRunner: answerRunner,
		gateway:      gateway,
		allowedTools: map[contractx.ToolID]struct{}{},
	}

	infos, _ := toolx.BuildForAgent(agentType)
	if len(infos) > 0 {
		toolModel, err := chatModel.WithTools(infos)
		if err != nil {
			return nil, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, agentType, err)
		}
		toolRunner, err := compileToolPlanningGraph(ctx, toolModel, systemPrompt,
			fmt.Sprintf("%s.tool_planning_graph", agentType))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		spec.toolRunner = toolRunner

		for _, info := range infos {
			if info == nil || strings.TrimSpace(info.Name) == "" {
				continue
			}
			spec.allowedTools[contractx.ToolID(info.Name)] = struct{}{}
		}
	}

	return spec, nil
}

// Reply runs the optional tool phase, then streams the final answer. Tool
// executions surface as named events ahead of the token deltas.
func (s *specialistImpl) Reply(ctx context.Context, req contractx.SpecialistRequest) (contractx.ReplyStream, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return nil, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	var (
		events      []contractx.ReplyEvent
		toolResults []contractx.ToolResult
	)

	visible := toolx.VisibleFor(s.agentType, req.User)
	if s.toolRunner != nil && len(visible) > 0 {
		results, err := s.runToolPlanning(ctx, req, visible)
		if err != nil {
			return nil, err
		}
		toolResults = results
		for _, res := range toolResults {
			events = append(events, contractx.ReplyEvent{
				Name: fmt.Sprintf("tool.%s", res.Tool),
			})
		}
	}

	payload := map[string]any{
		"mode":         "answer",
		"user_message": req.UserMessage,
		"user":         req.User,
		"route_reason": req.RouteReason,
		"tool_results": toolResults,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal answer payload: %v", contractx.ErrValidation, err)
	}

	msgs, err := s.answerRunner.Stream(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: answer stream for specialist=%s: %v", contractx.ErrModelInvoke, s.agentType, err)
	}

	return newReplyStream(events, deltaEvents(msgs)), nil
}

func (s *specialistImpl) runToolPlanning(
	ctx context.Context,
	req contractx.SpecialistRequest,
	visible []contractx.ToolID,
) ([]contractx.ToolResult, error) {
	payload := map[string]any{
		"mode":          "act",
		"user_message":  req.UserMessage,
		"user":          req.User,
		"visible_tools": visible,
	}
	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal tool planning payload: %v", contractx.ErrValidation, err)
	}

	msg, err := s.toolRunner.Invoke(ctx, map[string]any{
		"input": string(input),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tool planning invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: empty tool planning response", contractx.ErrSchemaViolation)
	}

	reqs, err := toToolRequests(msg.ToolCalls)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		// The model may answer without tools even when they are offered.
		return nil, nil
	}

	for _, tr := range reqs {
		if _, ok := s.allowedTools[tr.Tool]; !ok {
			return nil, fmt.Errorf("%w: tool=%s is not allowed for agent=%s", contractx.ErrSchemaViolation, tr.Tool, s.agentType)
		}
	}

	return s.gateway.Execute(ctx, s.agentType, req.User, reqs)
}
