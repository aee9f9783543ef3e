package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/zhafran/support-triage/agent/contract"
	toolx "github.com/zhafran/support-triage/agent/tool"
)

type GraphInput struct {
	Text string
	User contractx.UserContext
}

type GraphOutput struct {
	Decision contractx.RouteDecision
	Request  contractx.SpecialistRequest
}

type graphState struct {
	Text     string
	User     contractx.UserContext
	Decision contractx.RouteDecision
}

func (s *Service) compileTurnGraph(ctx context.Context) (compose.Runnable[GraphInput, GraphOutput], error) {
	graph := compose.NewGraph[GraphInput, GraphOutput]()

	if err := graph.AddLambdaNode("validate_turn",
		compose.InvokableLambda(func(ctx context.Context, in GraphInput) (*graphState, error) {
			return validateTurn(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_turn: %w", err)
	}

	if err := graph.AddLambdaNode("plan_route",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			if in == nil {
				return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			decision, err := s.models.Router().Route(ctx, contractx.RouteRequest{
				UserMessage:  in.Text,
				User:         in.User,
				VisibleTools: toolx.VisibleFor(contractx.AgentTypeTriage, in.User),
			})
			if err != nil {
				return nil, err
			}
			in.Decision = decision
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_route: %w", err)
	}

	if err := graph.AddLambdaNode("mark_unrouted",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (*graphState, error) {
			if in == nil {
				return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			in.Decision = contractx.RouteDecision{
				Target: contractx.RouteTargetUnrouted,
				Reason: "issue type is not one of technical, billing, refund",
			}
			return in, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node mark_unrouted: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_decision",
		compose.InvokableLambda(func(ctx context.Context, in *graphState) (GraphOutput, error) {
			if in == nil {
				return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			return GraphOutput{
				Decision: in.Decision,
				Request: contractx.SpecialistRequest{
					UserMessage: in.Text,
					User:        in.User,
					RouteReason: in.Decision.Reason,
				},
			}, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_decision: %w", err)
	}

	// Unknown issue types never reach the router; they resolve to the
	// explicit unrouted outcome deterministically.
	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *graphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.User.Issue == contractx.IssueUnknown {
				return "mark_unrouted", nil
			}
			return "plan_route", nil
		},
		map[string]bool{
			"plan_route":    true,
			"mark_unrouted": true,
		},
	)

	if err := graph.AddBranch("validate_turn", branch); err != nil {
		return nil, fmt.Errorf("add turn branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_turn"},
		{"plan_route", "finalize_decision"},
		{"mark_unrouted", "finalize_decision"},
		{"finalize_decision", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("triage.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile triage graph: %w", err)
	}
	return runner, nil
}

func validateTurn(in GraphInput) (*graphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, contractx.ErrEmptyInput
	}
	return &graphState{
		Text: text,
		User: in.User,
	}, nil
}
