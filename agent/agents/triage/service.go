package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/zhafran/support-triage/agent/contract"
)

// UnroutedReply is the fixed response for issue types no specialist handles.
const UnroutedReply = "Sorry, I can only help with technical, billing, or refund issues. Please choose one of those issue types."

type TurnInput struct {
	Text string
	User contractx.UserContext
}

// TurnOutcome reports what the turn resolved to, for callers that audit
// completed turns.
type TurnOutcome struct {
	Decision contractx.RouteDecision
}

// Service owns one conversation turn: validate, route, dispatch, stream.
type Service struct {
	models contractx.Registry

	graphRunner compose.Runnable[GraphInput, GraphOutput]
}

func New(models contractx.Registry) (*Service, error) {
	if models == nil {
		return nil, errors.New("model registry is required")
	}

	s := &Service{
		models: models,
	}

	graphRunner, err := s.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleTurn routes the utterance and returns the reply stream for it,
// together with the routing outcome. The context record in the input is
// treated as immutable and is not retained after the stream ends.
func (s *Service) HandleTurn(ctx context.Context, in TurnInput) (contractx.ReplyStream, TurnOutcome, error) {
	out, err := s.graphRunner.Invoke(ctx, GraphInput{
		Text: in.Text,
		User: in.User,
	})
	if err != nil {
		return nil, TurnOutcome{}, err
	}

	outcome := TurnOutcome{Decision: out.Decision}

	if out.Decision.Unrouted() {
		log.Debug().
			Str("issue_type", string(in.User.Issue)).
			Msg("turn resolved as unrouted")
		return NewStaticStream(
			contractx.ReplyEvent{Name: "triage.unrouted"},
			contractx.ReplyEvent{Delta: UnroutedReply},
		), outcome, nil
	}

	specialist, err := s.pickSpecialist(out.Decision.Target)
	if err != nil {
		return nil, TurnOutcome{}, err
	}

	stream, err := specialist.Reply(ctx, out.Request)
	if err != nil {
		return nil, TurnOutcome{}, err
	}

	log.Debug().
		Str("target", string(out.Decision.Target)).
		Str("reason", out.Decision.Reason).
		Msg("turn handed off to specialist")

	handoff := contractx.ReplyEvent{
		Name: fmt.Sprintf("handoff.%s_agent", out.Decision.Target),
	}
	return newPrependStream([]contractx.ReplyEvent{handoff}, stream), outcome, nil
}

func (s *Service) pickSpecialist(target contractx.AgentType) (contractx.Specialist, error) {
	switch target {
	case contractx.AgentTypeTechnical:
		return s.models.Technical(), nil
	case contractx.AgentTypeBilling:
		return s.models.Billing(), nil
	case contractx.AgentTypeRefund:
		return s.models.Refund(), nil
	default:
		return nil, fmt.Errorf("%w: no specialist for target=%q", contractx.ErrUnrouted, target)
	}
}
