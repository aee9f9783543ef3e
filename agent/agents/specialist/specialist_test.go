package specialist

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/zhafran/support-triage/agent/contract"
	toolx "github.com/zhafran/support-triage/agent/tool"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	streamed  []*schema.Message
	err       error
	idx       int
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	if f.err != nil {
		return nil, f.err
	}
	return schema.StreamReaderFromArray(f.streamed), nil
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return f, nil
}

func drainStream(t *testing.T, stream contractx.ReplyStream) []contractx.ReplyEvent {
	t.Helper()
	var events []contractx.ReplyEvent
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		events = append(events, ev)
	}
}

func TestRouterRouteSuccess(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"target":"technical","reason":"issue_type is technical"}`},
		},
	}

	router, err := newRouter(context.Background(), fake, "triage prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}

	out, err := router.Route(context.Background(), contractx.RouteRequest{
		UserMessage: "my app keeps crashing",
		User:        contractx.UserContext{Name: "Areeba", Premium: true, Issue: contractx.IssueTechnical},
	})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if out.Target != contractx.AgentTypeTechnical {
		t.Fatalf("unexpected target: %s", out.Target)
	}
	if out.Reason == "" {
		t.Fatal("expected a route reason")
	}
}

func TestRouterRouteWithToolPhase(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				ToolCalls: []schema.ToolCall{
					{Function: schema.FunctionCall{Name: "check_issue_type", Arguments: "{}"}},
				},
			},
			{Content: `{"target":"billing","reason":"check_issue_type returned billing"}`},
		},
	}

	router, err := newRouter(context.Background(), fake, "triage prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}

	out, err := router.Route(context.Background(), contractx.RouteRequest{
		UserMessage:  "why was I charged twice",
		User:         contractx.UserContext{Name: "Areeba", Premium: false, Issue: contractx.IssueBilling},
		VisibleTools: []contractx.ToolID{contractx.ToolCheckIssueType},
	})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if out.Target != contractx.AgentTypeBilling {
		t.Fatalf("unexpected target: %s", out.Target)
	}
}

func TestRouterRouteUnrouted(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"target":"unrouted","reason":"no matching specialist"}`},
		},
	}

	router, err := newRouter(context.Background(), fake, "triage prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}

	out, err := router.Route(context.Background(), contractx.RouteRequest{
		UserMessage: "tell me a joke",
		User:        contractx.UserContext{Name: "Areeba", Premium: true, Issue: contractx.IssueBilling},
	})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if !out.Unrouted() {
		t.Fatalf("expected unrouted decision, got %s", out.Target)
	}
}

func TestRouterRouteInvalidTarget(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{Content: `{"target":"sales","reason":"?"}`},
		},
	}

	router, err := newRouter(context.Background(), fake, "triage prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}

	_, err = router.Route(context.Background(), contractx.RouteRequest{
		UserMessage: "hello",
		User:        contractx.UserContext{Name: "Areeba", Issue: contractx.IssueBilling},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestRouterRouteEmptyMessage(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{}

	router, err := newRouter(context.Background(), fake, "triage prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}

	_, err = router.Route(context.Background(), contractx.RouteRequest{UserMessage: "   "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSpecialistReplyWithToolEvents(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				ToolCalls: []schema.ToolCall{
					{Function: schema.FunctionCall{Name: "restart_service", Arguments: "{}"}},
				},
			},
		},
		streamed: []*schema.Message{
			{Content: "I restarted "},
			{Content: "your service, Areeba."},
		},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeTechnical, fake, "technical prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	stream, err := spec.Reply(context.Background(), contractx.SpecialistRequest{
		UserMessage: "please restart my service",
		User:        contractx.UserContext{Name: "Areeba", Premium: true, Issue: contractx.IssueTechnical},
	})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	defer stream.Close()

	events := drainStream(t, stream)
	if len(events) < 2 {
		t.Fatalf("expected tool event plus deltas, got %#v", events)
	}
	if events[0].Name != "tool.restart_service" {
		t.Fatalf("unexpected first event: %#v", events[0])
	}

	var reply strings.Builder
	for _, ev := range events[1:] {
		reply.WriteString(ev.Delta)
	}
	if reply.String() != "I restarted your service, Areeba." {
		t.Fatalf("unexpected reply: %q", reply.String())
	}
}

func TestSpecialistReplyWithoutTools(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		streamed: []*schema.Message{
			{Content: "The duplicate charge "},
			{Content: "has been explained."},
		},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeBilling, fake, "billing prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	stream, err := spec.Reply(context.Background(), contractx.SpecialistRequest{
		UserMessage: "why was I charged twice",
		User:        contractx.UserContext{Name: "Areeba", Premium: false, Issue: contractx.IssueBilling},
	})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	defer stream.Close()

	events := drainStream(t, stream)
	for _, ev := range events {
		if ev.Name != "" {
			t.Fatalf("billing has no tools, got event %#v", ev)
		}
	}
}

func TestSpecialistReplySkipsToolPhaseWhenGated(t *testing.T) {
	t.Parallel()

	// no Generate responses: a tool-planning call would fail the test
	fake := &fakeToolCallingModel{
		streamed: []*schema.Message{
			{Content: "Answer without tools."},
		},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeTechnical, fake, "technical prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	// restart_service is gated off for billing issues
	stream, err := spec.Reply(context.Background(), contractx.SpecialistRequest{
		UserMessage: "hello",
		User:        contractx.UserContext{Name: "Areeba", Premium: true, Issue: contractx.IssueBilling},
	})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	defer stream.Close()

	events := drainStream(t, stream)
	if len(events) != 1 || events[0].Delta != "Answer without tools." {
		t.Fatalf("unexpected events: %#v", events)
	}
}

func TestSpecialistReplyRejectsForeignTool(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			{
				ToolCalls: []schema.ToolCall{
					{Function: schema.FunctionCall{Name: "refund", Arguments: "{}"}},
				},
			},
		},
	}

	spec, err := newSpecialist(context.Background(), contractx.AgentTypeTechnical, fake, "technical prompt", toolx.NewGateway())
	if err != nil {
		t.Fatalf("newSpecialist() error = %v", err)
	}

	_, err = spec.Reply(context.Background(), contractx.SpecialistRequest{
		UserMessage: "please refund me",
		User:        contractx.UserContext{Name: "Areeba", Premium: true, Issue: contractx.IssueTechnical},
	})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}
