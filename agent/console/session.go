package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	triagex "github.com/zhafran/support-triage/agent/agents/triage"
	contractx "github.com/zhafran/support-triage/agent/contract"
)

const separator = "------------------------------------------------------------"

type Config struct {
	// Name is the display name used in the per-turn context.
	Name string `split_words:"true" default:"Areeba"`
}

// TurnHandler is what the session needs from the triage service.
type TurnHandler interface {
	HandleTurn(ctx context.Context, in triagex.TurnInput) (contractx.ReplyStream, triagex.TurnOutcome, error)
}

// Session is the interactive REPL. It reads one utterance and two context
// fields per turn, builds an immutable UserContext, and prints the streamed
// reply. No conversation state survives the turn.
type Session struct {
	name      string
	sessionID string
	handler   TurnHandler
	trace     contractx.TraceStore

	in  *bufio.Scanner
	out io.Writer

	now func() time.Time
}

func NewSession(cfg Config, handler TurnHandler, trace contractx.TraceStore, in io.Reader, out io.Writer) *Session {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Areeba"
	}
	if trace == nil {
		trace = noopTrace{}
	}
	return &Session{
		name:      name,
		sessionID: fmt.Sprintf("console-%d", time.Now().Unix()),
		handler:   handler,
		trace:     trace,
		in:        bufio.NewScanner(in),
		out:       out,
		now:       time.Now,
	}
}

// Run loops until the user types exit/quit or input reaches EOF.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "Console Support Agent System Started!")
	fmt.Fprintln(s.out, "Type 'exit' to quit.")
	fmt.Fprintln(s.out)

	for {
		text, ok := s.prompt("User Input: ")
		if !ok {
			return nil
		}
		if isExit(text) {
			fmt.Fprintln(s.out, "Exiting. Thank you!")
			return nil
		}

		issueRaw, ok := s.prompt("Enter issue type (technical / billing / refund): ")
		if !ok {
			return nil
		}
		premiumRaw, ok := s.prompt("Are you a premium user? (yes / no): ")
		if !ok {
			return nil
		}

		user := contractx.UserContext{
			Name:    s.name,
			Premium: parsePremium(premiumRaw),
			Issue:   contractx.ParseIssueType(issueRaw),
		}

		fmt.Fprintln(s.out)
		fmt.Fprintln(s.out, "Agent response:")
		fmt.Fprintln(s.out)

		s.runTurn(ctx, text, user)
	}
}

func (s *Session) runTurn(ctx context.Context, text string, user contractx.UserContext) {
	turnAt := s.now()

	stream, outcome, err := s.handler.HandleTurn(ctx, triagex.TurnInput{
		Text: text,
		User: user,
	})
	if err != nil {
		log.Error().Err(err).Msg("turn failed")
		fmt.Fprintln(s.out, "Something went wrong handling that request. Please try again.")
		return
	}
	defer stream.Close()

	reply, toolCalls := s.printStream(stream)

	rec := contractx.TurnRecord{
		SessionID: s.sessionID,
		TurnAt:    turnAt,
		UserName:  user.Name,
		Premium:   user.Premium,
		IssueType: user.Issue,
		Target:    outcome.Decision.Target,
		ToolCalls: toolCalls,
		Reply:     reply,
	}
	if err := s.trace.RecordTurn(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("record turn trace")
	}
}

// printStream consumes the ordered reply stream: named events on their own
// lines, deltas incrementally with a separator after each one.
func (s *Session) printStream(stream contractx.ReplyStream) (string, []contractx.ToolID) {
	var (
		reply     strings.Builder
		toolCalls []contractx.ToolID
	)

	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Error().Err(err).Msg("reply stream failed")
			break
		}

		if ev.Name != "" {
			fmt.Fprintf(s.out, "\nEvent Triggered: %s\n", ev.Name)
			if id, ok := strings.CutPrefix(ev.Name, "tool."); ok {
				toolCalls = append(toolCalls, contractx.ToolID(id))
			}
		}
		if ev.Delta != "" {
			fmt.Fprint(s.out, ev.Delta)
			fmt.Fprintf(s.out, "\n%s\n", separator)
			reply.WriteString(ev.Delta)
		}
	}

	return reply.String(), toolCalls
}

func (s *Session) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func isExit(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "exit", "quit":
		return true
	default:
		return false
	}
}

func parsePremium(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}

type noopTrace struct{}

func (noopTrace) RecordTurn(context.Context, contractx.TurnRecord) error {
	return nil
}
