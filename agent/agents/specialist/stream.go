package specialist

import (
	"io"
	"sync"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/zhafran/support-triage/agent/contract"
)

// replyStream drains buffered events (handoff and tool markers) before
// handing off to the model's delta stream.
type replyStream struct {
	pending []contractx.ReplyEvent
	inner   *schema.StreamReader[contractx.ReplyEvent]

	closeOnce sync.Once
}

var _ contractx.ReplyStream = (*replyStream)(nil)

func newReplyStream(pending []contractx.ReplyEvent, inner *schema.StreamReader[contractx.ReplyEvent]) *replyStream {
	return &replyStream{pending: pending, inner: inner}
}

func (s *replyStream) Recv() (contractx.ReplyEvent, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}
	if s.inner == nil {
		return contractx.ReplyEvent{}, io.EOF
	}
	return s.inner.Recv()
}

func (s *replyStream) Close() {
	s.closeOnce.Do(func() {
		if s.inner != nil {
			s.inner.Close()
		}
	})
}

// deltaEvents converts a message chunk stream into delta events, dropping
// empty chunks.
func deltaEvents(msgs *schema.StreamReader[*schema.Message]) *schema.StreamReader[contractx.ReplyEvent] {
	return schema.StreamReaderWithConvert(msgs, func(msg *schema.Message) (contractx.ReplyEvent, error) {
		if msg == nil || msg.Content == "" {
			return contractx.ReplyEvent{}, schema.ErrNoValue
		}
		return contractx.ReplyEvent{Delta: msg.Content}, nil
	})
}
