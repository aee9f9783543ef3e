package triage

import (
	"io"

	contractx "github.com/zhafran/support-triage/agent/contract"
)

type staticStream struct {
	events []contractx.ReplyEvent
}

var _ contractx.ReplyStream = (*staticStream)(nil)

// NewStaticStream returns a stream that replays fixed events and then EOFs.
func NewStaticStream(events ...contractx.ReplyEvent) contractx.ReplyStream {
	return &staticStream{events: events}
}

func (s *staticStream) Recv() (contractx.ReplyEvent, error) {
	if len(s.events) == 0 {
		return contractx.ReplyEvent{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *staticStream) Close() {}

type prependStream struct {
	pending []contractx.ReplyEvent
	inner   contractx.ReplyStream
}

var _ contractx.ReplyStream = (*prependStream)(nil)

func newPrependStream(pending []contractx.ReplyEvent, inner contractx.ReplyStream) *prependStream {
	return &prependStream{pending: pending, inner: inner}
}

func (s *prependStream) Recv() (contractx.ReplyEvent, error) {
	if len(s.pending) > 0 {
		ev := s.pending[0]
		s.pending = s.pending[1:]
		return ev, nil
	}
	return s.inner.Recv()
}

func (s *prependStream) Close() {
	if s.inner != nil {
		s.inner.Close()
	}
}
