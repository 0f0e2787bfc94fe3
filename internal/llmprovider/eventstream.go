package llmprovider

import (
	"context"
	"io"
	"sync"

	"github.com/agentcore/agentcore/internal/chatmodel"
)

// channelStream adapts a producer function writing to a channel into the
// Stream interface, so transports (HTTP SSE today, others later) can run
// their decode loop in a goroutine while the orchestrator drains Recv()
// synchronously.
type channelStream struct {
	events chan chatmodel.StreamEvent
	cancel context.CancelFunc
	done   chan struct{}
	errMu  sync.Mutex
	err    error
}

// newEventStream starts fn in a goroutine, which should write events to the
// provided channel and return nil on normal completion or an error to
// surface from Recv/Close.
func newEventStream(ctx context.Context, fn func(ctx context.Context, events chan<- chatmodel.StreamEvent) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &channelStream{
		events: make(chan chatmodel.StreamEvent, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.events)
		defer close(s.done)
		if err := fn(ctx, s.events); err != nil {
			s.errMu.Lock()
			s.err = err
			s.errMu.Unlock()
		}
	}()

	return s
}

func (s *channelStream) Recv() (chatmodel.StreamEvent, error) {
	event, ok := <-s.events
	if !ok {
		s.errMu.Lock()
		err := s.err
		s.errMu.Unlock()
		if err != nil {
			return chatmodel.StreamEvent{}, err
		}
		return chatmodel.StreamEvent{}, io.EOF
	}
	return event, nil
}

func (s *channelStream) Close() error {
	s.cancel()
	<-s.done
	return nil
}
