package generation

import (
	"context"
	"errors"
	"strings"
	"sync"

	"contentforge/internal/types"
)

// Stream is a finite, pull-based sequence of text fragments.
//
//	s, err := client.GenerateStream(ctx, sys, user, opts)
//	if err != nil { ... }
//	defer s.Close()
//	for s.Next() {
//		fmt.Print(s.Text())
//	}
//	if err := s.Err(); err != nil { ... }
//
// A Stream is not safe for concurrent use and cannot be restarted.
// Abandoned streams must be closed; nothing cancels them implicitly.
type Stream struct {
	chunks chan string
	cancel context.CancelFunc
	src    streamSource

	current string
	text    strings.Builder
	drained bool
	closed  bool

	// written by the reader goroutine before chunks is closed
	usage streamUsage
	err   error

	finishOnce sync.Once
	onFinish   func(text string, u streamUsage, err error, abandoned bool) *types.Generation
	result     *types.Generation
}

func newStream(ctx context.Context, cancel context.CancelFunc, src streamSource,
	onFinish func(string, streamUsage, error, bool) *types.Generation) *Stream {
	s := &Stream{
		chunks:   make(chan string),
		cancel:   cancel,
		src:      src,
		onFinish: onFinish,
	}
	go s.run(ctx)
	return s
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.chunks)
	s.usage, s.err = s.src.pump(ctx, func(chunk string) bool {
		select {
		case s.chunks <- chunk:
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// Next advances to the next fragment. It returns false when the stream is
// exhausted, failed, or closed.
func (s *Stream) Next() bool {
	if s.drained || s.closed {
		return false
	}
	chunk, ok := <-s.chunks
	if !ok {
		s.drained = true
		s.finish(false)
		return false
	}
	s.current = chunk
	s.text.WriteString(chunk)
	return true
}

// Text returns the fragment produced by the last successful Next.
func (s *Stream) Text() string {
	return s.current
}

// Collected returns all text received so far.
func (s *Stream) Collected() string {
	return s.text.String()
}

// Err returns the error that ended the stream, if any. Closing a stream
// early is not an error.
func (s *Stream) Err() error {
	if !s.drained && !s.closed {
		return nil
	}
	if s.closed && !s.drained && errors.Is(s.err, context.Canceled) {
		return nil
	}
	return s.err
}

// Result returns the accounted generation once the stream has ended
// successfully or been closed; nil otherwise.
func (s *Stream) Result() *types.Generation {
	return s.result
}

// Close cancels the underlying request and waits for the reader goroutine.
// It is safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	for range s.chunks {
	}
	if !s.drained {
		s.finish(true)
	}
	return nil
}

func (s *Stream) finish(abandoned bool) {
	s.finishOnce.Do(func() {
		s.cancel()
		_ = s.src.close()
		s.result = s.onFinish(s.text.String(), s.usage, s.err, abandoned)
	})
}
