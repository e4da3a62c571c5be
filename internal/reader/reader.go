// Package reader defines the external collaborator contracts a Tree Builder
// consumes sample data through, plus one concrete SampleReader implementation
// for the textual "collapsed stack" format.
//
// Production readers for binary *.pflw sample files and *.libmap library maps
// are external collaborators and are not implemented here; the collapsed
// reader below is the one format this repository parses directly.
package reader

import (
	"context"
	"io"

	"github.com/perftree/perftree/pkg/model"
)

// SampleReader yields one CallStack per call. It returns io.EOF once
// exhausted. Frames within each CallStack are deepest-first; ProcessID and
// DurationUs must be non-negative.
type SampleReader interface {
	Next(ctx context.Context) (model.CallStack, error)
	Close() error
}

// OffsetResolver maps a raw instruction address, in the context of a process,
// to a resolved Frame. A resolution failure is not a hard error: callers
// substitute model.UnknownFrame() and continue processing the sample.
type OffsetResolver interface {
	Resolve(processID int, address uint64) (model.Frame, error)
}

// SliceReader implements SampleReader over an in-memory slice of call
// stacks. Used by tests and by callers that have already decoded their
// samples through some other path.
type SliceReader struct {
	stacks []model.CallStack
	pos    int
}

// NewSliceReader wraps stacks as a SampleReader.
func NewSliceReader(stacks []model.CallStack) *SliceReader {
	return &SliceReader{stacks: stacks}
}

// Next implements SampleReader.
func (s *SliceReader) Next(ctx context.Context) (model.CallStack, error) {
	select {
	case <-ctx.Done():
		return model.CallStack{}, ctx.Err()
	default:
	}
	if s.pos >= len(s.stacks) {
		return model.CallStack{}, io.EOF
	}
	st := s.stacks[s.pos]
	s.pos++
	return st, nil
}

// Close implements SampleReader.
func (s *SliceReader) Close() error { return nil }

// ReadAll drains a SampleReader into a slice. Every builder concurrency model
// reads each reader through it in full before inserting that reader's
// stacks; none of them streams stack by stack.
func ReadAll(ctx context.Context, r SampleReader) ([]model.CallStack, error) {
	var out []model.CallStack
	for {
		stack, err := r.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, stack)
	}
}
