package reader

import (
	"context"
	"io"

	"github.com/perftree/perftree/pkg/model"
)

// RawStack is one unresolved sample: instruction addresses deepest-first,
// the shape a binary sample-file decoder hands over before symbolization.
type RawStack struct {
	Addresses  []uint64
	ProcessID  int
	DurationUs int64
}

// RawReader yields unresolved samples. It returns io.EOF once exhausted.
type RawReader interface {
	NextRaw(ctx context.Context) (RawStack, error)
	Close() error
}

// ResolvingReader adapts a RawReader plus an OffsetResolver into a
// SampleReader. Addresses the resolver cannot map are not errors: the frame
// is substituted with model.UnknownFrame and the sample kept, so one
// unresolvable library never discards an otherwise useful stack.
type ResolvingReader struct {
	raw      RawReader
	resolver OffsetResolver
}

// NewResolvingReader wraps raw, resolving every address through resolver.
func NewResolvingReader(raw RawReader, resolver OffsetResolver) *ResolvingReader {
	return &ResolvingReader{raw: raw, resolver: resolver}
}

// Next implements SampleReader.
func (r *ResolvingReader) Next(ctx context.Context) (model.CallStack, error) {
	rawStack, err := r.raw.NextRaw(ctx)
	if err != nil {
		return model.CallStack{}, err
	}

	frames := make([]model.Frame, len(rawStack.Addresses))
	for i, addr := range rawStack.Addresses {
		frame, err := r.resolver.Resolve(rawStack.ProcessID, addr)
		if err != nil {
			frame = model.UnknownFrame()
		}
		frames[i] = frame
	}
	return model.CallStack{
		Frames:     frames,
		ProcessID:  rawStack.ProcessID,
		DurationUs: rawStack.DurationUs,
	}, nil
}

// Close implements SampleReader.
func (r *ResolvingReader) Close() error {
	return r.raw.Close()
}

// SliceRawReader implements RawReader over an in-memory slice, for tests and
// decoders that materialize their samples up front.
type SliceRawReader struct {
	stacks []RawStack
	pos    int
}

// NewSliceRawReader wraps stacks as a RawReader.
func NewSliceRawReader(stacks []RawStack) *SliceRawReader {
	return &SliceRawReader{stacks: stacks}
}

// NextRaw implements RawReader.
func (s *SliceRawReader) NextRaw(ctx context.Context) (RawStack, error) {
	select {
	case <-ctx.Done():
		return RawStack{}, ctx.Err()
	default:
	}
	if s.pos >= len(s.stacks) {
		return RawStack{}, io.EOF
	}
	st := s.stacks[s.pos]
	s.pos++
	return st, nil
}

// Close implements RawReader.
func (s *SliceRawReader) Close() error { return nil }
