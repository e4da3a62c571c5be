package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	perrors "github.com/perftree/perftree/pkg/errors"
	"github.com/perftree/perftree/pkg/model"
)

// CollapsedReader implements SampleReader over the textual "collapsed stack"
// format: one sample group per line, frames joined by ';' from outermost to
// innermost, optionally followed by a library name in parentheses, and a
// trailing sample count:
//
//	main;foo;bar(libbar.so) 5
//
// A line may be prefixed with "pid=<n> " to attribute the samples to a
// process other than the reader's default. Blank lines and lines starting
// with '#' are skipped.
type CollapsedReader struct {
	scanner         *bufio.Scanner
	closer          io.Closer
	defaultPID      int
	timePerSampleUs float64

	pending []model.CallStack
	pos     int
}

// NewCollapsedReader wraps r (closed when the reader is Closed) as a
// SampleReader, attributing lines with no explicit "pid=" prefix to
// defaultPID.
func NewCollapsedReader(r io.ReadCloser, defaultPID int, timePerSampleUs float64) *CollapsedReader {
	return &CollapsedReader{
		scanner:         bufio.NewScanner(r),
		closer:          r,
		defaultPID:      defaultPID,
		timePerSampleUs: timePerSampleUs,
	}
}

// Next implements SampleReader.
func (c *CollapsedReader) Next(ctx context.Context) (model.CallStack, error) {
	select {
	case <-ctx.Done():
		return model.CallStack{}, ctx.Err()
	default:
	}

	for c.pos >= len(c.pending) {
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return model.CallStack{}, perrors.NewIOFailure("collapsed reader: scan failed", err)
			}
			return model.CallStack{}, io.EOF
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stacks, err := c.parseLine(line)
		if err != nil {
			return model.CallStack{}, err
		}
		c.pending = stacks
		c.pos = 0
	}

	stack := c.pending[c.pos]
	c.pos++
	return stack, nil
}

// Close implements SampleReader.
func (c *CollapsedReader) Close() error {
	return c.closer.Close()
}

func (c *CollapsedReader) parseLine(line string) ([]model.CallStack, error) {
	pid := c.defaultPID
	if strings.HasPrefix(line, "pid=") {
		rest := line[len("pid="):]
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, perrors.NewInvalidArgument(fmt.Sprintf("collapsed reader: malformed pid prefix %q", line))
		}
		parsed, err := strconv.Atoi(rest[:sp])
		if err != nil {
			return nil, perrors.NewInvalidArgument(fmt.Sprintf("collapsed reader: invalid pid in %q", line))
		}
		pid = parsed
		line = strings.TrimSpace(rest[sp+1:])
	}

	lastSpace := strings.LastIndexByte(line, ' ')
	if lastSpace < 0 {
		return nil, perrors.NewInvalidArgument(fmt.Sprintf("collapsed reader: missing sample count in %q", line))
	}
	stackPart := line[:lastSpace]
	count, err := strconv.Atoi(strings.TrimSpace(line[lastSpace+1:]))
	if err != nil || count < 0 {
		return nil, perrors.NewInvalidArgument(fmt.Sprintf("collapsed reader: invalid sample count in %q", line))
	}

	parts := strings.Split(stackPart, ";")
	frames := make([]model.Frame, len(parts))
	for i, p := range parts {
		// frames arrive outermost-first in the text; CallStack wants leaf-first.
		frames[len(parts)-1-i] = parseFrame(p)
	}

	duration := int64(c.timePerSampleUs)
	if duration < 0 {
		duration = 0
	}

	stacks := make([]model.CallStack, count)
	for i := range stacks {
		stacks[i] = model.CallStack{Frames: frames, ProcessID: pid, DurationUs: duration}
	}
	return stacks, nil
}

func parseFrame(s string) model.Frame {
	s = strings.TrimSpace(s)
	if open := strings.IndexByte(s, '('); open >= 0 && strings.HasSuffix(s, ")") {
		return model.Frame{FunctionName: s[:open], LibraryName: s[open+1 : len(s)-1]}
	}
	if s == "" {
		return model.UnknownFrame()
	}
	return model.Frame{FunctionName: s}
}
