package reader

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func TestCollapsedReader_BasicStacks(t *testing.T) {
	text := "main;foo;bar(libbar.so) 2\nmain;baz 1\n"
	r := NewCollapsedReader(nopCloser{strings.NewReader(text)}, 0, 1000)

	var stacks []string
	for {
		s, err := r.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names := make([]string, len(s.Frames))
		for i, f := range s.Frames {
			names[i] = f.FunctionName
		}
		stacks = append(stacks, strings.Join(names, ","))
	}

	require.Len(t, stacks, 3)
	assert.Equal(t, "bar,foo,main", stacks[0])
	assert.Equal(t, "bar,foo,main", stacks[1])
	assert.Equal(t, "baz,main", stacks[2])
}

func TestCollapsedReader_LibraryNameParsed(t *testing.T) {
	r := NewCollapsedReader(nopCloser{strings.NewReader("main;foo(libfoo.so) 1\n")}, 0, 1000)
	s, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "libfoo.so", s.Frames[0].LibraryName)
	assert.Equal(t, "foo", s.Frames[0].FunctionName)
}

func TestCollapsedReader_PIDPrefix(t *testing.T) {
	r := NewCollapsedReader(nopCloser{strings.NewReader("pid=7 main;foo 1\n")}, 0, 1000)
	s, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, s.ProcessID)
}

func TestCollapsedReader_SkipsCommentsAndBlankLines(t *testing.T) {
	text := "# comment\n\nmain;foo 1\n"
	r := NewCollapsedReader(nopCloser{strings.NewReader(text)}, 0, 1000)
	s, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "foo", s.Frames[0].FunctionName)

	_, err = r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestCollapsedReader_MalformedLine(t *testing.T) {
	r := NewCollapsedReader(nopCloser{strings.NewReader("not-a-valid-line\n")}, 0, 1000)
	_, err := r.Next(context.Background())
	assert.Error(t, err)
}
