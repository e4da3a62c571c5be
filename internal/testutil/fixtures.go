// Package testutil carries the sample-stack fixtures and tree assertions
// shared by the builder, nodes, workflow and CLI tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/perftree/perftree/pkg/model"
)

// FixtureLibrary is the library name every fixture frame belongs to.
const FixtureLibrary = "libtest.so"

// Frame returns a fixture frame for fn in FixtureLibrary.
func Frame(fn string) model.Frame {
	return model.Frame{FunctionName: fn, LibraryName: FixtureLibrary}
}

// Stack builds one sample for pid from function names listed outermost
// first, the way a human reads a backtrace top-down. The returned CallStack
// stores them leaf-first.
func Stack(pid int, fns ...string) model.CallStack {
	frames := make([]model.Frame, len(fns))
	for i, fn := range fns {
		frames[len(fns)-1-i] = Frame(fn)
	}
	return model.CallStack{Frames: frames, ProcessID: pid, DurationUs: 100}
}

// TwoProcessStacks is the canonical small fixture: process 0 samples
// main>compute>kernel once, process 1 samples it once more plus main>io.
// The resulting tree has 4 nodes, 3 total samples, and kernel as the top
// self-time hotspot.
func TwoProcessStacks() []model.CallStack {
	return []model.CallStack{
		Stack(0, "main", "compute", "kernel"),
		Stack(1, "main", "compute", "kernel"),
		Stack(1, "main", "io"),
	}
}

// WriteCollapsedFile writes lines as a collapsed-stack-format file under a
// test temp dir and returns its path.
func WriteCollapsedFile(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write collapsed fixture %s: %v", name, err)
	}
	return path
}
