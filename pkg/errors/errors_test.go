package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			err:      New(CodeGraphSchema, "missing port"),
			expected: "[GRAPH_SCHEMA_ERROR] missing port",
		},
		{
			name:     "with underlying error",
			err:      Wrap(CodeIOFailure, "read failed", errors.New("permission denied")),
			expected: "[IO_FAILURE] read failed: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(CodeIOFailure, "reading samples", cause)
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("outer: %w", err)
	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, CodeIOFailure, appErr.Code)
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	a := New(CodeCycle, "one cycle")
	b := New(CodeCycle, "another cycle")
	c := New(CodeGraphSchema, "schema")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestNewCycleError(t *testing.T) {
	err := NewCycleError([]string{"a", "b", "c"})
	assert.Equal(t, CodeCycle, err.Code)
	assert.Contains(t, err.Error(), "a -> b -> c")
}

func TestNewNodeExecutionError(t *testing.T) {
	cause := errors.New("boom")
	err := NewNodeExecutionError("HotspotAnalysis", cause)
	assert.Equal(t, CodeNodeExecution, err.Code)
	assert.Contains(t, err.Message, "HotspotAnalysis")
	assert.True(t, errors.Is(err, cause))
}

func TestTaxonomyConstructors(t *testing.T) {
	assert.Equal(t, CodeInvalidArgument, NewInvalidArgument("bad").Code)
	assert.Equal(t, CodeIOFailure, NewIOFailure("read failed", errors.New("eof")).Code)
	assert.Equal(t, CodeResolutionMissing, NewResolutionMissing("0xdead").Code)
	assert.Equal(t, CodeGraphSchema, NewGraphSchemaError("missing port").Code)
	assert.Equal(t, CodeInvariantViolation, NewInvariantViolation("inclusive < self").Code)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeCycle, GetErrorCode(NewCycleError([]string{"a"})))
	assert.Equal(t, CodeCycle, GetErrorCode(fmt.Errorf("wrapped: %w", NewCycleError([]string{"a"}))))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
	assert.Equal(t, CodeUnknown, GetErrorCode(nil))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "bad input", GetErrorMessage(New(CodeInvalidArgument, "bad input")))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}
