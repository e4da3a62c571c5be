package parallel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_ExecutePreservesInputOrder(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())

	inputs := []int{1, 2, 3, 4, 5}
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})

	require.Len(t, results, len(inputs))
	for i, r := range results {
		require.NoError(t, r.Error)
		assert.Equal(t, inputs[i]*2, r.Result)
		assert.Equal(t, inputs[i], r.Input)
	}
}

func TestWorkerPool_TimeoutCancelsSlowTasks(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(2).WithTimeout(30 * time.Millisecond))

	inputs := make([]int, 8)
	for i := range inputs {
		inputs[i] = i
	}

	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(200 * time.Millisecond):
			return input, nil
		}
	})

	cancelled := 0
	for _, r := range results {
		if r.Error != nil {
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 0)
}

func TestWorkerPool_Metrics(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithMetrics())

	inputs := []int{1, 2, 3, 4, 5}
	pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})

	metrics := pool.Metrics()
	assert.Equal(t, int64(5), metrics.TotalTasks)
	assert.Equal(t, int64(5), metrics.CompletedTasks)
	assert.Equal(t, int64(0), metrics.FailedTasks)
}

func TestWorkerPool_ExecuteFunc_PropagatesErrors(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(2))

	inputs := []int{1, 2, 3}
	results := pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		if input == 2 {
			return 0, context.DeadlineExceeded
		}
		return input, nil
	})

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Error(t, results[1].Error)
}

func TestWorkerPool_EmptyInput(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())
	results := pool.ExecuteFunc(context.Background(), nil, func(ctx context.Context, input int) (int, error) {
		return input, nil
	})
	assert.Empty(t, results)
}

func BenchmarkWorkerPool(b *testing.B) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())
	inputs := make([]int, 1000)
	for i := range inputs {
		inputs[i] = i
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ExecuteFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
			return input * 2, nil
		})
	}
}
