package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olekstore/primecod-sync-service/internal/models"
)

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{
			Index: i,
			Lead:  models.Lead{Reference: fmt.Sprintf("PCOD-%d", i)},
			Order: models.Order{ID: int64(i + 1)},
		}
	}
	return tasks
}

func TestPoolResultsComeBackInTaskOrder(t *testing.T) {
	pool := NewPool(func(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
		return []string{"upsert_tags_note"}, nil
	}, 3, nil)

	results := pool.Run(context.Background(), makeTasks(20))

	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, i, r.Task.Index)
		assert.Equal(t, []string{"upsert_tags_note"}, r.Applied)
		assert.NoError(t, r.Err)
	}
}

func TestPoolReportsErrorsPerTask(t *testing.T) {
	pool := NewPool(func(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
		if order.ID%2 == 0 {
			return nil, errors.New("upstream down")
		}
		return []string{"mark_as_paid"}, nil
	}, 2, nil)

	results := pool.Run(context.Background(), makeTasks(6))

	require.Len(t, results, 6)
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	assert.Equal(t, 3, failed)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex
	ready := make(chan struct{})

	pool := NewPool(func(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		<-ready
		atomic.AddInt64(&inFlight, -1)
		return nil, nil
	}, 2, nil)

	done := make(chan []Result)
	go func() { done <- pool.Run(context.Background(), makeTasks(8)) }()

	close(ready)
	results := <-done

	require.Len(t, results, 8)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(2))
}

func TestPoolEmptyTaskList(t *testing.T) {
	pool := NewPool(func(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
		t.Fatal("no call expected")
		return nil, nil
	}, 4, nil)

	assert.Nil(t, pool.Run(context.Background(), nil))
}

func TestPoolDrainsQueueAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int64
	pool := NewPool(func(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error) {
		atomic.AddInt64(&calls, 1)
		return nil, ctx.Err()
	}, 2, nil)

	results := pool.Run(ctx, makeTasks(5))

	require.Len(t, results, 5)
	assert.Equal(t, int64(5), atomic.LoadInt64(&calls))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
