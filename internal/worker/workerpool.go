package worker

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/olekstore/primecod-sync-service/internal/models"
)

// Task is one matched lead/order pair awaiting reconciliation.
type Task struct {
	Index int
	Lead  models.Lead
	Order models.Order
}

// Result carries one task's outcome back to the run that enqueued it.
type Result struct {
	Task    Task
	Applied []string
	Err     error
}

// ApplyFunc reconciles one matched pair.
type ApplyFunc func(ctx context.Context, lead *models.Lead, order *models.Order) ([]string, error)

// Pool fans reconciliation tasks out across a bounded worker count.
// Concurrency stays low on purpose: tag updates are last-write-wins on the
// remote side, so only distinct orders are safe to touch in parallel.
type Pool struct {
	apply   ApplyFunc
	workers int
	logger  *zap.Logger
}

func NewPool(apply ApplyFunc, workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		apply:   apply,
		workers: workers,
		logger:  logger,
	}
}

// Run processes every task and blocks until all workers finish. Results
// come back in task order. Workers drain the queue even when the context
// expires mid-run; apply itself is context-aware and fails fast then.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	jobs := make(chan Task, len(tasks))
	results := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, jobs, results, &wg)
	}

	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := make([]Result, 0, len(tasks))
	for r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Task.Index < out[j].Task.Index })
	return out
}

func (p *Pool) worker(ctx context.Context, id int, jobs <-chan Task, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range jobs {
		applied, err := p.apply(ctx, &task.Lead, &task.Order)
		if err != nil {
			p.logger.Error("reconcile task failed",
				zap.Int("worker", id),
				zap.String("reference", task.Lead.Reference),
				zap.Int64("order_id", task.Order.ID),
				zap.Error(err),
			)
		} else {
			p.logger.Info("reconcile task done",
				zap.Int("worker", id),
				zap.String("reference", task.Lead.Reference),
				zap.Int64("order_id", task.Order.ID),
				zap.Strings("applied", applied),
			)
		}
		results <- Result{Task: task, Applied: applied, Err: err}
	}
}
