// Package executor runs planned tasks on a bounded worker pool.
package executor

import (
	"context"
	"sync"
	"time"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
	"github.com/mogproject/color-ssh/internal/logging"
	"github.com/mogproject/color-ssh/internal/planner"
	"github.com/mogproject/color-ssh/internal/stats"
)

// Runner runs one task to completion and returns its exit code.
type Runner interface {
	Run(ctx context.Context, task planner.Task) int
}

// Result is the outcome of one task.
type Result struct {
	Task     planner.Task
	ExitCode int
	Duration time.Duration
}

// job is a unit of work handed to a worker
type job struct {
	index int
	task  planner.Task
}

// WorkerPool runs tasks with at most Parallelism concurrent workers.
// Every task runs to completion; a failing task never cancels its siblings.
type WorkerPool struct {
	parallelism int
	runner      Runner
	logger      *logging.Logger
}

// NewWorkerPool creates a pool. A nil logger discards diagnostics.
func NewWorkerPool(parallelism int, runner Runner, logger *logging.Logger) *WorkerPool {
	if logger == nil {
		logger = logging.Discard()
	}
	return &WorkerPool{parallelism: parallelism, runner: runner, logger: logger}
}

// Execute runs all tasks and returns their results in task order.
// Tasks not yet started when ctx is cancelled report the interrupt exit code.
func (wp *WorkerPool) Execute(ctx context.Context, tasks []planner.Task) []Result {
	start := time.Now()
	workers := calculateConcurrency(wp.parallelism, len(tasks))
	wp.logger.LogExecutorStart(len(tasks), workers)

	results := make([]Result, len(tasks))
	if workers <= 1 {
		for i, t := range tasks {
			results[i] = wp.executeJob(ctx, job{index: i, task: t})
		}
	} else {
		wp.runPool(ctx, workers, tasks, results)
	}

	wp.logger.LogExecutorComplete(stats.Summarize(ExitCodes(results), cerrors.ExitInterrupt, time.Since(start)))
	return results
}

func (wp *WorkerPool) runPool(ctx context.Context, workers int, tasks []planner.Task, results []Result) {
	type indexed struct {
		index  int
		result Result
	}

	jobs := make(chan job, len(tasks))
	out := make(chan indexed, len(tasks))
	for i, t := range tasks {
		jobs <- job{index: i, task: t}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out <- indexed{index: j.index, result: wp.executeJob(ctx, j)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	for r := range out {
		results[r.index] = r.result
	}
}

// executeJob runs one task unless the dispatch was already interrupted.
func (wp *WorkerPool) executeJob(ctx context.Context, j job) Result {
	if ctx.Err() != nil {
		return Result{Task: j.task, ExitCode: cerrors.ExitInterrupt}
	}

	start := time.Now()
	wp.logger.LogTaskStart(j.task.Label, len(j.task.Setup))
	code := wp.runner.Run(ctx, j.task)
	elapsed := time.Since(start)
	wp.logger.LogTaskComplete(j.task.Label, code, elapsed)
	return Result{Task: j.task, ExitCode: code, Duration: elapsed}
}

// ExitCodes extracts the exit codes of results, in order.
func ExitCodes(results []Result) []int {
	codes := make([]int, len(results))
	for i, r := range results {
		codes[i] = r.ExitCode
	}
	return codes
}

// calculateConcurrency returns min(taskCount, parallelism).
func calculateConcurrency(parallelism int, taskCount int) int {
	if parallelism <= 0 {
		parallelism = planner.DefaultParallelism
	}
	if taskCount < parallelism {
		return taskCount
	}
	return parallelism
}
