package executor

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogproject/color-ssh/internal/planner"
)

type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	active  int32
	maxSeen int32
	codes   map[string]int
	delay   time.Duration
}

func (f *fakeRunner) Run(_ context.Context, task planner.Task) int {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.ran = append(f.ran, task.Label)
	f.mu.Unlock()
	return f.codes[task.Label]
}

func labeledTasks(labels ...string) []planner.Task {
	tasks := make([]planner.Task, 0, len(labels))
	for _, l := range labels {
		tasks = append(tasks, planner.Task{Label: l, Command: []string{"true"}})
	}
	return tasks
}

func TestWorkerPool_ResultsInTaskOrder(t *testing.T) {
	runner := &fakeRunner{codes: map[string]int{"b": 1, "d": 255}, delay: 10 * time.Millisecond}
	pool := NewWorkerPool(3, runner, nil)

	results := pool.Execute(context.Background(), labeledTasks("a", "b", "c", "d", "e"))
	require.Len(t, results, 5)
	for i, label := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, label, results[i].Task.Label)
	}
	assert.Equal(t, []int{0, 1, 0, 255, 0}, ExitCodes(results))
	assert.Equal(t, int32(3), atomic.LoadInt32(&runner.maxSeen))
	assert.Len(t, runner.ran, 5)
}

func TestWorkerPool_Sequential(t *testing.T) {
	runner := &fakeRunner{}
	pool := NewWorkerPool(1, runner, nil)

	results := pool.Execute(context.Background(), labeledTasks("x", "y", "z"))
	assert.Equal(t, []int{0, 0, 0}, ExitCodes(results))
	assert.Equal(t, []string{"x", "y", "z"}, runner.ran)
	assert.Equal(t, int32(1), runner.maxSeen)
}

func TestWorkerPool_Empty(t *testing.T) {
	results := NewWorkerPool(32, &fakeRunner{}, nil).Execute(context.Background(), nil)
	assert.Empty(t, results)
}

func TestWorkerPool_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	results := NewWorkerPool(4, runner, nil).Execute(ctx, labeledTasks("a", "b"))
	assert.Equal(t, []int{130, 130}, ExitCodes(results))
	assert.Empty(t, runner.ran)
}

func TestCalculateConcurrency(t *testing.T) {
	assert.Equal(t, 0, calculateConcurrency(32, 0))
	assert.Equal(t, 1, calculateConcurrency(32, 1))
	assert.Equal(t, 5, calculateConcurrency(32, 5))
	assert.Equal(t, 32, calculateConcurrency(32, 100))
	assert.Equal(t, 2, calculateConcurrency(2, 100))
	assert.Equal(t, 32, calculateConcurrency(0, 100))
}

func TestWorkerPool_WithTaskRunner(t *testing.T) {
	stdout, stderr, runner := newTestRunner()
	tasks := []planner.Task{
		{Label: "h1", Command: []string{"sh", "-c", "echo one"}},
		{Label: "h2", Command: []string{"sh", "-c", "echo two; exit 2"}},
		{Label: "h3", Command: []string{"sh", "-c", "echo three >&2"}},
	}

	results := NewWorkerPool(32, runner, nil).Execute(context.Background(), tasks)
	assert.Equal(t, []int{0, 2, 0}, ExitCodes(results))

	assert.Equal(t, sortedLines(line("h1", "|", "one")+line("h2", "|", "two")), sortedLines(stdout.String()))
	assert.Equal(t, line("h3", "+", "three"), stderr.String())
}

// sortedLines orders labeled lines so output from concurrent tasks compares stably.
func sortedLines(s string) []string {
	lines := strings.SplitAfter(s, "\n\x1b[0m")
	sort.Strings(lines)
	return lines
}
