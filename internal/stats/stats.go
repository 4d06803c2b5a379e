// Package stats combines per-task exit codes into the process result.
package stats

import (
	"time"
)

// Aggregate returns the worst exit code. An empty list aggregates to 0.
func Aggregate(codes []int) int {
	worst := 0
	for _, c := range codes {
		if c > worst {
			worst = c
		}
	}
	return worst
}

// Summary holds the counts reported once dispatch finishes.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Interrupted int
	ExitCode    int
	Duration    time.Duration
}

// Summarize counts the outcomes in codes. interrupt is the exit code
// reported for tasks that never ran or were cut short.
func Summarize(codes []int, interrupt int, duration time.Duration) Summary {
	s := Summary{Total: len(codes), ExitCode: Aggregate(codes), Duration: duration}
	for _, c := range codes {
		switch c {
		case 0:
			s.Succeeded++
		case interrupt:
			s.Interrupted++
			s.Failed++
		default:
			s.Failed++
		}
	}
	return s
}
