// Package planner turns parsed options into the ordered list of tasks to dispatch.
package planner

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
	"github.com/mogproject/color-ssh/internal/target"
)

// DefaultParallelism is the worker bound used when none is configured.
const DefaultParallelism = 32

// Task is one unit of work: setup commands run in order, then Command.
type Task struct {
	Label   string
	Command []string
	Setup   [][]string
}

// String renders the main command as a shell line.
func (t Task) String() string {
	return shellquote.Join(t.Command...)
}

// Options is the validated, immutable input of Plan.
// Build it with NewOptions; the zero value is not usable.
type Options struct {
	label       string
	transport   []string
	hosts       []string
	distribute  []string
	upload      bool
	uploadWith  []string
	args        []string
	parallelism int
}

// Params carries raw option values as read from the command line or config.
type Params struct {
	Label       string   // label override, empty for per-host labels
	SSH         string   // transport command line, shell-tokenized
	Hosts       []string // host tokens from all host sources, in order
	Distribute  string   // distribution prefix command line, shell-tokenized
	Upload      bool     // upload distributed arguments before running
	UploadWith  string   // extra upload paths, shell-tokenized
	Args        []string // trailing positional arguments
	Parallelism int      // worker bound, DefaultParallelism when zero
}

// NewOptions validates p and returns the options used by Plan.
func NewOptions(p Params) (*Options, error) {
	transport, err := shellquote.Split(p.SSH)
	if err != nil {
		return nil, cerrors.NewArgumentError(fmt.Sprintf("invalid ssh command: %s", p.SSH), err)
	}
	if len(transport) == 0 {
		return nil, cerrors.NewArgumentError("ssh command must not be empty", nil)
	}

	distribute, err := shellquote.Split(p.Distribute)
	if err != nil {
		return nil, cerrors.NewArgumentError(fmt.Sprintf("invalid distribute command: %s", p.Distribute), err)
	}

	uploadWith, err := shellquote.Split(p.UploadWith)
	if err != nil {
		return nil, cerrors.NewArgumentError(fmt.Sprintf("invalid upload paths: %s", p.UploadWith), err)
	}

	par := p.Parallelism
	if par == 0 {
		par = DefaultParallelism
	}
	if par < 0 {
		return nil, cerrors.NewArgumentError(fmt.Sprintf("parallelism must be positive: %d", par), nil)
	}

	return &Options{
		label:       p.Label,
		transport:   transport,
		hosts:       append([]string(nil), p.Hosts...),
		distribute:  distribute,
		upload:      p.Upload,
		uploadWith:  uploadWith,
		args:        append([]string(nil), p.Args...),
		parallelism: par,
	}, nil
}

// Parallelism returns the configured worker bound.
func (o *Options) Parallelism() int {
	return o.parallelism
}

// Plan builds one task per host, or one per non-empty argument shard when
// a distribution prefix is set. Any malformed host token fails the whole plan.
func Plan(o *Options) ([]Task, error) {
	hosts, args := o.hosts, o.args

	minArgs := 1
	if len(hosts) == 0 {
		minArgs = 2
	}
	if len(args) < minArgs {
		return nil, cerrors.NewArgumentError("not enough arguments", nil)
	}
	if len(hosts) == 0 {
		hosts, args = args[:1], args[1:]
	}

	targets, err := target.ParseHostSpecs(hosts)
	if err != nil {
		return nil, err
	}

	if len(o.distribute) == 0 {
		tasks := make([]Task, 0, len(targets))
		for _, t := range targets {
			tasks = append(tasks, o.newTask(t, args, o.uploadWith))
		}
		return tasks, nil
	}

	var tasks []Task
	for i, chunk := range Distribute(len(targets), args) {
		if len(chunk) == 0 {
			continue
		}
		paths := o.uploadWith
		if o.upload {
			paths = concat(o.uploadWith, chunk)
		}
		tasks = append(tasks, o.newTask(targets[i], concat(o.distribute, chunk), paths))
	}
	return tasks, nil
}

func (o *Options) newTask(t target.Target, command, uploads []string) Task {
	label := o.label
	if label == "" {
		label = defaultLabel(t)
	}
	return Task{
		Label:   label,
		Command: concat(o.transportArgs(t), command),
		Setup:   o.setupCommands(t, uploads),
	}
}

// transportArgs returns the transport invocation addressing t.
func (o *Options) transportArgs(t target.Target) []string {
	args := append([]string(nil), o.transport...)
	if t.HasPort() {
		args = append(args, "-p", t.Port)
	}
	return append(args, t.Address())
}

// setupCommands creates remote parent directories in one call, then syncs each path in order.
func (o *Options) setupCommands(t target.Target, paths []string) [][]string {
	if len(paths) == 0 {
		return nil
	}

	var setup [][]string
	if dirs := parentDirs(paths); len(dirs) > 0 {
		setup = append(setup, concat(o.transportArgs(t), concat([]string{"mkdir", "-p"}, dirs)))
	}
	for _, p := range paths {
		setup = append(setup, o.syncCommand(t, p))
	}
	return setup
}

func (o *Options) syncCommand(t target.Target, p string) []string {
	cmd := []string{"rsync", "-a"}
	if t.HasPort() {
		cmd = append(cmd, "-e", shellquote.Join(concat(o.transport, []string{"-p", t.Port})...))
	}
	return append(cmd, p, t.Address()+":"+p)
}

// parentDirs returns the sorted, deduplicated parent directories of paths,
// leaving out the current and root directories.
func parentDirs(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		d := path.Dir(p)
		if d == "." || d == "/" || seen[d] {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// defaultLabel is the host token without its user part.
func defaultLabel(t target.Target) string {
	if i := strings.LastIndex(t.Original, "@"); i >= 0 {
		return t.Original[i+1:]
	}
	return t.Original
}

// Distribute splits items into k contiguous, order-preserving chunks whose
// sizes differ by at most one; earlier chunks take the remainder.
// It returns nil when k is not positive.
func Distribute[T any](k int, items []T) [][]T {
	if k <= 0 {
		return nil
	}

	q, extra := len(items)/k, len(items)%k
	chunks := make([][]T, 0, k)
	j := 0
	for i := 0; i < k; i++ {
		n := q
		if i < extra {
			n++
		}
		chunks = append(chunks, items[j:j+n:j+n])
		j += n
	}
	return chunks
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
