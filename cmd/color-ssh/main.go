// Command color-ssh runs a command on many hosts at once and labels every
// output line with the host it came from.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mogproject/color-ssh/internal/config"
	cerrors "github.com/mogproject/color-ssh/internal/errors"
	"github.com/mogproject/color-ssh/internal/executor"
	"github.com/mogproject/color-ssh/internal/inventory"
	"github.com/mogproject/color-ssh/internal/logging"
	"github.com/mogproject/color-ssh/internal/output"
	"github.com/mogproject/color-ssh/internal/planner"
	"github.com/mogproject/color-ssh/internal/stats"
	"github.com/mogproject/color-ssh/internal/target"
)

// Build-time variables (set via -ldflags)
var version = "dev"

const usage = `color-ssh [flags] [user@]hostname command...
  color-ssh [flags] -h host_file command...
  color-ssh [flags] -H "[user@]hostname [[user@]hostname]..." command...`

func main() {
	// report EPIPE as a write error instead of dying on SIGPIPE
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitCodeError carries the aggregate exit code of the dispatched tasks.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   usage,
		Short: "Run a command on many hosts with labeled, colorized output",
		Long: `color-ssh runs one command on many hosts in parallel through ssh and
prefixes every line of output with a colored host label. Lines from stderr
use "+" instead of "|" as the separator.

Examples:
  # Run on one host
  color-ssh user@server-1 uptime

  # Run on every host in a file, 8 at a time
  color-ssh -h hosts.txt -p 8 -- df -h

  # Split arguments across hosts and upload them first
  color-ssh -H "web1 web2" --distribute "gzip -9" --upload logs/a.log logs/b.log logs/c.log

  # Run on one group of an Ansible inventory
  color-ssh --inventory hosts.yml --inventory-group web -- systemctl status nginx

Environment:
  Every flag can also be set as ` + strings.Join(config.GetEnvVarNames(), ", ") + `.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, args, stdout, stderr)
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cerrors.NewArgumentError(err.Error(), nil)
	})

	// -h belongs to --hosts, so help is registered long-only before cobra adds its own
	cmd.Flags().Bool("help", false, "help for color-ssh")
	cmd.Flags().StringP("label", "l", "", "label name")
	cmd.Flags().String("ssh", "ssh", "override ssh command line string")
	cmd.Flags().StringP("hosts", "h", "", `hosts file (each line "[user@]host[:port]")`)
	cmd.Flags().StringP("host", "H", "", `additional host entries ("[user@]host[:port] ...")`)
	cmd.Flags().String("inventory", "", "Ansible inventory file (.yml, .yaml or .json) to read hosts from")
	cmd.Flags().String("inventory-group", "", "only read hosts from this inventory group and its children")
	cmd.Flags().IntP("par", "p", planner.DefaultParallelism, "max number of parallel tasks")
	cmd.Flags().String("distribute", "", "split the arguments across hosts and run them with this prefix command")
	cmd.Flags().Bool("upload", false, "upload the distributed arguments to each host before running")
	cmd.Flags().String("upload-with", "", "additional paths to upload before running")
	cmd.Flags().String("labeler", "", "external labeler executable (default: label in-process)")
	cmd.Flags().String("log-level", "error", "log level (debug, info, error)")
	cmd.Flags().String("log-format", "text", "log format (json, text)")
	return cmd
}

func execute(cmd *cobra.Command, args []string, stdout, stderr io.Writer) error {
	mgr := config.NewManager(cmd.Flags())
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}

	sinks, sharedOut, sharedErr := newSinks(cfg.Labeler, stdout, stderr)
	logger := logging.NewLoggerFromConfig(cfg.LogLevel, cfg.LogFormat, sharedErr)
	if f := mgr.ConfigFile(); f != "" {
		logger.LogConfigLoad(f)
	}

	hosts, err := collectHosts(cfg, logger)
	if err != nil {
		return err
	}

	opts, err := planner.NewOptions(planner.Params{
		Label:       cfg.Label,
		SSH:         cfg.SSH,
		Hosts:       hosts,
		Distribute:  cfg.Distribute,
		Upload:      cfg.Upload,
		UploadWith:  cfg.UploadWith,
		Args:        args,
		Parallelism: cfg.Par,
	})
	if err != nil {
		return err
	}

	tasks, err := planner.Plan(opts)
	if err != nil {
		return err
	}
	logger.LogPlan(len(tasks), cfg.Distribute != "", opts.Parallelism())

	ctx := cmd.Context()
	runner := executor.NewTaskRunner(sinks, sharedOut, sharedErr, logger)
	results := executor.NewWorkerPool(opts.Parallelism(), runner, logger).Execute(ctx, tasks)

	code := stats.Aggregate(executor.ExitCodes(results))
	if ctx.Err() != nil {
		code = cerrors.ExitInterrupt
	}
	if code != cerrors.ExitOK {
		return &exitCodeError{code: code}
	}
	return nil
}

// newSinks picks the labeled sink implementation and the shared writers every task writes to.
// Labeler processes inherit real files directly; anything else is serialized per line.
func newSinks(labeler string, stdout, stderr io.Writer) (output.SinkFactory, io.Writer, io.Writer) {
	if labeler == "" {
		return output.PipeSinkFactory{}, output.NewSyncWriter(stdout), output.NewSyncWriter(stderr)
	}
	return output.CommandSinkFactory{Path: labeler, Stderr: stderr}, inheritable(stdout), inheritable(stderr)
}

func inheritable(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return output.NewSyncWriter(w)
}

// collectHosts merges the hosts file, the inventory and the host string, in that order.
func collectHosts(cfg *config.Config, logger *logging.Logger) ([]string, error) {
	var hosts []string

	if cfg.HostFile != "" {
		h, err := target.LoadHostFile(cfg.HostFile)
		if err != nil {
			return nil, err
		}
		logger.LogHostsLoaded("hosts file: "+cfg.HostFile, len(h))
		hosts = append(hosts, h...)
	}

	if cfg.Inventory != "" {
		inv, err := inventory.LoadInventoryFromFile(cfg.Inventory)
		if err != nil {
			return nil, err
		}
		source := "inventory: " + cfg.Inventory
		var h []string
		if cfg.InventoryGroup != "" {
			source += " group: " + cfg.InventoryGroup
			h, err = inv.HostsByGroup(cfg.InventoryGroup)
		} else {
			h, err = inv.Hosts()
		}
		if err != nil {
			return nil, err
		}
		logger.LogHostsLoaded(source, len(h))
		hosts = append(hosts, h...)
	}

	if cfg.HostString != "" {
		h, err := target.SplitHostString(cfg.HostString)
		if err != nil {
			return nil, err
		}
		logger.LogHostsLoaded("host string", len(h))
		hosts = append(hosts, h...)
	}

	return hosts, nil
}

// run executes color-ssh and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return cerrors.ExitOK
	}

	var exitErr *exitCodeError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.code
	case cerrors.IsArgumentError(err):
		fmt.Fprintf(stderr, "%s\n\n", cerrors.Format(err))
		fmt.Fprint(stdout, cmd.UsageString())
		return cerrors.ExitUsage
	}

	code := cerrors.ExitCode(err)
	if code == cerrors.ExitFailure {
		fmt.Fprintln(stderr, cerrors.Format(err))
	}
	return code
}
