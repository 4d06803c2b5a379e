// Command color-cat prefixes every input line with a colored label.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	cerrors "github.com/mogproject/color-ssh/internal/errors"
	"github.com/mogproject/color-ssh/internal/output"
	"github.com/mogproject/color-ssh/internal/palette"
)

// Build-time variables (set via -ldflags)
var version = "dev"

func main() {
	// report EPIPE as a write error instead of dying on SIGPIPE
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	label     string
	color     string
	separator string
}

func newRootCmd(opts *options, stdin io.Reader, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "color-cat [flags] [file ...]",
		Short:         "Label and colorize every line of the input",
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var c palette.Color
			if opts.color != "" {
				var ok bool
				if c, ok = palette.Lookup(opts.color); !ok {
					return &invalidColorError{name: opts.color}
				}
			}
			return output.NewLabeler(opts.label, opts.separator, c).Cat(stdout, stdin, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cerrors.NewArgumentError(err.Error(), nil)
	})

	cmd.Flags().StringVarP(&opts.label, "label", "l", "", "set label name to LABEL")
	cmd.Flags().StringVarP(&opts.color, "color", "c", "",
		fmt.Sprintf("set output color to COLOR (available colors: %s)", strings.Join(palette.Names(), ", ")))
	cmd.Flags().StringVarP(&opts.separator, "separator", "s", output.DefaultSeparator, "set separator string to SEPARATOR")
	return cmd
}

type invalidColorError struct {
	name string
}

func (e *invalidColorError) Error() string {
	return "Invalid color name: " + e.name
}

// run executes color-cat and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd(&options{}, stdin, stdout)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return cerrors.ExitOK
	}

	var colorErr *invalidColorError
	switch {
	case errors.As(err, &colorErr):
		fmt.Fprintf(stderr, "%s\n\n", colorErr.Error())
		fmt.Fprint(stdout, cmd.UsageString())
		return cerrors.ExitUsage
	case cerrors.IsArgumentError(err):
		fmt.Fprintf(stderr, "%s\n\n", cerrors.Format(err))
		fmt.Fprint(stdout, cmd.UsageString())
		return cerrors.ExitUsage
	}

	code := cerrors.ExitCode(err)
	if code != cerrors.ExitOK {
		fmt.Fprintln(stderr, cerrors.Format(err))
	}
	return code
}
