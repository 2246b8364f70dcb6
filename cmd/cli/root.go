package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/aggregation"
	"github.com/pep299/idea-validator/internal/config"
	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/view"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usageErrorf(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// options holds the persistent flags shared by every subcommand.
type options struct {
	apiURL  string
	timeout time.Duration
	color   string
	verbose bool

	stdout io.Writer
	stderr io.Writer
}

// run executes the dashboard with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.Name())
		return exitUsage
	}
	return exitError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "dashboard",
		Short: "Browse validated problem clusters and their generated ideas",
		Long: `dashboard is a read-only terminal view over the aggregation service.

Example usage:
  dashboard list                          # Show every cluster, best score first
  dashboard show 3                        # Show cluster 3 with its ideas
  dashboard --api-url http://host:8000 list`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q for %q", args[0], cmd.Name())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{msg: err.Error()}
	})

	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "aggregation service URL (default: API_BASE_URL or "+aggregation.DefaultBaseURL+")")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "request timeout (default: REQUEST_TIMEOUT_SECONDS)")
	root.PersistentFlags().StringVar(&opts.color, "color", "auto", "colorize output: auto, always or never")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newVersionCmd(),
	)
	return root
}

// printer resolves the color mode and builds the view printer.
func (o *options) printer() (*view.Printer, error) {
	mode, err := view.ParseColorMode(o.color)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return view.NewPrinter(o.stdout, view.ResolveColors(mode)), nil
}

// client builds the aggregation client from configuration and flags.
func (o *options) client() (*aggregation.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.NewConsole(o.stderr, level)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.APIBaseURL
	if o.apiURL != "" {
		baseURL = o.apiURL
	}
	timeout := cfg.Timeout()
	if o.timeout > 0 {
		timeout = o.timeout
	}

	logger.Debug("Using aggregation service",
		zap.String("base_url", baseURL),
		zap.Duration("timeout", timeout))
	return aggregation.NewClient(baseURL, timeout, logger), nil
}
