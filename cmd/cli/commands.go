package main

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pep299/idea-validator/internal/dashboard"
)

// screen is the lifecycle shared by the list and detail screens.
type screen interface {
	Mount(ctx context.Context)
	Wait(ctx context.Context) error
	Unmount()
	Render() error
}

// show mounts s, waits for its fetch and renders the result. The screen is
// always unmounted before returning.
func show(ctx context.Context, s screen) error {
	s.Mount(ctx)
	defer s.Unmount()

	if err := s.Wait(ctx); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted: %w", err)
	}
	return s.Render()
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List problem clusters",
		Long: `List every problem cluster in the order the service returns them,
with its total validation score, intensity and engagement.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, err := opts.printer()
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			return show(cmd.Context(), dashboard.NewListScreen(client, printer))
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one cluster and its generated ideas",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("show requires exactly one cluster id, got %d", len(args))
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return usageErrorf("invalid cluster id %q: must be an integer", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := strconv.ParseInt(args[0], 10, 64)

			printer, err := opts.printer()
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			return show(cmd.Context(), dashboard.NewDetailScreen(client, printer, id))
		},
	}
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if short, _ := cmd.Flags().GetBool("short"); short {
				fmt.Fprintln(w, Version)
				return nil
			}
			fmt.Fprintf(w, "dashboard version %s\n", Version)
			fmt.Fprintf(w, "  commit:     %s\n", Commit)
			fmt.Fprintf(w, "  built:      %s\n", BuildTime)
			fmt.Fprintf(w, "  go version: %s\n", runtime.Version())
			return nil
		},
	}
	cmd.Flags().Bool("short", false, "print version string only")
	return cmd
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("%s takes no arguments", cmd.Name())
	}
	return nil
}
