package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/iliyamo/booking-resolver/internal/app"
	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/service"
)

type opener func(ctx context.Context) (*app.App, error)

type rootOptions struct {
	operator string
	role     string
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "bookingctl",
		Short:         "Inspect and repair booking records",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.operator, "operator", os.Getenv("USER"), "operator id recorded in audit events")
	root.PersistentFlags().StringVar(&opts.role, "role", "OPERATOR", "operator role recorded in audit events")

	root.AddCommand(
		resolveCmd(open),
		inspectCmd(open),
		repairCmd(open, opts),
		cancelCmd(open, opts),
		exportCmd(open, opts),
		clearMirrorCmd(open, opts),
	)
	return root
}

func (o *rootOptions) session() model.Operator {
	id := o.operator
	if id == "" {
		id = "cli"
	}
	return model.Operator{ID: id, Role: o.role}
}

// withApp opens the application for one command and prints what fn
// returns as indented JSON.
func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := fn(ctx, a)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func resolveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [id]",
		Short: "Resolve a booking through Primary, Mirror and Ledger (may repair)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
				return a.Resolver.Lookup(ctx, args[0])
			})
		},
	}
}

func inspectCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [id]",
		Short: "Report where an id is known, without changing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
				return a.Diag.Inspect(ctx, args[0])
			})
		},
	}
}

func repairCmd(open opener, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repair [id]",
		Short: "Synthesize a booking from its payment and write it to the Mirror",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
				return a.Diag.ForceRepair(ctx, opts.session(), args[0])
			})
		},
	}
}

func cancelCmd(open opener, opts *rootOptions) *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel [id]",
		Short: "Cancel a confirmed booking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
				return a.Diag.Cancel(ctx, opts.session(), args[0], reason)
			})
		},
	}
	cmd.Flags().StringVarP(&reason, "reason", "r", "", "cancellation reason")
	return cmd
}

func exportCmd(open opener, opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the Mirror and Ledger as one JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
					return a.Diag.Export(ctx, opts.session())
				})
			}
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
				doc, err := a.Diag.Export(ctx, opts.session())
				if err != nil {
					return nil, err
				}
				data, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return nil, err
				}
				if err := os.WriteFile(file, data, 0o644); err != nil {
					return nil, err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "export %s written to %s (%d bookings, %d payments)\n",
					doc.ExportID, file, len(doc.Bookings), len(doc.Payments))
				return nil, nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func clearMirrorCmd(open opener, opts *rootOptions) *cobra.Command {
	var confirm string
	cmd := &cobra.Command{
		Use:   "clear-mirror",
		Short: "Delete every record in the Mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) (any, error) {
				if err := a.Diag.ClearMirror(ctx, opts.session(), confirm); err != nil {
					if service.IsConfirmationRequired(err) {
						return nil, fmt.Errorf("%w (pass --confirm %s)", err, service.ClearConfirmation)
					}
					return nil, err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "mirror cleared")
				return nil, nil
			})
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "must be "+service.ClearConfirmation)
	return cmd
}
