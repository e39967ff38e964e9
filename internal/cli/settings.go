package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/settings"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change defaults for new documents",
	}
	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))
	cmd.AddCommand(newSettingsMigrateCommand(rootOpts))
	return cmd
}

func newSettingsShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Show current settings and the next document numbers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return outputSettings(cmd, opts, a.prefs.Current())
			})
		},
	}
}

func newSettingsSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set field=value...",
		Short: "Change default sender, theme, currency or payment fields",
		Long: `Change default sender, theme, currency or payment fields.

Counters cannot be set here; they advance when documents are saved and are
replaced by a backup import.

Example:
  quickbill settings set senderName="Studio" currency=€ showPayment=false`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseAssignments(args)
			if err != nil {
				return err
			}
			// reject the whole batch before anything is scheduled
			probe := model.DefaultSettings()
			for _, p := range pairs {
				if err := settings.SetField(&probe, p[0], p[1]); err != nil {
					if errors.Is(err, settings.ErrUnknownField) {
						return NewExitError(ExitFailure, fmt.Sprintf("unknown settings field %q", p[0]))
					}
					return WrapExitError(ExitFailure, "invalid value", err)
				}
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				a.prefs.Update(func(st *model.Settings) {
					for _, p := range pairs {
						_ = settings.SetField(st, p[0], p[1])
					}
				})
				if err := a.prefs.Flush(ctx); err != nil {
					return err
				}
				return outputSettings(cmd, opts, a.prefs.Current())
			})
		},
	}
}

func newSettingsMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-legacy <file>",
		Short: "Import sender and theme defaults from a legacy profile JSON file",
		Long: `Import sender and theme defaults from a legacy profile JSON file.

Only non-empty fields in the file are copied. Counters are untouched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open legacy profile", err)
			}
			defer f.Close()

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.prefs.MigrateLegacy(ctx, f); err != nil {
					return err
				}
				return outputSettings(cmd, opts, a.prefs.Current())
			})
		},
	}
}

func outputSettings(cmd *cobra.Command, opts *RootOptions, st model.Settings) error {
	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(st)
	}
	outputSettingsText(formatter.Writer, st)
	return nil
}
