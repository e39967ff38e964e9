package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/quickbill/internal/backup"
)

// NewBackupCommand creates the backup command group.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import all data as JSON",
	}
	cmd.AddCommand(newBackupExportCommand(rootOpts))
	cmd.AddCommand(newBackupImportCommand(rootOpts))
	return cmd
}

func newBackupExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every document, contact and the settings to a JSON file",
		Long: `Write every document, contact and the settings to a JSON file.

Without -o the file is named quickbill-backup-YYYY-MM-DD.json and placed in
the configured backup directory. Use -o - to write to stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				b, err := a.backup.Export(ctx)
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := b.WriteTo(cmd.OutOrStdout())
					return err
				}

				path := output
				if path == "" {
					path = filepath.Join(a.cfg.BackupDir, backup.FileName(a.clock.Now()))
				}
				if err := writeBackupFile(path, b); err != nil {
					return err
				}

				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(map[string]any{
						"path":      path,
						"documents": len(b.Documents),
						"contacts":  len(b.Contacts),
					})
				}
				fmt.Fprintf(formatter.Writer, "✓ Exported %d document(s) and %d contact(s) to %s\n",
					len(b.Documents), len(b.Contacts), path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (- for stdout)")
	return cmd
}

func newBackupImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add the records of a backup file as new records",
		Long: `Add the records of a backup file as new records.

Documents and contacts are always inserted with new ids; nothing already in
the database is overwritten. A settings block in the file replaces the
current settings, including the number counters.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open backup", err)
			}
			defer f.Close()

			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				res, err := a.backup.Import(ctx, f)
				if err != nil {
					return err
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(res)
				}
				fmt.Fprintf(formatter.Writer, "✓ Imported %d document(s) and %d contact(s)\n", res.Documents, res.Contacts)
				if res.SettingsReplaced {
					fmt.Fprintln(formatter.Writer, "  Settings replaced")
				}
				return nil
			})
		},
	}
}

func writeBackupFile(path string, b backup.Backup) error {
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create backup file", err)
	}
	if _, err := b.WriteTo(f); err != nil {
		f.Close()
		return WrapExitError(ExitCommandError, "failed to write backup file", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write backup file", err)
	}
	return nil
}
