package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/clock"
	"github.com/roach88/quickbill/internal/config"
	"github.com/roach88/quickbill/internal/logger"
	"github.com/roach88/quickbill/internal/model"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	Database   string // overrides the configured database path
	ConfigPath string

	// Config is loaded before any subcommand runs. Tests may set it directly.
	Config *config.Config

	// Clock stamps saves and default dates. Defaults to the system clock.
	Clock clock.Clock

	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the QuickBill CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Clock: clock.System{}})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "quickbill",
		Short:   "QuickBill - invoices and estimates from the terminal",
		Long:    "Create, number, save and back up invoices and estimates in a local database.",
		Version: model.AppVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file (default ./"+config.DefaultFile+" if present)")

	// Add subcommands
	cmd.AddCommand(NewDocCommand(opts))
	cmd.AddCommand(NewContactCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))

	return cmd
}

// Execute runs the CLI with args and reports any error through the output
// formatter. It returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, &RootOptions{Clock: clock.System{}}, args, stdout, stderr)
}

func execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	// cobra skips PersistentPostRunE when RunE fails
	_ = opts.teardown()
	if err == nil {
		return ExitSuccess
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	if !isValidFormat(format) {
		format = "text"
	}
	verbose, _ := cmd.PersistentFlags().GetBool("verbose")
	formatter := &OutputFormatter{Format: format, Writer: stderr, Verbose: verbose}
	if format == "json" {
		formatter.Writer = stdout
	}
	_ = formatter.Error(errorCode(err), err.Error(), errorDetails(err))
	return GetExitCode(err)
}

// setup loads configuration and configures logging.
func (o *RootOptions) setup() error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Verbose {
		cfg.LogLevel = "debug"
	}

	closer, err := logger.Setup(cfg.GetLoggerConfig())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.Config = cfg
	o.logCloser = closer
	return nil
}

func (o *RootOptions) teardown() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

// cfg returns the loaded configuration, or defaults when commands run
// without the root (as in tests).
func (o *RootOptions) cfg() config.Config {
	cfg := config.Default()
	if o.Config != nil {
		cfg = *o.Config
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	return cfg
}

func (o *RootOptions) clk() clock.Clock {
	if o.Clock == nil {
		return clock.System{}
	}
	return o.Clock
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// errorCode names err for the error envelope.
func errorCode(err error) string {
	if code := apperr.CodeOf(err); code != "" {
		return string(code)
	}
	return "COMMAND_ERROR"
}

// errorDetails names the failing operation of an apperr error.
func errorDetails(err error) map[string]string {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Op == "" {
		return nil
	}
	return map[string]string{"op": appErr.Op}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
