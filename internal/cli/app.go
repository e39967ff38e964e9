package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/backup"
	"github.com/roach88/quickbill/internal/clock"
	"github.com/roach88/quickbill/internal/config"
	"github.com/roach88/quickbill/internal/logger"
	"github.com/roach88/quickbill/internal/repo"
	"github.com/roach88/quickbill/internal/session"
	"github.com/roach88/quickbill/internal/settings"
	"github.com/roach88/quickbill/internal/store"
)

// app is everything a command needs, wired against one open database.
type app struct {
	cfg      config.Config
	clock    clock.Clock
	store    *store.Store
	prefs    *settings.Store
	docs     *repo.Documents
	contacts *repo.Contacts
	backup   *backup.Service
}

func openApp(ctx context.Context, opts *RootOptions) (*app, error) {
	cfg := opts.cfg()
	clk := opts.clk()

	st, err := store.Open(cfg.Database, store.WithLogger(logger.WithComponent("store")))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	prefs := settings.New(st, cfg.SettingsDebounce, logger.WithComponent("settings"))
	if err := prefs.Load(ctx); err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load settings", err)
	}

	contacts := repo.NewContacts(st, logger.WithComponent("contacts"))
	return &app{
		cfg:      cfg,
		clock:    clk,
		store:    st,
		prefs:    prefs,
		docs:     repo.NewDocuments(st, contacts, logger.WithComponent("documents")),
		contacts: contacts,
		backup:   backup.NewService(st, prefs, clk, logger.WithComponent("backup")),
	}, nil
}

// close writes any pending settings change and closes the database.
func (a *app) close(ctx context.Context) error {
	flushErr := a.prefs.Flush(ctx)
	a.prefs.Cancel()
	return errors.Join(flushErr, a.store.Close())
}

// newSession starts a session honoring the configured due-date offset.
func (a *app) newSession() *session.Session {
	return session.New(a.prefs, a.clock, session.WithDueDays(a.cfg.DueDays))
}

// resume rebuilds the session stored in a draft file.
func (a *app) resume(d session.Draft) *session.Session {
	return session.Resume(d, a.prefs, a.clock, session.WithDueDays(a.cfg.DueDays))
}

// withApp opens the app, runs fn and closes the app. Domain errors are
// mapped to exit codes.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	opts.formatter(cmd).VerboseLog("Using database %s", a.cfg.Database)
	runErr := fn(ctx, a)
	closeErr := a.close(ctx)

	if runErr != nil {
		return exitErrorFor(runErr)
	}
	if closeErr != nil {
		return WrapExitError(ExitCommandError, "failed to close database", closeErr)
	}
	return nil
}

// exitErrorFor assigns an exit code to err. Storage failures are command
// errors; rejected input and missing records are failures.
func exitErrorFor(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeStorageFailure:
		return WrapExitError(ExitCommandError, "storage failure", err)
	case apperr.CodeConstraintViolation, apperr.CodeInvalidBackup, apperr.CodeNotFound:
		return WrapExitError(ExitFailure, "rejected", err)
	default:
		return WrapExitError(ExitFailure, "command failed", err)
	}
}
