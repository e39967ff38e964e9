package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quickbill/internal/apperr"
	"github.com/roach88/quickbill/internal/calc"
	"github.com/roach88/quickbill/internal/model"
	"github.com/roach88/quickbill/internal/prompt"
	"github.com/roach88/quickbill/internal/repo"
	"github.com/roach88/quickbill/internal/session"
)

// DefaultDraftFile is where a new Working Document is written when -o is not given.
const DefaultDraftFile = "draft.yaml"

// NewDocCommand creates the doc command group.
func NewDocCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Edit, save and list invoices and estimates",
		Long: `Work with invoices and estimates.

A document being edited lives in a YAML draft file between commands.
Start one with "doc new", "doc edit", "doc duplicate" or "doc convert",
change it with "doc set" and "doc item", and persist it with "doc save".

Examples:
  quickbill doc new -o draft.yaml
  quickbill doc set draft.yaml clientName="Acme Corp" taxRate=10
  quickbill doc item set draft.yaml 0 --desc Design --qty 2 --rate 80
  quickbill doc save draft.yaml --save-contact
  quickbill doc list --type invoice --status paid`,
	}

	cmd.AddCommand(newDocNewCommand(rootOpts))
	cmd.AddCommand(newDocSetCommand(rootOpts))
	cmd.AddCommand(newDocSetClientCommand(rootOpts))
	cmd.AddCommand(newDocItemCommand(rootOpts))
	cmd.AddCommand(newDocShowCommand(rootOpts))
	cmd.AddCommand(newDocSaveCommand(rootOpts))
	cmd.AddCommand(newDocListCommand(rootOpts))
	cmd.AddCommand(newDocStartCommand(rootOpts, "edit", "Load a saved document for editing"))
	cmd.AddCommand(newDocStartCommand(rootOpts, "duplicate", "Start a new document from a copy of a saved one"))
	cmd.AddCommand(newDocStartCommand(rootOpts, "convert", "Start a new invoice from a saved estimate"))
	cmd.AddCommand(newDocDeleteCommand(rootOpts))
	cmd.AddCommand(newDocStatsCommand(rootOpts))

	return cmd
}

func newDocNewCommand(opts *RootOptions) *cobra.Command {
	var (
		docType string
		output  string
	)
	cmd := &cobra.Command{
		Use:           "new",
		Short:         "Start a blank document",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.DocType(docType)
			if !t.Valid() {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid --type %q: must be invoice or estimate", docType))
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s := a.newSession()
				s.Reset(t)
				if err := writeDraftFile(output, s); err != nil {
					return err
				}
				return outputDraft(cmd, opts, s, output)
			})
		},
	}
	cmd.Flags().StringVarP(&docType, "type", "t", string(model.TypeInvoice), "document type (invoice|estimate)")
	cmd.Flags().StringVarP(&output, "output", "o", DefaultDraftFile, "draft file to write")
	return cmd
}

func newDocSetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <draft> field=value...",
		Short: "Set fields of a draft",
		Long: `Set fields of a draft by their JSON names.

Line items are addressed as items[N].desc, items[N].qty and items[N].rate.
Sender, theme, currency and payment fields are also remembered as defaults
for new documents.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return withDraft(cmd, opts, args[0], func(ctx context.Context, a *app, s *session.Session) error {
				for _, p := range pairs {
					if err := s.ApplyFieldEdit(p[0], p[1]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newDocSetClientCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-client <draft> <contact-id>",
		Short: "Fill the client of a draft from a saved contact",
		Long: `Fill the client name, email and address of a draft from a saved contact.

Example:
  quickbill contact list
  quickbill doc set-client draft.yaml 3`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			return withDraft(cmd, opts, args[0], func(ctx context.Context, a *app, s *session.Session) error {
				return a.contacts.Pick(ctx, s, id)
			})
		},
	}
}

func newDocItemCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, change or remove line items of a draft",
	}

	var desc, qty, rate string

	add := &cobra.Command{
		Use:           "add <draft>",
		Short:         "Append a line item",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDraft(cmd, opts, args[0], func(ctx context.Context, a *app, s *session.Session) error {
				i := s.AddItem()
				return applyItemFlags(cmd, s, i, desc, qty, rate)
			})
		},
	}

	set := &cobra.Command{
		Use:           "set <draft> <index>",
		Short:         "Change a line item",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return withDraft(cmd, opts, args[0], func(ctx context.Context, a *app, s *session.Session) error {
				return applyItemFlags(cmd, s, i, desc, qty, rate)
			})
		},
	}

	rm := &cobra.Command{
		Use:           "rm <draft> <index>",
		Short:         "Remove a line item",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			return withDraft(cmd, opts, args[0], func(ctx context.Context, a *app, s *session.Session) error {
				return s.RemoveItem(i)
			})
		},
	}

	for _, c := range []*cobra.Command{add, set} {
		c.Flags().StringVar(&desc, "desc", "", "description")
		c.Flags().StringVar(&qty, "qty", "", "quantity")
		c.Flags().StringVar(&rate, "rate", "", "unit rate")
	}

	cmd.AddCommand(add, set, rm)
	return cmd
}

func newDocShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <draft>",
		Short:         "Show a draft with its totals",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := readDraftFile(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return outputDraft(cmd, opts, a.resume(d), "")
			})
		},
	}
}

func newDocSaveCommand(opts *RootOptions) *cobra.Command {
	var saveContact bool
	cmd := &cobra.Command{
		Use:   "save <draft>",
		Short: "Save a draft to the database",
		Long: `Save a draft to the database.

The first save inserts a new document; the draft then remembers its id and
later saves update it. Every save advances the number counter for the
document's type.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			d, err := readDraftFile(path)
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s := a.resume(d)
				saved, err := a.docs.Save(ctx, s, repo.SaveOptions{SaveContact: saveContact})
				if saved.ID != 0 {
					// the record exists even if a later step failed
					if werr := writeDraftFile(path, s); werr != nil && err == nil {
						err = werr
					}
				}
				if err != nil {
					return err
				}

				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(saved)
				}
				fmt.Fprintf(formatter.Writer, "✓ Saved %s (id %d, total %s)\n",
					saved.InvoiceNumber, saved.ID, calc.FormatMoney(saved.Currency, saved.Total))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&saveContact, "save-contact", false, "also save the client to contacts")
	return cmd
}

func newDocListCommand(opts *RootOptions) *cobra.Command {
	var f repo.Filter
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List saved documents, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				docs, err := a.docs.List(ctx, f)
				if err != nil {
					return err
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(docs)
				}
				outputListText(formatter.Writer, docs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Type, "type", "all", "filter by type (all|invoice|estimate)")
	cmd.Flags().StringVar(&f.Status, "status", "all", "filter invoices by status (all|draft|sent|paid)")
	cmd.Flags().StringVar(&f.Search, "search", "", "match number, client name or client email")
	cmd.Flags().StringVar(&f.Client, "client", "", "exact client name (case-insensitive)")
	return cmd
}

// newDocStartCommand builds edit, duplicate and convert, which differ only in
// how the stored document becomes the Working Document.
func newDocStartCommand(opts *RootOptions, name, short string) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:           name + " <id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				s := a.newSession()
				switch name {
				case "edit":
					err = a.docs.LoadForEdit(ctx, s, id)
				case "duplicate":
					err = a.docs.Duplicate(ctx, s, id)
				case "convert":
					err = a.docs.ConvertToInvoice(ctx, s, id)
				}
				if err != nil {
					return err
				}
				if err := writeDraftFile(output, s); err != nil {
					return err
				}
				return outputDraft(cmd, opts, s, output)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", DefaultDraftFile, "draft file to write")
	return cmd
}

func newDocDeleteCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a saved document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				deleted, err := a.docs.Delete(ctx, id, confirmer(cmd, yes))
				if err != nil {
					return err
				}
				return outputDeleted(cmd, opts, "document", id, deleted)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newDocStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show document counts and revenue",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				st, err := a.docs.Stats(ctx)
				if err != nil {
					return err
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(st)
				}
				outputStatsText(formatter.Writer, st, a.prefs.Current().Currency)
				return nil
			})
		},
	}
}

// withDraft resumes the session in path, runs fn, writes the draft back and
// shows the result.
func withDraft(cmd *cobra.Command, opts *RootOptions, path string, fn func(ctx context.Context, a *app, s *session.Session) error) error {
	d, err := readDraftFile(path)
	if err != nil {
		return err
	}
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		s := a.resume(d)
		if err := fn(ctx, a, s); err != nil {
			return err
		}
		if err := writeDraftFile(path, s); err != nil {
			return err
		}
		return outputDraft(cmd, opts, s, "")
	})
}

func applyItemFlags(cmd *cobra.Command, s *session.Session, i int, desc, qty, rate string) error {
	edits := []struct{ flag, attr, value string }{
		{"desc", "desc", desc},
		{"qty", "qty", qty},
		{"rate", "rate", rate},
	}
	for _, e := range edits {
		if !cmd.Flags().Changed(e.flag) {
			continue
		}
		if err := s.ApplyFieldEdit(fmt.Sprintf("items[%d].%s", i, e.attr), e.value); err != nil {
			return err
		}
	}
	// an index the flags never touched still has to exist
	if i < 0 || i >= len(s.Document().Items) {
		return apperr.ConstraintViolation("edit item", fmt.Sprintf("no line item at index %d", i))
	}
	return nil
}

func outputDraft(cmd *cobra.Command, opts *RootOptions, s *session.Session, wrote string) error {
	view := DocumentView{EditingID: s.EditingID(), Document: s.Document(), Totals: s.Totals()}
	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(view)
	}
	if wrote != "" {
		fmt.Fprintf(formatter.Writer, "Wrote draft to %s\n\n", wrote)
	}
	outputDocumentText(formatter.Writer, view)
	return nil
}

func outputDeleted(cmd *cobra.Command, opts *RootOptions, kind string, id int64, deleted bool) error {
	formatter := opts.formatter(cmd)
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"id": id, "deleted": deleted})
	}
	if deleted {
		fmt.Fprintf(formatter.Writer, "✓ Deleted %s %d\n", kind, id)
	} else {
		fmt.Fprintln(formatter.Writer, "Cancelled")
	}
	return nil
}

// confirmer asks on the command's streams unless --yes was given.
func confirmer(cmd *cobra.Command, yes bool) prompt.Confirmer {
	if yes {
		return prompt.Static(true)
	}
	return prompt.Terminal{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
}

func readDraftFile(path string) (session.Draft, error) {
	f, err := os.Open(path)
	if err != nil {
		return session.Draft{}, WrapExitError(ExitCommandError, "failed to open draft", err)
	}
	defer f.Close()

	d, err := session.ReadDraft(f)
	if err != nil {
		return session.Draft{}, WrapExitError(ExitCommandError, "failed to read draft "+path, err)
	}
	return d, nil
}

func writeDraftFile(path string, s *session.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create draft", err)
	}
	if err := s.WriteDraft(f); err != nil {
		f.Close()
		return WrapExitError(ExitCommandError, "failed to write draft", err)
	}
	if err := f.Close(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write draft", err)
	}
	return nil
}

func parseAssignments(args []string) ([][2]string, error) {
	out := make([][2]string, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("expected field=value, got %q", arg))
		}
		out = append(out, [2]string{field, value})
	}
	return out, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid item index %q", s))
	}
	return i, nil
}
