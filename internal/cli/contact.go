package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quickbill/internal/model"
)

// NewContactCommand creates the contact command group.
func NewContactCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage saved clients",
	}
	cmd.AddCommand(newContactAddCommand(rootOpts))
	cmd.AddCommand(newContactListCommand(rootOpts))
	cmd.AddCommand(newContactDeleteCommand(rootOpts))
	return cmd
}

func newContactAddCommand(opts *RootOptions) *cobra.Command {
	var (
		c  model.Contact
		id int64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a client",
		Long: `Add or update a client.

Without --id the client is matched by name, ignoring case, and an existing
entry is replaced in full. With --id that entry is replaced.

Example:
  quickbill contact add --name "Acme Corp" --email billing@acme.test`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				var (
					saved model.Contact
					err   error
				)
				if id != 0 {
					c.ID = id
					saved, err = a.contacts.Save(ctx, c)
				} else {
					saved, err = a.contacts.UpsertByName(ctx, c)
				}
				if err != nil {
					return err
				}

				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(saved)
				}
				fmt.Fprintf(formatter.Writer, "✓ Saved contact %d: %s\n", saved.ID, saved.Name)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "replace the contact with this id")
	cmd.Flags().StringVar(&c.Name, "name", "", "client name (required)")
	cmd.Flags().StringVar(&c.Email, "email", "", "client email")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "client phone")
	cmd.Flags().StringVar(&c.Address, "address", "", "client address")
	return cmd
}

func newContactListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List clients",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				contacts, err := a.contacts.List(ctx)
				if err != nil {
					return err
				}
				formatter := opts.formatter(cmd)
				if formatter.Format == "json" {
					return formatter.Success(contacts)
				}
				outputContactsText(formatter.Writer, contacts)
				return nil
			})
		},
	}
}

func newContactDeleteCommand(opts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a client",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				deleted, err := a.contacts.Delete(ctx, id, confirmer(cmd, yes))
				if err != nil {
					return err
				}
				return outputDeleted(cmd, opts, "contact", id, deleted)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
