package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/common"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBackend(cmd.Context(), func(b *Backend) error {
				if err := b.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			})
		},
	}
}

type createUserOptions struct {
	email    string
	username string
	name     string
}

func NewCreateUserCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a password account",
		Long: `Create a password account. The password is read from the terminal
twice without echo. The account starts with onboarding incomplete.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBackend(cmd.Context(), func(b *Backend) error {
				return runCreateUser(cmd, b, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "account email")
	cmd.Flags().StringVar(&opts.username, "username", "", "account username")
	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")

	return cmd
}

func runCreateUser(cmd *cobra.Command, b *Backend, opts *createUserOptions) error {
	w := cmd.OutOrStdout()

	password, err := GetPassword("Password", w)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword("Repeat password", w)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	u, err := b.Accounts.Register(cmd.Context(), services.RegisterInput{
		Email:           opts.email,
		Username:        opts.username,
		Name:            opts.name,
		Password:        string(password),
		ConfirmPassword: string(confirm),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Created user %s (%s)\n", u.ID, u.Email)
	return nil
}

func NewDeactivateUserCommand(rootOpts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "deactivate-user",
		Short: "Deactivate an account; its records are kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBackend(cmd.Context(), func(b *Backend) error {
				return runDeactivateUser(cmd.Context(), cmd, b, email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runDeactivateUser(ctx context.Context, cmd *cobra.Command, b *Backend, email string) error {
	u, err := b.Accounts.LookupByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return errors.New("user is already inactive")
	}
	if err := b.Accounts.Deactivate(ctx, u.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deactivated user %s\n", u.ID)
	return nil
}
