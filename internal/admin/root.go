// Package admin implements habitkeeper-admin, the operator command line:
// migrations, account creation and deactivation, and walking a user through
// onboarding from a terminal.
package admin

import (
	"context"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
	"github.com/dmitrijs2005/habitkeeper/internal/server/onboarding"
	"github.com/dmitrijs2005/habitkeeper/internal/server/services"
	"github.com/spf13/cobra"
)

type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	LookupByEmail(ctx context.Context, email string) (*models.User, error)
	Deactivate(ctx context.Context, userID string) error
}

type Onboarding interface {
	Submitter(userID string, metrics []string) onboarding.Submitter
}

// Backend is what the commands operate on. Close releases it.
type Backend struct {
	Migrate    func(ctx context.Context) error
	Accounts   Accounts
	Onboarding Onboarding
	Close      func() error
}

// Opener connects to the database named by dsn.
type Opener func(ctx context.Context, dsn string) (*Backend, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DSN  string
	open Opener
}

// NewRootCommand creates the root command. defaultDSN comes from the
// environment and can be overridden with --dsn.
func NewRootCommand(defaultDSN string, open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:           "habitkeeper-admin",
		Short:         "Operator tools for the habitkeeper backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", defaultDSN, "PostgreSQL DSN")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateUserCommand(opts))
	cmd.AddCommand(NewDeactivateUserCommand(opts))
	cmd.AddCommand(NewOnboardCommand(opts))

	return cmd
}

// withBackend opens the backend for the duration of fn.
func (o *RootOptions) withBackend(ctx context.Context, fn func(b *Backend) error) error {
	b, err := o.open(ctx, o.DSN)
	if err != nil {
		return err
	}
	if b.Close != nil {
		defer b.Close()
	}
	return fn(b)
}
