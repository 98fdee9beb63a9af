package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := database.Migrate(ctx, e.db.DB); err != nil {
				return err
			}
			e.logger.Info("migrations applied")
			return nil
		},
	}
}

// systemActor creates users from the command line. ID 0 is recorded as
// created_by.
var systemActor = &entity.User{ID: 0, Admin: true, Active: true}

func newCreateAdminCmd() *cobra.Command {
	var in user.CreateInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an active administrator account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authCfg := auth.ConfigFromEnv()
			if err := authCfg.Validate(); err != nil {
				return err
			}
			e, cleanup, err := setup()
			if err != nil {
				return err
			}
			defer cleanup()

			ids, err := utilities.NewIDGenerator(utilities.NodeFromEnv())
			if err != nil {
				return err
			}
			svc := user.NewUserService(userrepo.NewUserRepo(e.db, ids), auth.NewBcryptHasher(authCfg), e.logger)

			in.Admin = true
			active := true
			in.Active = &active
			u, err := svc.Create(cmd.Context(), systemActor, in)
			if err != nil {
				return err
			}
			e.logger.Infow("admin created", "user_id", u.ID, "email", u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "admin email")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "Admin", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "User", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
