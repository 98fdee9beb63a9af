package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/group"
	grouprepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/group/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/mailer"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/permission"
	permrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/permission/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

func newServeCmd() *cobra.Command {
	var (
		addr    string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(addr, migrate)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "0.0.0.0:8431", "listen address")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(addr string, migrate bool) error {
	authCfg := auth.ConfigFromEnv()
	if err := authCfg.Validate(); err != nil {
		return err
	}

	e, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	sugar := e.logger
	sugar.Info("starting service-identity-go")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if migrate {
		if err := database.Migrate(ctx, e.db.DB); err != nil {
			return err
		}
	}

	ids, err := utilities.NewIDGenerator(utilities.NodeFromEnv())
	if err != nil {
		return err
	}

	users := userrepo.NewUserRepo(e.db, ids)
	groups := grouprepo.NewGroupRepo(e.db, ids)
	perms := permrepo.NewPermissionRepo(e.db, ids)

	hasher := auth.NewBcryptHasher(authCfg)
	codec := auth.NewTokenCodec(authCfg)
	resolver := auth.NewResolver(groups)
	mail := mailer.New(mailer.ConfigFromEnv(), sugar)

	handler := router.RegisterRoutes(router.Deps{
		Logger:      sugar,
		Gate:        auth.NewGate(codec, users, resolver, sugar),
		Auth:        auth.NewHandler(auth.NewService(authCfg, users, hasher, codec, resolver, mail, sugar), sugar),
		Users:       user.NewHandler(user.NewUserService(users, hasher, sugar), sugar),
		Groups:      group.NewHandler(group.NewGroupService(groups, sugar), sugar),
		Permissions: permission.NewHandler(permission.NewPermissionService(perms, sugar), sugar),
		CORS:        router.CORSConfigFromEnv(),
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		sugar.Infow("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	sugar.Info("shutting down")
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
	return nil
}
