package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

// env holds what every subcommand needs: a logger and an open database.
type env struct {
	logger *zap.SugaredLogger
	db     *sqlx.DB
}

// setup loads .env (best effort), builds the logger and connects to
// postgres. The returned func flushes the logger and closes the pool.
func setup() (*env, func(), error) {
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	sugar := lg.Sugar()

	db, err := database.Connect(context.Background(), database.ConfigFromEnv())
	if err != nil {
		_ = lg.Sync()
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	cleanup := func() {
		_ = db.Close()
		_ = lg.Sync()
	}
	return &env{logger: sugar, db: db}, cleanup, nil
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "identity",
		Short:         "Users, groups and permissions service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newMigrateCmd(), newCreateAdminCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
