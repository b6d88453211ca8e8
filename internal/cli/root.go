// Package cli описывает команды бинарников трекера задач.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/task-tracker/internal/app/tasktracker"
	"github.com/magabrotheeeer/task-tracker/internal/config"
	"github.com/magabrotheeeer/task-tracker/internal/lib/logger"
	"github.com/magabrotheeeer/task-tracker/internal/migrations"
	"github.com/magabrotheeeer/task-tracker/internal/storage/repository"
)

// RootCommand — корневая команда task-tracker. Без подкоманды запускает сервер.
type RootCommand struct {
	cmd        *cobra.Command
	out        io.Writer
	configPath string
	cfg        *config.Config
	log        *slog.Logger
}

// NewRootCommand создаёт команду с подкомандами serve и migrate.
func NewRootCommand(out io.Writer) *RootCommand {
	root := &RootCommand{out: out}

	root.cmd = &cobra.Command{
		Use:   "task-tracker",
		Short: "Multi-user task tracker HTTP API",
		Long: `task-tracker serves the task tracker HTTP API.

Configuration is read from the YAML file given by --config or CONFIG_PATH;
environment variables override file values.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return root.loadConfig() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.serve(cmd.Context())
		},
	}
	root.cmd.SetOut(out)
	root.cmd.SetErr(out)
	root.cmd.PersistentFlags().StringVarP(&root.configPath, "config", "c", "", "path to config file (overrides CONFIG_PATH)")

	root.cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return root.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and print the schema version",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return root.migrate()
			},
		},
	)
	return root
}

// Execute запускает команду с аргументами args.
func (r *RootCommand) Execute(ctx context.Context, args []string) error {
	r.cmd.SetArgs(args)
	return r.cmd.ExecuteContext(ctx)
}

func (r *RootCommand) loadConfig() error {
	path := r.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return errors.New("config path is not set: use --config or CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	r.cfg = cfg
	r.log = logger.New(cfg.Env, r.out)
	return nil
}

func (r *RootCommand) serve(ctx context.Context) error {
	r.log.Info("starting task-tracker", slog.String("env", r.cfg.Env))
	r.log.Debug("loaded config", slog.String("config", r.cfg.String()))

	app, err := tasktracker.New(ctx, r.cfg, r.log)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("app stopped with error: %w", err)
	}
	r.log.Info("task-tracker stopped gracefully")
	return nil
}

func (r *RootCommand) migrate() error {
	if r.cfg.StorageDriver != config.StorageDriverPostgres {
		return fmt.Errorf("migrate requires storage_driver %q, got %q", config.StorageDriverPostgres, r.cfg.StorageDriver)
	}
	db, err := repository.New(r.cfg.StorageConnectionString)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Run(db.DB, r.cfg.MigrationsPath); err != nil {
		return err
	}
	version, dirty, err := migrations.Version(db.DB, r.cfg.MigrationsPath)
	if err != nil {
		return err
	}
	r.log.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}
