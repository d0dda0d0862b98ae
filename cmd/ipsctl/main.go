package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bitfantasy/ips-logistics/internal/app"
	"github.com/bitfantasy/ips-logistics/internal/config"
	"github.com/bitfantasy/ips-logistics/internal/database"
	"github.com/bitfantasy/ips-logistics/internal/logging"
	"github.com/bitfantasy/ips-logistics/internal/logistics/migration"
	"github.com/bitfantasy/ips-logistics/internal/logistics/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// env 命令运行时的配置、日志和数据库
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
}

func loadEnv() (*env, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, db: db}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
	e.logger.Sync()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ipsctl",
		Short:        "Operator tool for the IPS logistics service",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newMigrateCmd(), newImportCmd(), newUserCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()
			if err := migration.Run(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()
			if err := migration.RollbackLast(e.db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "last migration rolled back")
			return nil
		},
	})
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <materials|projects|allocations> <file.xlsx>",
		Short: "Import a spreadsheet into the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, path := args[0], args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			a, err := app.New(cmd.Context(), e.cfg, e.db, e.logger)
			if err != nil {
				return err
			}
			result, err := a.Services.Import.Import(cmd.Context(), kind, filepath.Base(path), data)
			if err != nil {
				return err
			}
			printImportResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func printImportResult(w io.Writer, r *service.ImportResult) {
	fmt.Fprintf(w, "%s: total=%d created=%d updated=%d skipped=%d\n", r.Kind, r.Total, r.Created, r.Updated, r.Skipped)
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "  %s\n", msg)
	}
	if r.ArchivePath != "" {
		fmt.Fprintf(w, "archived to %s\n", r.ArchivePath)
	}
}

type userFlags struct {
	name     string
	mail     string
	phone    string
	password string
	role     string
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var flags userFlags
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.name == "" || flags.password == "" {
				return errors.New("--name and --password are required")
			}
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			a, err := app.New(cmd.Context(), e.cfg, e.db, e.logger)
			if err != nil {
				return err
			}
			u, err := a.Services.User.Register(cmd.Context(), service.RegisterReq{
				Name:     flags.name,
				Mail:     flags.mail,
				Phone:    flags.phone,
				Password: flags.password,
				Role:     flags.role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.ID, u.Role)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&flags.name, "name", "", "Display name")
	f.StringVar(&flags.mail, "mail", "", "Login mail address")
	f.StringVar(&flags.phone, "phone", "", "Phone number")
	f.StringVar(&flags.password, "password", "", "Initial password")
	f.StringVar(&flags.role, "role", "worker", "Role: worker, head, driver or dev")

	cmd.AddCommand(create)
	return cmd
}
