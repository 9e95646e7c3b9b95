package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MegMacD/wordpointe-sub001/internal/config"
	"github.com/MegMacD/wordpointe-sub001/internal/models"
	"github.com/MegMacD/wordpointe-sub001/internal/repository"
	"github.com/MegMacD/wordpointe-sub001/internal/security"
	"github.com/MegMacD/wordpointe-sub001/internal/service"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func migrateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDatabase(cfg, true)
				if err != nil {
					return err
				}
				return db.Close()
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1 step)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid step count %q", args[0])
					}
					steps = n
				}

				db, err := openDatabase(cfg, false)
				if err != nil {
					return err
				}
				defer db.Close()

				if err := db.MigrateDown(steps); err != nil {
					return err
				}
				log.WithField("steps", steps).Info("Migrations rolled back")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := openDatabase(cfg, false)
				if err != nil {
					return err
				}
				defer db.Close()

				version, dirty, err := db.MigrationStatus()
				if err != nil {
					return err
				}
				fmt.Printf("version: %d, dirty: %t\n", version, dirty)
				return nil
			},
		},
	)
	return cmd
}

func userCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Provision participants",
	}

	var role, password string
	var generate bool
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			if generate {
				password, err = security.GeneratePassword(12)
				if err != nil {
					return fmt.Errorf("failed to generate password: %w", err)
				}
			}

			users := service.NewUserService(repository.NewUserRepository(db), repository.NewPointsRepository(db))
			user, err := users.Create(cmd.Context(), args[0], models.Role(role), password)
			if err != nil {
				return err
			}
			fmt.Printf("Created %s %q (id %d)\n", user.Role, user.Name, user.ID)
			if generate {
				fmt.Printf("Password: %s\n", password)
			}
			return nil
		},
	}
	create.Flags().StringVar(&role, "role", string(models.RoleStudent), "Role (leader, student)")
	create.Flags().StringVar(&password, "password", "", "Password (required for leaders)")
	create.Flags().BoolVar(&generate, "generate-password", false, "Generate a random password and print it")
	create.MarkFlagsMutuallyExclusive("password", "generate-password")

	var newPassword string
	setPassword := &cobra.Command{
		Use:   "set-password <name>",
		Short: "Set or replace a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(repository.NewUserRepository(db), repository.NewPointsRepository(db))
			if err := users.SetPassword(cmd.Context(), args[0], newPassword); err != nil {
				return err
			}
			fmt.Printf("Password updated for %q\n", args[0])
			return nil
		},
	}
	setPassword.Flags().StringVar(&newPassword, "password", "", "New password")
	_ = setPassword.MarkFlagRequired("password")

	cmd.AddCommand(create, setPassword)
	return cmd
}

func reportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Export reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "users-csv",
		Short: "Write the users points report to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			points := service.NewPointsService(repository.NewPointsRepository(db))
			return service.NewReportService(points).UsersCSV(cmd.Context(), cmd.OutOrStdout())
		},
	})
	return cmd
}

func backupCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the ledger as JSON",
	}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
			}
			if dir := filepath.Dir(output); dir != "." && dir != "" {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}

			db, err := openDatabase(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer file.Close()

			if _, err := service.NewBackupService(db).Export(cmd.Context(), file); err != nil {
				return err
			}
			log.WithField("file", output).Info("Export complete")
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "Output file (default backup_YYYYMMDD_HHMMSS.json)")

	var input string
	var replace bool
	restore := &cobra.Command{
		Use:   "import",
		Short: "Restore the ledger from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer file.Close()

			db, err := openDatabase(cfg, true)
			if err != nil {
				return err
			}
			defer db.Close()

			backup, err := service.NewBackupService(db).Import(cmd.Context(), file, replace)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"file": input, "users": len(backup.Users)}).Info("Import complete")
			return nil
		},
	}
	restore.Flags().StringVarP(&input, "input", "i", "", "Input file")
	restore.Flags().BoolVar(&replace, "replace", false, "Delete all existing data before importing")
	_ = restore.MarkFlagRequired("input")

	cmd.AddCommand(export, restore)
	return cmd
}
