// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Kalfadda/indiecraft/internal/app"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "indiecraft",
	Short: "Project management for small game teams",
	Long:  `indiecraft is a self-hosted project hub for small game-dev teams: shared schedule, asset pipeline tracking, bulletin board, asset requests, and a guide library.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cfgFile)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunMigrations(cfgFile, "up")
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [N]",
	Short: "Rollback N migrations (default: 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := "1"
		if len(args) > 0 {
			steps = args[0]
		}
		return app.RunMigrations(cfgFile, "down:"+steps)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.RunMigrations(cfgFile, "status")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		app.PrintVersion()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("validation error: %w", err)
		}
		fmt.Println("Configuration is valid")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration (sensitive values masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := app.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg.PrintMasked()
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Calendar export commands",
}

var exportICSCmd = &cobra.Command{
	Use:   "ics",
	Short: "Export a month of schedule events to an ICS file",
	Long: `Render one month of a user's schedule (own plus shared events) as an
iCalendar document and write it to a file. The file content is identical
to what the /api/v1/schedule/events/export.ics endpoint serves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("user")
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		visibility, _ := cmd.Flags().GetString("visibility")
		out, _ := cmd.Flags().GetString("out")

		return app.RunExport(cfgFile, app.ExportOptions{
			Username:   username,
			Year:       year,
			Month:      month,
			Visibility: visibility,
			OutPath:    out,
		})
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin management commands",
}

var adminResetPasswordCmd = &cobra.Command{
	Use:   "reset-password [NEW_PASSWORD]",
	Short: "Reset admin user password (or create admin if missing)",
	Long: `Reset the password for the 'admin' user. If the admin user
doesn't exist, it will be created. Also reactivates the account
if it was disabled.

If no password is provided, a secure random password is generated
and printed to stdout.

Usage from docker:
  docker exec indiecraft-app /app/indiecraft admin reset-password MyNewPass123`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) > 0 {
			password = args[0]
		} else {
			b := make([]byte, 16)
			if _, err := rand.Read(b); err != nil {
				return fmt.Errorf("generate random password: %w", err)
			}
			password = hex.EncodeToString(b)
			fmt.Fprintf(os.Stderr, "Generated admin password: %s\n", password)
			fmt.Fprintf(os.Stderr, "Save this password — it will not be shown again.\n")
		}
		if len(password) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		return app.ResetAdminPassword(cfgFile, password)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: /etc/indiecraft/config.yaml or ./config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)

	configCmd.AddCommand(configCheckCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	adminCmd.AddCommand(adminResetPasswordCmd)
	rootCmd.AddCommand(adminCmd)

	exportICSCmd.Flags().String("user", "", "username whose calendar view to export (required)")
	exportICSCmd.Flags().Int("year", 0, "year to export (default: current)")
	exportICSCmd.Flags().Int("month", 0, "month to export, 1-12 (default: current)")
	exportICSCmd.Flags().String("visibility", "", "limit to private or shared events")
	exportICSCmd.Flags().String("out", "", "output file (default: schedule-YYYY-MM.ics)")
	exportCmd.AddCommand(exportICSCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
