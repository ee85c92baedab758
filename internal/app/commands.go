// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package app

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Kalfadda/indiecraft/internal/repository/postgres"
	"github.com/Kalfadda/indiecraft/internal/services/auth"
)

// Build metadata, injected via -ldflags at release time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Run loads configuration and runs the server until SIGINT/SIGTERM.
func Run(cfgFile string) error {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return New(cfg, BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime}).Run(ctx)
}

// RunMigrations runs the migration operation named by op: "up", "down:N", or
// "status". Only database configuration is required.
func RunMigrations(cfgFile, op string) error {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := connectDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case op == "up":
		return db.Migrate(ctx)
	case op == "status":
		return db.MigrationStatus(ctx)
	case strings.HasPrefix(op, "down:"):
		return db.MigrateDown(ctx, strings.TrimPrefix(op, "down:"))
	default:
		return fmt.Errorf("unknown migration operation: %q", op)
	}
}

// ResetAdminPassword sets a new password for the admin user, creating the
// account if it does not exist.
func ResetAdminPassword(cfgFile, password string) error {
	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := connectDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	users := postgres.NewUserRepository(db)
	admin, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		if err := users.Create(ctx, newAdminUser(hash)); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		fmt.Println("Admin user created")
		return nil
	}

	if err := users.UpdatePassword(ctx, admin.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if !admin.IsActive {
		admin.IsActive = true
		if err := users.Update(ctx, admin); err != nil {
			return fmt.Errorf("reactivate admin: %w", err)
		}
	}
	fmt.Println("Admin password updated")
	return nil
}

// PrintVersion prints build metadata to stdout.
func PrintVersion() {
	fmt.Printf("indiecraft %s\n", Version)
	fmt.Printf("  commit:     %s\n", Commit)
	fmt.Printf("  build time: %s\n", BuildTime)
}

func connectDatabase(ctx context.Context, cfg *Config) (*postgres.DB, error) {
	db, err := postgres.New(ctx, cfg.Database.URL, postgres.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
