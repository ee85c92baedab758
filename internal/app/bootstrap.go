// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kalfadda/indiecraft/internal/models"
	"github.com/Kalfadda/indiecraft/internal/repository/postgres"
	"github.com/Kalfadda/indiecraft/internal/services/auth"
)

// defaultBootstrapPassword is used when auth.bootstrap_password is not set.
// It is printed at startup and should be changed on first login.
const defaultBootstrapPassword = "indiecraft-admin"

// bootstrapAdminUser seeds the first admin account when the user table is
// empty, so a fresh install is immediately usable.
func (app *Application) bootstrapAdminUser(ctx context.Context, users *postgres.UserRepository) error {
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := app.Config.Auth.BootstrapPassword
	generated := password == ""
	if generated {
		password = defaultBootstrapPassword
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	admin := newAdminUser(hash)
	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	app.Logger.Warn("created bootstrap admin user", "username", admin.Username)
	if generated {
		fmt.Println("========================================================")
		fmt.Println("  First run: admin account created")
		fmt.Printf("    username: %s\n", admin.Username)
		fmt.Printf("    password: %s\n", password)
		fmt.Println("  Change this password after logging in.")
		fmt.Println("========================================================")
	}
	return nil
}

func newAdminUser(hash string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
}
