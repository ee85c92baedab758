// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Kalfadda/indiecraft/internal/ics"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
	"github.com/Kalfadda/indiecraft/internal/repository/postgres"
	"github.com/Kalfadda/indiecraft/internal/services/schedule"
)

// ExportOptions controls the export command.
type ExportOptions struct {
	// Username selects whose calendar view is exported (owner-or-shared
	// visibility, same as the API).
	Username string

	// Year and Month select the exported month. Zero values default to the
	// current month.
	Year  int
	Month int

	// Visibility optionally narrows the export ("private" or "shared").
	Visibility string

	// OutPath is the output file. Empty derives schedule-YYYY-MM.ics.
	OutPath string
}

// RunExport renders one month of a user's schedule and writes the ICS
// document to a file. The file receives the generated bytes verbatim.
func RunExport(cfgFile string, opts ExportOptions) error {
	if opts.Username == "" {
		return fmt.Errorf("--user is required")
	}

	cfg, err := LoadConfig(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	now := time.Now()
	if opts.Year == 0 {
		opts.Year = now.Year()
	}
	if opts.Month == 0 {
		opts.Month = int(now.Month())
	}

	timezone, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return fmt.Errorf("load calendar timezone: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := connectDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := postgres.NewUserRepository(db).GetByUsername(ctx, opts.Username)
	if err != nil {
		return fmt.Errorf("look up user %q: %w", opts.Username, err)
	}

	svc := schedule.NewService(postgres.NewScheduleRepository(db), ics.NewBuilder(), timezone, logger.Nop())
	doc, err := svc.ExportMonthICS(ctx, user.ID, opts.Year, opts.Month, opts.Visibility)
	if err != nil {
		return err
	}

	path := exportPath(opts.OutPath, opts.Year, opts.Month)
	if err := writeExportFile(path, doc); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}

// exportPath derives the output filename when none was given.
func exportPath(out string, year, month int) string {
	if out != "" {
		return out
	}
	return fmt.Sprintf("schedule-%04d-%02d.ics", year, month)
}

// writeExportFile writes the document bytes untouched. No newline translation:
// the calendar format requires CRLF line endings on every platform.
func writeExportFile(path, doc string) error {
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
