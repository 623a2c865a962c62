package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/storage"
)

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	report := func(name string, err error) {
		if err != nil {
			ctx.printf("%s %s: FAIL\n", failStyle.Render("❌"), name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
			return
		}
		ctx.printf("%s %s: OK\n", successStyle.Render("✓"), name)
	}

	ds, loadErr := checkStorageReachable(ctx)
	report("Storage reachable", loadErr)
	report("Schema version", checkSchemaVersion(ctx))

	if loadErr == nil {
		report("Data validation", ds.Validate())
	} else {
		ctx.printf("%s Data validation: SKIPPED (storage not reachable)\n", dimStyle.Render("⊘"))
	}

	// Warning only
	if err := checkBackupsPresent(ctx); err != nil {
		ctx.printf("%s Backups present: WARNING\n", warnStyle.Render("⚠"))
		ctx.printf("   %v\n", err)
	} else {
		ctx.printf("%s Backups present: OK\n", successStyle.Render("✓"))
	}

	report("Clock/timezone", checkClockTimezone(ctx))

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.println("All diagnostics passed!")
	return nil
}

func checkStorageReachable(ctx *Context) (models.Dataset, error) {
	p, err := ctx.Persister()
	if err != nil {
		return models.Dataset{}, err
	}
	ds, err := p.Load()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to load %s storage: %w", storage.Kind(p), err)
	}
	return ds, nil
}

func checkSchemaVersion(ctx *Context) error {
	p, err := ctx.Persister()
	if err != nil {
		return err
	}
	versioned, ok := p.(storage.Versioned)
	if !ok {
		// JSON, Redis and memory stores have no schema
		return nil
	}

	current, latest, err := versioned.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'datebook backup create'")
	}
	return nil
}

func checkClockTimezone(ctx *Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	// Dates are interpreted in local time
	if now.Location() == time.UTC {
		ctx.printf("   Note: timezone is UTC\n")
	}
	return nil
}
