package cli

import (
	"errors"
	"strings"

	"github.com/julianstephens/datebook/internal/keyring"
	"github.com/julianstephens/datebook/internal/storage"
	"github.com/julianstephens/datebook/internal/storage/postgres"
)

// KeyringCmd manages the data source kept in the OS keyring. Set the data
// source to "keyring" to use it.
type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a data source in the keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Print the stored data source."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored data source."`
	Status KeyringStatusCmd `cmd:"" help:"Report keyring availability."`
}

type KeyringSetCmd struct {
	Source string `arg:"" help:"Data source (directory, SQLite file, postgres:// or redis:// URL)."`
}

func (c *KeyringSetCmd) Run(ctx *Context) error {
	if c.Source == storage.KeyringSource {
		return errors.New("the keyring cannot point at itself")
	}
	if isPostgres(c.Source) {
		// Credentials are allowed in the keyring.
		if _, err := postgres.ValidateConnString(c.Source); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return err
		}
	}
	if err := keyring.SetDataSource(c.Source); err != nil {
		return err
	}
	ctx.printf("%s Data source stored in keyring\n", successStyle.Render("✓"))
	return nil
}

type KeyringGetCmd struct{}

func (c *KeyringGetCmd) Run(ctx *Context) error {
	source, err := keyring.GetDataSource()
	if err != nil {
		return err
	}
	ctx.println(source)
	return nil
}

type KeyringDeleteCmd struct{}

func (c *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteDataSource(); err != nil {
		return err
	}
	ctx.printf("%s Data source removed from keyring\n", successStyle.Render("✓"))
	return nil
}

type KeyringStatusCmd struct{}

func (c *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.printf("%s Keyring: unavailable\n", failStyle.Render("❌"))
		return nil
	}
	ctx.printf("%s Keyring: available\n", successStyle.Render("✓"))

	if _, err := keyring.GetDataSource(); err != nil {
		ctx.printf("%s Data source: not stored\n", dimStyle.Render("⊘"))
	} else {
		ctx.printf("%s Data source: stored\n", successStyle.Render("✓"))
	}
	if ctx.Config.DataSource == storage.KeyringSource {
		ctx.println("  Active: the configured data source reads from the keyring")
	}
	return nil
}

func isPostgres(source string) bool {
	return strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://")
}
