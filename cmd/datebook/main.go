package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/datebook/internal/cli"
	"github.com/julianstephens/datebook/internal/config"
	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/errors"
	"github.com/julianstephens/datebook/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	Config     string `help:"Config file path." default:"${config_file}"`
	DataSource string `help:"Data source: directory, SQLite file, postgres:// or redis:// URL, or 'keyring'. Overrides the config file."`
	Debug      bool   `help:"Log debug output to stderr."`

	Init     cli.InitCmd     `cmd:"" help:"Initialize datebook storage."`
	Serve    cli.ServeCmd    `cmd:"" help:"Serve the HTTP API."`
	Calendar cli.CalendarCmd `cmd:"" help:"Manage calendars."`
	Entries  cli.EntriesCmd  `cmd:"" help:"Manage entries."`
	Backup   cli.BackupCmd   `cmd:"" help:"Manage backups."`
	Keyring  cli.KeyringCmd  `cmd:"" help:"Manage the data source stored in the OS keyring."`
	Tui      cli.TuiCmd      `cmd:"" help:"Browse a calendar interactively."`
	Doctor   cli.DoctorCmd   `cmd:"" help:"Run health checks."`
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Calendars of dated entries, served over HTTP or edited from the terminal"),
		kong.UsageOnError(),
		kong.Vars{
			"version":     constants.Version,
			"config_file": constants.DefaultConfigFile,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.DataSource != "" {
		cfg.DataSource = CLI.DataSource
	}
	if CLI.Debug {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{
		Debug:  cfg.Log.Debug,
		Level:  cfg.Log.Level,
		LogDir: cfg.Log.Dir,
	}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}

	appCtx := cli.NewContext(cfg)
	defer appCtx.Close()

	if err := ctx.Run(appCtx); err != nil {
		appCtx.Close()
		errors.Fatal(err)
	}
}
