package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/julianstephens/datebook/internal/api"
	"github.com/julianstephens/datebook/internal/logger"
)

type ServeCmd struct {
	Addr     string `help:"Listen address. Overrides the config file."`
	NoBackup bool   `help:"Disable scheduled backups."`
}

func (c *ServeCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	defer ctx.Close()

	addr := ctx.Config.Server.Addr
	if c.Addr != "" {
		addr = c.Addr
	}

	if !c.NoBackup && ctx.Config.Backup.Schedule != "" {
		mgr, err := ctx.BackupManager()
		if err != nil {
			return err
		}
		sched, err := mgr.Schedule(ctx.Config.Backup.Schedule)
		if err != nil {
			return err
		}
		defer sched.Stop()
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx.printf("Serving %d calendars on %s\n", len(svc.All()), addr)
	if err := api.NewServer(addr, svc).Run(runCtx); err != nil {
		return err
	}
	logger.Info("Server exited")
	return nil
}
