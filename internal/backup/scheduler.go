package backup

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/datebook/internal/logger"
)

// Schedule starts taking snapshots on the cron spec (standard five fields
// or a descriptor such as @daily). Stop the returned cron to end it.
func (m *Manager) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if _, err := m.CreateBackup(); err != nil {
			logger.Error("Scheduled backup failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}

	c.Start()
	logger.Info("Scheduled backups", "schedule", spec, "dir", m.backupDir)
	return c, nil
}
