package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/datebook/internal/backup"
	"github.com/julianstephens/datebook/internal/calendar"
	"github.com/julianstephens/datebook/internal/config"
	"github.com/julianstephens/datebook/internal/logger"
	"github.com/julianstephens/datebook/internal/storage"
)

// Context is shared by every command. The store is opened on first use so
// that commands such as keyring and init never touch the data source.
type Context struct {
	Config *config.Config
	Out    io.Writer
	In     io.Reader

	persister storage.Persister
	store     *calendar.Store
}

func NewContext(cfg *config.Config) *Context {
	return &Context{Config: cfg, Out: os.Stdout, In: os.Stdin}
}

// Persister opens the configured data source without loading it.
func (c *Context) Persister() (storage.Persister, error) {
	if c.persister != nil {
		return c.persister, nil
	}
	p, err := storage.Open(c.Config.DataSource)
	if err != nil {
		return nil, err
	}
	c.persister = p
	return p, nil
}

// Store loads the dataset into a calendar store.
func (c *Context) Store() (*calendar.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	p, err := c.Persister()
	if err != nil {
		return nil, err
	}
	store, err := calendar.NewStore(p)
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

func (c *Context) Service() (*calendar.Service, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	return calendar.NewService(store), nil
}

func (c *Context) BackupManager() (*backup.Manager, error) {
	store, err := c.Store()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(store, c.Config.Backup.Dir, c.Config.Backup.MaxBackups), nil
}

// PerformAutomaticBackup snapshots the dataset before a long-running
// command. Failures are logged and otherwise ignored.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		logger.Warn("Automatic backup skipped", "error", err)
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

func (c *Context) Close() error {
	if c.persister == nil {
		return nil
	}
	err := c.persister.Close()
	c.persister = nil
	c.store = nil
	return err
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.Out, args...)
}

// confirm asks a yes/no question on In. Anything but y/yes is a no.
func (c *Context) confirm(question string) (bool, error) {
	c.printf("%s [y/N]: ", question)
	response, err := bufio.NewReader(c.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
