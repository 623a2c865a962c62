package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/datebook/internal/tui"
)

type TuiCmd struct {
	Name string `arg:"" help:"Calendar name."`
	Code string `arg:"" help:"Calendar code."`
}

func (c *TuiCmd) Run(ctx *Context) error {
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	defer ctx.Close()

	cal, err := store.Lookup(c.Name, c.Code)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(store, cal), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
