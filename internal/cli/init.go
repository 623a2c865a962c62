package cli

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	p, err := ctx.Persister()
	if err != nil {
		return err
	}
	if err := p.Init(); err != nil {
		return err
	}
	ctx.printf("%s Initialized datebook storage at: %s\n", successStyle.Render("✓"), p.GetConfigPath())
	return nil
}
