package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/datebook/internal/models"
)

type CalendarCmd struct {
	New    CalendarNewCmd    `cmd:"" help:"Create a calendar."`
	Show   CalendarShowCmd   `cmd:"" help:"Show a calendar."`
	Delete CalendarDeleteCmd `cmd:"" help:"Delete a calendar."`
	List   CalendarListCmd   `cmd:"" help:"List calendars."`
}

type CalendarNewCmd struct {
	Name        string `arg:"" optional:"" help:"Calendar name."`
	Code        string `help:"Access code. Generated when omitted."`
	Interactive bool   `short:"i" help:"Prompt for name and code."`
}

func (c *CalendarNewCmd) Run(ctx *Context) error {
	if c.Interactive {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Name").
					Value(&c.Name).
					Validate(func(s string) error {
						if s == "" {
							return fmt.Errorf("name is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Code").
					Description("Leave empty to generate one.").
					Value(&c.Code),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}
	}

	store, err := ctx.Store()
	if err != nil {
		return err
	}

	var code *string
	if c.Code != "" {
		code = &c.Code
	}
	cal, err := store.Create(c.Name, code)
	if err != nil {
		return err
	}

	ctx.printf("%s Created %s\n", successStyle.Render("✓"), headerStyle.Render(cal.Name+" #"+cal.Code))
	ctx.printf("  UID: %s\n", cal.ID)
	return nil
}

type CalendarShowCmd struct {
	Name string `arg:"" help:"Calendar name."`
	Code string `arg:"" help:"Calendar code."`
}

func (c *CalendarShowCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	cal, err := svc.Calendar(&c.Name, &c.Code)
	if err != nil {
		return err
	}

	ctx.println(headerStyle.Render(cal.Name + " #" + cal.Code))
	ctx.printf("  UID:     %s\n", cal.ID)
	ctx.printf("  Created: %s\n", time.UnixMilli(cal.Created).Format("2006-01-02 15:04:05"))

	dates := make([]string, 0, len(cal.Entries))
	for date, entries := range cal.Entries {
		if len(entries) > 0 {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		ctx.println(dimStyle.Render("  No entries"))
		return nil
	}

	sort.Slice(dates, func(i, j int) bool { return dateBefore(dates[i], dates[j]) })
	ctx.println("  Days:")
	for _, date := range dates {
		ctx.printf("    %-12s %d entries\n", date, len(cal.Entries[date]))
	}
	return nil
}

type CalendarDeleteCmd struct {
	Name string `arg:"" help:"Calendar name."`
	Code string `arg:"" help:"Calendar code."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *CalendarDeleteCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	cal, err := svc.Calendar(&c.Name, &c.Code)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := ctx.confirm(fmt.Sprintf("Delete %s #%s and all of its entries?", cal.Name, cal.Code))
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Delete cancelled.")
			return nil
		}
	}

	if err := svc.Remove(&c.Name, &c.Code); err != nil {
		return err
	}
	ctx.printf("%s Deleted %s #%s\n", successStyle.Render("✓"), cal.Name, cal.Code)
	return nil
}

type CalendarListCmd struct {
	After string `help:"Only calendars created after this date (D-M-YYYY)."`
}

func (c *CalendarListCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	ids := svc.All()
	if c.After != "" {
		if ids, err = svc.AllAfter(&c.After); err != nil {
			return err
		}
	}

	if len(ids) == 0 {
		ctx.println("No calendars found")
		return nil
	}

	cals := make([]models.Calendar, 0, len(ids))
	for _, id := range ids {
		cal, err := svc.Store().LookupByID(id)
		if err != nil {
			return err
		}
		cals = append(cals, cal)
	}
	sort.Slice(cals, func(i, j int) bool {
		if cals[i].Name != cals[j].Name {
			return cals[i].Name < cals[j].Name
		}
		return cals[i].Code < cals[j].Code
	})

	ctx.println("Calendars:")
	for _, cal := range cals {
		ctx.printf("  %-30s %s\n", cal.Name+" #"+cal.Code, dimStyle.Render(cal.ID))
	}
	return nil
}
