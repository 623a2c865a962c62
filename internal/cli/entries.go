package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/datebook/internal/calendar"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/utils"
)

type EntriesCmd struct {
	List   EntriesListCmd   `cmd:"" help:"List the entries of a day."`
	Get    EntriesGetCmd    `cmd:"" help:"Show one entry."`
	Set    EntriesSetCmd    `cmd:"" help:"Write entries to a day."`
	Delete EntriesDeleteCmd `cmd:"" help:"Delete a day or one entry."`
}

// DayArgs selects one day of one calendar.
type DayArgs struct {
	Name string `arg:"" help:"Calendar name."`
	Code string `arg:"" help:"Calendar code."`
	Date string `short:"d" help:"Day (D-M-YYYY or 'today')." default:"today"`
}

func (a DayArgs) date() *string {
	if a.Date == "today" {
		today := utils.DateOf(time.Now()).Key()
		return &today
	}
	return &a.Date
}

type EntriesListCmd struct {
	DayArgs
	Start string `help:"Only entries starting at or after H:MM."`
	End   string `help:"Only entries ending at or before H:MM."`
	Attr  string `help:"Print only this attribute (text, start or end)."`
}

func (c *EntriesListCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	q := calendar.EntriesQuery{
		Name:  &c.Name,
		Code:  &c.Code,
		Date:  c.date(),
		Start: optional(c.Start),
		End:   optional(c.End),
	}

	if c.Attr != "" {
		values, err := svc.EntriesAttr(&c.Attr, q)
		if err != nil {
			return err
		}
		for _, v := range values {
			ctx.println(v)
		}
		return nil
	}

	entries, err := svc.Entries(q)
	if err != nil {
		return err
	}
	ctx.println(headerStyle.Render(fmt.Sprintf("%s #%s on %s", c.Name, c.Code, *q.Date)))
	if len(entries) == 0 {
		ctx.println(dimStyle.Render("  Nothing scheduled"))
		return nil
	}
	for i, e := range entries {
		ctx.printf("  %d  %s %s\n", i, timeColumn.Render(span(e)), e.Text)
	}
	return nil
}

type EntriesGetCmd struct {
	DayArgs
	Index string `arg:"" help:"Position of the entry on the day."`
}

func (c *EntriesGetCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	entry, err := svc.Entry(calendar.EntryQuery{
		Name:  &c.Name,
		Code:  &c.Code,
		Date:  c.date(),
		Index: &c.Index,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	ctx.println(string(out))
	return nil
}

type EntriesSetCmd struct {
	DayArgs
	Text   string `help:"Text of a single entry."`
	Start  string `help:"Start of the single entry (H:MM)."`
	End    string `help:"End of the single entry (H:MM)."`
	Data   string `help:"JSON array of entries; overrides --text."`
	Append bool   `short:"a" help:"Append instead of replacing the day."`
}

func (c *EntriesSetCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	req := calendar.UpdateRequest{
		Name:   mustRaw(c.Name),
		Code:   mustRaw(c.Code),
		Date:   mustRaw(*c.date()),
		Append: mustRaw(c.Append),
	}
	switch {
	case c.Data != "":
		req.Data = json.RawMessage(c.Data)
	case c.Text != "":
		req.Data = mustRaw([]models.Entry{{Text: c.Text, Start: c.Start, End: c.End}})
	}

	if err := svc.Update(req); err != nil {
		return err
	}
	ctx.printf("%s Updated %s\n", successStyle.Render("✓"), *c.date())
	return nil
}

type EntriesDeleteCmd struct {
	DayArgs
	Index string `arg:"" optional:"" help:"Position of a single entry to delete."`
}

func (c *EntriesDeleteCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	if err := svc.RemoveEntries(calendar.EntryQuery{
		Name:  &c.Name,
		Code:  &c.Code,
		Date:  c.date(),
		Index: optional(c.Index),
	}); err != nil {
		return err
	}
	ctx.printf("%s Deleted\n", successStyle.Render("✓"))
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mustRaw(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func span(e models.Entry) string {
	if e.Start == "" && e.End == "" {
		return "all day"
	}
	return e.EffectiveStart() + " - " + e.EffectiveEnd()
}

// dateBefore orders date keys chronologically; unparsable keys sort last.
func dateBefore(a, b string) bool {
	da, errA := utils.ParseDate(a)
	db, errB := utils.ParseDate(b)
	switch {
	case errA != nil || errB != nil:
		return errA == nil
	}
	return da.Time().Before(db.Time())
}
