package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/datebook/internal/calendar"
	"github.com/julianstephens/datebook/internal/models"
	"github.com/julianstephens/datebook/internal/tui/components/day"
	"github.com/julianstephens/datebook/internal/utils"
)

// Model browses one calendar a day at a time.
type Model struct {
	store    *calendar.Store
	calendar models.Calendar
	date     time.Time
	now      func() time.Time
	keys     KeyMap
	help     help.Model
	dayModel day.Model
	err      error
	quitting bool
	width    int
	height   int
}

func NewModel(store *calendar.Store, cal models.Calendar) Model {
	return newModel(store, cal, time.Now)
}

func newModel(store *calendar.Store, cal models.Calendar, now func() time.Time) Model {
	m := Model{
		store:    store,
		calendar: cal,
		now:      now,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		dayModel: day.New(0, 0),
	}
	m.date = utils.DateOf(now()).Time()
	m.load()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Date returns the day on display.
func (m Model) Date() utils.Date {
	return utils.DateOf(m.date)
}

func (m *Model) shift(days int) {
	m.date = m.date.AddDate(0, 0, days)
	m.load()
}

func (m *Model) today() {
	m.date = utils.DateOf(m.now()).Time()
	m.load()
}

func (m *Model) load() {
	entries, err := m.store.EntriesOnDate(m.calendar.ID, m.Date().Key())
	m.err = err
	if err != nil {
		entries = nil
	}
	m.dayModel.SetEntries(entries)
}
