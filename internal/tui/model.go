// Package tui is an interactive terminal viewer for allocation reports.
package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/holdscan/internal/portfolio"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View is one of the viewer's tabs.
type View int

// Tabs in display order.
const (
	ViewHoldings View = iota
	ViewLevel1
	ViewLevel2
	ViewLevel3
	viewCount
)

var viewTitles = [viewCount]string{"持仓", "一级分类", "二级分类", "三级分类"}

func (v View) String() string {
	if v < 0 || v >= viewCount {
		return "unknown"
	}
	return viewTitles[v]
}

// Config holds the viewer settings.
type Config struct {
	Title  string
	Theme  Theme
	Width  int
	Height int
}

// Model holds the viewer state.
type Model struct {
	alloc    *portfolio.Allocation
	theme    Theme
	keymap   KeyMap
	title    string
	filter   string
	help     help.Model
	table    table.Model
	view     View
	width    int
	height   int
	quitting bool
}

// New creates a viewer over an allocation.
func New(a *portfolio.Allocation, cfg Config) Model {
	if cfg.Width <= 0 {
		cfg.Width = 100
	}
	if cfg.Height <= 0 {
		cfg.Height = 30
	}
	if cfg.Title == "" {
		cfg.Title = "投资组合资产配置"
	}
	if cfg.Theme.Primary == "" {
		cfg.Theme = DefaultTheme
	}

	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cfg.Theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = cfg.Theme.Selected
	t.SetStyles(s)

	m := Model{
		alloc:  a,
		theme:  cfg.Theme,
		keymap: DefaultKeyMap(),
		title:  cfg.Title,
		help:   help.New(),
		table:  t,
		width:  cfg.Width,
		height: cfg.Height,
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keymap.NextView):
			m.setView((m.view + 1) % viewCount)
			return m, nil
		case key.Matches(msg, m.keymap.PrevView):
			m.setView((m.view + viewCount - 1) % viewCount)
			return m, nil
		case key.Matches(msg, m.keymap.Drill):
			m.drill()
			return m, nil
		case key.Matches(msg, m.keymap.Back):
			if m.filter != "" {
				m.filter = ""
				m.refresh()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) setView(v View) {
	m.view = v
	m.table.SetCursor(0)
	m.refresh()
}

// drill switches from a category row to the holdings that roll up into it.
func (m *Model) drill() {
	if m.view == ViewHoldings {
		return
	}
	cats := m.categories()
	i := m.table.Cursor()
	if i < 0 || i >= len(cats) {
		return
	}
	m.filter = cats[i].Path
	m.setView(ViewHoldings)
}

func (m Model) categories() []portfolio.Category {
	switch m.view {
	case ViewLevel1:
		return m.alloc.Level1
	case ViewLevel2:
		return m.alloc.Level2
	case ViewLevel3:
		return m.alloc.Level3
	}
	return nil
}

func (m Model) holdings() []portfolio.Holding {
	if m.filter == "" {
		return m.alloc.Holdings
	}
	return m.alloc.Members(m.filter)
}

// refresh rebuilds the table columns and rows for the current view and size.
func (m *Model) refresh() {
	var cols []table.Column
	var rows []table.Row

	if m.view == ViewHoldings {
		nameWidth := max(m.width-72, 16)
		cols = []table.Column{
			{Title: "名称", Width: nameWidth},
			{Title: "代码", Width: 8},
			{Title: "来源", Width: 10},
			{Title: "分类", Width: 26},
			{Title: "市值", Width: 14},
			{Title: "占比", Width: 8},
		}
		for _, h := range m.holdings() {
			rows = append(rows, table.Row{
				h.Name,
				h.Code,
				h.Source.Label(),
				h.Taxonomy.String(),
				portfolio.FormatMoney(h.Value),
				portfolio.FormatPercent(h.Percent),
			})
		}
	} else {
		cols = []table.Column{
			{Title: "分类", Width: max(m.width-46, 20)},
			{Title: "市值", Width: 14},
			{Title: "占比", Width: 8},
			{Title: "持仓数", Width: 8},
		}
		for _, c := range m.categories() {
			rows = append(rows, table.Row{
				c.Path,
				portfolio.FormatMoney(c.Value),
				portfolio.FormatPercent(c.Percent),
				fmt.Sprint(c.Count),
			})
		}
	}

	// Clear rows before swapping columns; rendering indexes each row by the new columns.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-m.chromeHeight(), 3))
}

// chromeHeight is the number of lines used by everything but the table.
func (m Model) chromeHeight() int {
	h := 7
	if m.help.ShowAll {
		h += 3
	}
	return h
}

// View renders the viewer.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := m.theme.Title.Render(m.title)
	subtitle := m.theme.Subtitle.Render(fmt.Sprintf("总市值 %s · %d 项持仓",
		portfolio.FormatMoney(m.alloc.Total), len(m.alloc.Holdings)))

	tabs := make([]string, 0, viewCount)
	for v := ViewHoldings; v < viewCount; v++ {
		style := m.theme.TabInactive
		if v == m.view {
			style = m.theme.TabActive
		}
		tabs = append(tabs, style.Render(v.String()))
	}

	status := fmt.Sprintf("%d 行", len(m.table.Rows()))
	if m.filter != "" {
		status = m.theme.Filter.Render("筛选: "+m.filter) + "  " + status
	}

	parts := []string{
		title + "  " + subtitle,
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
		m.table.View(),
		m.theme.StatusBar.Render(status),
		m.help.View(m.keymap),
	}
	return strings.Join(parts, "\n")
}
