package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bizwars/internal/game"
)

type pickerKeys struct {
	Up      key.Binding
	Down    key.Binding
	More    key.Binding
	Less    key.Binding
	Clear   key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func defaultPickerKeys() pickerKeys {
	return pickerKeys{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		More:    key.NewBinding(key.WithKeys("right", "l", "+"), key.WithHelp("→/+", "level up")),
		Less:    key.NewBinding(key.WithKeys("left", "h", "-"), key.WithHelp("←/-", "level down")),
		Clear:   key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "clear")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "invest")),
		Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "cancel")),
	}
}

func (k pickerKeys) help() string {
	parts := make([]string, 0, 7)
	for _, b := range []key.Binding{k.Up, k.Down, k.More, k.Less, k.Clear, k.Confirm, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

var (
	pickerTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	pickerCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	pickerMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pickerOver   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// pickerModel lets the player set a level per category before a single
// invest call.
type pickerModel struct {
	cats      []game.Category
	levels    []int
	cursor    int
	capital   int64
	keys      pickerKeys
	confirmed bool
}

func newPicker(cats []game.Category, capital int64) pickerModel {
	return pickerModel{
		cats:    cats,
		levels:  make([]int, len(cats)),
		capital: capital,
		keys:    defaultPickerKeys(),
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) total() int64 {
	var sum int64
	for i, c := range m.cats {
		sum += c.UnitCost * int64(m.levels[i])
	}
	return sum
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.cats)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.More):
		if len(m.cats) > 0 && m.levels[m.cursor] < game.MaxDecisionLevel {
			m.levels = append([]int(nil), m.levels...)
			m.levels[m.cursor]++
		}
	case key.Matches(keyMsg, m.keys.Less):
		if len(m.cats) > 0 && m.levels[m.cursor] > 0 {
			m.levels = append([]int(nil), m.levels...)
			m.levels[m.cursor]--
		}
	case key.Matches(keyMsg, m.keys.Clear):
		m.levels = make([]int, len(m.cats))
	case key.Matches(keyMsg, m.keys.Confirm):
		if m.total() <= m.capital {
			m.confirmed = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitle.Render("Weekly investments"))
	b.WriteString("\n\n")
	for i, c := range m.cats {
		line := fmt.Sprintf("%-28s %12s  x%-2d", c.Name, money(c.UnitCost), m.levels[i])
		if i == m.cursor {
			b.WriteString(pickerCursor.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	total := m.total()
	summary := fmt.Sprintf("\nTotal %s of %s available", money(total), money(m.capital))
	if total > m.capital {
		b.WriteString(pickerOver.Render(summary + " (not enough capital)"))
	} else {
		b.WriteString(summary)
	}
	b.WriteString("\n\n")
	b.WriteString(pickerMuted.Render(m.keys.help()))
	b.WriteString("\n")
	return b.String()
}

// selection returns only the categories with a positive level.
func (m pickerModel) selection() game.DecisionLevels {
	out := game.DecisionLevels{}
	for i, c := range m.cats {
		if m.levels[i] > 0 {
			out[c.Key] = m.levels[i]
		}
	}
	return out
}

// runPicker returns ok=false when the player cancelled.
func runPicker(cats []game.Category, capital int64) (game.DecisionLevels, bool, error) {
	final, err := tea.NewProgram(newPicker(cats, capital)).Run()
	if err != nil {
		return nil, false, err
	}
	m, ok := final.(pickerModel)
	if !ok || !m.confirmed {
		return nil, false, nil
	}
	return m.selection(), true, nil
}
