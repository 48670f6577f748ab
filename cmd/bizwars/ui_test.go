package main

import (
	"reflect"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	cl "bizwars/internal/cli"
	"bizwars/internal/game"
)

func TestParseLevels(t *testing.T) {
	got, err := parseLevels([]string{"marketing_online=2", " eff_process = 1", "marketing_online=3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := game.DecisionLevels{"marketing_online": 3, "eff_process": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("levels=%v want %v", got, want)
	}

	for _, bad := range []string{"marketing_online", "=2", "eff_process=two"} {
		if _, err := parseLevels([]string{bad}); err == nil {
			t.Fatalf("expected %q to fail", bad)
		}
	}
}

func TestMoney(t *testing.T) {
	tests := map[int64]string{
		0:          "$0",
		1_046_400:  "$1,046,400",
		-60_000:    "-$60,000",
		25_000_000: "$25,000,000",
	}
	for in, want := range tests {
		if got := money(in); got != want {
			t.Fatalf("money(%d)=%q want %q", in, got, want)
		}
	}
}

func TestProgressBarClamps(t *testing.T) {
	if got := progressBar(150, 4); got != "[####]" {
		t.Fatalf("over-full bar=%q", got)
	}
	if got := progressBar(-5, 4); got != "[....]" {
		t.Fatalf("negative bar=%q", got)
	}
	if got := progressBar(50, 4); got != "[##..]" {
		t.Fatalf("half bar=%q", got)
	}
}

func press(m pickerModel, keys ...string) pickerModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(pickerModel)
	}
	return m
}

func TestPickerSelection(t *testing.T) {
	cats := game.Catalog()[:3]
	m := press(newPicker(cats, 1_000_000), "right", "right", "down", "down", "+", "left", "right")
	want := game.DecisionLevels{cats[0].Key: 2, cats[2].Key: 1}
	if got := m.selection(); !reflect.DeepEqual(got, want) {
		t.Fatalf("selection=%v want %v", got, want)
	}
	wantTotal := 2*cats[0].UnitCost + cats[2].UnitCost
	if m.total() != wantTotal {
		t.Fatalf("total=%d want %d", m.total(), wantTotal)
	}
	m = press(m, "enter")
	if !m.confirmed {
		t.Fatalf("enter within budget should confirm")
	}
}

func TestPickerRefusesOverBudget(t *testing.T) {
	cats := game.Catalog()[:1]
	m := press(newPicker(cats, cats[0].UnitCost), "right", "right", "enter")
	if m.confirmed {
		t.Fatalf("over-budget bundle must not confirm")
	}
	m = press(m, "left", "enter")
	if !m.confirmed {
		t.Fatalf("bundle at exactly the capital should confirm")
	}
}

func TestPickerCapsLevels(t *testing.T) {
	cats := game.Catalog()[:1]
	m := newPicker(cats, 1<<40)
	for i := 0; i < game.MaxDecisionLevel+5; i++ {
		m = press(m, "right")
	}
	if m.levels[0] != game.MaxDecisionLevel {
		t.Fatalf("level=%d want cap %d", m.levels[0], game.MaxDecisionLevel)
	}
	m = press(m, "0")
	if len(m.selection()) != 0 {
		t.Fatalf("clear should empty the selection")
	}
}

func TestShareLine(t *testing.T) {
	d := game.Dashboard{
		CompanyName: "Acme",
		Difficulty:  game.DifficultyHard,
		Week:        4,
		MaxWeeks:    52,
		Capital:     1_250_000,
		MarketShare: 2.5,
		Ranking: []game.RankRow{
			{Rank: 1, Name: "Rival Corporation A"},
			{Rank: 2, Name: "Acme", IsPlayer: true},
		},
	}
	want := "BizWars hard | Acme | $1,250,000 | 2.50% share | rank 2 of 2 | week 4/52"
	if got := shareLine(d); got != want {
		t.Fatalf("share line=%q want %q", got, want)
	}
	d.IsGameOver = true
	d.Outcome = game.OutcomeWin
	if got := shareLine(d); got != "BizWars hard | Acme | $1,250,000 | 2.50% share | rank 2 of 2 | finished: win" {
		t.Fatalf("finished share line=%q", got)
	}
}

func TestChooseMode(t *testing.T) {
	offline := cl.Session{Mode: cl.ModeLocal, LocalPath: "/saved.db"}
	tests := []struct {
		name     string
		flag     string
		remote   bool
		session  cl.Session
		wantMode cl.Mode
		wantPath string
	}{
		{name: "fresh install", wantMode: cl.ModeRemote},
		{name: "local flag", flag: "/new.db", wantMode: cl.ModeLocal, wantPath: "/new.db"},
		{name: "remembered offline", session: offline, wantMode: cl.ModeLocal, wantPath: "/saved.db"},
		{name: "flag beats memory", flag: "/new.db", session: offline, wantMode: cl.ModeLocal, wantPath: "/new.db"},
		{name: "remote beats everything", flag: "/new.db", remote: true, session: offline, wantMode: cl.ModeRemote},
		{name: "local mode without a path", session: cl.Session{Mode: cl.ModeLocal}, wantMode: cl.ModeRemote},
	}
	for _, tc := range tests {
		mode, path := chooseMode(tc.flag, tc.remote, tc.session)
		if mode != tc.wantMode || path != tc.wantPath {
			t.Fatalf("%s: got (%s, %q) want (%s, %q)", tc.name, mode, path, tc.wantMode, tc.wantPath)
		}
	}
}
