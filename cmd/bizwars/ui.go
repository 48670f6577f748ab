package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"bizwars/internal/game"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)

	tableBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	playerStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("10")).Bold(true)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

// promptPassword hides input on a terminal and falls back to a plain read
// when stdin is piped.
func promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptRequired(label)
	}
	for {
		fmt.Printf("%s: ", label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		if text := strings.TrimSpace(string(raw)); text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

// parseLevels reads "key=level" pairs. A repeated key keeps the last value.
func parseLevels(args []string) (game.DecisionLevels, error) {
	levels := game.DecisionLevels{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=level, got %q", arg)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("level for %s must be a whole number", key)
		}
		levels[key] = n
	}
	return levels, nil
}

func money(v int64) string {
	if v < 0 {
		return "-$" + humanize.Comma(-v)
	}
	return "$" + humanize.Comma(v)
}

func colorizeMoney(v int64) string {
	switch {
	case v > 0:
		return success.Sprint("+" + money(v))
	case v < 0:
		return danger.Sprint(money(v))
	default:
		return neutral.Sprint(money(v))
	}
}

func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorder).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...)
}

func renderDashboard(d game.Dashboard) {
	accent.Printf("\n== %s  week %d/%d  (%s) ==\n", d.CompanyName, d.Week, d.MaxWeeks, d.Difficulty)
	fmt.Printf("Capital:            %s\n", money(d.Capital))
	fmt.Printf("Week start capital: %s\n", money(d.CapitalAtWeekStart))
	fmt.Printf("Weekly result:      %s\n", colorizeMoney(d.WeeklyResult))
	fmt.Printf("Last investment:    %s\n", money(d.LastInvestmentCost))
	fmt.Printf("Income:             %s\n", money(d.Income))
	fmt.Printf("Market share:       %.2f%%\n", d.MarketShare)
	fmt.Printf("Satisfaction:       %.0f%%\n", d.Satisfaction)
	fmt.Printf("Employees:          %d\n", d.Employees)
	fmt.Printf("Levels:             marketing %d  research %d  efficiency %d\n", d.MarketingLevel, d.ResearchLevel, d.EfficiencyLevel)
	if len(d.LastDecisions) > 0 {
		fmt.Printf("Decisions:          %s\n", strings.Join(d.LastDecisions, ", "))
	}

	fmt.Println()
	accent.Println("Goal")
	fmt.Printf("Capital  %s %5.1f%%\n", progressBar(d.Progress.CapitalPct, 30), d.Progress.CapitalPct)
	fmt.Printf("Share    %s %5.1f%%\n", progressBar(d.Progress.MarketSharePct, 30), d.Progress.MarketSharePct)
	fmt.Printf("Weeks remaining: %d\n", d.Progress.WeeksRemaining)

	fmt.Println()
	renderRanking(d.Ranking)
	if d.IsGameOver {
		renderOutcome(d.Outcome, d.WinnerName)
	}
}

func renderRanking(rows []game.RankRow) {
	accent.Println("Ranking")
	t := newTable("#", "COMPANY", "CAPITAL", "SHARE")
	for _, r := range rows {
		t.Row(strconv.Itoa(r.Rank), r.Name, money(r.Capital), fmt.Sprintf("%.2f%%", r.MarketShare))
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if row >= 0 && row < len(rows) && rows[row].IsPlayer {
			return playerStyle
		}
		return cellStyle
	})
	fmt.Println(t.Render())
}

func renderCatalog(cats []game.Category) {
	accent.Println("\nInvestment catalog")
	t := newTable("KEY", "NAME", "UNIT COST", "EFFECT", "PER LEVEL").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, c := range cats {
		t.Row(c.Key, c.Name, money(c.UnitCost), c.Effect.String(), strconv.FormatFloat(c.PerLevel, 'f', -1, 64))
	}
	fmt.Println(t.Render())
	printInfo(fmt.Sprintf("Levels range 0..%d. Example: bizwars invest marketing_online=2 eff_process=1", game.MaxDecisionLevel))
}

func renderInvestResult(res game.InvestResult) {
	if res.TotalCost == 0 {
		printInfo("No investment this week.")
		return
	}
	printSuccess(fmt.Sprintf("Invested %s, %s left.", money(res.TotalCost), money(res.CapitalRemaining)))
	for _, d := range res.Decisions {
		fmt.Printf("  - %s\n", d)
	}
}

func renderWeekReport(rep game.WeekReport, d game.Dashboard) {
	accent.Printf("\nWeek %d\n", rep.Week)
	fmt.Printf("Market volatility:  %+.2f%%\n", rep.Volatility*100)
	fmt.Printf("Fixed costs:        %s\n", money(rep.FixedCosts))
	fmt.Printf("Net profit:         %s\n", colorizeMoney(rep.NetProfit))
	fmt.Printf("Capital:            %s\n", money(d.Capital))
	fmt.Printf("Income:             %s\n", money(d.Income))
	fmt.Printf("Market share:       %.2f%%\n", d.MarketShare)
	if rep.Outcome.Terminal() {
		renderOutcome(rep.Outcome, rep.WinnerName)
	}
}

func renderStatus(st game.Status) {
	state := "in progress"
	if st.IsGameOver {
		state = "over (" + string(st.Outcome) + ")"
	}
	fmt.Printf("Game %s  week %d  %s\n", st.GameID, st.CurrentWeek, state)
}

func renderOutcome(o game.Outcome, winner string) {
	fmt.Println()
	switch o {
	case game.OutcomeWin:
		printSuccess("You reached the goal. Victory!")
	case game.OutcomeLoseRival:
		printError(fmt.Sprintf("%s reached the goal first.", winner))
	case game.OutcomeLoseBankrupt:
		printError("Bankrupt. Capital ran out.")
	case game.OutcomeLoseTime:
		printError("Out of time. The goal was not reached.")
	}
	printInfo("Start over with `bizwars new`.")
}

func sortedKeys(levels game.DecisionLevels) []string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shareLine(d game.Dashboard) string {
	rank := 0
	for _, r := range d.Ranking {
		if r.IsPlayer {
			rank = r.Rank
		}
	}
	state := fmt.Sprintf("week %d/%d", d.Week, d.MaxWeeks)
	if d.IsGameOver {
		state = "finished: " + string(d.Outcome)
	}
	return fmt.Sprintf("BizWars %s | %s | %s | %.2f%% share | rank %d of %d | %s",
		d.Difficulty, d.CompanyName, money(d.Capital), d.MarketShare, rank, len(d.Ranking), state)
}
