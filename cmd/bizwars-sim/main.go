package main

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bizwars/internal/config"
	"bizwars/internal/game"
	"bizwars/internal/sim"
)

var (
	accent      = color.New(color.FgCyan, color.Bold)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func main() {
	var (
		games      int
		seed       int64
		policyName string
		difficulty string
		workers    int
		rulesFile  string
	)
	root := &cobra.Command{
		Use:          "bizwars-sim",
		Short:        "Play seeded games with a fixed policy and report how they end",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := sim.PolicyByName(policyName)
			if err != nil {
				return err
			}
			presets, err := config.LoadPresets(rulesFile)
			if err != nil {
				return err
			}
			difficulties := []game.Difficulty{game.DifficultyEasy, game.DifficultyNormal, game.DifficultyHard}
			if strings.TrimSpace(difficulty) != "" {
				d, err := game.ParseDifficulty(difficulty)
				if err != nil {
					return err
				}
				difficulties = []game.Difficulty{d}
			}

			started := time.Now()
			summaries := make([]sim.Summary, 0, len(difficulties))
			for _, d := range difficulties {
				s, err := sim.Run(cmd.Context(), sim.Options{
					Games:      games,
					Seed:       seed,
					Policy:     policy,
					Difficulty: d,
					Presets:    presets,
					Workers:    workers,
				})
				if err != nil {
					return err
				}
				summaries = append(summaries, s)
			}
			accent.Printf("%s games per difficulty, policy %s, seed %d (%s)\n",
				humanize.Comma(int64(games)), policy.Name, seed, time.Since(started).Round(time.Millisecond))
			fmt.Println(renderSummaries(summaries))
			for _, s := range summaries {
				if line := rivalLine(s); line != "" {
					fmt.Println(line)
				}
			}
			return nil
		},
	}
	root.Flags().IntVarP(&games, "games", "g", 1000, "games per difficulty")
	root.Flags().Int64Var(&seed, "seed", 1, "base seed; game i uses seed+i")
	root.Flags().StringVarP(&policyName, "policy", "p", "balanced", "idle, balanced or aggressive")
	root.Flags().StringVarP(&difficulty, "difficulty", "d", "", "run a single difficulty")
	root.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "parallel games")
	root.Flags().StringVar(&rulesFile, "rules", os.Getenv("BIZWARS_RULES_FILE"), "YAML preset overrides")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func renderSummaries(summaries []sim.Summary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("6"))).
		BorderHeader(true).
		BorderRow(false).
		Headers("DIFFICULTY", "WIN", "RIVAL", "BANKRUPT", "TIME", "AVG WEEKS", "AVG CAPITAL", "MEDIAN SHARE").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range summaries {
		t.Row(
			string(s.Difficulty),
			percent(s.Rate(game.OutcomeWin)),
			percent(s.Rate(game.OutcomeLoseRival)),
			percent(s.Rate(game.OutcomeLoseBankrupt)),
			percent(s.Rate(game.OutcomeLoseTime)),
			fmt.Sprintf("%.1f", s.AvgWeeks),
			"$"+humanize.Comma(int64(s.AvgCapital)),
			fmt.Sprintf("%.2f%%", s.MedianShare),
		)
	}
	return t.Render()
}

func rivalLine(s sim.Summary) string {
	if len(s.RivalWinners) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.RivalWinners))
	for n := range s.RivalWinners {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.RivalWinners[names[i]] != s.RivalWinners[names[j]] {
			return s.RivalWinners[names[i]] > s.RivalWinners[names[j]]
		}
		return names[i] < names[j]
	})
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, fmt.Sprintf("%s %d", n, s.RivalWinners[n]))
	}
	return fmt.Sprintf("%s rival winners: %s", s.Difficulty, strings.Join(parts, ", "))
}
