package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"bizwars/internal/auth"
	cl "bizwars/internal/cli"
	"bizwars/internal/config"
	"bizwars/internal/db"
	"bizwars/internal/game"
)

type rootOptions struct {
	apiBase   string
	localPath string
	remote    bool
	rulesFile string
}

func main() {
	cfg := config.LoadCLIFromEnv()
	opts := &rootOptions{apiBase: cfg.APIBaseURL, rulesFile: cfg.RulesFile}

	root := &cobra.Command{
		Use:          "bizwars",
		Short:        "Run a company against AI rivals, one week at a time",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiBase, "api", opts.apiBase, "API base URL")
	root.PersistentFlags().StringVar(&opts.localPath, "local", "", "play offline against a local SQLite file (--local=<path> to pick the file)")
	root.PersistentFlags().Lookup("local").NoOptDefVal = config.DefaultLocalDBPath()
	root.PersistentFlags().BoolVar(&opts.remote, "remote", false, "switch back to the API after playing offline")
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", opts.rulesFile, "YAML file overriding the difficulty presets (offline only)")

	root.AddCommand(
		newSignupCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(),
		newGameCmd(opts),
		newDashCmd(opts),
		newCatalogCmd(opts),
		newInvestCmd(opts),
		newAdvanceCmd(opts),
		newRankingCmd(opts),
		newStatusCmd(opts),
		newResetCmd(opts),
		newShareCmd(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(opts *rootOptions) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(opts.apiBase), "/"))
}

// chooseMode decides where this run plays. Flags win; otherwise the mode
// remembered from the last run is kept.
func chooseMode(localFlag string, forceRemote bool, s cl.Session) (cl.Mode, string) {
	switch {
	case forceRemote:
		return cl.ModeRemote, ""
	case localFlag != "":
		return cl.ModeLocal, localFlag
	case s.Offline():
		return cl.ModeLocal, s.LocalPath
	default:
		return cl.ModeRemote, ""
	}
}

// localPath resolves the offline database for this run, or "" for the API,
// and remembers the choice when a flag changed it.
func localPath(opts *rootOptions) (string, error) {
	s, err := cl.ReadSession()
	if err != nil {
		return "", err
	}
	mode, path := chooseMode(opts.localPath, opts.remote, s)
	if mode != s.Mode || (path != "" && path != s.LocalPath) {
		if err := cl.UpdateSession(func(s *cl.Session) {
			s.Mode = mode
			if path != "" {
				s.LocalPath = path
			}
		}); err != nil {
			return "", err
		}
	}
	return path, nil
}

// openBackend picks the offline store or the saved API session. The returned
// func releases whatever was opened.
func openBackend(opts *rootOptions) (cl.Backend, func(), error) {
	path, err := localPath(opts)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		session, err := cl.LoadSession(opts.apiBase)
		if err != nil {
			return nil, nil, err
		}
		return cl.NewRemoteBackend(newClient(opts), session, cl.SaveSession), func() {}, nil
	}

	presets, err := config.LoadPresets(opts.rulesFile)
	if err != nil {
		return nil, nil, err
	}
	store, err := db.OpenSQLite(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open local game %s: %w", path, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	svc := game.NewService(store, nil, presets, logger)
	return cl.NewLocalBackend(svc), func() { _ = store.Close() }, nil
}

func withBackend(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, b cl.Backend) error) error {
	b, closeFn, err := openBackend(opts)
	if err != nil {
		return err
	}
	defer closeFn()
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	return explain(fn(ctx, b))
}

// explain turns the common domain failures into a hint the player can act on.
func explain(err error) error {
	var apiErr *cl.APIError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, game.ErrGameNotFound):
		return errors.New("no game in progress, start one with `bizwars new`")
	case errors.As(err, &apiErr) && apiErr.Status == 404:
		return errors.New("no game in progress, start one with `bizwars new`")
	case errors.As(err, &apiErr) && apiErr.Status == 401:
		return errors.New("session expired, run `bizwars login` again")
	}
	return err
}

func rememberLogin(opts *rootOptions, session auth.Session) error {
	return cl.UpdateSession(func(s *cl.Session) {
		s.AccessToken = session.AccessToken
		s.RefreshToken = session.RefreshToken
		s.Email = session.User.Email
		s.UserID = session.User.ID
		s.APIBaseURL = opts.apiBase
		s.Mode = cl.ModeRemote
	})
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create a BizWars account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			session, err := newClient(opts).Signup(ctx, email, password)
			if err != nil {
				return err
			}
			if strings.TrimSpace(session.AccessToken) == "" {
				printWarn("Signup created. Verify email, then run `bizwars login`.")
				return nil
			}
			if err := rememberLogin(opts, session); err != nil {
				return err
			}
			printSuccess("Signup complete. Session saved.")
			return nil
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to BizWars",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, err := promptRequired("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			session, err := newClient(opts).Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := rememberLogin(opts, session); err != nil {
				return err
			}
			printSuccess("Login successful.")
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear local session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Logged out.")
			return nil
		},
	}
}

func newGameCmd(opts *rootOptions) *cobra.Command {
	var (
		difficulty string
		maxWeeks   int
		capital    int64
	)
	cmd := &cobra.Command{
		Use:   "new [company name]",
		Short: "Start a new game, replacing any current one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			}
			if name == "" {
				var err error
				if name, err = promptRequired("Company name"); err != nil {
					return err
				}
			}
			if difficulty == "" {
				last := "normal"
				if s, err := cl.ReadSession(); err == nil && s.Difficulty != "" {
					last = s.Difficulty
				}
				var err error
				if difficulty, err = promptChoice("Difficulty", []string{"easy", "normal", "hard"}, last); err != nil {
					return err
				}
			}
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				g, err := b.NewGame(ctx, cl.NewGameRequest{
					CompanyName:     name,
					Difficulty:      difficulty,
					StartingCapital: capital,
					MaxWeeks:        maxWeeks,
				})
				if err != nil {
					return err
				}
				if err := cl.UpdateSession(func(s *cl.Session) { s.Difficulty = string(g.Settings.Difficulty) }); err != nil {
					printWarn("Could not remember the difficulty: " + err.Error())
				}
				printSuccess(fmt.Sprintf("%s opens for business with %s.", g.CompanyName, money(g.Player.Capital)))
				renderDashboard(game.BuildDashboard(g))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "easy, normal or hard")
	cmd.Flags().IntVar(&maxWeeks, "weeks", 0, "override the week limit")
	cmd.Flags().Int64Var(&capital, "capital", 0, "override the starting capital")
	return cmd
}

func newDashCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Show the company dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				d, err := b.Dashboard(ctx)
				if err != nil {
					return err
				}
				renderDashboard(d)
				return nil
			})
		},
	}
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List investment categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			path, err := localPath(opts)
			if err != nil {
				return err
			}
			if path != "" {
				renderCatalog(game.Catalog())
				return nil
			}
			cats, err := newClient(opts).Catalog(ctx)
			if err != nil {
				return err
			}
			renderCatalog(cats)
			return nil
		},
	}
}

func newInvestCmd(opts *rootOptions) *cobra.Command {
	var none bool
	cmd := &cobra.Command{
		Use:   "invest [key=level ...]",
		Short: "Buy this week's investments (opens a picker without arguments)",
		Example: "  bizwars invest marketing_online=2 eff_process=1\n" +
			"  bizwars invest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				levels, err := parseLevels(args)
				if err != nil {
					return err
				}
				if len(args) == 0 && !none {
					cats, err := b.Catalog(ctx)
					if err != nil {
						return err
					}
					d, err := b.Dashboard(ctx)
					if err != nil {
						return err
					}
					if d.IsGameOver {
						return game.ErrGameAlreadyOver
					}
					picked, ok, err := runPicker(cats, d.Capital)
					if err != nil {
						return err
					}
					if !ok {
						printWarn("Investment cancelled.")
						return nil
					}
					levels = picked
				}
				for _, k := range sortedKeys(levels) {
					printInfo(fmt.Sprintf("  %s x%d", k, levels[k]))
				}
				resp, err := b.Invest(ctx, levels)
				if err != nil {
					return err
				}
				renderInvestResult(resp.Result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&none, "none", false, "skip investing this week")
	return cmd
}

func newAdvanceCmd(opts *rootOptions) *cobra.Command {
	var weeks int
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Close the current week",
		RunE: func(cmd *cobra.Command, args []string) error {
			if weeks < 1 {
				return errors.New("--weeks must be at least 1")
			}
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				for i := 0; i < weeks; i++ {
					resp, err := b.Advance(ctx)
					if err != nil {
						return err
					}
					renderWeekReport(resp.Report, resp.Dashboard)
					if resp.Dashboard.IsGameOver {
						return nil
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&weeks, "weeks", "n", 1, "number of weeks to advance")
	return cmd
}

func newRankingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ranking",
		Short: "Show the company ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				rows, err := b.Ranking(ctx)
				if err != nil {
					return err
				}
				renderRanking(rows)
				return nil
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the current game is still running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				st, err := b.Status(ctx)
				if err != nil {
					return err
				}
				renderStatus(st)
				return nil
			})
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the current game",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := promptChoice("Delete the current game?", []string{"yes", "no"}, "no")
				if err != nil {
					return err
				}
				if answer != "yes" {
					printInfo("Kept the current game.")
					return nil
				}
			}
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				if err := b.Reset(ctx); err != nil {
					return err
				}
				printSuccess("Game deleted. Start over with `bizwars new`.")
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func newShareCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "share",
		Short: "Copy a one-line summary of the game to the clipboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, func(ctx context.Context, b cl.Backend) error {
				d, err := b.Dashboard(ctx)
				if err != nil {
					return err
				}
				line := shareLine(d)
				if clipboard.Unsupported {
					printInfo(line)
					return nil
				}
				if err := clipboard.WriteAll(line); err != nil {
					printWarn("Clipboard unavailable, printing instead.")
					printInfo(line)
					return nil
				}
				printSuccess("Copied: " + line)
				return nil
			})
		},
	}
}
