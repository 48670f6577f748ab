package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bizwars/internal/game"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

type APIConfig struct {
	Addr            string
	StoreDriver     string
	DatabaseURL     string
	SQLitePath      string
	SupabaseURL     string
	SupabaseAnonKey string
	RulesFile       string
	LogLevel        slog.Level
	Seed            int64
}

type WorkerConfig struct {
	StoreDriver string
	DatabaseURL string
	SQLitePath  string
	PurgeCron   string
	PurgeAfter  time.Duration
	RunOnce     bool
	LogLevel    slog.Level
}

type CLIConfig struct {
	APIBaseURL string
	RulesFile  string
}

// Rules is the optional YAML overlay for the difficulty presets.
type Rules struct {
	Presets map[string]game.Preset `yaml:"presets"`
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("BIZWARS_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:            addr,
		StoreDriver:     strings.ToLower(envDefault("BIZWARS_STORE", StoreDriverPostgres)),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:      envDefault("BIZWARS_SQLITE_PATH", "bizwars.db"),
		SupabaseURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseAnonKey: strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		RulesFile:       strings.TrimSpace(os.Getenv("BIZWARS_RULES_FILE")),
		LogLevel:        envLogLevel("BIZWARS_LOG_LEVEL"),
		Seed:            envInt64Default("BIZWARS_SEED", 0),
	}
	if err := checkStore(cfg.StoreDriver, cfg.DatabaseURL); err != nil {
		return cfg, err
	}
	if cfg.SupabaseURL == "" {
		return cfg, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return cfg, fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		StoreDriver: strings.ToLower(envDefault("BIZWARS_STORE", StoreDriverPostgres)),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  envDefault("BIZWARS_SQLITE_PATH", "bizwars.db"),
		PurgeCron:   envDefault("BIZWARS_PURGE_CRON", "0 0 3 * * *"),
		PurgeAfter:  envDurationDefault("BIZWARS_PURGE_AFTER", 720*time.Hour),
		RunOnce:     envBoolDefault("RUN_ONCE", false),
		LogLevel:    envLogLevel("BIZWARS_LOG_LEVEL"),
	}
	if err := checkStore(cfg.StoreDriver, cfg.DatabaseURL); err != nil {
		return cfg, err
	}
	if cfg.PurgeAfter <= 0 {
		return cfg, fmt.Errorf("BIZWARS_PURGE_AFTER must be > 0")
	}
	return cfg, nil
}

// checkStore is shared by the API and the worker so both open the same games.
func checkStore(driver, databaseURL string) error {
	switch driver {
	case StoreDriverPostgres:
		if databaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverSQLite:
	default:
		return fmt.Errorf("BIZWARS_STORE must be postgres or sqlite, got %q", driver)
	}
	return nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("BIZWARS_API_BASE_URL", "http://localhost:8080"), "/"),
		RulesFile:  strings.TrimSpace(os.Getenv("BIZWARS_RULES_FILE")),
	}
}

// DefaultLocalDBPath is where offline games are kept when --local has no value.
func DefaultLocalDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bizwars.db"
	}
	return filepath.Join(home, ".bizwars", "local.db")
}

// LoadPresets returns the built-in presets with the rules file, if any,
// layered on top. A missing file is not an error.
func LoadPresets(path string) (game.Presets, error) {
	presets := game.DefaultPresets()
	if strings.TrimSpace(path) == "" {
		return presets, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return presets, nil
		}
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := rules.Apply(presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// Apply overlays non-zero fields of each configured preset.
func (r Rules) Apply(presets game.Presets) error {
	for name, override := range r.Presets {
		d, err := game.ParseDifficulty(name)
		if err != nil {
			return fmt.Errorf("rules preset %q: %w", name, err)
		}
		p := presets.For(d)
		if override.StartingCapital != 0 {
			p.StartingCapital = override.StartingCapital
		}
		if override.StartingShare != 0 {
			p.StartingShare = override.StartingShare
		}
		if override.MaxWeeks != 0 {
			p.MaxWeeks = override.MaxWeeks
		}
		if override.WinGoal.Capital != 0 {
			p.WinGoal.Capital = override.WinGoal.Capital
		}
		if override.WinGoal.MarketShare != 0 {
			p.WinGoal.MarketShare = override.WinGoal.MarketShare
		}
		if override.RivalCount != 0 {
			p.RivalCount = override.RivalCount
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("rules preset %q: %w", name, err)
		}
		presets[d] = p
	}
	return nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLogLevel(key string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
