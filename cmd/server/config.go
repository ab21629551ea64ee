package main

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// serverConfig holds the process settings. FMMO_* environment variables
// seed the defaults and explicit flags override them.
type serverConfig struct {
	Addr       string `env:"FMMO_ADDR"`
	WorldID    string `env:"FMMO_WORLD"`
	Seed       int64  `env:"FMMO_SEED"`
	ConfigDir  string `env:"FMMO_CONFIGS"`
	DataDir    string `env:"FMMO_DATA"`
	TuningPath string `env:"FMMO_TUNING"`
	DisableDB  bool   `env:"FMMO_DISABLE_DB"`
	SavesDir   string `env:"FMMO_SAVES"`

	SnapshotPath string `env:"FMMO_SNAPSHOT"`
	LoadLatest   bool   `env:"FMMO_LOAD_LATEST_SNAPSHOT"`

	EnableAdminHTTP bool `env:"FMMO_ENABLE_ADMIN_HTTP"`

	// Cloud saves go to an S3-compatible bucket when these are set, and to
	// SavesDir otherwise.
	SavesS3 s3Config `envPrefix:"FMMO_SAVES_S3_"`
}

type s3Config struct {
	Endpoint        string `env:"ENDPOINT"`
	Bucket          string `env:"BUCKET"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Prefix          string `env:"PREFIX"`
}

func (c s3Config) enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

func defaultConfig() serverConfig {
	return serverConfig{
		Addr:            ":8080",
		WorldID:         "world_1",
		Seed:            1337,
		ConfigDir:       "./configs",
		DataDir:         "./data",
		LoadLatest:      true,
		EnableAdminHTTP: true,
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (serverConfig, error) {
	cfg := defaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	fs.StringVar(&cfg.WorldID, "world", cfg.WorldID, "world id")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed (used only when starting a fresh world)")
	fs.StringVar(&cfg.ConfigDir, "configs", cfg.ConfigDir, "config directory")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "runtime data directory")
	fs.StringVar(&cfg.TuningPath, "tuning", cfg.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
	fs.BoolVar(&cfg.DisableDB, "disable_db", cfg.DisableDB, "disable indexing (ticks/audit + catalogs + snapshot metadata + saves)")
	fs.StringVar(&cfg.SavesDir, "saves", cfg.SavesDir, "cloud save directory (default: <data>/saves)")
	fs.StringVar(&cfg.SnapshotPath, "snapshot", cfg.SnapshotPath, "path to snapshot to load (optional)")
	fs.BoolVar(&cfg.LoadLatest, "load_latest_snapshot", cfg.LoadLatest, "load latest snapshot from data dir if present (when -snapshot is empty)")
	fs.BoolVar(&cfg.EnableAdminHTTP, "admin_http", cfg.EnableAdminHTTP, "serve loopback-only /admin/v1 endpoints")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}
