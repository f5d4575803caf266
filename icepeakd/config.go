package main

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/pkg/errors"
	"github.com/tidwall/jsonc"
)

// serverConfig is icepeakd's full configuration: icepeak.Config plus
// the listener addresses and auth secret that are the server driver's
// concern, not the core's. It can be loaded from a JSONC file
// (comments allowed) and then overridden by CLI flags.
type serverConfig struct {
	DataFile      string `json:"data_file"`
	JournalFile   string `json:"journal_file"`
	JournalBackup bool   `json:"journal_backup"`
	Listen        string `json:"listen"`
	MetricsListen string `json:"metrics_listen"`
	SyncInterval  string `json:"sync_interval"`
	JwtSecret     string `json:"jwt_secret"`
}

func (self *serverConfig) syncInterval() time.Duration {
	d, err := time.ParseDuration(self.SyncInterval)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

func loadConfigFile(path string) (*serverConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	var config serverConfig
	if err := json.Unmarshal(jsonc.ToJSON(raw), &config); err != nil {
		return nil, errors.Wrap(err, "decode config file")
	}
	return &config, nil
}

// parseConfig builds the effective serverConfig from an optional
// --config=<path> JSONC file overridden by the usage string's other
// flags.
func parseConfig(opts docopt.Opts) (*serverConfig, error) {
	config := &serverConfig{
		DataFile:      "icepeak.json",
		Listen:        ":9000",
		MetricsListen: ":9001",
		SyncInterval:  "5s",
	}

	if configPath, _ := opts.String("--config"); configPath != "" {
		fromFile, err := loadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		mergeConfig(config, fromFile)
	}

	if v, _ := opts.String("--data_file"); v != "" {
		config.DataFile = v
	}
	if v, _ := opts.String("--journal_file"); v != "" {
		config.JournalFile = v
	}
	if v, _ := opts.String("--listen"); v != "" {
		config.Listen = v
	}
	if v, _ := opts.String("--metrics_listen"); v != "" {
		config.MetricsListen = v
	}
	if v, _ := opts.String("--sync_interval"); v != "" {
		config.SyncInterval = v
	}
	if v, _ := opts.String("--jwt_secret"); v != "" {
		config.JwtSecret = v
	}
	if v, _ := opts.Bool("--journal_backup"); v {
		config.JournalBackup = true
	}

	if config.JwtSecret == "" {
		return nil, errors.New("--jwt_secret (or jwt_secret in --config) is required")
	}

	return config, nil
}

func mergeConfig(dst *serverConfig, src *serverConfig) {
	if src.DataFile != "" {
		dst.DataFile = src.DataFile
	}
	if src.JournalFile != "" {
		dst.JournalFile = src.JournalFile
	}
	if src.Listen != "" {
		dst.Listen = src.Listen
	}
	if src.MetricsListen != "" {
		dst.MetricsListen = src.MetricsListen
	}
	if src.SyncInterval != "" {
		dst.SyncInterval = src.SyncInterval
	}
	if src.JwtSecret != "" {
		dst.JwtSecret = src.JwtSecret
	}
	dst.JournalBackup = dst.JournalBackup || src.JournalBackup
}

// parseIntDefault is used by main.go for the --queue_size flag, which
// has no natural docopt type conversion.
func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
