package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"callcheck/internal/diagfmt"
)

const configFileName = "callcheck.toml"

// ErrConfigNotFound means no callcheck.toml exists above the start path.
var ErrConfigNotFound = errors.New("callcheck.toml not found")

type configFile struct {
	Check   checkSection   `toml:"check"`
	History historySection `toml:"history"`
}

type checkSection struct {
	Format           string `toml:"format"`
	Jobs             int    `toml:"jobs"`
	DiskCache        bool   `toml:"disk_cache"`
	ReportUnresolved bool   `toml:"report_unresolved"`
	UI               string `toml:"ui"`
	PathMode         string `toml:"path_mode"`
	MaxDiagnostics   int    `toml:"max_diagnostics"`
}

type historySection struct {
	DB string `toml:"db"`
}

// projectConfig is a decoded callcheck.toml plus which keys it actually set.
type projectConfig struct {
	Path string
	Root string
	File configFile
	meta toml.MetaData
}

func (c *projectConfig) defined(section, key string) bool {
	return c != nil && c.meta.IsDefined(section, key)
}

// findConfig walks up from start (a file or directory) looking for callcheck.toml.
func findConfig(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	dir := abs
	if st, statErr := os.Stat(abs); statErr == nil && !st.IsDir() {
		dir = filepath.Dir(abs)
	} else if statErr != nil {
		dir = filepath.Dir(abs)
	}
	for {
		candidate := filepath.Join(dir, configFileName)
		if st, statErr := os.Stat(candidate); statErr == nil && !st.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}

func loadConfig(path string) (*projectConfig, error) {
	var file configFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg := &projectConfig{Path: path, Root: filepath.Dir(path), File: file, meta: meta}
	if cfg.defined("check", "format") {
		if _, err := diagfmt.ParseFormat(file.Check.Format); err != nil {
			return nil, fmt.Errorf("%s: [check].format: %w", path, err)
		}
	}
	if cfg.defined("check", "path_mode") {
		if _, err := diagfmt.ParsePathMode(file.Check.PathMode); err != nil {
			return nil, fmt.Errorf("%s: [check].path_mode: %w", path, err)
		}
	}
	if cfg.defined("check", "ui") {
		if _, err := readUIMode(file.Check.UI); err != nil {
			return nil, fmt.Errorf("%s: [check].ui: %w", path, err)
		}
	}
	if file.Check.Jobs < 0 {
		return nil, fmt.Errorf("%s: [check].jobs must be >= 0", path)
	}
	if file.Check.MaxDiagnostics < 0 {
		return nil, fmt.Errorf("%s: [check].max_diagnostics must be >= 0", path)
	}
	if cfg.defined("history", "db") && strings.TrimSpace(file.History.DB) == "" {
		return nil, fmt.Errorf("%s: [history].db is empty", path)
	}
	return cfg, nil
}

// resolveConfig loads --config, or searches upwards from target. A missing
// file is not an error: nil is returned and flags keep their defaults.
func resolveConfig(cmd *cobra.Command, target string) (*projectConfig, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if explicit != "" {
		return loadConfig(explicit)
	}
	path, err := findConfig(target)
	if errors.Is(err, ErrConfigNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loadConfig(path)
}

// historyDB returns the history database path: the flag, then [history].db
// relative to the config, then the default under the working directory.
func (c *projectConfig) historyDB(flagValue string, flagChanged bool) string {
	if flagChanged || !c.defined("history", "db") {
		return flagValue
	}
	db := c.File.History.DB
	if !filepath.IsAbs(db) {
		db = filepath.Join(c.Root, db)
	}
	return db
}

// Флаг побеждает, если задан явно; иначе значение из конфига, иначе дефолт флага.

func stringSetting(cmd *cobra.Command, cfg *projectConfig, flag, key, fromConfig string) (string, error) {
	value, err := cmd.Flags().GetString(flag)
	if err != nil {
		return "", fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	if cmd.Flags().Changed(flag) || !cfg.defined("check", key) {
		return value, nil
	}
	return fromConfig, nil
}

func intSetting(cmd *cobra.Command, cfg *projectConfig, flag, key string, fromConfig int) (int, error) {
	value, err := cmd.Flags().GetInt(flag)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	if cmd.Flags().Changed(flag) || !cfg.defined("check", key) {
		return value, nil
	}
	return fromConfig, nil
}

func boolSetting(cmd *cobra.Command, cfg *projectConfig, flag, key string, fromConfig bool) (bool, error) {
	value, err := cmd.Flags().GetBool(flag)
	if err != nil {
		return false, fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	if cmd.Flags().Changed(flag) || !cfg.defined("check", key) {
		return value, nil
	}
	return fromConfig, nil
}
