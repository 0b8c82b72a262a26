// Package config resolves the on-disk rc file that tells taskclaw where
// its SQLite data file lives, plus a handful of process-wide defaults.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dario.cat/mergo"

	. "github.com/roelfdiedericks/taskclaw/internal/logging"
)

// ConfigDirName is the directory under $HOME holding the rc file and,
// by default, the SQLite database.
const ConfigDirName = ".taskclaw"

// RcFileName is the name of the rc file inside ConfigDirName.
const RcFileName = "rc"

// DefaultDBName is the SQLite file created when data.location is unset.
const DefaultDBName = "taskclaw.db"

// Config is the resolved, merged configuration for a single invocation.
type Config struct {
	DataLocation string `json:"data.location"`
	JSONOutput   bool   `json:"json_output"`
	Confirm      bool   `json:"confirm"` // false when --yes was passed
	TableWidth   int    `json:"table_width"`
}

// DefaultConfig returns the built-in defaults, used as the base that a
// loaded rc file's values are merged over.
func DefaultConfig() *Config {
	return &Config{
		DataLocation: "",
		JSONOutput:   false,
		Confirm:      true,
		TableWidth:   120,
	}
}

// LoadResult carries the loaded config plus where it came from, mirroring
// the shape callers expect from a config loader in this lineage.
type LoadResult struct {
	Config       *Config
	SourcePath   string // path to the rc file that was found/created
	Bootstrapped bool   // true if the rc file did not exist and was created
}

// ConfigHome returns the path $HOME/.taskclaw; it does not create the
// directory.
func ConfigHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// Load resolves the rc file, bootstrapping an empty one on first run, and
// returns the merged Config. Called lazily by the first command that
// needs the store (per the "global state" design note).
func Load() (*LoadResult, error) {
	dir, err := ConfigHome()
	if err != nil {
		return nil, err
	}
	rcPath := filepath.Join(dir, RcFileName)

	cfg := DefaultConfig()
	bootstrapped := false

	raw, err := os.ReadFile(rcPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read rc file %s: %w", rcPath, err)
		}
		bootstrapped = true
		if err := bootstrapRc(rcPath); err != nil {
			return nil, err
		}
	} else {
		loaded, err := parseRc(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rc file %s: %w", rcPath, err)
		}
		if err := mergo.Merge(cfg, loaded, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge rc file: %w", err)
		}
	}

	if cfg.DataLocation == "" {
		cfg.DataLocation = filepath.Join(dir, DefaultDBName)
	}

	L_debug("config: resolved", "path", rcPath, "data", cfg.DataLocation, "bootstrapped", bootstrapped)
	return &LoadResult{Config: cfg, SourcePath: rcPath, Bootstrapped: bootstrapped}, nil
}

// bootstrapRc creates an empty rc file so subsequent runs have something
// to read and a place to see where settings would live.
func bootstrapRc(path string) error {
	content := "# taskclaw rc file\n# data.location=/path/to/taskclaw.db\n"
	return AtomicWrite(path, []byte(content), 0600)
}

// parseRc parses the rc file's "key=value" lines into a partial Config.
// Unknown keys are ignored; only data.location and table.width are
// currently interpreted.
func parseRc(raw []byte) (*Config, error) {
	cfg := &Config{}
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		switch key {
		case "data.location":
			cfg.DataLocation = value
		case "table.width":
			if w, err := strconv.Atoi(value); err == nil {
				cfg.TableWidth = w
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
