// Package config loads build settings from a TOML file. Everything in it can
// also be given on the command line; the file is a convenience for projects
// that want a checked-in build description.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultFileName = "bundlekit.toml"

type Config struct {
	// Entry points, relative to the config file's directory
	Entries []string `toml:"entries"`

	// Output directory, relative to the config file's directory
	OutDir string `toml:"outdir"`

	// Extension probe order for extensionless imports
	Extensions []string `toml:"extensions"`

	SourceMap bool `toml:"sourcemap"`

	Watch WatchConfig `toml:"watch"`
}

type WatchConfig struct {
	// How long to wait after a file event before rebuilding, so editor save
	// bursts coalesce into one rebuild
	Debounce duration `toml:"debounce"`
}

// duration accepts TOML strings like "250ms" or "2s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func Default() Config {
	return Config{
		OutDir: "dist",
		Watch:  WatchConfig{Debounce: duration{100 * time.Millisecond}},
	}
}

// Load reads and validates a config file. Paths in the result are made
// absolute against the file's directory, so callers never have to care where
// the process was started from.
func Load(path string) (Config, error) {
	config := Default()

	metadata, err := toml.DecodeFile(path, &config)
	if err != nil {
		return Config{}, fmt.Errorf("could not load config %q: %w", path, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown key %q in config %q", undecoded[0].String(), path)
	}

	if len(config.Entries) == 0 {
		return Config{}, fmt.Errorf("config %q declares no entries", path)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return Config{}, err
	}
	for i, entry := range config.Entries {
		config.Entries[i] = absolveAgainst(base, entry)
	}
	config.OutDir = absolveAgainst(base, config.OutDir)

	return config, nil
}

// LoadIfPresent loads the default config file from a directory, or returns
// ok=false if the directory has none.
func LoadIfPresent(dir string) (Config, bool, error) {
	path := filepath.Join(dir, DefaultFileName)
	if _, err := os.Stat(path); err != nil {
		return Config{}, false, nil
	}
	config, err := Load(path)
	if err != nil {
		return Config{}, false, err
	}
	return config, true, nil
}

func (c Config) WatchDebounce() time.Duration {
	return c.Watch.Debounce.Duration
}

func absolveAgainst(base string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
