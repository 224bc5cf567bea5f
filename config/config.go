package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "TEXTCORE"

type Config struct {
	TabSize      int    `mapstructure:"tab_size"`
	Theme        string `mapstructure:"theme"`
	UndoLimit    int    `mapstructure:"undo_limit"`
	IndexWorkers int    `mapstructure:"index_workers"`
	SyntaxSync   bool   `mapstructure:"syntax_sync"`
	Watch        bool   `mapstructure:"watch"`
	LogLevel     string `mapstructure:"log_level"`
	LogFile      string `mapstructure:"log_file"`
}

// LanguageTabSize returns the appropriate tab size for a given language.
// Returns the per-language default or the user's configured tab size.
func (c *Config) LanguageTabSize(language string) int {
	switch language {
	case "JavaScript", "TypeScript", "JSON", "HTML", "CSS", "SCSS",
		"YAML", "Vue", "Svelte", "JSX", "TSX", "TOML":
		return 2
	case "Go", "Python", "Java", "C", "C++", "Rust", "C#", "PHP":
		return 4
	case "Makefile":
		return 8
	default:
		return c.TabSize
	}
}

// LanguageUseTabs returns whether a language should use real tabs vs spaces.
func (c *Config) LanguageUseTabs(language string) bool {
	switch language {
	case "Go", "Makefile":
		return true
	default:
		return false
	}
}

func Default() *Config {
	return &Config{
		TabSize:      4,
		Theme:        "monokai",
		UndoLimit:    1000,
		IndexWorkers: 4,
		LogLevel:     "info",
	}
}

func (c *Config) GetTheme() *ColorScheme {
	theme, ok := Themes[c.Theme]
	if !ok {
		return Themes["monokai"]
	}
	return theme
}

func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "textcore", "settings.json")
}

func newViper(fsys afero.Fs, path string) *viper.Viper {
	v := viper.New()
	v.SetFs(fsys)

	d := Default()
	v.SetDefault("tab_size", d.TabSize)
	v.SetDefault("theme", d.Theme)
	v.SetDefault("undo_limit", d.UndoLimit)
	v.SetDefault("index_workers", d.IndexWorkers)
	v.SetDefault("syntax_sync", d.SyntaxSync)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)

	v.SetConfigType("json")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads settings from path, layering TEXTCORE_* environment variables
// on top. A missing file yields the defaults.
func Load(fsys afero.Fs, path string) (*Config, error) {
	return LoadFlags(fsys, path, nil)
}

// LoadFlags is Load with command-line flags on top of the file and the
// environment. A flag named like a key with dashes for underscores
// overrides it only when it was set.
func LoadFlags(fsys afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper(fsys, path)
	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !slices.Contains(keys, key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}
	if path != "" {
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.TabSize <= 0 {
		c.TabSize = Default().TabSize
	}
	if c.IndexWorkers <= 0 {
		c.IndexWorkers = 1
	}
	return &c, nil
}

var keys = []string{
	"tab_size", "theme", "undo_limit", "index_workers",
	"syntax_sync", "watch", "log_level", "log_file",
}

func (c *Config) Save(fsys afero.Fs, path string) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigType("json")
	v.Set("tab_size", c.TabSize)
	v.Set("theme", c.Theme)
	v.Set("undo_limit", c.UndoLimit)
	v.Set("index_workers", c.IndexWorkers)
	v.Set("syntax_sync", c.SyntaxSync)
	v.Set("watch", c.Watch)
	v.Set("log_level", c.LogLevel)
	v.Set("log_file", c.LogFile)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
