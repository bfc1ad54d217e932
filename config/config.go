// Package config loads the runner configuration from TOML
package config

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/LingHeChen/nodescript/catalog"
	"github.com/LingHeChen/nodescript/eval"
	"github.com/LingHeChen/nodescript/host"
	"github.com/LingHeChen/nodescript/value"
)

// Config is the runner configuration
type Config struct {
	// Version is the build version scripts compare against (VersionAtLeast)
	Version       string `toml:"version"`
	Strict        bool   `toml:"strict"`
	MaxIterations int    `toml:"max_iterations"`
	Seed          uint64 `toml:"seed"`
	// Scheduler is "manual" (Wait bodies run when the runner drains) or
	// "timer" (wall clock)
	Scheduler string `toml:"scheduler"`
	SaveFile  string `toml:"save_file"`

	Log    LogConfig    `toml:"log"`
	Assets AssetsConfig `toml:"assets"`

	Settings     map[string]any    `toml:"settings"`
	Tokens       map[string]string `toml:"tokens"`
	Localization map[string]string `toml:"localization"`
	Domains      []DomainConfig    `toml:"domain"`
}

// LogConfig selects the log level and handler
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AssetsConfig locates content and user function files
type AssetsConfig struct {
	Root      string   `toml:"root"`
	Functions []string `toml:"functions"`
}

// DomainConfig declares a reference domain and its attached components
type DomainConfig struct {
	Name       string   `toml:"name"`
	Active     *bool    `toml:"active"`
	Components []string `toml:"components"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Version:       "v0.0.0",
		MaxIterations: eval.DefaultMaxIterations,
		Seed:          1,
		Scheduler:     "manual",
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are an error so
// that typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks values that decode fine but make no sense
func (c Config) Validate() error {
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	switch c.Scheduler {
	case "", "manual", "timer":
	default:
		return fmt.Errorf("scheduler must be manual or timer, got %q", c.Scheduler)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must not be negative")
	}
	for _, d := range c.Domains {
		if d.Name == "" {
			return fmt.Errorf("domain without a name")
		}
		for _, comp := range d.Components {
			if _, ok := host.ParseComponent(comp); !ok {
				return fmt.Errorf("domain %s: unknown component %q", d.Name, comp)
			}
		}
	}
	return nil
}

// ---------------------------------------------------------
// Assembly
// ---------------------------------------------------------

// Logger builds the slog logger described by the log section
func (c Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if c.Log.Level != "" {
		if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Host assembles the host collaborators
func (c Config) Host(logger *slog.Logger) (*host.Host, error) {
	h := host.NewMemory(logger)
	if c.Version != "" {
		h.Version = c.Version
	}
	h.Random = host.NewRandom(c.Seed)
	h.Launcher = host.HTTPLauncher{Logger: logger}
	if c.Scheduler == "timer" {
		h.Scheduler = host.TimerScheduler{}
	}
	if c.Assets.Root != "" {
		h.Assets = host.DirAssets(c.Assets.Root)
	}
	if c.SaveFile != "" {
		store, err := host.OpenFileStore(c.SaveFile)
		if err != nil {
			return nil, err
		}
		h.Store = store
	}
	if len(c.Tokens) > 0 {
		h.Tokens = host.MapTokens(c.Tokens)
	}
	if len(c.Localization) > 0 {
		h.Localizer = host.MapLocalizer(c.Localization)
	}
	if err := c.seedSettings(h.Settings); err != nil {
		return nil, err
	}
	h.Directory = c.World()
	return h, nil
}

func (c Config) seedSettings(s host.Settings) error {
	keys := make([]string, 0, len(c.Settings))
	for k := range c.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := c.Settings[k].(type) {
		case bool:
			s.SetBool(k, v)
		case int64:
			s.SetInt(k, int(v))
		default:
			return fmt.Errorf("setting %s: want bool or integer, got %T", k, v)
		}
	}
	return nil
}

// World builds the reference domains. Each component gets a child entity
// named "<domain>.<component>".
func (c Config) World() *host.World {
	w := host.NewWorld()
	for _, d := range c.Domains {
		root := host.NewEntity(d.Name)
		for _, name := range d.Components {
			comp, _ := host.ParseComponent(name)
			root.Attach(comp, host.NewEntity(d.Name+"."+name))
		}
		w.Register(d.Name, root)
		if d.Active != nil && !*d.Active {
			w.SetActive(d.Name, false)
		}
	}
	return w
}

// Loader returns the user function loader for the configured files
func (c Config) Loader(assets host.Assets, logger *slog.Logger) *catalog.Loader {
	return &catalog.Loader{Assets: assets, Paths: c.Assets.Functions, Logger: logger}
}

// Options returns the interpreter options implied by the configuration
func (c Config) Options() []eval.Option {
	return []eval.Option{
		eval.WithStrict(c.Strict),
		eval.WithMaxIterations(c.MaxIterations),
	}
}

// Vars parses name=value pairs from the command line into an environment.
// Values are read as JSON when they parse, as plain strings otherwise.
func Vars(pairs map[string]string) *eval.Env {
	env := eval.NewEnv()
	for name, raw := range pairs {
		v, err := value.ParseJSON([]byte(raw))
		if err != nil {
			v = value.String(raw)
		}
		env.Set(name, v)
	}
	return env
}
