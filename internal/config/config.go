// Package config loads the velo settings file.
//
// Settings live in a TOML file at $XDG_CONFIG_HOME/velo/config.toml (or
// ~/.config/velo/config.toml). Every key is optional:
//
//	data_dir           = "~/notes/velo"
//	backend            = "file"        # file, redis or memory
//	redis_addr         = "localhost:6379"
//	redis_db           = 0
//	autosave           = "2s"          # "0s" disables autosave
//	frame_interval     = "33ms"
//	side_panel_percent = 15
//	max_image_side     = 512
//	confirmations      = true
//	log_level          = "info"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"velo/internal/geom"
	"velo/internal/interact"
	"velo/internal/store"
)

const appName = "velo"

// Duration is a time.Duration written as a string ("2s", "150ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	DataDir       string   `toml:"data_dir"`
	Backend       string   `toml:"backend" validate:"oneof=file redis memory"`
	RedisAddr     string   `toml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db" validate:"min=0,max=15"`
	RedisPrefix   string   `toml:"redis_prefix"`
	Autosave      Duration `toml:"autosave"`
	FrameInterval Duration `toml:"frame_interval"`

	SidePanelPercent float64 `toml:"side_panel_percent" validate:"min=0,max=50"`
	MaxImageSide     int     `toml:"max_image_side" validate:"min=16,max=4096"`
	Confirmations    bool    `toml:"confirmations"`
	LogLevel         string  `toml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the settings used when no file exists.
func Default() Config {
	return Config{
		DataDir:          defaultDataDir(),
		Backend:          store.BackendFile,
		RedisPrefix:      appName,
		Autosave:         Duration{2 * time.Second},
		FrameInterval:    Duration{33 * time.Millisecond},
		SidePanelPercent: 15,
		MaxImageSide:     512,
		Confirmations:    true,
		LogLevel:         "info",
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), appName, "config.toml")
}

func defaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be missing; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	md, err := toml.DecodeFile(path, &cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return cfg, cfg.Validate()
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, keys[0].String())
	}

	cfg.DataDir = expandHome(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

var validate = newValidator()

// newValidator reports fields by their key in the file.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		return name
	})
	return v
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	switch {
	case c.Autosave.Duration < 0:
		return errors.New("autosave must not be negative")
	case c.FrameInterval.Duration <= 0:
		return errors.New("frame_interval must be positive")
	case c.Backend == store.BackendFile && c.DataDir == "":
		return errors.New("data_dir is required for the file backend")
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required_if":
		cond := strings.ToLower(strings.Replace(e.Param(), " ", " is ", 1))
		return fmt.Sprintf("%s is required when %s", field, cond)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// StoreOptions selects the storage backend.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Backend,
		Dir:     c.DataDir,
		Redis: store.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
			Prefix:   c.RedisPrefix,
		},
	}
}

// Interact is the layout the interaction machine hit-tests against.
func (c Config) Interact() interact.Config {
	cfg := interact.DefaultConfig()
	cfg.SidePanel = geom.Pct(c.SidePanelPercent)
	return cfg
}

// LogPath is where the editor writes its log while the terminal is taken.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, appName+".log")
}
