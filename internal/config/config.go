// Package config loads servepanel settings from the XDG config directory.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
)

// AppName names the config directory.
const AppName = "servepanel"

// FileName is the settings file inside the config directory.
const FileName = "settings.json"

// PortText is a port as typed by the user. Settings files may spell it as
// a JSON string or a number.
type PortText string

func (p *PortText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = PortText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("port must be a string or a number: %w", err)
	}
	*p = PortText(n.String())
	return nil
}

// Config holds startup settings. None of it records UI state.
type Config struct {
	Port             PortText `json:"port" validate:"omitempty,number"`
	Dir              string   `json:"dir,omitempty"`
	LogLevel         string   `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFile          string   `json:"log_file,omitempty"`
	PreviewMaxBytes  int      `json:"preview_max_bytes,omitempty" validate:"gte=0,lte=67108864"`
	PreviewMaxHeight int      `json:"preview_max_height,omitempty" validate:"gte=0,lte=500"`
	ShowHidden       bool     `json:"show_hidden,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:             "8080",
		LogLevel:         "warn",
		PreviewMaxBytes:  1 << 20,
		PreviewMaxHeight: 20,
	}
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Dir returns the XDG compliant config directory.
func Dir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// Path returns explicit if set, otherwise the default settings path.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, FileName)
}

// Load reads settings from path. A missing file yields the defaults with no
// error. An unreadable or invalid file yields the defaults with an error
// describing the problem.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Default(), fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("no config path")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
