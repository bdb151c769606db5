// Package config loads game settings from YAML. The embedded default.yaml
// is read first and an on-disk file is layered over it.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// DefaultPath is read when no path is given and the file exists.
const DefaultPath = "config.yaml"

type Config struct {
	StartNode  string           `yaml:"start_node"`
	Debug      bool             `yaml:"debug"`
	Narratives NarrativesConfig `yaml:"narratives"`
	Audio      AudioConfig      `yaml:"audio"`
	Reader     ReaderConfig     `yaml:"reader"`
	Save       SaveConfig       `yaml:"save"`
}

type NarrativesConfig struct {
	BaseURL string `yaml:"base_url"`
	Dir     string `yaml:"dir"`
	Watch   bool   `yaml:"watch"`
}

type AudioConfig struct {
	SampleRate   int           `yaml:"sample_rate"`
	DurationWait time.Duration `yaml:"duration_wait"`
	PollInterval time.Duration `yaml:"poll_interval"`
	EndThreshold float64       `yaml:"end_threshold"`
	ForceBackend string        `yaml:"force_backend"`
}

type ReaderConfig struct {
	AutoScroll bool    `yaml:"auto_scroll"`
	Smoothing  float64 `yaml:"smoothing"`
	FadeFrames int     `yaml:"fade_frames"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FontSize   float64 `yaml:"font_size"`
}

type SaveMode string

const (
	SaveNone   SaveMode = "none"
	SaveFile   SaveMode = "file"
	SaveRemote SaveMode = "remote"
)

type SaveConfig struct {
	Mode      SaveMode `yaml:"mode"`
	Path      string   `yaml:"path"`
	RemoteURL string   `yaml:"remote_url"`
	Slot      string   `yaml:"slot"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal default.yaml: %w", err)
	}
	return &cfg, nil
}

// Load reads the defaults and layers path over them. An empty path means
// DefaultPath if it exists; a named path must exist.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
		}
	case !explicit && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the game cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.StartNode) == "" {
		errs = append(errs, errors.New("start_node is empty"))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must be positive", c.Audio.SampleRate))
	}
	if c.Audio.EndThreshold < 0 {
		errs = append(errs, fmt.Errorf("audio.end_threshold %v is negative", c.Audio.EndThreshold))
	}
	switch c.Audio.ForceBackend {
	case "", "stream", "buffered":
	default:
		errs = append(errs, fmt.Errorf("audio.force_backend %q: want stream or buffered", c.Audio.ForceBackend))
	}
	if c.Reader.Smoothing < 0 || c.Reader.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("reader.smoothing %v outside [0,1]", c.Reader.Smoothing))
	}
	if c.Reader.Width <= 0 || c.Reader.Height <= 0 {
		errs = append(errs, fmt.Errorf("reader size %dx%d must be positive", c.Reader.Width, c.Reader.Height))
	}
	switch c.Save.Mode {
	case SaveNone, "":
	case SaveFile:
		if c.Save.Path == "" {
			errs = append(errs, errors.New("save.path is required for file saves"))
		}
	case SaveRemote:
		if !strings.HasPrefix(c.Save.RemoteURL, "ws://") && !strings.HasPrefix(c.Save.RemoteURL, "wss://") {
			errs = append(errs, fmt.Errorf("save.remote_url %q must be a ws:// or wss:// url", c.Save.RemoteURL))
		}
	default:
		errs = append(errs, fmt.Errorf("save.mode %q: want none, file or remote", c.Save.Mode))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}
