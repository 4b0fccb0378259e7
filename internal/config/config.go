package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds everything the pipeline and its collaborators need. Values
// come from defaults, then an optional YAML file, then environment
// variables, each layer overriding the previous one.
type Config struct {
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`

	WorkspaceDir            string `yaml:"workspace_dir"`
	MaxSlides               int    `yaml:"max_slides"`
	MaxContentLinesPerSlide int    `yaml:"max_content_lines_per_slide"`

	FPS          int    `yaml:"fps"`
	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`

	// Deck mode: seconds per page and render DPI when converting an
	// existing PDF deck.
	DeckPageDuration int `yaml:"deck_page_duration"`
	DeckDPI          int `yaml:"deck_dpi"`

	ShowStats bool `yaml:"show_stats"`
}

func Default() *Config {
	return &Config{
		Host:                    "0.0.0.0",
		Port:                    8000,
		WorkspaceDir:            "workspace",
		MaxSlides:               20,
		MaxContentLinesPerSlide: 10,
		FPS:                     30,
		DeckPageDuration:        5,
		DeckDPI:                 150,
	}
}

// Load reads the YAML config at path (missing file is fine, defaults apply)
// and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("T2V_WORKSPACE_DIR"); v != "" {
		cfg.WorkspaceDir = v
	}
	if v, ok := envInt("T2V_MAX_SLIDES"); ok {
		cfg.MaxSlides = v
	}
	if v, ok := envInt("T2V_MAX_CONTENT_LINES"); ok {
		cfg.MaxContentLinesPerSlide = v
	}
	if v, ok := envInt("T2V_FPS"); ok {
		cfg.FPS = v
	}
	if v, ok := envInt("T2V_PORT"); ok {
		cfg.Port = v
	}
	if v := os.Getenv("T2V_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("T2V_DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// InputDir, SlidesDir and VideosDir are the workspace subdirectories owned
// by the filesystem collaborator.
func (c *Config) InputDir() string  { return filepath.Join(c.WorkspaceDir, "input") }
func (c *Config) SlidesDir() string { return filepath.Join(c.WorkspaceDir, "slides") }
func (c *Config) VideosDir() string { return filepath.Join(c.WorkspaceDir, "videos") }
