package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Admin struct {
		Passcode string `yaml:"passcode"`
	} `yaml:"admin"`

	Audit struct {
		Path string `yaml:"path"`
	} `yaml:"audit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		WindowDays int `yaml:"window_days"`
	} `yaml:"booking"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = "localhost:6379"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/waylins_audit.db"
	}
	if cfg.Booking.WindowDays <= 0 {
		cfg.Booking.WindowDays = 14
	}
	if cfg.Admin.Passcode == "" {
		return nil, fmt.Errorf("admin.passcode is required")
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Audit.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}
