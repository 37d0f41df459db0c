package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	API      APIConfig      `yaml:"api"`
	Services ServicesConfig `yaml:"services"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
}

// APIConfig configures the backend transport.
type APIConfig struct {
	BaseURL    string        `yaml:"baseUrl"`
	Timeout    time.Duration `yaml:"timeout"`
	WalletName string        `yaml:"walletName"`
}

// ServicesConfig configures the deep-link hand-off into the backend's web
// flow.
type ServicesConfig struct {
	URL         string `yaml:"url"`
	Blockchain  string `yaml:"blockchain"`
	RedirectURI string `yaml:"redirectUri"`
	Locale      string `yaml:"locale"`
}

// StoreConfig configures the durable session store. Path is used when no
// Redis URL is set.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the optional Redis session store and event stream.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen: ":9100",
		API: APIConfig{
			Timeout:    15 * time.Second,
			WalletName: "Garuda Wallet",
		},
		Services: ServicesConfig{
			Blockchain: "Bitcoin",
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
	}
}

// Load reads the configuration from configPath, falling back to the
// default candidates, then applies environment overrides on top.
func Load(configPath string) (Config, error) {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/garuda.yaml",
			"garuda.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath != "" {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			continue
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		break
	}

	ApplyEnvOverrides(&cfg)
	return cfg, nil
}

// ApplyEnvOverrides overlays GARUDA_* environment variables on cfg.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GARUDA_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("GARUDA_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("GARUDA_SRV_URL"); v != "" {
		cfg.Services.URL = v
	}
	if v := os.Getenv("GARUDA_REDIRECT_URI"); v != "" {
		cfg.Services.RedirectURI = v
	}
	if v := os.Getenv("GARUDA_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseUrl is required")
	}
	if c.Services.URL == "" {
		return fmt.Errorf("services.url is required")
	}
	return nil
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "garuda-sessions.json"
	}
	return dir + "/garuda/sessions.json"
}
