package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// RetrievalConfig points at the benchmark knowledge base.
type RetrievalConfig struct {
	URL            string `yaml:"url"`
	Index          string `yaml:"index"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ScannerConfig selects the config scanner binary.
type ScannerConfig struct {
	Binary string `yaml:"binary"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	Retrieval        RetrievalConfig           `yaml:"retrieval"`
	Scanner          ScannerConfig             `yaml:"scanner"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".ksec-copilot")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

func defaults() *Config {
	return &Config{
		SelectedProvider: "gemini",
		SelectedModel:    "gemini-pro",
		Providers:        make(map[string]ProviderConfig),
		Retrieval: RetrievalConfig{
			URL:            "http://localhost:9200",
			Index:          "k8s_security_documents",
			TimeoutSeconds: 15,
		},
		Scanner: ScannerConfig{Binary: "trivy"},
	}
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// Return default config
		return defaults(), nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	def := defaults()
	if cfg.Retrieval.URL == "" {
		cfg.Retrieval.URL = def.Retrieval.URL
	}
	if cfg.Retrieval.Index == "" {
		cfg.Retrieval.Index = def.Retrieval.Index
	}
	if cfg.Retrieval.TimeoutSeconds <= 0 {
		cfg.Retrieval.TimeoutSeconds = def.Retrieval.TimeoutSeconds
	}
	if cfg.Scanner.Binary == "" {
		cfg.Scanner.Binary = def.Scanner.Binary
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}
