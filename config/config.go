// Package config loads the YAML configuration file of comparea.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/pdok/comparea/projection"
	"github.com/pdok/comparea/topic"
	"gopkg.in/yaml.v3"
)

// Config represents the root of the configuration file.
type Config struct {
	Projection projection.Config `yaml:"projection" json:"projection"`
	Topic      topic.Config      `yaml:"topic" json:"topic"`
	// PageSize is the number of features written per transaction to a GeoPackage.
	PageSize int `yaml:"pageSize" json:"pageSize" default:"1000" validate:"gt=0"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
// Missing settings get their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
