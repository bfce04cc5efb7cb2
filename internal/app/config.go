package app

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"bioshelf/internal/domain"
	"bioshelf/internal/infra/search"
)

// Config is the normalized runtime configuration.
type Config struct {
	MetadataPath     string
	ContainerRoot    string
	CachePath        string
	ModuleDir        string
	WatchMetadata    bool
	SearchLimit      int
	ListLimit        int
	BatchConcurrency int
	Weights          search.Weights
	Observability    ObservabilityConfig
}

type ObservabilityConfig struct {
	Enabled       bool
	ListenAddress string
}

type rawConfig struct {
	MetadataPath     string                 `mapstructure:"metadataPath"`
	ContainerRoot    string                 `mapstructure:"containerRoot"`
	CachePath        string                 `mapstructure:"cachePath"`
	ModuleDir        string                 `mapstructure:"moduleDir"`
	WatchMetadata    bool                   `mapstructure:"watchMetadata"`
	SearchLimit      int                    `mapstructure:"searchLimit"`
	ListLimit        int                    `mapstructure:"listLimit"`
	BatchConcurrency int                    `mapstructure:"batchConcurrency"`
	Weights          rawWeightsConfig       `mapstructure:"weights"`
	Observability    rawObservabilityConfig `mapstructure:"observability"`
}

type rawWeightsConfig struct {
	Name        float64 `mapstructure:"name"`
	Operation   float64 `mapstructure:"operation"`
	Topic       float64 `mapstructure:"topic"`
	Description float64 `mapstructure:"description"`
}

type rawObservabilityConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listenAddress"`
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setConfigDefaults(v)
	return v
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("containerRoot", domain.DefaultContainerRoot)
	v.SetDefault("moduleDir", domain.DefaultModuleDir)
	v.SetDefault("watchMetadata", true)
	v.SetDefault("searchLimit", domain.DefaultSearchLimit)
	v.SetDefault("listLimit", domain.DefaultListLimit)
	v.SetDefault("batchConcurrency", domain.DefaultBatchConcurrency)
	v.SetDefault("weights.name", domain.DefaultNameWeight)
	v.SetDefault("weights.operation", domain.DefaultOperationWeight)
	v.SetDefault("weights.topic", domain.DefaultTopicWeight)
	v.SetDefault("weights.description", domain.DefaultDescriptionWeight)
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() Config {
	cfg, _ := normalizeConfig(decodeDefaults())
	return cfg
}

func decodeDefaults() rawConfig {
	v := newConfigViper()
	var raw rawConfig
	_ = v.Unmarshal(&raw)
	return raw
}

// LoadConfig reads a YAML config file and applies defaults. An empty path
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	v := newConfigViper()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := v.ReadConfig(bytes.NewBuffer(data)); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg, errs := normalizeConfig(raw)
	if len(errs) > 0 {
		return Config{}, errors.New(strings.Join(errs, "; "))
	}
	return cfg, nil
}

func normalizeConfig(raw rawConfig) (Config, []string) {
	var errs []string

	containerRoot := strings.TrimSpace(raw.ContainerRoot)
	if containerRoot == "" {
		containerRoot = domain.DefaultContainerRoot
	}
	moduleDir := strings.TrimSpace(raw.ModuleDir)
	if moduleDir == "" {
		moduleDir = domain.DefaultModuleDir
	}

	if raw.SearchLimit <= 0 {
		errs = append(errs, "searchLimit must be > 0")
	}
	if raw.ListLimit <= 0 {
		errs = append(errs, "listLimit must be > 0")
	}
	if raw.BatchConcurrency <= 0 {
		errs = append(errs, "batchConcurrency must be > 0")
	}

	weights := search.Weights{
		Name:        raw.Weights.Name,
		Operation:   raw.Weights.Operation,
		Topic:       raw.Weights.Topic,
		Description: raw.Weights.Description,
	}
	if weights.Name < 0 || weights.Operation < 0 || weights.Topic < 0 || weights.Description < 0 {
		errs = append(errs, "weights must be >= 0")
	}

	observability := ObservabilityConfig{
		Enabled:       raw.Observability.Enabled,
		ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
	}
	if observability.Enabled && observability.ListenAddress == "" {
		errs = append(errs, "observability.listenAddress is required when observability.enabled is true")
	}

	return Config{
		MetadataPath:     strings.TrimSpace(raw.MetadataPath),
		ContainerRoot:    containerRoot,
		CachePath:        strings.TrimSpace(raw.CachePath),
		ModuleDir:        moduleDir,
		WatchMetadata:    raw.WatchMetadata,
		SearchLimit:      raw.SearchLimit,
		ListLimit:        raw.ListLimit,
		BatchConcurrency: raw.BatchConcurrency,
		Weights:          weights,
		Observability:    observability,
	}, errs
}
