package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// RateBound is the plausible range for one cost parameter type.
// Values at or below Min are rejected unless AllowMin is set.
type RateBound struct {
	Min      float64 `mapstructure:"min"`
	Max      float64 `mapstructure:"max"`
	AllowMin bool    `mapstructure:"allow_min"`
}

type CostEngineConfig struct {
	CalculationNumberPrefix string               `mapstructure:"calculation_number_prefix"`
	RateBounds              map[string]RateBound `mapstructure:"rate_bounds"`
}

func DefaultCostEngineConfig() CostEngineConfig {
	return CostEngineConfig{
		CalculationNumberPrefix: "CC",
		RateBounds: map[string]RateBound{
			"labor":       {Min: 0, Max: 1000},
			"electricity": {Min: 0, Max: 10},
			"land":        {Min: 0, Max: 1_000_000},
			"overhead":    {Min: 0, Max: 1, AllowMin: true},
		},
	}
}

type CostEngineConfigHolder struct {
	current atomic.Value // holds CostEngineConfig
}

// NewStaticCostEngineConfigHolder wraps a fixed config, mostly for tests.
func NewStaticCostEngineConfigHolder(cfg CostEngineConfig) *CostEngineConfigHolder {
	holder := &CostEngineConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCostEngineConfigHolder(appCfg Config) (*CostEngineConfigHolder, error) {
	v := viper.New()

	if appCfg.CostEngineConfigPath != "" {
		v.SetConfigFile(appCfg.CostEngineConfigPath)
	} else {
		v.SetConfigName("costengine")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/fastenmind")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FASTENMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeCostEngineConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticCostEngineConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCostEngineConfig(v)
		if err != nil {
			log.Printf("[cost-engine-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[cost-engine-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CostEngineConfigHolder) Get() CostEngineConfig {
	return h.current.Load().(CostEngineConfig)
}

func decodeCostEngineConfig(v *viper.Viper) (CostEngineConfig, error) {
	cfg := DefaultCostEngineConfig()
	if err := v.UnmarshalKey("cost_engine", &cfg); err != nil {
		return CostEngineConfig{}, err
	}
	if err := validateCostEngineConfig(cfg); err != nil {
		return CostEngineConfig{}, err
	}
	return cfg, nil
}

func validateCostEngineConfig(cfg CostEngineConfig) error {
	if strings.TrimSpace(cfg.CalculationNumberPrefix) == "" {
		return errors.New("cost_engine.calculation_number_prefix cannot be empty")
	}
	for _, required := range []string{"labor", "electricity", "overhead"} {
		if _, ok := cfg.RateBounds[required]; !ok {
			return fmt.Errorf("cost_engine.rate_bounds.%s is required", required)
		}
	}
	for name, bound := range cfg.RateBounds {
		if bound.Max <= bound.Min {
			return fmt.Errorf("cost_engine.rate_bounds.%s: max must exceed min", name)
		}
	}
	return nil
}
