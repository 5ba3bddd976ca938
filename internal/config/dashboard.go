package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// DashboardConfig tunes how chart payloads are summarised.
type DashboardConfig struct {
	TopThreshold     int64         `mapstructure:"topThreshold"`
	OthersLabel      string        `mapstructure:"othersLabel"`
	AveragePrecision int           `mapstructure:"averagePrecision"`
	CacheTTL         time.Duration `mapstructure:"cacheTTL"`
	// NormalizeNames folds language aliases and legacy plan labels together.
	NormalizeNames bool `mapstructure:"normalizeNames"`
}

func DefaultDashboardConfig() DashboardConfig {
	return DashboardConfig{
		TopThreshold:     10,
		OthersLabel:      "Others",
		AveragePrecision: 2,
		CacheTTL:         30 * time.Second,
	}
}

type DashboardConfigHolder struct {
	current atomic.Value // holds DashboardConfig
}

// NewDashboardConfigHolderWith returns a holder pinned to cfg, without file watching.
func NewDashboardConfigHolderWith(cfg DashboardConfig) *DashboardConfigHolder {
	holder := &DashboardConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewDashboardConfigHolder() (*DashboardConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("dashboard")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/copilot-insights")
	v.AddConfigPath(".")

	v.SetEnvPrefix("COPILOT_INSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDashboardConfig()
	v.SetDefault("dashboard.topThreshold", defaults.TopThreshold)
	v.SetDefault("dashboard.othersLabel", defaults.OthersLabel)
	v.SetDefault("dashboard.averagePrecision", defaults.AveragePrecision)
	v.SetDefault("dashboard.cacheTTL", defaults.CacheTTL)
	v.SetDefault("dashboard.normalizeNames", defaults.NormalizeNames)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var cfg DashboardConfig
	if err := v.UnmarshalKey("dashboard", &cfg); err != nil {
		return nil, err
	}
	if err := validateDashboardConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewDashboardConfigHolderWith(cfg)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DashboardConfig
		if err := v.UnmarshalKey("dashboard", &updated); err != nil {
			log.Printf("[dashboard-config] reload failed: %v", err)
			return
		}
		if err := validateDashboardConfig(updated); err != nil {
			log.Printf("[dashboard-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[dashboard-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the active config, or defaults for a zero holder.
func (h *DashboardConfigHolder) Get() DashboardConfig {
	if h == nil {
		return DefaultDashboardConfig()
	}
	cfg, ok := h.current.Load().(DashboardConfig)
	if !ok {
		return DefaultDashboardConfig()
	}
	return cfg
}

func validateDashboardConfig(cfg DashboardConfig) error {
	if cfg.TopThreshold < 0 {
		return errors.New("dashboard.topThreshold cannot be negative")
	}
	if strings.TrimSpace(cfg.OthersLabel) == "" {
		return errors.New("dashboard.othersLabel cannot be empty")
	}
	if cfg.AveragePrecision < 0 || cfg.AveragePrecision > 6 {
		return errors.New("dashboard.averagePrecision must be between 0 and 6")
	}
	if cfg.CacheTTL < 0 {
		return errors.New("dashboard.cacheTTL cannot be negative")
	}
	return nil
}
