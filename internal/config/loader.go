package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// ConfigDir is the default config directory name.
	ConfigDir = ".hearth"
	// ConfigFile is the default config file name.
	ConfigFile = "config.json"
)

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("HEARTH_CONFIG")); explicit != "" {
		if strings.HasPrefix(explicit, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			return filepath.Join(home, explicit[1:]), nil
		}
		return explicit, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigDir, ConfigFile), nil
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Household: HouseholdConfig{
			Timezone:    "Local",
			PickupStart: "15:00",
			PickupEnd:   "16:30",
		},
		Provider: ProviderConfig{
			ChannelTTL:  7 * 24 * time.Hour,
			RenewWindow: 48 * time.Hour,
		},
		Gateway: GatewayConfig{
			Host:       "0.0.0.0",
			Port:       8787,
			MaxWorkers: 4,
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			TickInterval:  60 * time.Second,
			RenewCron:     "*/30 * * * *",
			ExpireCron:    "*/5 * * * *",
			CleanupCron:   "0 3 * * *",
			MemoryCron:    "30 3 * * *",
			LockPath:      filepath.Join(home, ConfigDir, "scheduler.lock"),
			MaxConcSweeps: 2,
		},
		Audit: AuditConfig{
			Topic: "hearth.audit",
		},
		Store: StoreConfig{
			Path: filepath.Join(home, ConfigDir, "hearth.db"),
		},
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Minute,
		},
	}
}

// Load loads the configuration from file and environment variables.
// Priority: environment > file > defaults.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Override with environment variables per group.
	envconfig.Process("HEARTH_HOUSEHOLD", &cfg.Household)
	envconfig.Process("HEARTH_PROVIDER", &cfg.Provider)
	envconfig.Process("HEARTH_CHANNELS", &cfg.Channels.Slack)
	envconfig.Process("HEARTH_CHANNELS", &cfg.Channels.Bridge)
	envconfig.Process("HEARTH_GATEWAY", &cfg.Gateway)
	envconfig.Process("HEARTH_SCHEDULER", &cfg.Scheduler)
	envconfig.Process("HEARTH", &cfg.Audit)
	envconfig.Process("HEARTH_STORE", &cfg.Store)

	expandHome := func(p *string) {
		if strings.HasPrefix(*p, "~") {
			if home, err := os.UserHomeDir(); err == nil {
				*p = filepath.Join(home, (*p)[1:])
			}
		}
	}
	expandHome(&cfg.Store.Path)
	expandHome(&cfg.Scheduler.LockPath)
	expandHome(&cfg.Provider.CredentialsFile)
	expandHome(&cfg.Provider.TokenFile)

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Location returns the household's time.Location, falling back to time.Local.
func (h HouseholdConfig) Location() *time.Location {
	if h.Timezone == "" || h.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
