package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
	"github.com/xelth-com/soletrack/internal/milestone"
)

// AlertsConfig holds alert generation settings
type AlertsConfig struct {
	Enabled             bool
	IntervalMinutes     int
	InitialDelaySeconds int
	RunTimeoutSeconds   int
	Policy              string // upsert, regenerate
	RulesFile           string

	Rules *milestone.RuleTable
}

// Interval is the scheduler period
func (c AlertsConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// InitialDelay is the wait before the first scheduled run
func (c AlertsConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelaySeconds) * time.Second
}

// RunTimeout bounds a single run
func (c AlertsConfig) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutSeconds) * time.Second
}

// LoadAlertsConfig reads the alert settings and rule table
func LoadAlertsConfig() (AlertsConfig, error) {
	cfg := AlertsConfig{
		Enabled:             getBoolEnv("ALERT_ENABLED", true),
		IntervalMinutes:     getIntEnv("ALERT_INTERVAL_MINUTES", 60),
		InitialDelaySeconds: getIntEnv("ALERT_INITIAL_DELAY_SECONDS", 10),
		RunTimeoutSeconds:   getIntEnv("ALERT_RUN_TIMEOUT_SECONDS", 120),
		Policy:              getEnv("ALERT_POLICY", "upsert"),
		RulesFile:           getEnv("ALERT_RULES_FILE", ""),
	}

	rules, err := LoadRules(cfg.RulesFile)
	if err != nil {
		return cfg, err
	}
	cfg.Rules = rules
	return cfg, nil
}

type rulesFile struct {
	Rules []milestone.Rule `mapstructure:"rules"`
}

// LoadRules reads rule overrides from a YAML, TOML or JSON file and merges
// them over the default table. An empty path yields the defaults.
func LoadRules(path string) (*milestone.RuleTable, error) {
	defaults := milestone.DefaultRuleTable()
	if path == "" {
		return defaults, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var file rulesFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	rules, err := defaults.Merge(file.Rules...)
	if err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}

	log.Printf("📋 Loaded %d alert rule overrides from %s", len(file.Rules), path)
	return rules, nil
}
