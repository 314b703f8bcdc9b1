package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logging LoggingConfig `validate:"required"`
	Billing BillingConfig `validate:"required"`
}

type LoggingConfig struct {
	Level string `validate:"required"`
}

// BillingConfig holds the tunables of the invoice generation pass
type BillingConfig struct {
	// MaxRawUsagePreviousPeriod bounds how far back raw usage is rescanned,
	// expressed in billing periods before the target date. Usage recorded
	// before that boundary is excluded from reconciliation even when it falls
	// inside a logically still-open interval. This is a deliberate
	// cost/latency trade-off, not a correctness requirement.
	MaxRawUsagePreviousPeriod int `mapstructure:"max_raw_usage_previous_period" validate:"gte=0"`

	// LockWaitTimeout bounds how long an invoice generation pass waits for
	// the per-account lock before reporting a retryable busy condition.
	LockWaitTimeout time.Duration `mapstructure:"lock_wait_timeout" validate:"gt=0"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billrun")

	v.SetEnvPrefix("BILLRUN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// GetDefaultConfig returns the configuration used by tests and one-off tools
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: "info"},
		Billing: BillingConfig{
			MaxRawUsagePreviousPeriod: 2,
			LockWaitTimeout:           10 * time.Second,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("billing.max_raw_usage_previous_period", 2)
	v.SetDefault("billing.lock_wait_timeout", 10*time.Second)
}

func (c Configuration) Validate() error {
	return validator.New().Struct(c)
}
