package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PolicyConfig carries the reconciliation and ingestion business policy.
// It lives in an operator-editable file so support can adjust thresholds
// without a redeploy.
type PolicyConfig struct {
	MinAmount           int64    `mapstructure:"minAmount"`
	MaxAmount           int64    `mapstructure:"maxAmount"`
	SupportedCurrencies []string `mapstructure:"supportedCurrencies"`
	ExpectedProviders   []string `mapstructure:"expectedProviders"`
	StaleAfterHours     int      `mapstructure:"staleAfterHours"`
}

func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MinAmount:           100,
		MaxAmount:           10_000_000,
		SupportedCurrencies: []string{"FCFA", "XOF", "USD"},
		ExpectedProviders:   []string{"orange_money", "moov_money", "wave"},
		StaleAfterHours:     24,
	}
}

func (p PolicyConfig) SupportsCurrency(currency string) bool {
	for _, c := range p.SupportedCurrencies {
		if strings.EqualFold(c, currency) {
			return true
		}
	}
	return false
}

func (p PolicyConfig) ExpectsProvider(provider string) bool {
	for _, c := range p.ExpectedProviders {
		if strings.EqualFold(c, provider) {
			return true
		}
	}
	return false
}

// PolicyHolder exposes the current policy and hot-reloads it on file change.
type PolicyHolder struct {
	current atomic.Value // holds PolicyConfig
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/sigiyoro")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SIGIYORO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicyConfig()
	v.SetDefault("policy.minAmount", defaults.MinAmount)
	v.SetDefault("policy.maxAmount", defaults.MaxAmount)
	v.SetDefault("policy.supportedCurrencies", defaults.SupportedCurrencies)
	v.SetDefault("policy.expectedProviders", defaults.ExpectedProviders)
	v.SetDefault("policy.staleAfterHours", defaults.StaleAfterHours)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	holder := &PolicyHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("policy config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PolicyHolder) Current() PolicyConfig {
	if cfg, ok := h.current.Load().(PolicyConfig); ok {
		return cfg
	}
	return DefaultPolicyConfig()
}

// Set replaces the policy in place. Intended for tests.
func (h *PolicyHolder) Set(cfg PolicyConfig) {
	h.current.Store(cfg)
}

func (h *PolicyHolder) reload(v *viper.Viper) error {
	var cfg PolicyConfig
	if err := v.UnmarshalKey("policy", &cfg); err != nil {
		return err
	}
	if len(cfg.SupportedCurrencies) == 0 {
		cfg.SupportedCurrencies = DefaultPolicyConfig().SupportedCurrencies
	}
	if cfg.StaleAfterHours <= 0 {
		cfg.StaleAfterHours = DefaultPolicyConfig().StaleAfterHours
	}
	h.current.Store(cfg)
	return nil
}
