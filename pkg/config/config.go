package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"eth_backoff_api/internal/retry"
)

const defaultConfigFile = "config.json"

// Upstream holds the per-request timeout and retry session settings of one
// upstream node.
type Upstream struct {
	Timeout time.Duration
	Retry   retry.Settings
}

type Config struct {
	Server struct {
		Address string
	}
	Log struct {
		Level string
	}
	Ethereum struct {
		RPCHTTP   string
		RPCWS     string
		MevRelays []string
	}
	Cache struct {
		SyncDuties  CacheSettings
		BlockReward CacheSettings
	}
	Retry struct {
		BlockReward Upstream
		SyncDuties  Upstream
	}
}

type CacheSettings struct {
	MaxEntries int
	TTL        time.Duration
}

// Load reads config.json from the working directory if present; environment
// variables override it.
func Load() (*Config, error) {
	return load(defaultConfigFile, false)
}

// LoadFile is like Load but fails when path cannot be read.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if required || !missing {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.Server.Address = v.GetString("SERVER_ADDRESS")
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Ethereum.RPCHTTP = v.GetString("ETH_RPC_HTTP")
	cfg.Ethereum.RPCWS = v.GetString("ETH_RPC_WS")
	cfg.Ethereum.MevRelays = v.GetStringSlice("MEV_RELAYS")

	cfg.Cache.SyncDuties = cacheSettings(v, "CACHE_SYNC")
	cfg.Cache.BlockReward = cacheSettings(v, "CACHE_BLOCK_REWARD")

	cfg.Retry.BlockReward = upstream(v, "BR")
	cfg.Retry.SyncDuties = upstream(v, "SD")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ETH_RPC_HTTP", "default_value")
	v.SetDefault("ETH_RPC_WS", "default_value")
	v.SetDefault("MEV_RELAYS", []string{})
	v.SetDefault("CACHE_SYNC_MAX_ENTRIES", 1024)
	v.SetDefault("CACHE_SYNC_TTL", "60m")
	v.SetDefault("CACHE_BLOCK_REWARD_MAX_ENTRIES", 1024)
	v.SetDefault("CACHE_BLOCK_REWARD_TTL", "60m")

	for prefix, timeout := range map[string]string{"BR": "5s", "SD": "10s"} {
		v.SetDefault(prefix+"_TIMEOUT", timeout)
		v.SetDefault(prefix+"_MAX_RETRIES", 3)
		v.SetDefault(prefix+"_INITIAL_DELAY", retry.DefaultInitialDelay.String())
		v.SetDefault(prefix+"_BACKOFF_FACTOR", retry.DefaultFactor)
		v.SetDefault(prefix+"_JITTER", retry.DefaultJitter.String())
	}
}

func cacheSettings(v *viper.Viper, prefix string) CacheSettings {
	return CacheSettings{
		MaxEntries: v.GetInt(prefix + "_MAX_ENTRIES"),
		TTL:        v.GetDuration(prefix + "_TTL"),
	}
}

func upstream(v *viper.Viper, prefix string) Upstream {
	return Upstream{
		Timeout: v.GetDuration(prefix + "_TIMEOUT"),
		Retry: retry.Settings{
			MaxRetries:    v.GetInt(prefix + "_MAX_RETRIES"),
			InitialDelay:  v.GetDuration(prefix + "_INITIAL_DELAY"),
			BackoffFactor: v.GetFloat64(prefix + "_BACKOFF_FACTOR"),
			Jitter:        v.GetDuration(prefix + "_JITTER"),
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("SERVER_ADDRESS must not be empty")
	}
	if c.Ethereum.RPCHTTP == "" {
		return fmt.Errorf("ETH_RPC_HTTP must not be empty")
	}
	if c.Ethereum.RPCWS == "" {
		return fmt.Errorf("ETH_RPC_WS must not be empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	for name, cs := range map[string]CacheSettings{
		"CACHE_SYNC":         c.Cache.SyncDuties,
		"CACHE_BLOCK_REWARD": c.Cache.BlockReward,
	} {
		if cs.MaxEntries < 1 {
			return fmt.Errorf("%s_MAX_ENTRIES must be ≥ 1", name)
		}
	}
	if err := validateUpstream("BR", c.Retry.BlockReward); err != nil {
		return err
	}
	return validateUpstream("SD", c.Retry.SyncDuties)
}

func validateUpstream(prefix string, u Upstream) error {
	switch {
	case u.Timeout <= 0:
		return fmt.Errorf("%s_TIMEOUT must be > 0", prefix)
	case u.Retry.MaxRetries < 0:
		return fmt.Errorf("%s_MAX_RETRIES must be ≥ 0", prefix)
	case u.Retry.InitialDelay < 0:
		return fmt.Errorf("%s_INITIAL_DELAY must be ≥ 0", prefix)
	case u.Retry.BackoffFactor <= 0:
		return fmt.Errorf("%s_BACKOFF_FACTOR must be > 0", prefix)
	case u.Retry.Jitter < 0:
		return fmt.Errorf("%s_JITTER must be ≥ 0", prefix)
	}
	return nil
}
