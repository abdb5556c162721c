package config

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/viper"

	apisrv "github.com/compose-network/nitro-wallet/server/api"
)

// Config holds the complete hub configuration
type Config struct {
	API     apisrv.Config `mapstructure:"api"     yaml:"api"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
	Hub     HubConfig     `mapstructure:"hub"     yaml:"hub"`
	Lobby   LobbyConfig   `mapstructure:"lobby"   yaml:"lobby"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `mapstructure:"path"    yaml:"path"    env:"METRICS_PATH"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// HubConfig configures the commitment relay.
type HubConfig struct {
	// PrivateKey is the hex encoded secp256k1 key the hub signs commitments with.
	PrivateKey string `mapstructure:"private_key" yaml:"private_key" env:"HUB_PRIVATE_KEY"`
	// LedgerChannelType, when set, is the only channel type accepted for ledger channels.
	LedgerChannelType string        `mapstructure:"ledger_channel_type" yaml:"ledger_channel_type" env:"HUB_LEDGER_CHANNEL_TYPE"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     yaml:"request_timeout"     env:"HUB_REQUEST_TIMEOUT"`
}

// LobbyConfig toggles the open channel directory.
type LobbyConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" env:"LOBBY_ENABLED"`
}

// Load loads configuration from file and environment. A missing file is not
// an error; defaults and environment still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("api.listen_addr", d.API.ListenAddr)
	v.SetDefault("api.read_header_timeout", d.API.ReadHeaderTimeout)
	v.SetDefault("api.read_timeout", d.API.ReadTimeout)
	v.SetDefault("api.write_timeout", d.API.WriteTimeout)
	v.SetDefault("api.idle_timeout", d.API.IdleTimeout)
	v.SetDefault("api.max_header_bytes", d.API.MaxHeaderBytes)
	v.SetDefault("api.cors_origins", []string{})

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)

	// Env-only values need a default for AutomaticEnv to see them.
	v.SetDefault("hub.private_key", "")
	v.SetDefault("hub.ledger_channel_type", "")
	v.SetDefault("hub.request_timeout", d.Hub.RequestTimeout)

	v.SetDefault("lobby.enabled", d.Lobby.Enabled)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	return c.validateHub()
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}

func (c *Config) validateHub() error {
	if strings.TrimSpace(c.Hub.PrivateKey) == "" {
		return fmt.Errorf("hub.private_key is required")
	}
	if _, err := c.Hub.Key(); err != nil {
		return err
	}
	if c.Hub.LedgerChannelType != "" && !common.IsHexAddress(c.Hub.LedgerChannelType) {
		return fmt.Errorf("hub.ledger_channel_type is not an address: %q", c.Hub.LedgerChannelType)
	}
	if c.Hub.RequestTimeout < 0 {
		return fmt.Errorf("hub.request_timeout must not be negative")
	}
	return nil
}

// Key parses PrivateKey.
func (h HubConfig) Key() (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(h.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("hub.private_key: %w", err)
	}
	return key, nil
}

// LedgerType returns the configured ledger channel type, or the zero address.
func (h HubConfig) LedgerType() common.Address {
	if h.LedgerChannelType == "" {
		return common.Address{}
	}
	return common.HexToAddress(h.LedgerChannelType)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		API: apisrv.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
		Hub: HubConfig{
			RequestTimeout: 10 * time.Second,
		},
		Lobby: LobbyConfig{
			Enabled: true,
		},
	}
}
