// Package config loads the launcher configuration from a YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
)

const (
	// DefaultListenAddress is the address the HTTP server listens on when none is configured.
	DefaultListenAddress = ":8080"
	// DefaultConfirmTimeout bounds waiting for a receipt after submission.
	DefaultConfirmTimeout = 2 * time.Minute
)

// ServerConfig is the configuration of the HTTP surface.
type ServerConfig struct {
	ListenAddress string `mapstructure:"listen_address" yaml:"listen_address"` // The address to listen on, e.g. ":8080"
	AppHost       string `mapstructure:"app_host" yaml:"app_host"`             // The host /api/ipfs accepts uploads for
}

// IPFSConfig is the configuration of metadata pinning.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type IPFSConfig struct {
	PinataJWT      string `mapstructure:"pinata_jwt" yaml:"pinata_jwt"`           // Secret: The Pinata API JWT
	PinataEndpoint string `mapstructure:"pinata_endpoint" yaml:"pinata_endpoint"` // Overrides the Pinata pinning endpoint
	UploadURL      string `mapstructure:"upload_url" yaml:"upload_url"`           // The metadata upload endpoint used by submit
}

// ChainConfig is the configuration of the chain transactions are submitted to.
//
// WARNING: This data type contains sensitive fields and should not be logged or set in file
// configuration.
type ChainConfig struct {
	ChainID        uint64        `mapstructure:"chain_id" yaml:"chain_id"`               // The chain id the RPCs must report. Zero accepts any.
	RPCURL         string        `mapstructure:"rpc_url" yaml:"rpc_url"`                 // A single RPC URL, tried before RPCs
	RPCs           []evm.RPC     `mapstructure:"rpcs" yaml:"rpcs"`                       // RPC endpoints in order of preference
	SenderKey      string        `mapstructure:"sender_key" yaml:"sender_key"`           // Secret: The hex private key of the sender account
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout" yaml:"confirm_timeout"` // How long to wait for a receipt
}

// Endpoints returns the configured RPCs, RPCURL first.
func (c ChainConfig) Endpoints() []evm.RPC {
	out := make([]evm.RPC, 0, len(c.RPCs)+1)
	if c.RPCURL != "" {
		out = append(out, evm.RPC{Name: "default", URL: c.RPCURL})
	}

	return append(out, c.RPCs...)
}

// LogConfig is the configuration of the logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // debug, info, warn or error
}

// Config wraps the entire configuration of the launcher.
type Config struct {
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	IPFS   IPFSConfig   `mapstructure:"ipfs" yaml:"ipfs"`
	Chain  ChainConfig  `mapstructure:"chain" yaml:"chain"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// Load loads the config from the file path, falling back to env vars if the file does not exist.
// If the file exists, any env vars that are set will override the values loaded from the file.
// An empty path loads from env vars only.
func Load(filePath string) (*Config, error) {
	v := newViper()
	if err := bindEnvs(v); err != nil {
		return nil, err
	}

	if filePath != "" {
		v.SetConfigFile(filePath)
		if _, err := os.Stat(filePath); !errors.Is(err, fs.ErrNotExist) {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", filePath, err)
			}
		}
	}

	return unmarshal(v)
}

// LoadEnv loads the config from the environment variables.
func LoadEnv() (*Config, error) {
	return Load("")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("server.listen_address", DefaultListenAddress)
	v.SetDefault("chain.confirm_timeout", DefaultConfirmTimeout)
	v.SetDefault("log.level", "info")

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// envBindings maps config keys to the environment variables that can provide them. The first name
// is preferred; the second, when present, is the name used by earlier deployments.
var envBindings = map[string][]string{
	"server.listen_address": {"LAUNCHER_SERVER_LISTEN_ADDRESS"},
	"server.app_host":       {"LAUNCHER_SERVER_APP_HOST", "APP_HOST"},
	"ipfs.pinata_jwt":       {"LAUNCHER_IPFS_PINATA_JWT", "PINATA_API_JWT"},
	"ipfs.pinata_endpoint":  {"LAUNCHER_IPFS_PINATA_ENDPOINT"},
	"ipfs.upload_url":       {"LAUNCHER_IPFS_UPLOAD_URL"},
	"chain.chain_id":        {"LAUNCHER_CHAIN_ID"},
	"chain.rpc_url":         {"LAUNCHER_CHAIN_RPC_URL", "RPC_URL"},
	"chain.sender_key":      {"LAUNCHER_CHAIN_SENDER_KEY", "SENDER_PRIVATE_KEY"},
	"chain.confirm_timeout": {"LAUNCHER_CHAIN_CONFIRM_TIMEOUT"},
	"log.level":             {"LAUNCHER_LOG_LEVEL", "LOG_LEVEL"},
}

func bindEnvs(v *viper.Viper) error {
	for key, envs := range envBindings {
		inputs := slices.Insert(slices.Clone(envs), 0, key)

		if err := v.BindEnv(inputs...); err != nil {
			return err
		}
	}

	return nil
}
