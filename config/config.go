package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the static ledger configuration loaded at startup. Runtime
// mutations (fee rate, price feeds) go through the engine's configurer-gated
// setters; this file only seeds them.
type Config struct {
	ReferenceAsset      string `toml:"ReferenceAsset"`
	WrappedNativeAsset  string `toml:"WrappedNativeAsset"`
	Configurer          string `toml:"Configurer"`
	FeeRateBps          uint64 `toml:"FeeRateBps"`
	SwapFeePips         uint32 `toml:"SwapFeePips"`
	OracleMaxAgeSeconds uint64 `toml:"OracleMaxAgeSeconds"`
	MinLockSeconds      uint64 `toml:"MinLockSeconds"`
	MaxLockSeconds      uint64 `toml:"MaxLockSeconds"`
	MaxRewardWei        string `toml:"MaxRewardWei"`
	StakeFlashFeeWei    string `toml:"StakeFlashFeeWei"`
	Pauses              Pauses `toml:"Pauses"`
}

// Pauses toggles entire modules off for maintenance. A paused module rejects
// every state-changing entry point until the flag is cleared.
type Pauses struct {
	Vault bool `toml:"Vault"`
	Stake bool `toml:"Stake"`
}

// IsPaused reports whether the named module is paused.
func (p Pauses) IsPaused(module string) bool {
	switch module {
	case "vault":
		return p.Vault
	case "stake":
		return p.Stake
	default:
		return false
	}
}

const maxFeeRateBps = 1000

// Load reads the configuration from path, creating a default file when none
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ReferenceAsset) == "" {
		cfg.ReferenceAsset = "usdv"
	}
	if strings.TrimSpace(cfg.WrappedNativeAsset) == "" {
		cfg.WrappedNativeAsset = "wvlt"
	}
	if cfg.SwapFeePips == 0 {
		cfg.SwapFeePips = 3000
	}
	if cfg.OracleMaxAgeSeconds == 0 {
		cfg.OracleMaxAgeSeconds = 300
	}
	if cfg.MinLockSeconds == 0 {
		cfg.MinLockSeconds = 7 * 24 * 60 * 60
	}
	if cfg.MaxLockSeconds == 0 {
		cfg.MaxLockSeconds = 365 * 24 * 60 * 60
	}
	if strings.TrimSpace(cfg.MaxRewardWei) == "" {
		cfg.MaxRewardWei = "1000000000000000000"
	}
	if strings.TrimSpace(cfg.StakeFlashFeeWei) == "" {
		cfg.StakeFlashFeeWei = "10000000000000000"
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if c.FeeRateBps > maxFeeRateBps {
		return fmt.Errorf("config: FeeRateBps %d exceeds %d", c.FeeRateBps, maxFeeRateBps)
	}
	if c.MinLockSeconds == 0 || c.MaxLockSeconds == 0 {
		return fmt.Errorf("config: lock bounds must be positive")
	}
	if c.MinLockSeconds > c.MaxLockSeconds {
		return fmt.Errorf("config: MinLockSeconds %d exceeds MaxLockSeconds %d", c.MinLockSeconds, c.MaxLockSeconds)
	}
	if _, err := parseWei(c.MaxRewardWei); err != nil {
		return fmt.Errorf("config: MaxRewardWei: %w", err)
	}
	if _, err := parseWei(c.StakeFlashFeeWei); err != nil {
		return fmt.Errorf("config: StakeFlashFeeWei: %w", err)
	}
	return nil
}

// MaxReward parses the configured maximum stake reward.
func (c *Config) MaxReward() (*big.Int, error) {
	return parseWei(c.MaxRewardWei)
}

// StakeFlashFee parses the configured stake flash-loan fee.
func (c *Config) StakeFlashFee() (*big.Int, error) {
	return parseWei(c.StakeFlashFeeWei)
}

func parseWei(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("wei amount %q must not be negative", raw)
	}
	return value, nil
}
