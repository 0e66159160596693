package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.Equal(t, "usdv", cfg.ReferenceAsset)
	require.Equal(t, "wvlt", cfg.WrappedNativeAsset)
	require.EqualValues(t, 3000, cfg.SwapFeePips)
	require.EqualValues(t, 300, cfg.OracleMaxAgeSeconds)
	require.EqualValues(t, 7*24*60*60, cfg.MinLockSeconds)
	require.EqualValues(t, 365*24*60*60, cfg.MaxLockSeconds)

	reward, err := cfg.MaxReward()
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", reward.String())
	fee, err := cfg.StakeFlashFee()
	require.NoError(t, err)
	require.Equal(t, "10000000000000000", fee.String())
}

func TestLoadRoundTripsDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	created, err := Load(path)
	require.NoError(t, err)

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, created, loaded)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	require.NoError(t, os.WriteFile(path, []byte("ReferenceAsset = \"dai\"\nFeeRateBps = 25\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dai", cfg.ReferenceAsset)
	require.EqualValues(t, 25, cfg.FeeRateBps)
	require.Equal(t, "wvlt", cfg.WrappedNativeAsset)
	require.EqualValues(t, 7*24*60*60, cfg.MinLockSeconds)
}

func TestLoadParsesPauses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[Pauses]\nVault = true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Pauses.IsPaused("vault"))
	require.False(t, cfg.Pauses.IsPaused("stake"))
	require.False(t, cfg.Pauses.IsPaused("unknown"))
}

func TestValidateRejectsBadValues(t *testing.T) {
	write := func(t *testing.T, cfg Config) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "vaultd.toml")
		file, err := os.Create(path)
		require.NoError(t, err)
		defer file.Close()
		require.NoError(t, toml.NewEncoder(file).Encode(cfg))
		return path
	}

	_, err := Load(write(t, Config{FeeRateBps: 1001}))
	require.ErrorContains(t, err, "FeeRateBps")

	_, err = Load(write(t, Config{MinLockSeconds: 100, MaxLockSeconds: 10}))
	require.ErrorContains(t, err, "MinLockSeconds")

	_, err = Load(write(t, Config{MaxRewardWei: "not-a-number"}))
	require.ErrorContains(t, err, "MaxRewardWei")

	_, err = Load(write(t, Config{StakeFlashFeeWei: "-5"}))
	require.ErrorContains(t, err, "StakeFlashFeeWei")
}
