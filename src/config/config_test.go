package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/middlefinger/src/contract"
	"github.com/stake-plus/middlefinger/src/data"
)

const testAddr = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

func TestLoadDefaults(t *testing.T) {
	data.ReplaceSettings(nil)
	t.Setenv("CONTRACT_ADDRESS", testAddr)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress(testAddr), cfg.ContractAddress)
	require.Equal(t, contract.DefaultGasLimit, cfg.GasLimit)
	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, 5, cfg.SubmitRate)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.AllowOrigins)
	require.False(t, cfg.LogPretty)
}

func TestLoadRejectsBadAddress(t *testing.T) {
	data.ReplaceSettings(nil)
	t.Setenv("CONTRACT_ADDRESS", "not-an-address")

	_, err := Load()
	require.Error(t, err)
}

func TestSettingsOverrideEnv(t *testing.T) {
	t.Setenv("CONTRACT_ADDRESS", testAddr)
	t.Setenv("PORT", "8080")
	t.Setenv("GAS_LIMIT", "100000")
	t.Setenv("ALLOW_ORIGINS", "http://a.test, http://b.test,")
	data.ReplaceSettings(map[string]string{"port": "9090", "log_pretty": "yes"})
	t.Cleanup(func() { data.ReplaceSettings(nil) })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, uint64(100000), cfg.GasLimit)
	require.True(t, cfg.LogPretty)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
}

func TestLoadRejectsBadGasLimit(t *testing.T) {
	data.ReplaceSettings(nil)
	t.Setenv("CONTRACT_ADDRESS", testAddr)
	t.Setenv("GAS_LIMIT", "lots")

	_, err := Load()
	require.Error(t, err)
}
