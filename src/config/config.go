package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/stake-plus/middlefinger/src/contract"
	"github.com/stake-plus/middlefinger/src/data"
)

type Config struct {
	ContractAddress common.Address
	// WalletURL is the EIP-1193 JSON-RPC endpoint of the wallet. Empty means no wallet.
	WalletURL string
	RPCURL    string
	Port      string
	GasLimit  uint64
	Timeout   time.Duration

	LogLevel  string
	LogPretty bool

	MySQLDSN string
	RedisURL string

	DiscordToken     string
	DiscordChannelID string

	SubmitRate   int
	AllowOrigins []string
}

// GetSetting retrieves a setting with env fallback
func GetSetting(name, envKey, defaultValue string) string {
	val := data.GetSetting(name)
	if val == "" {
		val = os.Getenv(envKey)
	}
	if val == "" {
		val = defaultValue
	}
	return val
}

// Load reads configuration from the settings cache, the environment and defaults, in that order.
func Load() (Config, error) {
	addr := GetSetting("contract_address", "CONTRACT_ADDRESS", "")
	if !common.IsHexAddress(addr) {
		return Config{}, fmt.Errorf("CONTRACT_ADDRESS %q is not a valid address", addr)
	}

	gasLimit, err := strconv.ParseUint(GetSetting("gas_limit", "GAS_LIMIT", strconv.FormatUint(contract.DefaultGasLimit, 10)), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("GAS_LIMIT: %w", err)
	}
	rate, err := strconv.Atoi(GetSetting("submit_rate", "SUBMIT_RATE", "5"))
	if err != nil {
		return Config{}, fmt.Errorf("SUBMIT_RATE: %w", err)
	}
	timeout, err := time.ParseDuration(GetSetting("rpc_timeout", "RPC_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("RPC_TIMEOUT: %w", err)
	}

	return Config{
		ContractAddress:  common.HexToAddress(addr),
		WalletURL:        GetSetting("wallet_url", "WALLET_URL", ""),
		RPCURL:           GetSetting("rpc_url", "RPC_URL", "ws://127.0.0.1:8546"),
		Port:             GetSetting("port", "PORT", "3000"),
		GasLimit:         gasLimit,
		Timeout:          timeout,
		LogLevel:         GetSetting("log_level", "LOG_LEVEL", "info"),
		LogPretty:        getBool("log_pretty", "LOG_PRETTY", false),
		MySQLDSN:         os.Getenv("MYSQL_DSN"),
		RedisURL:         GetSetting("redis_url", "REDIS_URL", ""),
		DiscordToken:     GetSetting("discord_token", "DISCORD_TOKEN", ""),
		DiscordChannelID: GetSetting("discord_channel_id", "DISCORD_CHANNEL_ID", ""),
		SubmitRate:       rate,
		AllowOrigins:     splitList(GetSetting("allow_origins", "ALLOW_ORIGINS", "http://localhost:3000")),
	}, nil
}

func getBool(name, envKey string, def bool) bool {
	v := strings.ToLower(GetSetting(name, envKey, ""))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
