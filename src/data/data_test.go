package data

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/middlefinger/src/types"
)

func TestEnsureParam(t *testing.T) {
	cases := []struct {
		dsn, want string
	}{
		{"user:pw@tcp(db:3306)/mf", "user:pw@tcp(db:3306)/mf?parseTime=true"},
		{"user:pw@tcp(db:3306)/mf?loc=UTC", "user:pw@tcp(db:3306)/mf?loc=UTC&parseTime=true"},
		{"user:pw@tcp(db:3306)/mf?parseTime=false", "user:pw@tcp(db:3306)/mf?parseTime=false"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ensureParam(tc.dsn, "parseTime", "true"))
	}
}

func TestBuildDSN(t *testing.T) {
	const base = "user:pw@tcp(db:3306)/mf"

	t.Run("defaults", func(t *testing.T) {
		o := defaultMySQLOptions()
		require.Equal(t, base+"?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci", buildDSN(base, o.params))
	})

	t.Run("dsn charset keeps its own collation", func(t *testing.T) {
		o := defaultMySQLOptions()
		require.Equal(t, base+"?charset=latin1&parseTime=true", buildDSN(base+"?charset=latin1", o.params))
	})

	t.Run("option overrides default", func(t *testing.T) {
		o := defaultMySQLOptions()
		WithDSNParam("parseTime", "false")(&o)
		WithDSNParam("timeout", "5s")(&o)
		require.Equal(t, base+"?parseTime=false&charset=utf8mb4&collation=utf8mb4_unicode_ci&timeout=5s", buildDSN(base, o.params))
	})

	t.Run("dsn wins over option", func(t *testing.T) {
		o := defaultMySQLOptions()
		WithDSNParam("timeout", "5s")(&o)
		require.Contains(t, buildDSN(base+"?timeout=1s", o.params), "timeout=1s")
		require.NotContains(t, buildDSN(base+"?timeout=1s", o.params), "timeout=5s")
	})
}

func TestWithPool(t *testing.T) {
	o := defaultMySQLOptions()
	WithPool(8, 0, time.Hour)(&o)
	require.Equal(t, 8, o.maxOpen)
	require.Equal(t, 1, o.maxIdle)
	require.Equal(t, time.Hour, o.maxLifetime)
}

func TestSettingsCache(t *testing.T) {
	t.Cleanup(func() { ReplaceSettings(nil) })

	require.Empty(t, GetSetting("port"))
	ReplaceSettings(map[string]string{"port": "8080"})
	require.Equal(t, "8080", GetSetting("port"))
	require.Empty(t, GetSetting("rpc_url"))
}

func TestSubmissionPayload(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	sub := types.Submission{Address: addr, Timestamp: time.Unix(1714557600, 0), Message: "meh"}

	require.Equal(t, map[string]interface{}{
		"address": addr.Hex(),
		"time":    int64(1714557600),
		"message": "meh",
	}, SubmissionPayload(sub))
}
