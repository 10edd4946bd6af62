package config

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nodpi-proxy/internal/blacklist"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	require.Equal(t, "127.0.0.1", cfg.Host)
	require.Equal(t, 8881, cfg.Port)
	require.Equal(t, "blacklist.txt", cfg.Blacklist)
	require.Equal(t, ModeFile, cfg.Mode)
	require.Equal(t, StrategyRandom, cfg.Fragment)
	require.Equal(t, blacklist.MatchStrict, cfg.Matching)
	require.False(t, cfg.Quiet)
	require.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PROXY_HOST", "0.0.0.0")
	t.Setenv("PROXY_PORT", "1080")
	t.Setenv("PROXY_FRAGMENT", "SNI")
	t.Setenv("PROXY_MATCHING", "loose")
	t.Setenv("PROXY_QUIET", "true")

	cfg := FromEnv()
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 1080, cfg.Port)
	require.Equal(t, StrategySNI, cfg.Fragment)
	require.Equal(t, blacklist.MatchLoose, cfg.Matching)
	require.True(t, cfg.Quiet)
}

func TestFromEnvBadPortFallsBack(t *testing.T) {
	t.Setenv("PROXY_PORT", "not-a-port")
	require.Equal(t, 8881, FromEnv().Port)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := FromEnv()
	cfg.Host = ""
	cfg.Port = 0
	cfg.Fragment = "zigzag"
	cfg.Matching = "fuzzy"
	cfg.Mode = "maybe"

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "bind host")
	require.Contains(t, err.Error(), "invalid port")
	require.Contains(t, err.Error(), "zigzag")
	require.Contains(t, err.Error(), "fuzzy")
	require.Contains(t, err.Error(), "maybe")
}

func TestValidateRequiresBlacklistPath(t *testing.T) {
	cfg := FromEnv()
	cfg.Blacklist = ""
	require.Error(t, cfg.Validate())

	cfg.Mode = ModeOff
	require.NoError(t, cfg.Validate())
}

func TestAddr(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 8881}
	require.Equal(t, "127.0.0.1:8881", cfg.Addr())
}
