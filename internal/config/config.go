package config

import (
	"errors"
	"fmt"
	"strings"

	"nodpi-proxy/internal/blacklist"
)

// Strategy selects how a ClientHello record body is split.
type Strategy string

const (
	// StrategyRandom emits chunks of random size.
	StrategyRandom Strategy = "random"
	// StrategySNI splits the body around the SNI hostname.
	StrategySNI Strategy = "sni"
)

// Mode selects the blacklist variant.
type Mode string

const (
	// ModeOff fragments every connection.
	ModeOff Mode = "off"
	// ModeFile fragments hosts matching a static pattern file.
	ModeFile Mode = "file"
	// ModeAuto learns blocked hosts by probing them.
	ModeAuto Mode = "auto"
)

// Config holds all proxy settings. It is immutable after startup.
type Config struct {
	Host       string
	Port       int
	SourceHost string

	Blacklist string
	Mode      Mode
	Fragment  Strategy
	Matching  blacklist.Matching

	LogAccess string
	LogError  string

	MetricsListen string
	Quiet         bool
}

// Addr returns the listener address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// FromEnv builds a Config from environment variables with defaults for
// everything not set. CLI flags override these values afterwards.
func FromEnv() *Config {
	return &Config{
		Host:          getEnvOrDefault("PROXY_HOST", "127.0.0.1"),
		Port:          parseIntOrDefault(getEnvOrDefault("PROXY_PORT", "8881"), 8881),
		SourceHost:    getEnvOrDefault("PROXY_SOURCE_HOST", ""),
		Blacklist:     getEnvOrDefault("PROXY_BLACKLIST", "blacklist.txt"),
		Mode:          Mode(strings.ToLower(getEnvOrDefault("PROXY_BLACKLIST_MODE", string(ModeFile)))),
		Fragment:      Strategy(strings.ToLower(getEnvOrDefault("PROXY_FRAGMENT", string(StrategyRandom)))),
		Matching:      blacklist.Matching(strings.ToLower(getEnvOrDefault("PROXY_MATCHING", string(blacklist.MatchStrict)))),
		LogAccess:     getEnvOrDefault("PROXY_LOG_ACCESS", ""),
		LogError:      getEnvOrDefault("PROXY_LOG_ERROR", ""),
		MetricsListen: getEnvOrDefault("PROXY_METRICS_LISTEN", ""),
		Quiet:         getEnvOrDefault("PROXY_QUIET", "false") == "true",
	}
}

// Validate checks the configuration and collects every problem into one
// error message.
func (c *Config) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "bind host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d", c.Port))
	}

	switch c.Fragment {
	case StrategyRandom, StrategySNI:
	default:
		errs = append(errs, fmt.Sprintf("unknown fragment strategy %q (want random or sni)", c.Fragment))
	}

	switch c.Matching {
	case blacklist.MatchStrict, blacklist.MatchLoose:
	default:
		errs = append(errs, fmt.Sprintf("unknown matching mode %q (want strict or loose)", c.Matching))
	}

	switch c.Mode {
	case ModeOff, ModeFile, ModeAuto:
	default:
		errs = append(errs, fmt.Sprintf("unknown blacklist mode %q (want off, file or auto)", c.Mode))
	}

	if c.Mode != ModeOff && c.Blacklist == "" {
		errs = append(errs, "blacklist path is required")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}
