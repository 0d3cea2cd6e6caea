package config

import (
	"os"
	"strings"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// BuildMode selects minified (production) or readable (development) output.
// It is resolved once and passed to every pipeline.
type BuildMode string

const (
	ModeDevelopment BuildMode = "development"
	ModeProduction  BuildMode = "production"
)

// ModeEnvVar is the single recognized build-mode signal.
const ModeEnvVar = "NODE_ENV"

// Production reports whether output should be minified.
func (m BuildMode) Production() bool { return m == ModeProduction }

func (m BuildMode) String() string {
	if m == "" {
		return string(ModeDevelopment)
	}
	return string(m)
}

var modeAliases = map[string]BuildMode{
	"development": ModeDevelopment,
	"dev":         ModeDevelopment,
	"production":  ModeProduction,
	"prod":        ModeProduction,
}

// ParseMode normalizes a user supplied mode string.
func ParseMode(raw string) (BuildMode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return m, nil
	}
	return "", ferrors.ConfigurationError("invalid build mode").
		WithContext("mode", raw).
		Build()
}

// ModeFromEnv derives the mode from NODE_ENV; only "production" selects production.
func ModeFromEnv() BuildMode {
	if os.Getenv(ModeEnvVar) == string(ModeProduction) {
		return ModeProduction
	}
	return ModeDevelopment
}

// ResolveMode applies precedence: CLI flag, then config file, then environment.
func ResolveMode(flag string, cfg *Config) (BuildMode, error) {
	if flag != "" {
		return ParseMode(flag)
	}
	if cfg != nil && cfg.Mode != "" {
		return ParseMode(cfg.Mode)
	}
	return ModeFromEnv(), nil
}
