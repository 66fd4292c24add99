package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv replaces environment references in s. Unset variables without
// a default expand to the empty string.
func ExpandEnv(s string) string {
	return expandWith(s, os.Getenv)
}

func expandWith(s string, getenv func(string) string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if inner, ok := strings.CutPrefix(match, "${"); ok {
			inner = strings.TrimSuffix(inner, "}")
			if name, def, found := strings.Cut(inner, ":-"); found {
				if val := getenv(name); val != "" {
					return val
				}
				return def
			}
			return getenv(inner)
		}
		return getenv(match[1:])
	})
}

// ExpandEnvConfig expands references in the string fields that commonly
// carry secrets or paths.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Guide.APIKey = ExpandEnv(cfg.Guide.APIKey)
	cfg.Guide.BaseURL = ExpandEnv(cfg.Guide.BaseURL)
	cfg.Guide.ServerURL = ExpandEnv(cfg.Guide.ServerURL)
	cfg.Export.Dir = ExpandEnv(cfg.Export.Dir)
	cfg.Server.Addr = ExpandEnv(cfg.Server.Addr)
}
