// Package flags holds the global CLI flags shared by every command, with
// environment variable fallbacks.
package flags

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	// Env vars
	EnvVarConfigFile = "MCPGATE_CONFIG_FILE"
	EnvVarLogPath    = "MCPGATE_LOG_PATH"
	EnvVarLogLevel   = "MCPGATE_LOG_LEVEL"
	EnvVarAddr       = "MCPGATE_ADDR"

	// Defaults
	DefaultConfigFile = ".mcpgate.toml"
	DefaultLogPath    = ""
	DefaultLogLevel   = "info"
	DefaultAddr       = "0.0.0.0:8090"

	// Flag names
	FlagNameConfigFile = "config-file"
	FlagNameLogPath    = "log-path"
	FlagNameLogLevel   = "log-level"
)

var (
	ConfigFile string
	LogPath    string
	LogLevel   string
)

func InitFlags(fs *pflag.FlagSet) {
	initConfigFile(fs)
	initLogger(fs)
}

func initConfigFile(fs *pflag.FlagSet) {
	if ConfigFile == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarConfigFile)); env != "" {
			ConfigFile = env
		} else {
			ConfigFile = DefaultConfigFile
		}
	}
	fs.StringVar(&ConfigFile, FlagNameConfigFile, ConfigFile, "path to config file")
}

func initLogger(fs *pflag.FlagSet) {
	if LogPath == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogPath)); env != "" {
			LogPath = env
		} else {
			LogPath = DefaultLogPath
		}
	}
	fs.StringVar(&LogPath, FlagNameLogPath, LogPath, "path to generated log file")

	if LogLevel == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogLevel)); env != "" {
			LogLevel = strings.ToLower(env)
		} else {
			LogLevel = DefaultLogLevel
		}
	}
	fs.StringVar(&LogLevel, FlagNameLogLevel, LogLevel, "log level for mcpgate logs")
}

// Addr resolves the API bind address from the environment, falling back to
// the default when unset.
func Addr() string {
	if env := strings.TrimSpace(os.Getenv(EnvVarAddr)); env != "" {
		return env
	}
	return DefaultAddr
}
