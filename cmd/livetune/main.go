// Package main is the entry point for the livetune command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/livetune"
	"github.com/dshills/livetune/format"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCommand = &cobra.Command{
	Use:   "livetune",
	Short: "Inspect and live-edit parameter files",
	Long: `livetune works with flat parameter files in key = value, JSON, YAML,
TOML and Lua formats: watch them for changes, read and write single
keys, and create starter templates.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

var rootConfiguration struct {
	// logLevel is the minimum severity written to stderr.
	logLevel string
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCommand.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	rootCommand.AddCommand(watchCommand, getCommand, setCommand, initCommand)
}

// setupLogging installs a stderr logger at the requested level so library
// diagnostics (watcher fallbacks, parse warnings) are visible.
func setupLogging(*cobra.Command, []string) error {
	switch rootConfiguration.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", rootConfiguration.logLevel)
	}
	livetune.SetLogger(livetune.NewLogger(livetune.LoggerConfig{
		Level:  livetune.ParseLogLevel(rootConfiguration.logLevel),
		Output: os.Stderr,
	}))
	return nil
}

// parseFormatName maps a --format flag value to a format.Format.
func parseFormatName(name string) (format.Format, error) {
	switch name {
	case "", "auto":
		return format.Auto, nil
	case "plain":
		return format.Plain, nil
	case "keyvalue", "ini":
		return format.KeyValue, nil
	case "json":
		return format.JSON, nil
	case "yaml", "yml":
		return format.YAML, nil
	case "toml":
		return format.TOML, nil
	case "lua":
		return format.Lua, nil
	default:
		return format.Auto, fmt.Errorf("unknown format %q", name)
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
