package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/gitformat"
	"github.com/spachava753/luadomain/internal/logging"
	"github.com/spachava753/luadomain/internal/version"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "luadomain",
	Short: "Lua API documentation domain",
	Long: `luadomain builds cross-referenced reference pages for an embedded Lua API
from reStructuredText sources declaring lua:module, lua:class, lua:function
and related directives, and keeps the C sources of the API formatted.`,
	Version:       version.Get(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Listen for cancellation
	// - in shells for user-initiated interruption SIGINT
	// - in system sent/container environments, SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		// files needing formatting are already reported
		if !errors.Is(err, gitformat.ErrNeedsFormat) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("luadomain version {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (default: ./luadomain.yaml or the user config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")
}

// newLogger builds the logger from the persistent flags. Logs go to stderr.
func newLogger() (*slog.Logger, error) {
	return logging.New(os.Stderr, logging.Options{Level: logLevel, Format: logFormat, NoColor: noColor})
}

// loadConfig loads the configuration file, or the defaults when none exists
// and none was given.
func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(configPath)
}
