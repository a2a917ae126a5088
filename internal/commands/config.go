package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spachava753/luadomain/internal/config"
)

// ConfigLintOptions contains parameters for config validation
type ConfigLintOptions struct {
	Config *config.Config
	Path   string
	Writer io.Writer
}

// ConfigLint validates a configuration file
func ConfigLint(ctx context.Context, opts ConfigLintOptions) error {
	if err := opts.Config.Validate(); err != nil {
		return err
	}

	cfg := opts.Config
	fmt.Fprintf(opts.Writer, "✓ Configuration is valid\n")
	if opts.Path != "" {
		fmt.Fprintf(opts.Writer, "  File: %s\n", opts.Path)
	}
	fmt.Fprintf(opts.Writer, "  Sources: %s\n", strings.Join(cfg.Build.Sources, ", "))
	fmt.Fprintf(opts.Writer, "  Output: %s (%s)\n", cfg.Build.Output, strings.Join(cfg.Build.Formats, ", "))
	fmt.Fprintf(opts.Writer, "  Inventory: %s\n", cfg.Build.Inventory)
	if len(cfg.Build.ModIndexCommonPrefix) > 0 {
		fmt.Fprintf(opts.Writer, "  Module index prefixes: %s\n", strings.Join(cfg.Build.ModIndexCommonPrefix, ", "))
	}
	fmt.Fprintf(opts.Writer, "  Formatter: %s %s\n", cfg.Format.Formatter, strings.Join(cfg.Format.Args, " "))

	// missing sources fail the build, not the lint
	for _, src := range cfg.Build.Sources {
		if _, err := os.Stat(src); err != nil {
			fmt.Fprintf(opts.Writer, "  ! source %s: %v\n", src, errors.Unwrap(err))
		}
	}
	return nil
}
