package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gobwas/glob"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration file: %w", err)
	}

	for i, prefix := range c.Build.ModIndexCommonPrefix {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("build.modindex_common_prefix[%d]: empty prefix", i)
		}
	}

	for i, pattern := range c.Format.Extensions {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("format.extensions[%d]: invalid pattern %q: %w", i, pattern, err)
		}
	}

	if c.Build.Output != "" && c.Build.Inventory != "" && c.Build.Output == c.Build.Inventory {
		return fmt.Errorf("build.inventory must not be the output directory %s", c.Build.Output)
	}

	return nil
}
