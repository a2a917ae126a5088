package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "missing sources",
			modify:  func(c *Config) { c.Build.Sources = nil },
			wantErr: "invalid configuration file",
		},
		{
			name:    "empty source",
			modify:  func(c *Config) { c.Build.Sources = []string{""} },
			wantErr: "invalid configuration file",
		},
		{
			name:    "missing output",
			modify:  func(c *Config) { c.Build.Output = "" },
			wantErr: "invalid configuration file",
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Build.Formats = []string{"pdf"} },
			wantErr: "invalid configuration file",
		},
		{
			name:    "negative jobs",
			modify:  func(c *Config) { c.Build.Jobs = -1 },
			wantErr: "invalid configuration file",
		},
		{
			name:    "blank modindex prefix",
			modify:  func(c *Config) { c.Build.ModIndexCommonPrefix = []string{" "} },
			wantErr: "build.modindex_common_prefix[0]",
		},
		{
			name:    "bad extension pattern",
			modify:  func(c *Config) { c.Format.Extensions = []string{"*.c", "[*.h"} },
			wantErr: "format.extensions[1]",
		},
		{
			name:    "inventory is the output",
			modify:  func(c *Config) { c.Build.Inventory = c.Build.Output },
			wantErr: "build.inventory must not be the output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFormatOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.Format.Options("/repo")
	assert.Equal(t, "/repo", opts.Dir)
	assert.Equal(t, "clang-format", opts.Formatter)
	assert.Equal(t, "format", opts.Target)
	assert.Contains(t, opts.Extensions, "*.cpp")
}
