package config

import (
	"runtime"

	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/gitformat"
)

// Output formats written by the build.
const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// DefaultInventory is the inventory database used when none is configured.
const DefaultInventory = ".luadomain.db"

// Config represents the configuration file
type Config struct {
	// Version for future compatibility
	Version string `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"description=Configuration format version"`

	// Documentation build settings
	Build BuildConfig `yaml:"build" json:"build" jsonschema:"required"`

	// Changed-files formatter settings
	Format FormatConfig `yaml:"format,omitempty" json:"format,omitempty"`
}

// BuildConfig configures the documentation build
type BuildConfig struct {
	Sources   []string `yaml:"sources" json:"sources" validate:"required,min=1,dive,required" jsonschema:"required,description=Directories or files holding .rst sources"`
	Output    string   `yaml:"output" json:"output" validate:"required" jsonschema:"required,description=Directory the reference pages are written to"`
	Inventory string   `yaml:"inventory,omitempty" json:"inventory,omitempty" jsonschema:"description=SQLite inventory used for incremental builds"`
	Jobs      int      `yaml:"jobs,omitempty" json:"jobs,omitempty" validate:"gte=0,lte=256" jsonschema:"description=Documents read in parallel (default: number of CPUs)"`

	AddModuleNames         *bool    `yaml:"add_module_names,omitempty" json:"add_module_names,omitempty" jsonschema:"description=Prefix module level names with their module (default: true)"`
	AddFunctionParentheses *bool    `yaml:"add_function_parentheses,omitempty" json:"add_function_parentheses,omitempty" jsonschema:"description=Append () to function and method references (default: true)"`
	ModIndexCommonPrefix   []string `yaml:"modindex_common_prefix,omitempty" json:"modindex_common_prefix,omitempty" jsonschema:"description=Module prefixes ignored when sorting the module index"`

	Formats       []string `yaml:"formats,omitempty" json:"formats,omitempty" validate:"dive,oneof=md html" jsonschema:"description=Output formats (md and/or html)"`
	FailOnWarning bool     `yaml:"fail_on_warning,omitempty" json:"fail_on_warning,omitempty" jsonschema:"description=Fail the build when warnings were reported"`
}

// FormatConfig configures the changed-files formatter
type FormatConfig struct {
	Git        string   `yaml:"git,omitempty" json:"git,omitempty" jsonschema:"description=Path of the git executable"`
	Formatter  string   `yaml:"formatter,omitempty" json:"formatter,omitempty" jsonschema:"description=Path of the formatter executable"`
	Args       []string `yaml:"args,omitempty" json:"args,omitempty" jsonschema:"description=Arguments passed to the formatter before the file name"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty" validate:"dive,required" jsonschema:"description=Glob patterns of the files to format"`
	Target     string   `yaml:"target,omitempty" json:"target,omitempty" jsonschema:"description=Build target suggested when files need formatting"`
	Jobs       int      `yaml:"jobs,omitempty" json:"jobs,omitempty" validate:"gte=0,lte=256" jsonschema:"description=Formatter processes run at once"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{
		Version: "1.0",
		Build: BuildConfig{
			Sources: []string{"docs"},
			Output:  "_build",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Build.Inventory == "" {
		c.Build.Inventory = DefaultInventory
	}
	if c.Build.Jobs == 0 {
		c.Build.Jobs = runtime.NumCPU()
	}
	if len(c.Build.Formats) == 0 {
		c.Build.Formats = []string{FormatMarkdown}
	}

	def := gitformat.DefaultOptions()
	if c.Format.Git == "" {
		c.Format.Git = def.Git
	}
	if c.Format.Formatter == "" {
		c.Format.Formatter = def.Formatter
	}
	if c.Format.Args == nil {
		c.Format.Args = def.Args
	}
	if len(c.Format.Extensions) == 0 {
		c.Format.Extensions = def.Extensions
	}
	if c.Format.Target == "" {
		c.Format.Target = def.Target
	}
	if c.Format.Jobs == 0 {
		c.Format.Jobs = def.Jobs
	}
}

// Domain returns the domain settings of the build section.
func (b BuildConfig) Domain() domain.Config {
	cfg := domain.DefaultConfig()
	if b.AddModuleNames != nil {
		cfg.AddModuleNames = *b.AddModuleNames
	}
	if b.AddFunctionParentheses != nil {
		cfg.AddFunctionParentheses = *b.AddFunctionParentheses
	}
	cfg.ModIndexCommonPrefix = b.ModIndexCommonPrefix
	return cfg
}

// Options returns the formatter options for the work tree dir.
func (f FormatConfig) Options(dir string) gitformat.Options {
	return gitformat.Options{
		Dir:        dir,
		Git:        f.Git,
		Formatter:  f.Formatter,
		Args:       f.Args,
		Extensions: f.Extensions,
		Target:     f.Target,
		Jobs:       f.Jobs,
	}
}
