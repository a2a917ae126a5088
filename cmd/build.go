package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spachava753/luadomain/internal/commands"
	"github.com/spachava753/luadomain/internal/config"
)

var (
	buildOutput        string
	buildFormats       []string
	buildJobs          int
	buildFull          bool
	buildNoInventory   bool
	buildFailOnWarning bool
)

var buildCmd = &cobra.Command{
	Use:   "build [sources...]",
	Short: "Build the reference pages",
	Long: `Build reads the .rst sources, registers every lua: declaration, resolves the
cross-references and writes one page per document plus the module index.

Only documents changed since the last build are read again; the symbol table
of the others comes from the inventory database.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyBuildFlags(cmd, cfg, args)
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}

		opts := commands.BuildOptions{
			Build:  cfg.Build,
			Full:   buildFull,
			Writer: os.Stdout,
			Logger: logger,
		}
		if !buildNoInventory {
			store, closeStore, err := commands.OpenStore(cmd.Context(), cfg.Build.Inventory)
			if err != nil {
				return err
			}
			defer closeStore()
			opts.Store = store
		}

		_, err = commands.Build(cmd.Context(), opts)
		return err
	},
}

// applyBuildFlags overrides the configuration with the flags that were set.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Build.Sources = args
	}
	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Build.Output = buildOutput
	}
	if flags.Changed("format") {
		cfg.Build.Formats = buildFormats
	}
	if flags.Changed("jobs") {
		cfg.Build.Jobs = buildJobs
	}
	if flags.Changed("fail-on-warning") {
		cfg.Build.FailOnWarning = buildFailOnWarning
	}
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output directory")
	buildCmd.Flags().StringSliceVarP(&buildFormats, "format", "f", nil, fmt.Sprintf("Output formats (%s, %s)", config.FormatMarkdown, config.FormatHTML))
	buildCmd.Flags().IntVarP(&buildJobs, "jobs", "j", 0, "Documents read in parallel")
	buildCmd.Flags().BoolVar(&buildFull, "full", false, "Read every document, ignoring the inventory")
	buildCmd.Flags().BoolVar(&buildNoInventory, "no-inventory", false, "Do not read or update the inventory database")
	buildCmd.Flags().BoolVarP(&buildFailOnWarning, "fail-on-warning", "W", false, "Exit with an error when warnings were reported")
	rootCmd.AddCommand(buildCmd)
}
