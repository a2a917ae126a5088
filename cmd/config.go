package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spachava753/luadomain/internal/commands"
	"github.com/spachava753/luadomain/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the luadomain configuration",
}

var configLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.LoadWithPath(configPath)
		if err != nil {
			return err
		}
		return commands.ConfigLint(cmd.Context(), commands.ConfigLintOptions{
			Config: cfg,
			Path:   path,
			Writer: os.Stdout,
		})
	},
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Write(path, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(os.Stdout, "%s\n", schema)
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configLintCmd, configInitCmd, configSchemaCmd)
	rootCmd.AddCommand(configCmd)
}
