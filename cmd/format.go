package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spachava753/luadomain/internal/commands"
	"github.com/spachava753/luadomain/internal/gitformat"
	"github.com/spachava753/luadomain/internal/ignore"
)

var (
	formatCheck     bool
	formatInPlace   bool
	formatGit       string
	formatFormatter string
	formatTarget    string
)

var formatCmd = &cobra.Command{
	Use:   "format [--check | --in-place] [-- formatter args...]",
	Short: "Format the files changed against HEAD",
	Long: `Format asks git for the files added, copied, modified or renamed against HEAD
(or the empty tree in a repository without commits), keeps the ones matching
the configured extensions that are not ignored, and runs the formatter on them.

With --check, used as a pre-commit hook, the formatter output is compared with
each file and the command fails when a file is not formatted. With --in-place,
used as a build target, the files are rewritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if formatCheck == formatInPlace {
			return errors.New("exactly one of --check and --in-place is required")
		}
		mode := gitformat.ModeCheck
		if formatInPlace {
			mode = gitformat.ModeInPlace
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}

		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		opts := cfg.Format.Options(dir)
		if cmd.Flags().Changed("git") {
			opts.Git = formatGit
		}
		if cmd.Flags().Changed("formatter") {
			opts.Formatter = formatFormatter
		}
		if cmd.Flags().Changed("target") {
			opts.Target = formatTarget
		}
		if len(args) > 0 {
			opts.Args = args
		}

		ig, err := ignore.LoadIgnoreFiles(dir)
		if err != nil {
			return fmt.Errorf("failed to load ignore files: %w", err)
		}

		_, err = commands.Format(cmd.Context(), commands.FormatOptions{
			Options: opts,
			Mode:    mode,
			Ignore:  ig,
			Writer:  os.Stdout,
			Logger:  logger,
		})
		return err
	},
}

func init() {
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "Report files that are not formatted")
	formatCmd.Flags().BoolVar(&formatInPlace, "in-place", false, "Format files in place")
	formatCmd.Flags().StringVar(&formatGit, "git", "", "Path of the git executable")
	formatCmd.Flags().StringVar(&formatFormatter, "formatter", "", "Path of the formatter executable")
	formatCmd.Flags().StringVar(&formatTarget, "target", "", "Build target suggested when files need formatting")
	rootCmd.AddCommand(formatCmd)
}
