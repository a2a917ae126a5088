package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/spachava753/luadomain/internal/commands"
	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/render"
	"github.com/spachava753/luadomain/internal/symtab"
)

var (
	resolveModule string
	resolveClass  string
	resolveExt    string
	objectsKind   string
	outputFormat  string
	modindexDocs  []string
	showWidth     int
)

// loadTable loads the configuration and the symbol table of the last build.
func loadTable(cmd *cobra.Command) (*config.Config, *symtab.Table, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	table, err := commands.LoadTable(cmd.Context(), cfg.Build.Inventory)
	if err != nil {
		return nil, nil, err
	}
	return cfg, table, nil
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <role> <target>",
	Short: "Resolve a cross-reference against the last build",
	Long: `Resolve looks a target up the way a :lua:<role>: reference would be, from
the module and class given by --module and --class. The role "any" searches
every object kind and may print several matches.`,
	Example: `  luadomain resolve meth emit --module deai --class Object
  luadomain resolve any spawn`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := loadTable(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		_, err = commands.Resolve(cmd.Context(), commands.ResolveOptions{
			Table:  table,
			Domain: cfg.Build.Domain(),
			Role:   args[0],
			Target: args[1],
			Module: resolveModule,
			Class:  resolveClass,
			Ext:    resolveExt,
			Writer: os.Stdout,
			Logger: logger,
		})
		return err
	},
}

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List the documented objects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := loadTable(cmd)
		if err != nil {
			return err
		}
		return commands.Objects(cmd.Context(), commands.ObjectsOptions{
			Table:  table,
			Domain: cfg.Build.Domain(),
			Kind:   symtab.Kind(objectsKind),
			Format: outputFormat,
			Writer: os.Stdout,
		})
	},
}

var modindexCmd = &cobra.Command{
	Use:   "modindex",
	Short: "Print the module index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := loadTable(cmd)
		if err != nil {
			return err
		}
		_, err = commands.ModIndex(cmd.Context(), commands.ModIndexOptions{
			Table:  table,
			Domain: cfg.Build.Domain(),
			Docs:   modindexDocs,
			Format: outputFormat,
			Writer: os.Stdout,
		})
		return err
	},
}

var showCmd = &cobra.Command{
	Use:   "show <target>",
	Short: "Display the reference page defining a target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, table, err := loadTable(cmd)
		if err != nil {
			return err
		}
		return commands.Show(cmd.Context(), commands.ShowOptions{
			Table:    table,
			Domain:   cfg.Build.Domain(),
			Output:   filepath.Clean(cfg.Build.Output),
			Target:   args[0],
			Renderer: render.NewRenderer(render.TerminalOptions{Width: showWidth, Out: os.Stdout, NoColor: noColor}),
			Writer:   os.Stdout,
		})
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveModule, "module", "", "Module the reference is written in")
	resolveCmd.Flags().StringVar(&resolveClass, "class", "", "Class the reference is written in")
	resolveCmd.Flags().StringVar(&resolveExt, "ext", ".md", "Page extension of the printed links")

	objectsCmd.Flags().StringVar(&objectsKind, "kind", "", "Only list objects of this kind")
	objectsCmd.Flags().StringVarP(&outputFormat, "output", "o", commands.OutputText, "Output format: text, json or yaml")

	modindexCmd.Flags().StringSliceVar(&modindexDocs, "doc", nil, "Only index modules defined in these documents")
	modindexCmd.Flags().StringVarP(&outputFormat, "output", "o", commands.OutputText, "Output format: text, json or yaml")

	showCmd.Flags().IntVar(&showWidth, "width", 100, "Word wrap width")

	rootCmd.AddCommand(resolveCmd, objectsCmd, modindexCmd, showCmd)
}
