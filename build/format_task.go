package main

import (
	"errors"
	"os"

	"github.com/goyek/goyek/v2"

	"github.com/spachava753/luadomain/internal/commands"
	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/gitformat"
	"github.com/spachava753/luadomain/internal/ignore"
)

// Format formats the C sources changed against HEAD
var Format = goyek.Define(goyek.Task{
	Name:  "format",
	Usage: "Format the changed C sources in place",
	Action: func(a *goyek.A) {
		runFormat(a, gitformat.ModeInPlace)
	},
})

// FormatCheck fails when a changed C source is not formatted
var FormatCheck = goyek.Define(goyek.Task{
	Name:  "format-check",
	Usage: "Check that the changed C sources are formatted (pre-commit)",
	Action: func(a *goyek.A) {
		runFormat(a, gitformat.ModeCheck)
	},
})

func runFormat(a *goyek.A, mode gitformat.Mode) {
	root := moduleRoot(a)
	cfg, err := config.LoadOrDefault(*docsConfig)
	if err != nil {
		a.Fatalf("Failed to load config: %v", err)
	}
	opts := cfg.Format.Options(root)
	if *formatter != "" {
		opts.Formatter = *formatter
	}
	ig, err := ignore.LoadIgnoreFiles(root)
	if err != nil {
		a.Fatalf("Failed to load ignore files: %v", err)
	}

	report, err := commands.Format(a.Context(), commands.FormatOptions{
		Options: opts,
		Mode:    mode,
		Ignore:  ig,
		Writer:  os.Stdout,
	})
	if errors.Is(err, gitformat.ErrNeedsFormat) {
		a.Fatalf("%d files must be formatted", len(report.NeedsFormat))
	}
	if err != nil {
		a.Fatal(err)
	}
	a.Logf("%d files checked", len(report.Checked))
}
