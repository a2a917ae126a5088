package main

import (
	"os"

	"github.com/goyek/goyek/v2"

	"github.com/spachava753/luadomain/internal/commands"
	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/logging"
)

// Docs builds the Lua API reference pages
var Docs = goyek.Define(goyek.Task{
	Name:  "docs",
	Usage: "Build the Lua API reference pages. Use -config=FILE [-full]",
	Action: func(a *goyek.A) {
		cfg, err := config.LoadOrDefault(*docsConfig)
		if err != nil {
			a.Fatalf("Failed to load config: %v", err)
		}
		logger, err := logging.New(a.Output(), logging.Options{NoColor: true})
		if err != nil {
			a.Fatal(err)
		}

		store, closeStore, err := commands.OpenStore(a.Context(), cfg.Build.Inventory)
		if err != nil {
			a.Fatalf("Failed to open inventory: %v", err)
		}
		defer closeStore()

		res, err := commands.Build(a.Context(), commands.BuildOptions{
			Build:  cfg.Build,
			Store:  store,
			Full:   *docsFull,
			Writer: os.Stdout,
			Logger: logger,
		})
		if err != nil {
			a.Fatal(err)
		}
		a.Logf("build %s: %d objects", res.BuildID, res.Objects)
	},
})
