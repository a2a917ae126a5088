package main

import (
	"os"
	"path/filepath"

	"github.com/goyek/goyek/v2"

	"github.com/spachava753/luadomain/internal/config"
)

// GenSchema writes schema/luadomain-config-schema.json
var GenSchema = goyek.Define(goyek.Task{
	Name:  "gen-schema",
	Usage: "Generate JSON schema for luadomain configuration files",
	Action: func(a *goyek.A) {
		schema, err := config.Schema()
		if err != nil {
			a.Fatal(err)
		}

		path := filepath.Join(moduleRoot(a), "schema", "luadomain-config-schema.json")
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			a.Fatalf("Failed to create schema directory: %v", err)
		}
		if err := os.WriteFile(path, append(schema, '\n'), 0644); err != nil {
			a.Fatalf("Failed to write schema file: %v", err)
		}
		a.Logf("Generated schema: %s", path)
	},
})

// moduleRoot returns the directory of go.mod, from GOMOD or by walking up
// from the working directory.
func moduleRoot(a *goyek.A) string {
	if gomod := os.Getenv("GOMOD"); gomod != "" && gomod != os.DevNull {
		return filepath.Dir(gomod)
	}
	wd, err := os.Getwd()
	if err != nil {
		a.Fatalf("Failed to get working directory: %v", err)
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		if filepath.Dir(dir) == dir {
			return wd
		}
	}
}
