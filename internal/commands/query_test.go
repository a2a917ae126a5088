package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/gitformat"
	"github.com/spachava753/luadomain/internal/symtab"
)

func builtTable(t *testing.T) (*symtab.Table, string) {
	t.Helper()
	ctx := context.Background()
	src := writeSources(t, map[string]string{
		"api/core.rst":  coreSource,
		"api/spawn.rst": spawnSource,
	})
	out := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, closeStore, err := OpenStore(ctx, dbPath)
	require.NoError(t, err)
	_, err = Build(ctx, BuildOptions{Build: buildConfig(src, out), Store: store})
	require.NoError(t, err)
	require.NoError(t, closeStore())

	table, err := LoadTable(ctx, dbPath)
	require.NoError(t, err)
	return table, out
}

func TestLoadTableWithoutBuild(t *testing.T) {
	_, err := LoadTable(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the build first")
}

func TestResolve(t *testing.T) {
	table, _ := builtTable(t)

	tests := []struct {
		name     string
		opts     ResolveOptions
		wantLine string
		wantErr  error
	}{
		{
			name:     "method from class scope",
			opts:     ResolveOptions{Role: "meth", Target: "emit", Module: "deai", Class: "Object"},
			wantLine: "lua:meth\tdeai.Object.emit\tapi/core.md#deai.Object.emit\tdeai.Object.emit\n",
		},
		{
			name:     "prefixed role",
			opts:     ResolveOptions{Role: "lua:func", Target: "deai.spawn.run"},
			wantLine: "lua:func\tdeai.spawn.run\tapi/spawn.md#deai.spawn.run\tdeai.spawn.run\n",
		},
		{
			name:     "module",
			opts:     ResolveOptions{Role: "mod", Target: "deai.spawn", Ext: ".html"},
			wantLine: "lua:mod\tdeai.spawn\tapi/spawn.html#module-deai.spawn\tdeai.spawn (linux)\n",
		},
		{
			name:     "any",
			opts:     ResolveOptions{Role: AnyRole, Target: "run"},
			wantLine: "lua:func\tdeai.spawn.run\tapi/spawn.md#deai.spawn.run\tdeai.spawn.run\n",
		},
		{
			name:    "not found",
			opts:    ResolveOptions{Role: "func", Target: "nope"},
			wantErr: ErrNotFound,
		},
		{
			name:    "unknown role",
			opts:    ResolveOptions{Role: "widget", Target: "x"},
			wantErr: domain.ErrUnknownRole,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.opts.Table = table
			tt.opts.Domain = domain.DefaultConfig()
			tt.opts.Writer = &buf
			_, err := Resolve(context.Background(), tt.opts)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLine, buf.String())
		})
	}
}

func TestObjects(t *testing.T) {
	table, _ := builtTable(t)

	var buf bytes.Buffer
	require.NoError(t, Objects(context.Background(), ObjectsOptions{Table: table, Format: OutputJSON, Writer: &buf}))
	var records []domain.ObjectRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 7)
	assert.Equal(t, "deai", records[0].Name)
	assert.Equal(t, 0, records[0].Priority)
	assert.Equal(t, "module-deai", records[0].Anchor)
	assert.Equal(t, 1, records[2].Priority)

	buf.Reset()
	require.NoError(t, Objects(context.Background(), ObjectsOptions{Table: table, Kind: symtab.KindSignal, Format: OutputYAML, Writer: &buf}))
	var signals []domain.ObjectRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &signals))
	require.Len(t, signals, 1)
	assert.Equal(t, "deai.Object.changed", signals[0].Name)

	buf.Reset()
	require.NoError(t, Objects(context.Background(), ObjectsOptions{Table: table, Writer: &buf}))
	assert.Contains(t, buf.String(), "deai.Object.emit")
	assert.Contains(t, buf.String(), "api/core#deai.Object.emit")

	assert.Error(t, Objects(context.Background(), ObjectsOptions{Table: table, Kind: "widget", Writer: &buf}))
	assert.ErrorContains(t, Objects(context.Background(), ObjectsOptions{Table: table, Format: "xml", Writer: &buf}), "invalid output format")
}

func TestModIndex(t *testing.T) {
	table, _ := builtTable(t)

	var buf bytes.Buffer
	idx, err := ModIndex(context.Background(), ModIndexOptions{Table: table, Writer: &buf})
	require.NoError(t, err)
	require.Len(t, idx.Groups, 1)
	assert.Equal(t, "d", idx.Groups[0].Letter)
	assert.Contains(t, buf.String(), "D\n")
	assert.Contains(t, buf.String(), "deai.spawn")
	assert.Contains(t, buf.String(), "(linux)")

	buf.Reset()
	idx, err = ModIndex(context.Background(), ModIndexOptions{Table: table, Docs: []string{"api/spawn"}, Format: OutputJSON, Writer: &buf})
	require.NoError(t, err)
	require.Len(t, idx.Groups, 1)
	require.Len(t, idx.Groups[0].Entries, 2, "the missing parent is added")
	assert.Empty(t, idx.Groups[0].Entries[0].Doc)
}

func TestShow(t *testing.T) {
	table, out := builtTable(t)

	var buf bytes.Buffer
	err := Show(context.Background(), ShowOptions{Table: table, Output: out, Target: "deai.spawn.run", Writer: &buf})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "deai.spawn.run (function) in api/spawn\n\n"))
	assert.Contains(t, buf.String(), "# deai.spawn")

	err = Show(context.Background(), ShowOptions{Table: table, Output: out, Target: "nope", Writer: &buf})
	assert.ErrorIs(t, err, ErrNotFound)

	err = Show(context.Background(), ShowOptions{Table: table, Output: t.TempDir(), Target: "deai", Writer: &buf})
	assert.ErrorContains(t, err, "failed to read page of deai")
}

type stubRunner map[string]string

func (r stubRunner) Output(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	return []byte(r[strings.Join(append([]string{name}, args...), " ")]), nil
}

func TestFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.c"), []byte("int  main;\n"), 0644))
	opts := gitformat.DefaultOptions()
	opts.Dir = dir
	runner := stubRunner{
		"git rev-parse --show-toplevel":                      dir + "\n",
		"git diff-index --diff-filter=ACMR --name-only HEAD": "main.c\n",
		"clang-format -style=file main.c":                    "int main;\n",
	}

	var buf bytes.Buffer
	report, err := Format(context.Background(), FormatOptions{Options: opts, Mode: gitformat.ModeCheck, Runner: runner, Writer: &buf})
	require.ErrorIs(t, err, gitformat.ErrNeedsFormat)
	assert.Equal(t, []string{"main.c"}, report.NeedsFormat)
	assert.Contains(t, buf.String(), "'main.c' must be formatted, run the build target 'format'")
}

func TestConfigLint(t *testing.T) {
	cfg := config.Default()
	cfg.Build.ModIndexCommonPrefix = []string{"deai."}

	var buf bytes.Buffer
	require.NoError(t, ConfigLint(context.Background(), ConfigLintOptions{Config: cfg, Path: "luadomain.yaml", Writer: &buf}))
	assert.Contains(t, buf.String(), "✓ Configuration is valid")
	assert.Contains(t, buf.String(), "File: luadomain.yaml")
	assert.Contains(t, buf.String(), "Module index prefixes: deai.")
	assert.Contains(t, buf.String(), "! source docs: no such file or directory")

	cfg.Build.Output = ""
	assert.Error(t, ConfigLint(context.Background(), ConfigLintOptions{Config: cfg, Writer: &buf}))
}
