package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/domain"
)

const coreSource = `Core
====

.. lua:module:: deai
   :synopsis: The root object

.. lua:class:: Object

   Base of everything. Emits :lua:sgnl:` + "`changed`" + `.

   .. lua:method:: emit(name, ...)

   .. lua:signal:: changed(key)

.. lua:function:: load_plugin(path)

   Loads a plugin, see :lua:mod:` + "`deai.spawn`" + `.
`

const spawnSource = `.. lua:module:: deai.spawn
   :platform: linux

.. lua:function:: run(argv) -> Process

   Runs argv. The result is a :lua:class:` + "`deai.Object`" + `, see :lua:func:` + "`missing`" + `.
`

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return dir
}

func buildConfig(src, out string, formats ...string) config.BuildConfig {
	cfg := config.Default()
	cfg.Build.Sources = []string{src}
	cfg.Build.Output = out
	cfg.Build.Jobs = 2
	if len(formats) > 0 {
		cfg.Build.Formats = formats
	}
	return cfg.Build
}

func TestFindSources(t *testing.T) {
	src := writeSources(t, map[string]string{
		"api/core.rst":     coreSource,
		"api/spawn.rst":    spawnSource,
		"drafts/wip.rst":   "draft",
		"README.md":        "# readme",
		".luadomainignore": "drafts/\n",
		"api/image.rst":    "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR",
	})

	sources, err := FindSources([]string{src}, nil)
	require.NoError(t, err)
	var docs []string
	for _, s := range sources {
		docs = append(docs, s.Doc)
	}
	assert.Equal(t, []string{"api/core", "api/spawn"}, docs)

	single, err := FindSources([]string{filepath.Join(src, "api", "core.rst")}, nil)
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "core", single[0].Doc)

	_, err = FindSources([]string{filepath.Join(src, "missing")}, nil)
	assert.ErrorContains(t, err, "cannot access source")
}

func TestBuild(t *testing.T) {
	src := writeSources(t, map[string]string{
		"api/core.rst":  coreSource,
		"api/spawn.rst": spawnSource,
	})
	out := filepath.Join(t.TempDir(), "site")

	var buf bytes.Buffer
	res, err := Build(context.Background(), BuildOptions{
		Build:  buildConfig(src, out, config.FormatMarkdown, config.FormatHTML),
		Writer: &buf,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"api/core", "api/spawn"}, res.Read)
	assert.Equal(t, 7, res.Objects)
	assert.ElementsMatch(t, []string{
		"api/core.md", "api/core.html",
		"api/spawn.md", "api/spawn.html",
		"lua-modindex.md", "lua-modindex.html",
	}, res.Written)

	require.Len(t, res.Warnings, 1)
	assert.ErrorContains(t, res.Warnings[0], "api/spawn:6: lua:func reference target not found: missing")

	core, err := os.ReadFile(filepath.Join(out, "api", "core.md"))
	require.NoError(t, err)
	assert.Contains(t, string(core), "[changed()](#deai.Object.changed)")
	assert.Contains(t, string(core), "[deai.spawn](spawn.md#module-deai.spawn)")

	spawn, err := os.ReadFile(filepath.Join(out, "api", "spawn.md"))
	require.NoError(t, err)
	assert.Contains(t, string(spawn), "[deai.Object](core.md#deai.Object)")
	assert.Contains(t, string(spawn), "`missing`")

	html, err := os.ReadFile(filepath.Join(out, "api", "spawn.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `href="core.html#deai.Object"`)

	index, err := os.ReadFile(filepath.Join(out, "lua-modindex.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "[`deai.spawn`](api/spawn.md#module-deai.spawn)")

	assert.Contains(t, buf.String(), "read 2 of 2 documents, 7 objects, 6 files written")
	assert.Contains(t, buf.String(), "1 warnings")
}

func TestBuildFailOnWarning(t *testing.T) {
	src := writeSources(t, map[string]string{
		"a.rst": ".. lua:function:: f()\n",
		"b.rst": ".. lua:function:: f()\n",
	})
	cfg := buildConfig(src, t.TempDir())
	cfg.FailOnWarning = true

	res, err := Build(context.Background(), BuildOptions{Build: cfg})
	require.Error(t, err)
	assert.ErrorContains(t, err, "build finished with 1 warnings")
	var w domain.Warning
	require.ErrorAs(t, err, &w)
	assert.Equal(t, "b", w.Doc)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Objects)
}

func TestBuildIncremental(t *testing.T) {
	ctx := context.Background()
	src := writeSources(t, map[string]string{
		"api/core.rst":  coreSource,
		"api/spawn.rst": spawnSource,
	})
	out := t.TempDir()
	store, closeStore, err := OpenStore(ctx, filepath.Join(t.TempDir(), "inv", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { closeStore() })

	opts := BuildOptions{Build: buildConfig(src, out), Store: store}
	first, err := Build(ctx, opts)
	require.NoError(t, err)
	assert.Len(t, first.Read, 2)
	assert.NotEmpty(t, first.BuildID)

	// nothing changed
	second, err := Build(ctx, opts)
	require.NoError(t, err)
	assert.Empty(t, second.Read)
	assert.Equal(t, 7, second.Objects)

	// spawn is edited, core is removed
	spawnPath := filepath.Join(src, "api", "spawn.rst")
	require.NoError(t, os.WriteFile(spawnPath, []byte(".. lua:module:: deai.spawn\n\n.. lua:function:: start()\n"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(spawnPath, later, later))
	require.NoError(t, os.Remove(filepath.Join(src, "api", "core.rst")))

	third, err := Build(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"api/spawn"}, third.Read)
	assert.Equal(t, []string{"api/core"}, third.Removed)
	assert.Equal(t, 2, third.Objects)

	table, err := store.Load(ctx)
	require.NoError(t, err)
	_, ok := table.Get("deai.spawn.start")
	assert.True(t, ok)
	_, ok = table.Get("deai.Object")
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(out, "api", "core.md"))
	assert.FileExists(t, filepath.Join(out, "api", "spawn.md"))

	// a full build reads everything again
	opts.Full = true
	full, err := Build(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"api/spawn"}, full.Read)
}

func TestBuildFullForgetsRemovedDocuments(t *testing.T) {
	ctx := context.Background()
	src := writeSources(t, map[string]string{
		"api/core.rst":  coreSource,
		"api/spawn.rst": spawnSource,
	})
	out := t.TempDir()
	store, closeStore, err := OpenStore(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { closeStore() })

	opts := BuildOptions{Build: buildConfig(src, out, config.FormatMarkdown, config.FormatHTML), Store: store}
	_, err = Build(ctx, opts)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "api", "core.html"))

	require.NoError(t, os.Remove(filepath.Join(src, "api", "core.rst")))
	opts.Full = true
	full, err := Build(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"api/spawn"}, full.Read)
	assert.Equal(t, []string{"api/core"}, full.Removed)
	assert.NoFileExists(t, filepath.Join(out, "api", "core.md"))
	assert.NoFileExists(t, filepath.Join(out, "api", "core.html"))

	table, err := store.Load(ctx)
	require.NoError(t, err)
	_, ok := table.Get("deai.Object")
	assert.False(t, ok)
	assert.Equal(t, []string{"api/spawn"}, table.Documents())

	docs, err := store.Documents(ctx)
	require.NoError(t, err)
	assert.NotContains(t, docs, "api/core")
}

func TestBuildRereadsShadowedDocuments(t *testing.T) {
	tests := []struct {
		name     string
		change   func(t *testing.T, path string)
		wantRead []string
	}{
		{
			name: "winner removed",
			change: func(t *testing.T, path string) {
				require.NoError(t, os.Remove(path))
			},
			wantRead: []string{"b"},
		},
		{
			name: "winner edited",
			change: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte(".. lua:function:: other()\n"), 0644))
				later := time.Now().Add(time.Hour)
				require.NoError(t, os.Chtimes(path, later, later))
			},
			wantRead: []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			src := writeSources(t, map[string]string{
				"a.rst": ".. lua:function:: shared()\n",
				"b.rst": ".. lua:function:: shared()\n\n.. lua:function:: own()\n",
				"c.rst": ".. lua:function:: third()\n",
			})
			store, closeStore, err := OpenStore(ctx, filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			t.Cleanup(func() { closeStore() })
			opts := BuildOptions{Build: buildConfig(src, t.TempDir()), Store: store}

			first, err := Build(ctx, opts)
			require.NoError(t, err)
			require.Len(t, first.Warnings, 1)
			shadowed, err := store.Shadowed(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string][]string{"b": {"shared"}}, shadowed)

			tt.change(t, filepath.Join(src, "a.rst"))
			res, err := Build(ctx, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRead, res.Read)
			assert.Empty(t, res.Warnings)

			table, err := store.Load(ctx)
			require.NoError(t, err)
			e, ok := table.Get("shared")
			require.True(t, ok)
			assert.Equal(t, "b", e.Doc)
			_, ok = table.Get("own")
			assert.True(t, ok)

			shadowed, err = store.Shadowed(ctx)
			require.NoError(t, err)
			assert.Empty(t, shadowed)
		})
	}
}
