package gitformat

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers commands from a table keyed by the joined command line.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
	dirs    map[string]string
}

func (r *fakeRunner) Output(_ context.Context, dir string, name string, args ...string) ([]byte, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, line)
	if r.dirs == nil {
		r.dirs = map[string]string{}
	}
	r.dirs[line] = dir
	if err, ok := r.errs[line]; ok {
		return nil, err
	}
	return []byte(r.outputs[line]), nil
}

func (r *fakeRunner) dir(line string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirs[line]
}

func (r *fakeRunner) called(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == line {
			return true
		}
	}
	return false
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func newFormatter(t *testing.T, dir string, r Runner, m Matcher) *Formatter {
	t.Helper()
	opts := DefaultOptions()
	opts.Dir = dir
	f, err := New(opts, r, m, nil)
	require.NoError(t, err)
	return f
}

func TestHead(t *testing.T) {
	r := &fakeRunner{}
	f := newFormatter(t, t.TempDir(), r, nil)
	assert.Equal(t, "HEAD", f.Head(context.Background()))

	r = &fakeRunner{errs: map[string]error{"git rev-parse --verify HEAD": errors.New("exit status 128")}}
	f = newFormatter(t, t.TempDir(), r, nil)
	assert.Equal(t, EmptyTree, f.Head(context.Background()))
}

func TestEditedFiles(t *testing.T) {
	r := &fakeRunner{
		errs: map[string]error{"git rev-parse --verify HEAD": errors.New("exit status 128")},
		outputs: map[string]string{
			"git diff-index --diff-filter=ACMR --name-only " + EmptyTree: "src/a.c\n\nREADME.md\n",
		},
	}
	f := newFormatter(t, t.TempDir(), r, nil)
	files, err := f.EditedFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.c", "README.md"}, files)

	r.errs["git diff-index --diff-filter=ACMR --name-only "+EmptyTree] = errors.New("not a git repository")
	_, err = f.EditedFiles(context.Background())
	assert.ErrorContains(t, err, "failed to list edited files")
}

func TestFormattable(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/a.c":        "int main(void) { return 0; }\n",
		"src/b.hpp":      "#pragma once\n",
		"src/empty.cc":   "",
		"src/blob.h":     "\x00\x01\x02\x03\x04\x05\x06\x07\x08",
		"README.md":      "# readme\n",
		"third/vendor.c": "int x;\n",
	})
	f := newFormatter(t, dir, &fakeRunner{}, ignore.CompileIgnoreLines("third/"))

	tests := []struct {
		name string
		want bool
	}{
		{"src/a.c", true},
		{"src/b.hpp", true},
		{"src/empty.cc", true},
		{"src/blob.h", false},
		{"README.md", false},
		{"third/vendor.c", false},
		{"third/missing.c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Formattable(dir, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unreadable", func(t *testing.T) {
		_, err := f.Formattable(dir, "src/missing.c")
		require.ErrorIs(t, err, os.ErrNotExist)
		assert.ErrorContains(t, err, "failed to read src/missing.c")
	})
}

func TestTopLevel(t *testing.T) {
	dir := t.TempDir()
	r := &fakeRunner{outputs: map[string]string{"git rev-parse --show-toplevel": "/work/tree\n"}}
	f := newFormatter(t, filepath.Join(dir, "sub"), r, nil)
	root, err := f.TopLevel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/work/tree", root)
	assert.Equal(t, filepath.Join(dir, "sub"), r.dir("git rev-parse --show-toplevel"))

	r.errs = map[string]error{"git rev-parse --show-toplevel": errors.New("not a git repository")}
	_, err = f.TopLevel(context.Background())
	assert.ErrorContains(t, err, "failed to resolve work tree root")
}

func TestRunFromSubdirectory(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"src/a.c":     "int  a;\n",
		"src/lib/b.c": "int b;\n",
	})
	r := &fakeRunner{outputs: map[string]string{
		"git rev-parse --show-toplevel":                      root + "\n",
		"git diff-index --diff-filter=ACMR --name-only HEAD": "src/a.c\nsrc/lib/b.c\n",
		"clang-format -style=file src/a.c":                   "int a;\n",
		"clang-format -style=file src/lib/b.c":               "int b;\n",
	}}
	f := newFormatter(t, filepath.Join(root, "src", "lib"), r, nil)

	var out bytes.Buffer
	report, err := f.Run(context.Background(), ModeCheck, &out)
	require.ErrorIs(t, err, ErrNeedsFormat)
	assert.Equal(t, []string{"src/a.c", "src/lib/b.c"}, report.Checked)
	assert.Equal(t, []string{"src/a.c"}, report.NeedsFormat)
	assert.Equal(t, root, r.dir("clang-format -style=file src/a.c"))
	assert.Equal(t, root, r.dir("clang-format -style=file src/lib/b.c"))
}

func TestRunUnreadableFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": "int a;\n"})
	r := &fakeRunner{outputs: map[string]string{
		"git diff-index --diff-filter=ACMR --name-only HEAD": "a.c\ngone.c\n",
	}}
	f := newFormatter(t, dir, r, nil)

	_, err := f.Run(context.Background(), ModeCheck, &bytes.Buffer{})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, "failed to read gone.c")
	assert.False(t, r.called("clang-format -style=file a.c"))
}

func TestNewRejectsBadPattern(t *testing.T) {
	opts := DefaultOptions()
	opts.Extensions = []string{"[*.c"}
	_, err := New(opts, &fakeRunner{}, nil, nil)
	assert.ErrorContains(t, err, "invalid extension pattern")
}

func TestRunCheck(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.c": "int a;\n",
		"b.c": "int  b;\n",
	})
	r := &fakeRunner{outputs: map[string]string{
		"git diff-index --diff-filter=ACMR --name-only HEAD": "a.c\nb.c\nnotes.txt\n",
		"clang-format -style=file a.c":                       "int a;\n",
		"clang-format -style=file b.c":                       "int b;\n",
	}}
	f := newFormatter(t, dir, r, nil)

	var out bytes.Buffer
	report, err := f.Run(context.Background(), ModeCheck, &out)
	require.ErrorIs(t, err, ErrNeedsFormat)
	assert.Equal(t, []string{"a.c", "b.c"}, report.Checked)
	assert.Equal(t, []string{"b.c"}, report.NeedsFormat)
	assert.Empty(t, report.Formatted)
	assert.Contains(t, out.String(), "'b.c' must be formatted, run the build target 'format'")
	assert.NotContains(t, out.String(), "'a.c'")
}

func TestRunCheckClean(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": "int a;\n"})
	r := &fakeRunner{outputs: map[string]string{
		"git diff-index --diff-filter=ACMR --name-only HEAD": "a.c\n",
		"clang-format -style=file a.c":                       "int a;\n",
	}}
	f := newFormatter(t, dir, r, nil)

	var out bytes.Buffer
	report, err := f.Run(context.Background(), ModeCheck, &out)
	require.NoError(t, err)
	assert.Empty(t, report.NeedsFormat)
	assert.Empty(t, out.String())
}

func TestRunInPlace(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": "int a;\n", "b.h": "int b;\n"})
	r := &fakeRunner{outputs: map[string]string{
		"git diff-index --diff-filter=ACMR --name-only HEAD": "b.h\na.c\n",
	}}
	f := newFormatter(t, dir, r, nil)

	var out bytes.Buffer
	report, err := f.Run(context.Background(), ModeInPlace, &out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "b.h"}, report.Formatted)
	assert.True(t, r.called("clang-format -style=file -i a.c"))
	assert.True(t, r.called("clang-format -style=file -i b.h"))
	assert.Contains(t, out.String(), "'a.c' has been formatted")
	assert.Contains(t, out.String(), "'b.h' has been formatted")
}

func TestRunFormatterFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": "int a;\n"})
	r := &fakeRunner{
		outputs: map[string]string{"git diff-index --diff-filter=ACMR --name-only HEAD": "a.c\n"},
		errs:    map[string]error{"clang-format -style=file a.c": errors.New("executable file not found")},
	}
	f := newFormatter(t, dir, r, nil)

	_, err := f.Run(context.Background(), ModeCheck, &bytes.Buffer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNeedsFormat)
	assert.ErrorContains(t, err, "failed to format a.c")
}
