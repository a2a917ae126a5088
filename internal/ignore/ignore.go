// Package ignore loads .luadomainignore files, which use gitignore syntax to
// exclude documentation sources from builds and source files from formatting.
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// FileName is the name of the ignore files looked up by LoadIgnoreFiles.
const FileName = ".luadomainignore"

// DefaultPatterns are ignored whether or not an ignore file exists.
var DefaultPatterns = []string{
	".git/**",
	// build inventory and its sqlite journals
	".luadomain.db",
	".luadomain.db-*",
	FileName,
}

// Rules is a compiled set of ignore patterns. Paths are matched relative to
// the directory the rules were loaded for, with either separator.
type Rules struct {
	gi *gitignore.GitIgnore
	// Files lists the ignore files read, closest first.
	Files []string
}

// MatchesPath reports whether the file path is ignored. A nil Rules ignores
// nothing.
func (r *Rules) MatchesPath(path string) bool {
	if r == nil {
		return false
	}
	return r.gi.MatchesPath(filepath.ToSlash(path))
}

// MatchesDir reports whether the directory path is ignored, so that a walk
// can skip it whole.
func (r *Rules) MatchesDir(path string) bool {
	return r.MatchesPath(strings.TrimSuffix(filepath.ToSlash(path), "/") + "/")
}

// LoadIgnoreFiles compiles the default patterns and the patterns of every
// ignore file found in startDir and its parents.
func LoadIgnoreFiles(startDir string) (*Rules, error) {
	files, err := findIgnoreFiles(startDir)
	if err != nil {
		return nil, err
	}

	lines := slices.Clone(DefaultPatterns)
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read ignore file %s: %w", f, err)
		}
		lines = append(lines, strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")...)
	}
	return &Rules{gi: gitignore.CompileIgnoreLines(lines...), Files: files}, nil
}

// findIgnoreFiles lists the ignore files of startDir and its parents,
// closest first.
func findIgnoreFiles(startDir string) ([]string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve start dir %s: %w", startDir, err)
	}
	var files []string
	for {
		f := filepath.Join(dir, FileName)
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			files = append(files, f)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return files, nil
		}
		dir = parent
	}
}
