package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/spachava753/luadomain/internal/config"
	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/ignore"
	"github.com/spachava753/luadomain/internal/inventory"
	"github.com/spachava753/luadomain/internal/render"
	"github.com/spachava753/luadomain/internal/rst"
	"github.com/spachava753/luadomain/internal/symtab"
)

// SourceExt is the extension of documentation sources.
const SourceExt = ".rst"

var (
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#16a085", Dark: "#1abc9c"})
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#d35400", Dark: "#f1c40f"})
)

// BuildOptions contains parameters for building the reference pages
type BuildOptions struct {
	Build config.BuildConfig
	// Store is the inventory of the previous builds. When nil every document
	// is read.
	Store *inventory.Sqlite
	// Full reads every document even when the inventory has it.
	Full   bool
	Writer io.Writer
	Logger *slog.Logger
}

// BuildResult summarizes a build.
type BuildResult struct {
	// Documents lists every source document found.
	Documents []string
	// Read lists the documents read in this build.
	Read []string
	// Removed lists the inventory documents whose source is gone.
	Removed []string
	// Written lists the output files, relative to the output directory.
	Written  []string
	Objects  int
	Warnings []error
	BuildID  string
}

// Source is a documentation source file.
type Source struct {
	Doc     string
	Path    string
	ModTime time.Time
}

// Build reads the changed documentation sources, updates the inventory and
// writes the reference pages of the documents read, plus the module index.
func Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	sources, err := FindSources(opts.Build.Sources, logger)
	if err != nil {
		return nil, err
	}

	table := symtab.New()
	var previous map[string]time.Time
	var shadowed map[string][]string
	if opts.Store != nil {
		if previous, err = opts.Store.Documents(ctx); err != nil {
			return nil, fmt.Errorf("failed to load inventory documents: %w", err)
		}
		if !opts.Full {
			if table, err = opts.Store.Load(ctx); err != nil {
				return nil, fmt.Errorf("failed to load inventory: %w", err)
			}
			if shadowed, err = opts.Store.Shadowed(ctx); err != nil {
				return nil, fmt.Errorf("failed to load inventory: %w", err)
			}
		}
	}

	result := &BuildResult{}
	present := make(map[string]bool, len(sources))
	outdated := make(map[string]bool)
	for _, s := range sources {
		result.Documents = append(result.Documents, s.Doc)
		present[s.Doc] = true
		if mtime, ok := previous[s.Doc]; !opts.Full && ok && mtime.Equal(s.ModTime) {
			continue
		}
		outdated[s.Doc] = true
	}
	for doc := range previous {
		if !present[doc] {
			result.Removed = append(result.Removed, doc)
			outdated[doc] = true
			table.RemoveAll(doc)
		}
	}
	slices.Sort(result.Removed)
	rereadShadowing(sources, table, shadowed, outdated, logger)

	var changed []Source
	for _, s := range sources {
		if outdated[s.Doc] {
			changed = append(changed, s)
		}
	}

	results, err := readSources(ctx, changed, opts.Build, opts.Build.Jobs, logger)
	if err != nil {
		return nil, err
	}

	// fold the per-document tables in document order so that the first
	// definition of a name wins
	for _, s := range changed {
		table.RemoveAll(s.Doc)
	}
	docs := make([]inventory.Document, len(changed))
	for i, s := range changed {
		docs[i] = inventory.Document{Name: s.Doc, ModTime: s.ModTime}
		for _, err := range table.Merge([]string{s.Doc}, results[i].table) {
			var dup *symtab.DuplicateError
			if errors.As(err, &dup) {
				docs[i].Shadowed = append(docs[i].Shadowed, dup.Name)
			}
			w := domain.Warning{Doc: s.Doc, Err: err}
			logger.Warn(err.Error(), slog.String("doc", s.Doc))
			result.Warnings = append(result.Warnings, w)
		}
		result.Read = append(result.Read, s.Doc)
		for _, w := range results[i].res.Warnings {
			result.Warnings = append(result.Warnings, w)
		}
	}

	d := domain.New(table, opts.Build.Domain(), logger)
	for i := range changed {
		written, unresolved, err := writePages(d, results[i].res, opts.Build)
		if err != nil {
			return nil, err
		}
		result.Written = append(result.Written, written...)
		result.Warnings = append(result.Warnings, unresolved...)
	}
	written, err := writeModIndex(d, opts.Build)
	if err != nil {
		return nil, err
	}
	result.Written = append(result.Written, written...)
	result.Objects = table.Len()
	if err := removePages(opts.Build, result.Removed); err != nil {
		return nil, err
	}

	if opts.Store != nil {
		if len(result.Removed) > 0 {
			if err := opts.Store.Forget(ctx, result.Removed); err != nil {
				return nil, fmt.Errorf("failed to update inventory: %w", err)
			}
		}
		if result.BuildID, err = opts.Store.Save(ctx, table, docs); err != nil {
			return nil, fmt.Errorf("failed to update inventory: %w", err)
		}
	}

	if opts.Writer != nil {
		writeSummary(opts.Writer, result)
	}
	if opts.Build.FailOnWarning && len(result.Warnings) > 0 {
		return result, fmt.Errorf("build finished with %d warnings: %w", len(result.Warnings), errors.Join(result.Warnings...))
	}
	return result, nil
}

// rereadShadowing marks outdated the unchanged documents that declare a name
// owned by an outdated document, or by no document anymore, so that their
// declaration can take over.
func rereadShadowing(sources []Source, table *symtab.Table, shadowed map[string][]string, outdated map[string]bool, logger *slog.Logger) {
	for again := true; again; {
		again = false
		for _, s := range sources {
			if outdated[s.Doc] {
				continue
			}
			for _, name := range shadowed[s.Doc] {
				if e, ok := table.Get(name); ok && !outdated[e.Doc] {
					continue
				}
				logger.Debug("rereading document declaring a released name", slog.String("doc", s.Doc), slog.String("name", name))
				outdated[s.Doc] = true
				again = true
				break
			}
		}
	}
}

func writeSummary(w io.Writer, r *BuildResult) {
	fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("read %d of %d documents, %d objects, %d files written",
		len(r.Read), len(r.Documents), r.Objects, len(r.Written))))
	if len(r.Removed) > 0 {
		fmt.Fprintf(w, "removed: %s\n", strings.Join(r.Removed, ", "))
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d warnings", len(r.Warnings))))
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  %v\n", warning)
		}
	}
}

// FindSources walks roots for documentation sources. A document is named by
// its path relative to its root, without extension and with forward
// slashes. Files ignored by .luadomainignore and binary files are skipped.
func FindSources(roots []string, logger *slog.Logger) ([]Source, error) {
	var sources []Source
	seen := make(map[string]string)
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access source %s: %w", root, err)
		}
		if !info.IsDir() {
			doc := strings.TrimSuffix(filepath.Base(root), filepath.Ext(root))
			sources = append(sources, Source{Doc: doc, Path: root, ModTime: info.ModTime()})
			continue
		}

		ig, err := ignore.LoadIgnoreFiles(root)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if entry.IsDir() {
				if rel != "." && ig.MatchesDir(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != SourceExt || ig.MatchesPath(rel) {
				return nil
			}
			if !isText(path) {
				logger.Debug("skipping binary source", slog.String("path", path))
				return nil
			}
			info, err := entry.Info()
			if err != nil {
				return err
			}
			doc := strings.TrimSuffix(rel, SourceExt)
			if other, ok := seen[doc]; ok {
				logger.Warn("document found in several sources, keeping the first", slog.String("doc", doc),
					slog.String("path", path), slog.String("first", other))
				return nil
			}
			seen[doc] = path
			sources = append(sources, Source{Doc: doc, Path: path, ModTime: info.ModTime()})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return sources, nil
}

func isText(path string) bool {
	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mime.String(), "text/")
}

type readResult struct {
	table *symtab.Table
	res   *domain.DocResult
}

// readSources parses and processes each source into a private table.
func readSources(ctx context.Context, sources []Source, cfg config.BuildConfig, jobs int, logger *slog.Logger) ([]readResult, error) {
	results := make([]readResult, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, s := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(s.Path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", s.Path, err)
			}
			doc, err := rst.Parse(s.Doc, src)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", s.Path, err)
			}
			table := symtab.New()
			res := domain.New(table, cfg.Domain(), logger).Process(doc)
			logger.Debug("read document", slog.String("doc", s.Doc), slog.Int("declarations", len(res.Declarations)))
			results[i] = readResult{table: table, res: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// pageExt returns the link extension of a format.
func pageExt(format string) string {
	return "." + format
}

// writePages writes the pages of res in every configured format. It returns
// the written paths and a warning per unresolved reference.
func writePages(d *domain.Domain, res *domain.DocResult, cfg config.BuildConfig) ([]string, []error, error) {
	var written []string
	var unresolved []error
	for i, format := range cfg.Formats {
		ext := pageExt(format)
		link := func(ref domain.PendingRef) (string, string, bool) {
			r, ok := d.ResolveXRef(res.Doc, ref)
			if !ok {
				if i == 0 {
					unresolved = append(unresolved, domain.Warning{
						Doc:  res.Doc,
						Line: ref.Line,
						Err:  fmt.Errorf("%s:%s reference target not found: %s", domain.DomainName, ref.Role, ref.Target),
					})
				}
				return "", "", false
			}
			return r.Text, render.Href(res.Doc, r.Doc, r.Anchor, ext), true
		}
		page := render.NewPage(res, link)
		md, err := render.Markdown(page)
		if err != nil {
			return nil, nil, err
		}
		name, err := writeOutput(cfg.Output, res.Doc, format, page.Title, md)
		if err != nil {
			return nil, nil, err
		}
		written = append(written, name)
	}
	return written, unresolved, nil
}

func writeModIndex(d *domain.Domain, cfg config.BuildConfig) ([]string, error) {
	var written []string
	idx := d.ModuleIndex(nil)
	for _, format := range cfg.Formats {
		md, err := render.ModIndexMarkdown(idx, pageExt(format))
		if err != nil {
			return nil, err
		}
		name, err := writeOutput(cfg.Output, render.ModIndexDoc, format, "Lua Module Index", md)
		if err != nil {
			return nil, err
		}
		written = append(written, name)
	}
	return written, nil
}

// removePages deletes the pages of docs in every configured format.
func removePages(cfg config.BuildConfig, docs []string) error {
	for _, doc := range docs {
		for _, format := range cfg.Formats {
			path := filepath.Join(cfg.Output, filepath.FromSlash(render.Slug(doc)+pageExt(format)))
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	return nil
}

// writeOutput writes the Markdown page md of doc in format and returns its
// path relative to the output directory.
func writeOutput(outDir, doc, format, title, md string) (string, error) {
	content := md
	if format == config.FormatHTML {
		var err error
		if content, err = render.HTMLDocument(title, md); err != nil {
			return "", err
		}
	}
	name := render.Slug(doc) + pageExt(format)
	path := filepath.Join(outDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return name, nil
}
