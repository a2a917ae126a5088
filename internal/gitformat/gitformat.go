// Package gitformat runs an external source formatter over the files changed
// in a git work tree, either checking that they are formatted (pre-commit) or
// rewriting them in place (build target).
package gitformat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"
)

// EmptyTree is the hash of git's empty tree, diffed against when the
// repository has no commit yet.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// DefaultExtensions are the C and C++ source patterns formatted by default.
var DefaultExtensions = []string{"*.h", "*.cpp", "*.hpp", "*.c", "*.cc", "*.hh", "*.cxx", "*.hxx"}

// ErrNeedsFormat is returned by Run in check mode when a file is not
// formatted.
var ErrNeedsFormat = errors.New("files must be formatted")

// Mode selects what Run does with the changed files.
type Mode int

const (
	// ModeCheck compares the formatter output with each file.
	ModeCheck Mode = iota
	// ModeInPlace lets the formatter rewrite each file.
	ModeInPlace
)

// Runner runs external commands.
type Runner interface {
	// Output runs name with args in dir and returns its standard output.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// Matcher reports ignored paths. *ignore.Rules implements it.
type Matcher interface {
	MatchesPath(f string) bool
}

// Options configure a Formatter.
type Options struct {
	// Dir is a directory inside the work tree. Empty means the current
	// directory.
	Dir string
	// Git and Formatter are the executables, looked up in PATH when not
	// absolute.
	Git       string
	Formatter string
	// Args are passed to the formatter before the file name.
	Args []string
	// Extensions are glob patterns matched against file base names.
	Extensions []string
	// Target names the build target suggested when files need formatting.
	Target string
	// Jobs bounds the formatter processes run at once.
	Jobs int
}

// DefaultOptions returns the options of a clang-format setup.
func DefaultOptions() Options {
	return Options{
		Git:        "git",
		Formatter:  "clang-format",
		Args:       []string{"-style=file"},
		Extensions: DefaultExtensions,
		Target:     "format",
		Jobs:       4,
	}
}

var (
	needsFormatStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#c0392b", Dark: "#e74c3c"})
	formattedStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#16a085", Dark: "#1abc9c"})
)

// Formatter formats changed files.
type Formatter struct {
	opts     Options
	runner   Runner
	ignore   Matcher
	patterns []glob.Glob
	logger   *slog.Logger
}

// New returns a Formatter. ignore and logger may be nil.
func New(opts Options, runner Runner, ignore Matcher, logger *slog.Logger) (*Formatter, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	f := &Formatter{opts: opts, runner: runner, ignore: ignore, logger: logger}
	for _, p := range opts.Extensions {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid extension pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Head returns the revision to diff against: HEAD, or the empty tree when
// HEAD does not resolve.
func (f *Formatter) Head(ctx context.Context) string {
	if _, err := f.runner.Output(ctx, f.opts.Dir, f.opts.Git, "rev-parse", "--verify", "HEAD"); err != nil {
		f.logger.Debug("HEAD does not resolve, diffing against the empty tree", slog.String("error", err.Error()))
		return EmptyTree
	}
	return "HEAD"
}

// TopLevel returns the root of the work tree containing Dir. Paths listed by
// EditedFiles are relative to it.
func (f *Formatter) TopLevel(ctx context.Context) (string, error) {
	out, err := f.runner.Output(ctx, f.opts.Dir, f.opts.Git, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to resolve work tree root: %w", err)
	}
	root := strings.TrimSpace(string(out))
	if root == "" {
		return f.opts.Dir, nil
	}
	return root, nil
}

// EditedFiles lists the files added, copied, modified or renamed since Head,
// relative to TopLevel.
func (f *Formatter) EditedFiles(ctx context.Context) ([]string, error) {
	out, err := f.runner.Output(ctx, f.opts.Dir, f.opts.Git, "diff-index", "--diff-filter=ACMR", "--name-only", f.Head(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list edited files: %w", err)
	}
	var files []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// Formattable reports whether name, relative to the work tree root, is a
// text file matching one of the extension patterns and not ignored. A file
// that cannot be read is an error.
func (f *Formatter) Formattable(root, name string) (bool, error) {
	base := path.Base(filepath.ToSlash(name))
	if !slices.ContainsFunc(f.patterns, func(g glob.Glob) bool { return g.Match(base) }) {
		return false, nil
	}
	if f.ignore != nil && f.ignore.MatchesPath(name) {
		f.logger.Debug("skipping ignored file", slog.String("file", name))
		return false, nil
	}
	content, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(content) == 0 {
		return true, nil
	}
	if mime := mimetype.Detect(content); !strings.HasPrefix(mime.String(), "text/") {
		f.logger.Debug("skipping binary file", slog.String("file", name), slog.String("mime", mime.String()))
		return false, nil
	}
	return true, nil
}

// Report is the outcome of Run.
type Report struct {
	// Checked lists every formattable file.
	Checked []string
	// NeedsFormat lists the files whose formatter output differs, in check
	// mode.
	NeedsFormat []string
	// Formatted lists the files rewritten, in place mode.
	Formatted []string
}

// Run formats the edited files and writes one line per file to w. In check
// mode it returns ErrNeedsFormat when a file is not formatted.
func (f *Formatter) Run(ctx context.Context, mode Mode, w io.Writer) (Report, error) {
	root, err := f.TopLevel(ctx)
	if err != nil {
		return Report{}, err
	}
	edited, err := f.EditedFiles(ctx)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, name := range edited {
		ok, err := f.Formattable(root, name)
		if err != nil {
			return report, err
		}
		if ok {
			report.Checked = append(report.Checked, name)
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Jobs)
	for _, name := range report.Checked {
		g.Go(func() error {
			changed, err := f.formatFile(gctx, root, name, mode)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case mode == ModeInPlace:
				report.Formatted = append(report.Formatted, name)
			case changed:
				report.NeedsFormat = append(report.NeedsFormat, name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	slices.Sort(report.Formatted)
	slices.Sort(report.NeedsFormat)
	for _, name := range report.Formatted {
		fmt.Fprintln(w, formattedStyle.Render(fmt.Sprintf("'%s' has been formatted", name)))
	}
	for _, name := range report.NeedsFormat {
		fmt.Fprintln(w, needsFormatStyle.Render(fmt.Sprintf("'%s' must be formatted, run the build target '%s'", name, f.opts.Target)))
	}
	if len(report.NeedsFormat) > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrNeedsFormat, len(report.NeedsFormat), len(report.Checked))
	}
	return report, nil
}

// formatFile runs the formatter on name from the work tree root. In check
// mode it reports whether the output differs from the file.
func (f *Formatter) formatFile(ctx context.Context, root, name string, mode Mode) (bool, error) {
	args := slices.Clone(f.opts.Args)
	if mode == ModeInPlace {
		args = append(args, "-i")
	}
	args = append(args, name)

	out, err := f.runner.Output(ctx, root, f.opts.Formatter, args...)
	if err != nil {
		return false, fmt.Errorf("failed to format %s: %w", name, err)
	}
	if mode == ModeInPlace {
		f.logger.Debug("formatted file", slog.String("file", name))
		return true, nil
	}

	content, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return !bytes.Equal(out, content), nil
}
