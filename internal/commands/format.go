package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spachava753/luadomain/internal/gitformat"
)

// FormatOptions contains parameters for formatting the changed files
type FormatOptions struct {
	Options gitformat.Options
	Mode    gitformat.Mode
	// Ignore filters out ignored files. May be nil.
	Ignore gitformat.Matcher
	// Runner runs git and the formatter. Nil runs the real executables.
	Runner gitformat.Runner
	Writer io.Writer
	Logger *slog.Logger
}

// Format checks or formats the files changed against HEAD. In check mode
// the returned error wraps gitformat.ErrNeedsFormat when a file is not
// formatted.
func Format(ctx context.Context, opts FormatOptions) (gitformat.Report, error) {
	f, err := gitformat.New(opts.Options, opts.Runner, opts.Ignore, opts.Logger)
	if err != nil {
		return gitformat.Report{}, err
	}
	return f.Run(ctx, opts.Mode, opts.Writer)
}
