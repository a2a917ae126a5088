package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/render"
	"github.com/spachava753/luadomain/internal/symtab"
)

// ShowOptions contains parameters for displaying the page of an object
type ShowOptions struct {
	Table  *symtab.Table
	Domain domain.Config
	// Output is the build output directory holding the Markdown pages.
	Output string
	// Target is resolved like a :lua:obj: reference; a leading "." searches
	// by suffix.
	Target   string
	Renderer render.Renderer
	Writer   io.Writer
}

// Show renders the Markdown page of the document defining Target.
func Show(ctx context.Context, opts ShowOptions) error {
	d := domain.New(opts.Table, opts.Domain, nil)
	r, ok := d.ResolveXRef("", domain.PendingRef{Role: "obj", Target: opts.Target, Title: opts.Target})
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, opts.Target)
	}

	path := filepath.Join(opts.Output, filepath.FromSlash(render.Slug(r.Doc)+".md"))
	page, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read page of %s (build with the md format first): %w", r.Name, err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = &render.PlainTextRenderer{}
	}
	out, err := renderer.Render(string(page))
	if err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	fmt.Fprintf(opts.Writer, "%s (%s) in %s\n\n", r.Tooltip, r.Kind, r.Doc)
	_, err = io.WriteString(opts.Writer, out)
	return err
}
