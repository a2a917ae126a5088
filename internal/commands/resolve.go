package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/render"
	"github.com/spachava753/luadomain/internal/symtab"
)

// ErrNotFound is returned when a reference does not resolve.
var ErrNotFound = errors.New("reference target not found")

// AnyRole resolves a target against every object kind.
const AnyRole = "any"

// ResolveOptions contains parameters for resolving a cross-reference
type ResolveOptions struct {
	Table  *symtab.Table
	Domain domain.Config
	// Role is a domain role, with or without the "lua:" prefix, or AnyRole.
	Role   string
	Target string
	// Module and Class are the scope the reference is resolved from.
	Module string
	Class  string
	// Ext is the page extension used for the printed links.
	Ext    string
	Writer io.Writer
	Logger *slog.Logger
}

// Resolve resolves a reference the way a reference written in a document
// would be, and prints one line per match: role, name, link and tooltip.
func Resolve(ctx context.Context, opts ResolveOptions) ([]domain.Resolved, error) {
	role := strings.TrimPrefix(opts.Role, domain.DomainName+":")
	d := domain.New(opts.Table, opts.Domain, opts.Logger)
	ref := domain.PendingRef{
		Role:   role,
		Target: opts.Target,
		Title:  opts.Target,
		Module: opts.Module,
		Class:  opts.Class,
	}

	var matches []domain.Resolved
	if role == AnyRole {
		matches = d.ResolveAny(ref)
	} else {
		if err := domain.ValidateRole(role); err != nil {
			return nil, err
		}
		if r, ok := d.ResolveXRef("", ref); ok {
			r.Role = domain.DomainName + ":" + role
			matches = append(matches, r)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, domain.FullyQualifiedName(ref))
	}

	ext := opts.Ext
	if ext == "" {
		ext = ".md"
	}
	for _, m := range matches {
		fmt.Fprintf(opts.Writer, "%s\t%s\t%s\t%s\n", m.Role, m.Name, render.Href("", m.Doc, m.Anchor, ext), m.Tooltip)
	}
	return matches, nil
}
