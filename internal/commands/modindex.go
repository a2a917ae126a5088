package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/symtab"
)

// ModIndexOptions contains parameters for printing the module index
type ModIndexOptions struct {
	Table  *symtab.Table
	Domain domain.Config
	// Docs restricts the index to modules defined in these documents.
	Docs   []string
	Format string
	Writer io.Writer
}

// ModIndex prints the module index grouped by first letter.
func ModIndex(ctx context.Context, opts ModIndexOptions) (domain.ModIndex, error) {
	idx := domain.New(opts.Table, opts.Domain, nil).ModuleIndex(opts.Docs)
	err := writeListing(opts.Writer, opts.Format, idx, func(tw *tabwriter.Writer) {
		for _, g := range idx.Groups {
			fmt.Fprintf(tw, "%s\n", strings.ToUpper(g.Letter))
			for _, e := range g.Entries {
				name := e.Name
				if e.Subtype == domain.SubtypeSub {
					name = "  " + name
				}
				var notes []string
				if e.Platform != "" {
					notes = append(notes, "("+e.Platform+")")
				}
				if e.Qualifier != "" {
					notes = append(notes, e.Qualifier)
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", name, e.Synopsis, strings.Join(notes, " "))
			}
		}
	})
	return idx, err
}
