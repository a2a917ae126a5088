package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/symtab"
)

// Output formats of the listing commands.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ObjectsOptions contains parameters for listing the documented objects
type ObjectsOptions struct {
	Table  *symtab.Table
	Domain domain.Config
	// Kind keeps only objects of this kind when set.
	Kind   symtab.Kind
	Format string
	Writer io.Writer
}

// Objects prints every documented object, modules first.
func Objects(ctx context.Context, opts ObjectsOptions) error {
	if opts.Kind != "" && !opts.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", opts.Kind)
	}
	records := domain.New(opts.Table, opts.Domain, nil).Objects()
	if opts.Kind != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Kind == opts.Kind {
				filtered = append(filtered, r)
			}
		}
		records = filtered
	}
	return writeListing(opts.Writer, opts.Format, records, func(tw *tabwriter.Writer) {
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s#%s\n", r.Name, r.Kind, r.Doc, r.Anchor)
		}
	})
}

// writeListing encodes v in format, using text for the text format.
func writeListing(w io.Writer, format string, v any, text func(tw *tabwriter.Writer)) error {
	switch format {
	case "", OutputText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		text(tw)
		return tw.Flush()
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid output format %q: expected %s, %s or %s", format, OutputText, OutputJSON, OutputYAML)
	}
}
