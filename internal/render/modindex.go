package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/spachava753/luadomain/internal/domain"
)

//go:embed modindex.md.tmpl
var modIndexTemplate string

var modIndexTmpl = template.Must(template.New("modindex").Funcs(sprig.TxtFuncMap()).Parse(modIndexTemplate))

// ModIndexDoc is the document name of the module index page.
const ModIndexDoc = "lua-modindex"

type modIndexRow struct {
	Name      string
	Href      string
	Sub       bool
	Platform  string
	Qualifier string
	Synopsis  string
}

type modIndexGroup struct {
	Letter  string
	Entries []modIndexRow
}

// ModIndexMarkdown renders the module index as a Markdown page written at
// ModIndexDoc, linking to pages with extension ext.
func ModIndexMarkdown(idx domain.ModIndex, ext string) (string, error) {
	data := struct {
		Title  string
		Groups []modIndexGroup
	}{Title: "Lua Module Index"}

	for _, g := range idx.Groups {
		group := modIndexGroup{Letter: g.Letter}
		for _, e := range g.Entries {
			row := modIndexRow{
				Name:      e.Name,
				Sub:       e.Subtype == domain.SubtypeSub,
				Platform:  e.Platform,
				Qualifier: e.Qualifier,
				Synopsis:  strings.ReplaceAll(e.Synopsis, "|", `\|`),
			}
			if e.Doc != "" {
				row.Href = Href(ModIndexDoc, e.Doc, e.Anchor, ext)
			}
			group.Entries = append(group.Entries, row)
		}
		data.Groups = append(data.Groups, group)
	}

	var buf bytes.Buffer
	if err := modIndexTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute module index template: %w", err)
	}
	return buf.String(), nil
}
