// Package render turns processed documents into Markdown reference pages,
// and Markdown into HTML or styled terminal output.
package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/stoewer/go-strcase"

	"github.com/spachava753/luadomain/internal/domain"
	"github.com/spachava753/luadomain/internal/rst"
	"github.com/spachava753/luadomain/internal/symtab"
)

//go:embed page.md.tmpl
var pageTemplate string

// Linker resolves a reference to its link text and destination. ok is false
// for references that do not resolve; they are rendered as literal text.
type Linker func(ref domain.PendingRef) (text, href string, ok bool)

// Page is the data a reference page is rendered from.
type Page struct {
	Doc     string
	Title   string
	Body    []string
	Entries []Entry
}

// Entry is one declaration on a page.
type Entry struct {
	Level      int
	Kind       symtab.Kind
	Anchors    []string
	Signatures []string
	Body       []string
	Deprecated bool
	Synopsis   string
	Platform   string
	Children   []Entry
}

// NewPage builds the page of res. Role references in paragraphs are
// replaced with Markdown links using link.
func NewPage(res *domain.DocResult, link Linker) Page {
	p := Page{Doc: res.Doc, Title: res.Doc}
	for _, d := range res.Declarations {
		if d.Kind == symtab.KindModule && p.Title == res.Doc {
			p.Title = d.Signatures[0].Name
		}
	}
	p.Body = paragraphs(res.Body, res.Refs, nil, link)
	p.Entries = entries(res.Declarations, res.Refs, link, 0)
	return p
}

func entries(decls []domain.Declaration, all []domain.PendingRef, link Linker, level int) []Entry {
	out := make([]Entry, 0, len(decls))
	for _, d := range decls {
		e := Entry{
			Level:      level,
			Kind:       d.Kind,
			Anchors:    d.Anchors,
			Body:       paragraphs(d.Body, d.Refs, all, link),
			Deprecated: d.Deprecated,
			Synopsis:   d.Options["synopsis"],
			Platform:   d.Options["platform"],
			Children:   entries(d.Children, all, link, level+1),
		}
		for _, s := range d.Signatures {
			e.Signatures = append(e.Signatures, s.Display)
		}
		out = append(out, e)
	}
	return out
}

// paragraphs rewrites the role references of body. A reference is matched
// to the first pending reference with the same role and text, looking in
// local before all, so that it carries the scope it was written in.
func paragraphs(body []string, local, all []domain.PendingRef, link Linker) []string {
	out := make([]string, len(body))
	for i, para := range body {
		out[i] = rst.ReplaceRefs(para, func(r rst.Ref) string {
			ref, ok := findRef(r, local)
			if !ok {
				ref, ok = findRef(r, all)
			}
			if !ok {
				ref = domain.PendingRef{Role: r.Role, Target: r.Target, Title: r.Title, Explicit: r.Explicit}
			}
			if link != nil {
				if text, href, ok := link(ref); ok {
					return fmt.Sprintf("[%s](%s)", escapeLinkText(text), href)
				}
			}
			return "`" + r.Title + "`"
		})
	}
	return out
}

func findRef(r rst.Ref, refs []domain.PendingRef) (domain.PendingRef, bool) {
	for _, ref := range refs {
		if ref.Role == r.Role && ref.Target == r.Target && ref.Title == r.Title && ref.Explicit == r.Explicit {
			return ref, true
		}
	}
	return domain.PendingRef{}, false
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

var pageTmpl = template.Must(template.New("page").Funcs(sprig.TxtFuncMap()).Parse(pageTemplate))

// Markdown renders p as a Markdown page.
func Markdown(p Page) (string, error) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to execute page template: %w", err)
	}
	return buf.String(), nil
}

// Slug returns the output path of a document without extension: every path
// segment in kebab case.
func Slug(doc string) string {
	segments := strings.Split(path.Clean(strings.ReplaceAll(doc, `\`, "/")), "/")
	for i, s := range segments {
		if s == "." || s == ".." {
			continue
		}
		segments[i] = strcase.KebabCase(strings.NewReplacer(".", "-", " ", "-").Replace(s))
	}
	return strings.Join(segments, "/")
}

// Href returns the link from the page of doc fromDoc to anchor in the page of
// toDoc, with ext as the page file extension.
func Href(fromDoc, toDoc, anchor, ext string) string {
	target := ""
	if fromDoc != toDoc {
		from := path.Dir(Slug(fromDoc))
		to := Slug(toDoc) + ext
		target = relative(from, to)
	}
	if anchor != "" {
		target += "#" + anchor
	}
	return target
}

func relative(fromDir, to string) string {
	if fromDir == "." {
		return to
	}
	from := strings.Split(fromDir, "/")
	parts := strings.Split(to, "/")
	i := 0
	for i < len(from) && i < len(parts)-1 && from[i] == parts[i] {
		i++
	}
	rel := strings.Repeat("../", len(from)-i)
	return rel + strings.Join(parts[i:], "/")
}
