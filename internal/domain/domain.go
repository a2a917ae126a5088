// Package domain implements the Lua documentation domain on top of the symbol
// table: it turns parsed directive blocks into declarations, registers their
// targets, builds index entries and resolves cross-references.
package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spachava753/luadomain/internal/rst"
	"github.com/spachava753/luadomain/internal/symtab"
)

// Config holds the domain settings.
type Config struct {
	// AddModuleNames prefixes module level names with their module in
	// signatures and qualifies member index entries with the module.
	AddModuleNames bool
	// AddFunctionParentheses appends "()" to the text of func, meth and
	// sgnl references.
	AddFunctionParentheses bool
	// ModIndexCommonPrefix lists module name prefixes ignored when sorting
	// the module index.
	ModIndexCommonPrefix []string
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{AddModuleNames: true, AddFunctionParentheses: true}
}

// Domain processes documents into a symbol table.
type Domain struct {
	table      *symtab.Table
	cfg        Config
	directives map[string]Directive
	logger     *slog.Logger
}

// New returns a Domain writing into table. A nil logger discards log output.
func New(table *symtab.Table, cfg Config, logger *slog.Logger) *Domain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Domain{table: table, cfg: cfg, logger: logger}
	d.directives = newDirectives(&d.cfg)
	return d
}

// Table returns the symbol table the domain writes into.
func (d *Domain) Table() *symtab.Table {
	return d.table
}

// Config returns the domain settings.
func (d *Domain) Config() Config {
	return d.cfg
}

// Declaration is one processed directive.
type Declaration struct {
	Kind symtab.Kind
	// Signatures holds one description per signature line. Lines that failed
	// to parse keep their raw text as Display and have no Target.
	Signatures []Description
	// Anchors are the ids registered in the document, in signature order.
	Anchors []string
	Options Options
	Body    []string
	// Refs are the references found in Body.
	Refs       []PendingRef
	Children   []Declaration
	Line       int
	Deprecated bool
}

// IndexEntry is one general index entry.
type IndexEntry struct {
	Text   string
	Anchor string
	Doc    string
}

// PendingRef is a cross-reference together with the scope it was written in.
type PendingRef struct {
	Role     string
	Target   string
	Title    string
	Explicit bool
	Module   string
	Class    string
	Line     int
}

// Warning is a non-fatal problem found while processing a document.
type Warning struct {
	Doc  string
	Line int
	Err  error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s:%d: %v", w.Doc, w.Line, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// DocResult is everything the domain produced for one document.
type DocResult struct {
	Doc          string
	Declarations []Declaration
	Index        []IndexEntry
	Refs         []PendingRef
	Body         []string
	Warnings     []Warning
}

// Process reads doc into the table. Entries previously attributed to the
// document are removed first, so processing the same document twice yields
// the same table.
func (d *Domain) Process(doc *rst.Document) *DocResult {
	d.table.RemoveAll(doc.Name)

	p := &processor{
		Domain: d,
		res:    &DocResult{Doc: doc.Name, Body: doc.Body},
		ids:    make(map[string]bool),
	}

	// blocks and refs are interleaved by line so that module directives
	// apply to the references that follow them
	refs := doc.Refs
	for _, b := range doc.Blocks {
		for len(refs) > 0 && refs[0].Line < b.Line {
			p.addRef(refs[0])
			refs = refs[1:]
		}
		if decl, ok := p.block(b); ok {
			p.res.Declarations = append(p.res.Declarations, decl)
		}
	}
	for _, r := range refs {
		p.addRef(r)
	}
	return p.res
}

type processor struct {
	*Domain
	res   *DocResult
	scope Scope
	// ids are the anchors already present in the document
	ids map[string]bool
}

func (p *processor) warn(line int, err error) {
	p.res.Warnings = append(p.res.Warnings, Warning{Doc: p.res.Doc, Line: line, Err: err})
	p.logger.Warn(err.Error(), slog.String("doc", p.res.Doc), slog.Int("line", line))
}

func (p *processor) addRef(r rst.Ref) PendingRef {
	ref := PendingRef{
		Role:     r.Role,
		Target:   r.Target,
		Title:    r.Title,
		Explicit: r.Explicit,
		Module:   p.scope.Module,
		Class:    p.scope.Class,
		Line:     r.Line,
	}
	p.res.Refs = append(p.res.Refs, ref)
	return ref
}

// block processes one directive. ok is false for directives that produce no
// declaration, such as currentmodule.
func (p *processor) block(b rst.Block) (Declaration, bool) {
	opts := Options(b.Options)
	switch b.Kind {
	case "module":
		return p.module(b, opts)
	case "currentmodule":
		name := ""
		if len(b.Signatures) > 0 {
			name = strings.TrimSpace(b.Signatures[0])
		}
		if name == "None" {
			name = ""
		}
		p.scope.SetModule(name)
		return Declaration{}, false
	}

	dir, ok := p.directives[b.Kind]
	if !ok {
		p.warn(b.Line, fmt.Errorf("unknown directive type %q", DomainName+":"+b.Kind))
		return Declaration{}, false
	}

	decl := Declaration{
		Kind:       symtab.Kind(b.Kind),
		Options:    opts,
		Body:       b.Body,
		Line:       b.Line,
		Deprecated: opts.Has("deprecated"),
	}

	var last Description
	for _, sig := range b.Signatures {
		desc, err := dir.ParseSignature(sig, opts, &p.scope)
		if err != nil {
			p.warn(b.Line, err)
			decl.Signatures = append(decl.Signatures, Description{Kind: decl.Kind, Display: sig})
			continue
		}
		decl.Signatures = append(decl.Signatures, desc)
		last = desc
		if !opts.Has("noindex") {
			if anchor, ok := p.register(desc, dir, b.Line); ok {
				decl.Anchors = append(decl.Anchors, anchor)
			}
		}
	}

	dir.EnterScope(last, opts, &p.scope)
	for _, r := range b.Refs {
		decl.Refs = append(decl.Refs, p.addRef(r))
	}
	for _, child := range b.Children {
		if cd, ok := p.block(child); ok {
			decl.Children = append(decl.Children, cd)
		}
	}
	dir.ExitScope(opts, &p.scope)
	return decl, true
}

// register notes desc's target in the document and the table, and adds its
// index entry. It reports the anchor when one was added to the document.
func (p *processor) register(desc Description, dir Directive, line int) (string, bool) {
	target := desc.Target
	added := false
	if !p.ids[target] {
		p.ids[target] = true
		added = true
		if err := p.table.Insert(target, desc.Kind, p.res.Doc); err != nil {
			p.warn(line, err)
		}
	}
	if text := dir.IndexEntry(desc); text != "" {
		p.res.Index = append(p.res.Index, IndexEntry{Text: text, Anchor: target, Doc: p.res.Doc})
	}
	return target, added
}

func (p *processor) module(b rst.Block, opts Options) (Declaration, bool) {
	if len(b.Signatures) == 0 {
		p.warn(b.Line, errors.New("module directive requires a module name"))
		return Declaration{}, false
	}
	name := strings.TrimSpace(b.Signatures[0])
	p.scope.SetModule(name)

	decl := Declaration{
		Kind:       symtab.KindModule,
		Options:    opts,
		Body:       b.Body,
		Line:       b.Line,
		Deprecated: opts.Has("deprecated"),
		Signatures: []Description{{
			Kind:     symtab.KindModule,
			Module:   name,
			FullName: name,
			Target:   name,
			Display:  name,
			Name:     name,
		}},
	}
	for _, r := range b.Refs {
		decl.Refs = append(decl.Refs, p.addRef(r))
	}
	if opts.Has("noindex") {
		return decl, true
	}

	err := p.table.AddModule(name, symtab.Module{
		Doc:        p.res.Doc,
		Synopsis:   opts["synopsis"],
		Platform:   opts["platform"],
		Deprecated: opts.Has("deprecated"),
	})
	if err != nil {
		p.warn(b.Line, err)
	}
	anchor := ModuleAnchor(name)
	p.ids[anchor] = true
	decl.Anchors = []string{anchor}
	p.res.Index = append(p.res.Index, IndexEntry{
		Text:   fmt.Sprintf("%s (module)", name),
		Anchor: anchor,
		Doc:    p.res.Doc,
	})
	return decl, true
}

// ModuleAnchor returns the document anchor of a module.
func ModuleAnchor(name string) string {
	return "module-" + name
}

// Objects lists every registered object as (name, display name, kind, doc,
// anchor, priority) records. Modules come first with priority 0.
func (d *Domain) Objects() []ObjectRecord {
	var out []ObjectRecord
	for _, m := range d.table.Modules() {
		out = append(out, ObjectRecord{
			Name:     m.Name,
			DispName: m.Name,
			Kind:     symtab.KindModule,
			Doc:      m.Doc,
			Anchor:   ModuleAnchor(m.Name),
			Priority: 0,
		})
	}
	for _, o := range d.table.Objects() {
		if o.Kind == symtab.KindModule {
			continue
		}
		out = append(out, ObjectRecord{
			Name:     o.Name,
			DispName: o.Name,
			Kind:     o.Kind,
			Doc:      o.Doc,
			Anchor:   o.Name,
			Priority: 1,
		})
	}
	return out
}

// ObjectRecord describes one object for search indexes and inventories.
type ObjectRecord struct {
	Name     string      `json:"name" yaml:"name"`
	DispName string      `json:"dispname" yaml:"dispname"`
	Kind     symtab.Kind `json:"kind" yaml:"kind"`
	Doc      string      `json:"doc" yaml:"doc"`
	Anchor   string      `json:"anchor" yaml:"anchor"`
	Priority int         `json:"priority" yaml:"priority"`
}

// Walk calls fn for every declaration of decls, depth first.
func Walk(decls []Declaration, fn func(Declaration)) {
	for _, decl := range decls {
		fn(decl)
		Walk(decl.Children, fn)
	}
}

// Warnings joins the warnings of results into one error, or nil.
func Warnings(results ...*DocResult) error {
	var errs []error
	for _, r := range results {
		for _, w := range r.Warnings {
			errs = append(errs, w)
		}
	}
	return errors.Join(errs...)
}

// DirectiveNames returns the directive names the domain understands.
func DirectiveNames() []string {
	names := []string{"module", "currentmodule"}
	for name := range newDirectives(&Config{}) {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DomainName is the prefix of directives and roles.
const DomainName = rst.DomainName
