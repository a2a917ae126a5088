// Package symtab holds the cross-reference tables of the Lua documentation
// domain: every documented object keyed by its fully-qualified name, and every
// module with its metadata.
package symtab

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Kind is the kind of a documented object.
type Kind string

const (
	KindFunction     Kind = "function"
	KindData         Kind = "data"
	KindClass        Kind = "class"
	KindAlias        Kind = "alias"
	KindException    Kind = "exception"
	KindMethod       Kind = "method"
	KindClassMethod  Kind = "classmethod"
	KindStaticMethod Kind = "staticmethod"
	KindAttribute    Kind = "attribute"
	KindModule       Kind = "module"
	KindSignal       Kind = "signal"
)

// Kinds lists every object kind the table accepts.
var Kinds = []Kind{
	KindFunction, KindData, KindClass, KindAlias, KindException, KindMethod,
	KindClassMethod, KindStaticMethod, KindAttribute, KindModule, KindSignal,
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// ErrDuplicate is wrapped by DuplicateError.
var ErrDuplicate = errors.New("duplicate object description")

// DuplicateError reports an insert of a name that is already present. The
// table keeps the existing entry.
type DuplicateError struct {
	Name string
	// Doc is the document that attempted the insert
	Doc string
	// Existing is the document owning the kept entry
	Existing string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s of %s, other instance in %s, use :noindex: for one of them", ErrDuplicate, e.Name, e.Existing)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// Entry is the value stored for an object.
type Entry struct {
	Doc  string `json:"doc" yaml:"doc"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Object is a named Entry.
type Object struct {
	Name string `json:"name" yaml:"name"`
	Entry
}

// Module is the metadata recorded by a module directive.
type Module struct {
	Doc        string `json:"doc" yaml:"doc"`
	Synopsis   string `json:"synopsis,omitempty" yaml:"synopsis,omitempty"`
	Platform   string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// NamedModule is a Module together with its name.
type NamedModule struct {
	Name string `json:"name" yaml:"name"`
	Module
}

// Table is the symbol table. The zero value is not usable; call New.
// A Table is not safe for concurrent use.
type Table struct {
	objects map[string]Entry
	modules map[string]Module
}

// New returns an empty table.
func New() *Table {
	return &Table{
		objects: make(map[string]Entry),
		modules: make(map[string]Module),
	}
}

// Len returns the number of objects, modules included.
func (t *Table) Len() int {
	return len(t.objects)
}

// Insert records name as defined in doc. If name is already present the
// existing entry is kept and a *DuplicateError is returned.
func (t *Table) Insert(name string, kind Kind, doc string) error {
	if prev, ok := t.objects[name]; ok {
		return &DuplicateError{Name: name, Doc: doc, Existing: prev.Doc}
	}
	t.objects[name] = Entry{Doc: doc, Kind: kind}
	return nil
}

// AddModule records a module and a matching object of kind module, so that
// Lookup finds modules too. Duplicates are handled as in Insert.
func (t *Table) AddModule(name string, mod Module) error {
	if prev, ok := t.modules[name]; ok {
		return &DuplicateError{Name: name, Doc: mod.Doc, Existing: prev.Doc}
	}
	if err := t.Insert(name, KindModule, mod.Doc); err != nil {
		return err
	}
	t.modules[name] = mod
	return nil
}

// Get returns the entry stored under the exact name.
func (t *Table) Get(name string) (Entry, bool) {
	e, ok := t.objects[name]
	return e, ok
}

// GetModule returns the module stored under name.
func (t *Table) GetModule(name string) (Module, bool) {
	m, ok := t.modules[name]
	return m, ok
}

// RemoveAll drops every object and module defined in doc. Removing an
// unknown document is a no-op.
func (t *Table) RemoveAll(doc string) {
	maps.DeleteFunc(t.objects, func(_ string, e Entry) bool { return e.Doc == doc })
	maps.DeleteFunc(t.modules, func(_ string, m Module) bool { return m.Doc == doc })
}

// Merge copies the entries of other whose document is in docs. It is used to
// fold tables filled by parallel readers back into the main table. Names that
// are already present are reported as duplicates and left untouched.
func (t *Table) Merge(docs []string, other *Table) []error {
	var dups []error
	wanted := make(map[string]bool, len(docs))
	for _, d := range docs {
		wanted[d] = true
	}
	for _, m := range other.Modules() {
		if !wanted[m.Doc] {
			continue
		}
		if err := t.AddModule(m.Name, m.Module); err != nil {
			dups = append(dups, err)
		}
	}
	for _, o := range other.Objects() {
		if !wanted[o.Doc] || o.Kind == KindModule {
			continue
		}
		if err := t.Insert(o.Name, o.Kind, o.Doc); err != nil {
			dups = append(dups, err)
		}
	}
	return dups
}

// Documents returns the sorted set of documents that own at least one entry.
func (t *Table) Documents() []string {
	seen := make(map[string]bool)
	for _, e := range t.objects {
		seen[e.Doc] = true
	}
	for _, m := range t.modules {
		seen[m.Doc] = true
	}
	return slices.Sorted(maps.Keys(seen))
}

// Objects returns every object sorted by name, with modules first.
func (t *Table) Objects() []Object {
	objs := make([]Object, 0, len(t.objects))
	for name, e := range t.objects {
		objs = append(objs, Object{Name: name, Entry: e})
	}
	slices.SortFunc(objs, func(a, b Object) int {
		am, bm := a.Kind == KindModule, b.Kind == KindModule
		if am != bm {
			if am {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return objs
}

// Modules returns every module sorted case-insensitively by name.
func (t *Table) Modules() []NamedModule {
	mods := make([]NamedModule, 0, len(t.modules))
	for name, m := range t.modules {
		mods = append(mods, NamedModule{Name: name, Module: m})
	}
	slices.SortFunc(mods, func(a, b NamedModule) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			strings.Compare(a.Name, b.Name),
		)
	})
	return mods
}

// FullyQualifiedName joins the non-empty parts with dots.
func FullyQualifiedName(parts ...string) string {
	nonEmpty := slices.DeleteFunc(slices.Clone(parts), func(s string) bool { return s == "" })
	return strings.Join(nonEmpty, ".")
}
