package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spachava753/luadomain/internal/symtab"
)

// Roles lists the cross-reference roles. The value reports whether the role
// normalizes trailing parentheses.
var Roles = map[string]bool{
	"data":  false,
	"exc":   false,
	"func":  true,
	"class": false,
	"alias": false,
	"const": false,
	"attr":  false,
	"meth":  true,
	"mod":   false,
	"obj":   false,
	"sgnl":  true,
}

// ErrUnknownRole is returned for roles outside Roles.
var ErrUnknownRole = errors.New("unknown role")

// ValidateRole returns an error wrapping ErrUnknownRole when role is not a
// role of the domain.
func ValidateRole(role string) error {
	if _, ok := Roles[role]; !ok {
		return fmt.Errorf("%w %q", ErrUnknownRole, role)
	}
	return nil
}

// RoleFor returns the primary role used to reference objects of kind k.
func RoleFor(k symtab.Kind) string {
	switch k {
	case symtab.KindFunction:
		return "func"
	case symtab.KindData:
		return "data"
	case symtab.KindClass:
		return "class"
	case symtab.KindAlias:
		return "alias"
	case symtab.KindException:
		return "exc"
	case symtab.KindMethod, symtab.KindClassMethod, symtab.KindStaticMethod:
		return "meth"
	case symtab.KindAttribute:
		return "attr"
	case symtab.KindModule:
		return "mod"
	case symtab.KindSignal:
		return "sgnl"
	}
	return "obj"
}

// Link is a processed reference: the text to display and the target to look
// up.
type Link struct {
	Title  string
	Target string
	// Specific is set for targets written with a leading dot, which are
	// searched by suffix.
	Specific bool
}

// ProcessLink normalizes a reference as written in role. Without an explicit
// title, a leading "~" shortens the title to its last component and a
// leading "." is dropped from the title.
func (d *Domain) ProcessLink(role, title, target string, explicit bool) Link {
	if Roles[role] {
		if !explicit {
			title = strings.TrimSuffix(title, "()")
			if d.cfg.AddFunctionParentheses {
				title += "()"
			}
		}
		target = strings.TrimSuffix(target, "()")
	}
	if !explicit {
		title = strings.TrimLeft(title, ".")
		target = strings.TrimLeft(target, "~")
		if rest, ok := strings.CutPrefix(title, "~"); ok {
			title = rest
			if dot := strings.LastIndex(title, "."); dot >= 0 {
				title = title[dot+1:]
			}
		}
	}
	link := Link{Title: title, Target: target}
	if rest, ok := strings.CutPrefix(target, "."); ok {
		link.Target = rest
		link.Specific = true
	}
	return link
}

// Resolved is a resolved cross-reference.
type Resolved struct {
	// Role is the fully qualified role, such as "lua:meth". It is only set by
	// ResolveAny.
	Role string
	Name string
	Kind symtab.Kind
	Doc  string
	// Anchor is the id within Doc.
	Anchor string
	// Text is the link text.
	Text string
	// Tooltip describes the target.
	Tooltip string
}

// ResolveXRef resolves ref, which was found in doc. When several objects
// match, the first is used and the ambiguity is logged.
func (d *Domain) ResolveXRef(doc string, ref PendingRef) (Resolved, bool) {
	link := d.ProcessLink(ref.Role, ref.Title, ref.Target, ref.Explicit)
	mode := symtab.ModeExact
	if link.Specific {
		mode = symtab.ModeAny
	}
	matches := d.table.Lookup(symtab.Query{
		Module: ref.Module,
		Class:  ref.Class,
		Name:   link.Target,
		Role:   ref.Role,
		Mode:   mode,
	})
	if len(matches) == 0 {
		return Resolved{}, false
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		d.logger.Warn(fmt.Sprintf("more than one target found for cross-reference %q: %s", link.Target, strings.Join(names, ", ")),
			slog.String("doc", doc), slog.Int("line", ref.Line))
	}
	return d.resolved(matches[0], link.Title), true
}

// ResolveAny resolves target for the any role: every object whose name ends
// with target is returned, tagged with the role that references it.
func (d *Domain) ResolveAny(ref PendingRef) []Resolved {
	link := d.ProcessLink("obj", ref.Title, ref.Target, ref.Explicit)
	matches := d.table.Lookup(symtab.Query{
		Module: ref.Module,
		Class:  ref.Class,
		Name:   link.Target,
		Mode:   symtab.ModeAny,
	})
	out := make([]Resolved, 0, len(matches))
	for _, m := range matches {
		r := d.resolved(m, link.Title)
		r.Role = DomainName + ":" + RoleFor(m.Kind)
		out = append(out, r)
	}
	return out
}

func (d *Domain) resolved(m symtab.Match, text string) Resolved {
	if m.Kind == symtab.KindModule {
		if r, ok := d.moduleRef(m.Name, text); ok {
			return r
		}
	}
	return Resolved{
		Name:    m.Name,
		Kind:    m.Kind,
		Doc:     m.Doc,
		Anchor:  m.Name,
		Text:    text,
		Tooltip: m.Name,
	}
}

// moduleRef links to a module anchor. The tooltip carries the synopsis,
// deprecation and platform.
func (d *Domain) moduleRef(name, text string) (Resolved, bool) {
	mod, ok := d.table.GetModule(name)
	if !ok {
		return Resolved{}, false
	}
	return Resolved{
		Name:    name,
		Kind:    symtab.KindModule,
		Doc:     mod.Doc,
		Anchor:  ModuleAnchor(name),
		Text:    text,
		Tooltip: ModuleTitle(name, mod),
	}, true
}

// ModuleTitle describes a module as "name: synopsis (deprecated) (platform)",
// leaving out the parts that are not set.
func ModuleTitle(name string, mod symtab.Module) string {
	title := name
	if mod.Synopsis != "" {
		title += ": " + mod.Synopsis
	}
	if mod.Deprecated {
		title += " (deprecated)"
	}
	if mod.Platform != "" {
		title += " (" + mod.Platform + ")"
	}
	return title
}

// FullyQualifiedName returns the name a reference written in scope refers to
// before lookup.
func FullyQualifiedName(ref PendingRef) string {
	if ref.Target == "" {
		return ""
	}
	return symtab.FullyQualifiedName(ref.Module, ref.Class, ref.Target)
}
