package domain

import (
	"fmt"
	"strings"

	"github.com/spachava753/luadomain/internal/signature"
	"github.com/spachava753/luadomain/internal/symtab"
)

// moduleLevel describes functions and data.
type moduleLevel struct {
	object
}

func (d *moduleLevel) ParseSignature(sig string, opts Options, scope *Scope) (Description, error) {
	return d.handleSignature(sig, opts, scope, signaturePrefix(opts), d.kind == symtab.KindFunction)
}

func (d *moduleLevel) IndexEntry(desc Description) string {
	switch d.kind {
	case symtab.KindFunction:
		if desc.Module == "" {
			return fmt.Sprintf("%s() (built-in function)", desc.FullName)
		}
		return fmt.Sprintf("%s() (in module %s)", desc.FullName, desc.Module)
	case symtab.KindData:
		if desc.Module == "" {
			return fmt.Sprintf("%s (built-in variable)", desc.FullName)
		}
		return fmt.Sprintf("%s (in module %s)", desc.FullName, desc.Module)
	}
	return ""
}

// classMember describes methods, signals and attributes declared with
// lua:member.
type classMember struct {
	object
}

func (d *classMember) ParseSignature(sig string, opts Options, scope *Scope) (Description, error) {
	var prefix string
	switch d.kind {
	case symtab.KindStaticMethod:
		prefix = "static "
	case symtab.KindClassMethod:
		prefix = "classmethod "
	case symtab.KindSignal:
		prefix = "signal "
	default:
		prefix = signaturePrefix(opts)
	}
	needsArgs := strings.HasSuffix(string(d.kind), "method") || d.kind == symtab.KindSignal
	return d.handleSignature(sig, opts, scope, prefix, needsArgs)
}

func (d *classMember) IndexEntry(desc Description) string {
	var label string
	parens := "()"
	qualifyModule := d.cfg.AddModuleNames
	switch d.kind {
	case symtab.KindMethod, symtab.KindSignal:
		label = "method"
	case symtab.KindStaticMethod:
		label = "static method"
	case symtab.KindClassMethod:
		label = "class method"
		qualifyModule = true
	case symtab.KindAttribute:
		label = "attribute"
		parens = ""
	default:
		return ""
	}

	i := strings.LastIndex(desc.FullName, ".")
	if i < 0 {
		if desc.Module != "" {
			return fmt.Sprintf("%s%s (in module %s)", desc.FullName, parens, desc.Module)
		}
		return desc.FullName + parens
	}
	className, memberName := desc.FullName[:i], desc.FullName[i+1:]
	if desc.Module != "" && qualifyModule {
		return fmt.Sprintf("%s%s (%s.%s %s)", memberName, parens, desc.Module, className, label)
	}
	return fmt.Sprintf("%s%s (%s %s)", memberName, parens, className, label)
}

// classLike describes classes and exceptions, which open a namespace for
// their members.
type classLike struct {
	object
}

func (d *classLike) ParseSignature(sig string, opts Options, scope *Scope) (Description, error) {
	def, err := signature.ParseClass(sig)
	if err != nil {
		return Description{}, err
	}
	mod := moduleOf(opts, scope)

	var b strings.Builder
	b.WriteString(string(d.kind) + " ")
	if mod != "" {
		b.WriteString(mod + ".")
	}
	b.WriteString(def.Name)
	if len(def.Bases) > 0 {
		b.WriteString(": " + strings.Join(def.Bases, ", "))
	}

	return Description{
		Kind:     d.kind,
		Module:   mod,
		Class:    scope.Class,
		FullName: def.Name,
		Target:   qualify(mod, def.Name),
		Display:  b.String(),
		Name:     def.Name,
		Bases:    def.Bases,
	}, nil
}

func (d *classLike) IndexEntry(desc Description) string {
	switch d.kind {
	case symtab.KindClass:
		if desc.Module == "" {
			return fmt.Sprintf("%s (built-in class)", desc.FullName)
		}
		return fmt.Sprintf("%s (class in %s)", desc.FullName, desc.Module)
	case symtab.KindException:
		return desc.FullName
	}
	return ""
}

// classAttribute describes "name : type" attributes. It does not change the
// scope.
type classAttribute struct {
	object
}

func (d *classAttribute) ParseSignature(sig string, opts Options, scope *Scope) (Description, error) {
	def, err := signature.ParseAttribute(sig)
	if err != nil {
		return Description{}, err
	}
	mod := moduleOf(opts, scope)
	display := def.Name + ": " + def.Type
	if def.Type == "" {
		display = def.Name
	}
	return Description{
		Kind:     d.kind,
		Module:   mod,
		Class:    scope.Class,
		FullName: def.Name,
		Target:   qualify(mod, def.Name),
		Display:  display,
		Name:     def.Name,
		Type:     def.Type,
	}, nil
}

func (d *classAttribute) IndexEntry(desc Description) string {
	return desc.Target + " (attribute)"
}

func (d *classAttribute) EnterScope(Description, Options, *Scope) {}

func (d *classAttribute) ExitScope(Options, *Scope) {}

// alias describes "Alias = type" declarations. Aliases are global: their
// target never carries the module.
type alias struct {
	object
}

func (d *alias) ParseSignature(sig string, _ Options, scope *Scope) (Description, error) {
	def, err := signature.ParseAlias(sig)
	if err != nil {
		return Description{}, err
	}
	return Description{
		Kind:     d.kind,
		Module:   scope.Module,
		Class:    scope.Class,
		FullName: def.Name,
		Target:   def.Name,
		Display:  "alias " + def.Name + ": " + def.Type,
		Name:     def.Name,
		Type:     def.Type,
	}, nil
}

func (d *alias) IndexEntry(desc Description) string {
	return desc.FullName + " (alias)"
}

func (d *alias) EnterScope(Description, Options, *Scope) {}

func (d *alias) ExitScope(Options, *Scope) {}

// newDirectives builds the directive table, keyed by directive name.
func newDirectives(cfg *Config) map[string]Directive {
	obj := func(kind symtab.Kind, nest bool) object {
		return object{kind: kind, cfg: cfg, nest: nest}
	}
	return map[string]Directive{
		"function":     &moduleLevel{obj(symtab.KindFunction, false)},
		"data":         &moduleLevel{obj(symtab.KindData, false)},
		"class":        &classLike{obj(symtab.KindClass, true)},
		"exception":    &classLike{obj(symtab.KindException, true)},
		"alias":        &alias{obj(symtab.KindAlias, false)},
		"method":       &classMember{obj(symtab.KindMethod, false)},
		"classmethod":  &classMember{obj(symtab.KindClassMethod, false)},
		"staticmethod": &classMember{obj(symtab.KindStaticMethod, false)},
		"signal":       &classMember{obj(symtab.KindSignal, false)},
		"attribute":    &classAttribute{obj(symtab.KindAttribute, false)},
		"member":       &classMember{obj(symtab.KindAttribute, false)},
	}
}
