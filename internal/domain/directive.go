package domain

import (
	"strings"

	"github.com/spachava753/luadomain/internal/signature"
	"github.com/spachava753/luadomain/internal/symtab"
)

// Options are the directive options. Flag options map to "".
type Options map[string]string

// Has reports whether the option was given.
func (o Options) Has(name string) bool {
	_, ok := o[name]
	return ok
}

// Description is the outcome of parsing one signature line: the display
// parts of the declaration and the names it registers.
type Description struct {
	Kind symtab.Kind
	// Module and Class are the context the declaration was made in.
	Module string
	Class  string
	// FullName is the name within the module, class path included.
	FullName string
	// Prefix is the explicit qualifier that remains after the current class
	// name has been stripped. Members use it as their class scope.
	Prefix string
	// Target is the registered cross-reference name.
	Target string
	// Display is the rendered signature line.
	Display string
	Name    string
	Params  *signature.ParamList
	Return  string
	// Type is the attribute type or the aliased type.
	Type  string
	Bases []string
}

// Directive is the behaviour of one family of declarations.
type Directive interface {
	// ParseSignature parses one signature line in the given scope.
	ParseSignature(sig string, opts Options, scope *Scope) (Description, error)
	// IndexEntry returns the general index text for desc, or "" for none.
	IndexEntry(desc Description) string
	// EnterScope is called before the declaration's content with the last
	// successfully parsed description, which is zero when none parsed.
	EnterScope(last Description, opts Options, scope *Scope)
	// ExitScope is called after the content.
	ExitScope(opts Options, scope *Scope)
}

// object carries what the callable and data declarations share.
type object struct {
	kind symtab.Kind
	cfg  *Config
	// nest makes the declaration a namespace for nested declarations
	nest bool
}

// signaturePrefix joins the modifier flags given as options.
func signaturePrefix(opts Options) string {
	var parts []string
	for _, flag := range []string{"virtual", "protected", "abstract"} {
		if opts.Has(flag) {
			parts = append(parts, flag)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, " ") + " "
}

func moduleOf(opts Options, scope *Scope) string {
	if mod, ok := opts["module"]; ok {
		return mod
	}
	return scope.Module
}

func qualify(mod, name string) string {
	if mod == "" {
		return name
	}
	return mod + "." + name
}

// handleSignature implements the qualification rules shared by functions,
// data and class members. Inside a class the class name is stripped from
// an explicit prefix, or prepended when no prefix is given. Outside a class
// the prefix itself becomes the class.
func (o *object) handleSignature(sig string, opts Options, scope *Scope, prefix string, needsArgList bool) (Description, error) {
	parsed, err := signature.Parse(sig)
	if err != nil {
		return Description{}, err
	}

	namePrefix := parsed.Prefix
	name := parsed.Name
	mod := moduleOf(opts, scope)
	className := scope.Class

	var fullName string
	addModule := false
	switch {
	case className != "" && namePrefix != "" && strings.HasPrefix(namePrefix, className):
		fullName = namePrefix + name
		namePrefix = strings.TrimLeft(namePrefix[len(className):], ".")
	case className != "" && namePrefix != "":
		fullName = className + "." + namePrefix + name
	case className != "":
		fullName = className + "." + name
	default:
		addModule = true
		if namePrefix != "" {
			className = strings.TrimRight(namePrefix, ".")
			fullName = namePrefix + name
		} else {
			className = ""
			fullName = name
		}
	}

	d := Description{
		Kind:     o.kind,
		Module:   mod,
		Class:    className,
		FullName: fullName,
		Prefix:   namePrefix,
		Target:   qualify(mod, fullName),
		Name:     name,
		Return:   parsed.Return,
	}

	var b strings.Builder
	b.WriteString(prefix)
	switch {
	case namePrefix != "":
		b.WriteString(namePrefix)
	case addModule && o.cfg.AddModuleNames && mod != "":
		b.WriteString(mod + ".")
	}
	b.WriteString(name)

	switch {
	case parsed.Args != "":
		params := parsed.Params
		d.Params = &params
	case needsArgList:
		d.Params = &signature.ParamList{}
	}
	if d.Params != nil {
		b.WriteString("(" + d.Params.String() + ")")
	}
	if d.Return != "" {
		b.WriteString(" -> " + d.Return)
	}
	if ann := opts["annotation"]; ann != "" {
		b.WriteString(" " + ann)
	}
	d.Display = b.String()
	return d, nil
}

// EnterScope pushes the declaration as the current class when it nests,
// or uses its explicit prefix as the class for a non nesting declaration.
func (o *object) EnterScope(last Description, opts Options, scope *Scope) {
	prefix := ""
	if last.FullName != "" {
		if o.nest {
			prefix = last.FullName
		} else if last.Prefix != "" {
			prefix = strings.Trim(last.Prefix, ".")
		}
	}
	scope.enter(prefix, o.nest, opts)
}

// ExitScope restores the scope saved by EnterScope.
func (o *object) ExitScope(opts Options, scope *Scope) {
	scope.exit(o.nest, opts)
}
