// Package signature parses the one-line declarations used by Lua documentation
// directives, e.g. "Class.method(arg1, [arg2]) -> ReturnType".
package signature

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSignature is wrapped by every ParseError.
var ErrInvalidSignature = errors.New("invalid signature")

// ParseError reports a declaration line that does not match its grammar.
type ParseError struct {
	// Grammar names the declaration form that was expected
	Grammar string
	// Text is the offending input
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q does not match the %s grammar", ErrInvalidSignature, e.Text, e.Grammar)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidSignature
}

var (
	// [qualifier.]*name[(args)[-> return]]
	sigRe      = regexp.MustCompile(`^([\w.]*\.)?(\w+)\s*(?:\((.*)\)(?:\s*->\s*(.*))?)?$`)
	classDefRe = regexp.MustCompile(`^\s*([\w.]*)(?:\s*:\s*(.*))?`)
	baseNameRe = regexp.MustCompile(`[\w.]+`)
	aliasDefRe = regexp.MustCompile(`^ *([\w.]*) *= *(.*)$`)
	attrDefRe  = classDefRe
)

// Signature is the parsed form of a callable or data declaration.
type Signature struct {
	// Prefix is the explicit qualifier including the trailing dot ("Class."),
	// empty when the declaration is unqualified.
	Prefix string
	// Name is the bare symbol name.
	Name string
	// Args is the raw text between the parentheses. HasArgs distinguishes
	// "f()" from "f".
	Args    string
	HasArgs bool
	// Return is the return annotation after "->", if any.
	Return string
	// Params is Args split into parameters. It is empty when HasArgs is false.
	Params ParamList
}

// Parse parses sig against the [qualifier.]*name[(args)[-> return]] grammar.
func Parse(sig string) (Signature, error) {
	m := sigRe.FindStringSubmatchIndex(sig)
	if m == nil {
		return Signature{}, &ParseError{Grammar: "signature", Text: sig}
	}

	group := func(i int) (string, bool) {
		if m[2*i] < 0 {
			return "", false
		}
		return sig[m[2*i]:m[2*i+1]], true
	}

	s := Signature{}
	s.Prefix, _ = group(1)
	s.Name, _ = group(2)
	s.Args, s.HasArgs = group(3)
	s.Return, _ = group(4)
	if s.HasArgs && s.Args != "" {
		s.Params = ParseArgs(s.Args)
	}
	return s, nil
}

// Qualifier returns the prefix without its trailing dot.
func (s Signature) Qualifier() string {
	return strings.TrimSuffix(s.Prefix, ".")
}

// FullName returns Prefix+Name.
func (s Signature) FullName() string {
	return s.Prefix + s.Name
}

// ClassDef is a parsed "Name : Base1, Base2" class declaration.
type ClassDef struct {
	Name  string
	Bases []string
}

// ParseClass parses a class or exception declaration.
func ParseClass(sig string) (ClassDef, error) {
	m := classDefRe.FindStringSubmatch(sig)
	if m == nil || m[1] == "" {
		return ClassDef{}, &ParseError{Grammar: "class", Text: sig}
	}
	def := ClassDef{Name: m[1]}
	if m[2] != "" {
		def.Bases = baseNameRe.FindAllString(m[2], -1)
	}
	return def, nil
}

// AttributeDef is a parsed "name : type" attribute declaration.
type AttributeDef struct {
	Name string
	Type string
}

// ParseAttribute parses an attribute declaration. The type part is optional.
func ParseAttribute(sig string) (AttributeDef, error) {
	m := attrDefRe.FindStringSubmatch(sig)
	if m == nil || m[1] == "" {
		return AttributeDef{}, &ParseError{Grammar: "attribute", Text: sig}
	}
	return AttributeDef{Name: m[1], Type: strings.TrimSpace(m[2])}, nil
}

// AliasDef is a parsed "Alias = type" declaration.
type AliasDef struct {
	Name string
	Type string
}

// ParseAlias parses an alias declaration such as "Bar = table<string, number>".
func ParseAlias(sig string) (AliasDef, error) {
	m := aliasDefRe.FindStringSubmatch(sig)
	if m == nil || m[1] == "" {
		return AliasDef{}, &ParseError{Grammar: "alias", Text: sig}
	}
	return AliasDef{Name: m[1], Type: m[2]}, nil
}
