package symtab

import (
	"slices"
	"strings"
)

// Mode selects how Lookup searches.
type Mode int

const (
	// ModeExact walks the qualification fallbacks and returns at most one
	// match.
	ModeExact Mode = iota
	// ModeAny also returns every object whose name ends with ".<name>". It
	// backs the :any: role and may yield several matches.
	ModeAny
)

// objectPrefix is the conventional base class whose methods are reachable by
// their bare name from func and meth references.
const objectPrefix = "object."

// Query describes a reference to resolve.
type Query struct {
	// Module and Class are the scope the reference was written in.
	Module string
	Class  string
	// Name is the reference target. A trailing "()" is ignored.
	Name string
	// Role is the short role name ("func", "meth", "mod", ...). Empty means
	// no role hint.
	Role string
	Mode Mode
}

// Match is one lookup result.
type Match struct {
	Name string
	Entry
}

// Lookup resolves q against the table. It tries, in order: the exact name,
// the module-qualified name, the class-qualified name, the module and class
// qualified name, and for func/meth roles the name on the object base class.
// Module references only match exactly.
func (t *Table) Lookup(q Query) []Match {
	name := strings.TrimSuffix(q.Name, "()")
	if name == "" {
		return nil
	}

	var matches []Match
	if found, ok := t.lookupExact(q, name); ok {
		matches = append(matches, Match{Name: found, Entry: t.objects[found]})
	}
	if q.Mode == ModeExact || q.Role == "mod" {
		return matches
	}

	suffix := "." + name
	var fuzzy []Match
	for full, e := range t.objects {
		if strings.HasSuffix(full, suffix) && (len(matches) == 0 || matches[0].Name != full) {
			fuzzy = append(fuzzy, Match{Name: full, Entry: e})
		}
	}
	slices.SortFunc(fuzzy, func(a, b Match) int { return strings.Compare(a.Name, b.Name) })
	return append(matches, fuzzy...)
}

func (t *Table) lookupExact(q Query, name string) (string, bool) {
	has := func(n string) bool {
		_, ok := t.objects[n]
		return ok
	}

	if has(name) {
		return name, true
	}
	if q.Role == "mod" {
		return "", false
	}

	candidates := make([]string, 0, 3)
	if q.Module != "" {
		candidates = append(candidates, q.Module+"."+name)
	}
	if q.Class != "" {
		candidates = append(candidates, q.Class+"."+name)
	}
	if q.Module != "" && q.Class != "" {
		candidates = append(candidates, q.Module+"."+q.Class+"."+name)
	}
	if (q.Role == "func" || q.Role == "meth") && !strings.Contains(name, ".") {
		candidates = append(candidates, objectPrefix+name)
	}
	for _, c := range candidates {
		if has(c) {
			return c, true
		}
	}
	return "", false
}
