package signature

import "strings"

// Param is one entry of an argument list: either a named parameter or an
// optional group written in brackets.
type Param struct {
	Name  string
	Group *ParamList
}

// IsGroup reports whether p is an optional "[...]" group.
func (p *Param) IsGroup() bool {
	return p.Group != nil
}

// ParamList is a parsed argument list.
type ParamList struct {
	Params []*Param
	// Opaque is set when the bracket nesting was malformed and the whole raw
	// argument text was kept as a single parameter.
	Opaque bool
}

// ParseArgs splits raw on commas, treating brackets as optional-argument
// markers. It never fails: unbalanced brackets yield a single opaque
// parameter holding raw unchanged.
//
// Commas inside string literals are not special.
func ParseArgs(raw string) ParamList {
	root := &ParamList{}
	stack := []*ParamList{root}

	open := func() {
		g := &ParamList{}
		top := stack[len(stack)-1]
		top.Params = append(top.Params, &Param{Group: g})
		stack = append(stack, g)
	}
	// closeGroup reports false when it would pop the root list
	closeGroup := func() bool {
		if len(stack) == 1 {
			return false
		}
		stack = stack[:len(stack)-1]
		return true
	}

	for _, argument := range strings.Split(raw, ",") {
		argument = strings.TrimSpace(argument)
		endsOpen, endsClose := 0, 0

		for strings.HasPrefix(argument, "[") {
			open()
			argument = strings.TrimSpace(argument[1:])
		}
		for strings.HasPrefix(argument, "]") {
			if !closeGroup() {
				return opaque(raw)
			}
			argument = strings.TrimSpace(argument[1:])
		}
		for strings.HasSuffix(argument, "]") && !strings.HasSuffix(argument, "[]") {
			endsClose++
			argument = strings.TrimSpace(argument[:len(argument)-1])
		}
		for strings.HasSuffix(argument, "[") {
			endsOpen++
			argument = strings.TrimSpace(argument[:len(argument)-1])
		}
		if argument != "" {
			top := stack[len(stack)-1]
			top.Params = append(top.Params, &Param{Name: argument})
		}
		for ; endsOpen > 0; endsOpen-- {
			open()
		}
		for ; endsClose > 0; endsClose-- {
			if !closeGroup() {
				return opaque(raw)
			}
		}
	}

	if len(stack) != 1 {
		return opaque(raw)
	}
	return *root
}

func opaque(raw string) ParamList {
	return ParamList{Params: []*Param{{Name: raw}}, Opaque: true}
}

// Names returns every parameter name in declaration order, descending into
// optional groups.
func (l ParamList) Names() []string {
	var names []string
	for _, p := range l.Params {
		if p.IsGroup() {
			names = append(names, p.Group.Names()...)
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

// Len returns the number of top-level entries.
func (l ParamList) Len() int {
	return len(l.Params)
}

// String renders the list the way it is displayed in a signature, e.g.
// "a, b[, c[, d]]". The separator is written inside an optional group.
func (l ParamList) String() string {
	var b strings.Builder
	first := true
	l.write(&b, &first)
	return b.String()
}

func (l ParamList) write(b *strings.Builder, first *bool) {
	for _, p := range l.Params {
		if p.IsGroup() {
			b.WriteByte('[')
			p.Group.write(b, first)
			b.WriteByte(']')
			continue
		}
		if !*first {
			b.WriteString(", ")
		}
		*first = false
		b.WriteString(p.Name)
	}
}
