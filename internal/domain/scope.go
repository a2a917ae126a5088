package domain

// Scope is the nesting context of the declarations being processed: the
// current module and class, plus the stacks needed to restore them when a
// nested declaration ends. One Scope is threaded through a whole document.
type Scope struct {
	Module string
	Class  string

	modules []string
	classes []string
}

// SetModule makes name the current module without saving the previous one,
// which is what module and currentmodule directives do.
func (s *Scope) SetModule(name string) {
	s.Module = name
}

// enter opens a declaration's content. prefix is the class name its members
// live in; nest pushes it so that it survives nested declarations.
func (s *Scope) enter(prefix string, nest bool, opts Options) {
	if prefix != "" {
		s.Class = prefix
		if nest {
			s.classes = append(s.classes, prefix)
		}
	}
	if mod, ok := opts["module"]; ok {
		s.modules = append(s.modules, s.Module)
		s.Module = mod
	}
}

// exit undoes enter.
func (s *Scope) exit(nest bool, opts Options) {
	if nest && len(s.classes) > 0 {
		s.classes = s.classes[:len(s.classes)-1]
	}
	s.Class = ""
	if len(s.classes) > 0 {
		s.Class = s.classes[len(s.classes)-1]
	}
	if _, ok := opts["module"]; ok {
		if n := len(s.modules); n > 0 {
			s.Module = s.modules[n-1]
			s.modules = s.modules[:n-1]
		} else {
			s.Module = ""
		}
	}
}

// Depth returns the number of nested classes.
func (s *Scope) Depth() int {
	return len(s.classes)
}
