package domain

import (
	"cmp"
	"maps"
	"slices"
	"strings"
)

// Module index entry subtypes.
const (
	SubtypeNormal = 0
	// SubtypeGroup is a module with submodules listed after it.
	SubtypeGroup = 1
	// SubtypeSub is a submodule.
	SubtypeSub = 2
)

// ModIndexEntry is one line of the module index.
type ModIndexEntry struct {
	Name    string `json:"name" yaml:"name"`
	Subtype int    `json:"subtype" yaml:"subtype"`
	// Doc and Anchor are empty for parents inserted for orphan submodules.
	Doc       string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Anchor    string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Platform  string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Synopsis  string `json:"synopsis,omitempty" yaml:"synopsis,omitempty"`
}

// ModIndexGroup holds the entries sharing a first letter.
type ModIndexGroup struct {
	Letter  string          `json:"letter" yaml:"letter"`
	Entries []ModIndexEntry `json:"entries" yaml:"entries"`
}

// ModIndex is the module index.
type ModIndex struct {
	Groups []ModIndexGroup `json:"groups" yaml:"groups"`
	// Collapse suggests collapsing the submodules, which is done when there
	// are more top level modules than submodules.
	Collapse bool `json:"collapse" yaml:"collapse"`
}

// ModuleIndex builds the module index from the modules defined in docs, or
// from every module when docs is empty. Names starting with one of the
// configured common prefixes are sorted by the rest of their name.
func (d *Domain) ModuleIndex(docs []string) ModIndex {
	ignores := slices.Clone(d.cfg.ModIndexCommonPrefix)
	slices.SortStableFunc(ignores, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	modules := d.table.Modules()
	groups := make(map[string][]ModIndexEntry)
	prev := ""
	topLevels := 0
	for _, m := range modules {
		if len(docs) > 0 && !slices.Contains(docs, m.Doc) {
			continue
		}

		name, stripped := m.Name, ""
		for _, ignore := range ignores {
			if rest, ok := strings.CutPrefix(name, ignore); ok {
				name, stripped = rest, ignore
				break
			}
		}
		if name == "" {
			name, stripped = stripped, ""
		}

		letter := strings.ToLower(name[:1])
		entries := groups[letter]

		subtype := SubtypeNormal
		pkg, _, _ := strings.Cut(name, ".")
		if pkg != name {
			switch {
			case prev == pkg:
				if len(entries) > 0 {
					entries[len(entries)-1].Subtype = SubtypeGroup
				}
			case !strings.HasPrefix(prev, pkg):
				entries = append(entries, ModIndexEntry{Name: stripped + pkg, Subtype: SubtypeGroup})
			}
			subtype = SubtypeSub
		} else {
			topLevels++
		}

		qualifier := ""
		if m.Deprecated {
			qualifier = "Deprecated"
		}
		groups[letter] = append(entries, ModIndexEntry{
			Name:      stripped + name,
			Subtype:   subtype,
			Doc:       m.Doc,
			Anchor:    ModuleAnchor(stripped + name),
			Platform:  m.Platform,
			Qualifier: qualifier,
			Synopsis:  m.Synopsis,
		})
		prev = name
	}

	idx := ModIndex{Collapse: len(modules)-topLevels < topLevels}
	for _, letter := range slices.Sorted(maps.Keys(groups)) {
		idx.Groups = append(idx.Groups, ModIndexGroup{Letter: letter, Entries: groups[letter]})
	}
	return idx
}
