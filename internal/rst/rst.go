// Package rst extracts Lua domain directives and cross-reference roles from
// reStructuredText sources. It understands only the subset of the markup the
// domain needs: explicit markup blocks, directive options, indentation based
// nesting, paragraphs and interpreted-text roles.
package rst

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// DomainName is the directive and role prefix handled by this package.
const DomainName = "lua"

var (
	directiveRe = regexp.MustCompile(`^\.\.\s+(?:([\w-]+):)?([\w-]+)::(?:\s+(.*))?$`)
	optionRe    = regexp.MustCompile(`^:([\w-]+):(?:\s+(.*))?$`)
	roleRe      = regexp.MustCompile(":" + DomainName + ":([a-z]+):`([^`]+)`")
	explicitRe  = regexp.MustCompile(`^(.*?)\s*<([^<>]+)>$`)
)

// Block is one directive with its options and content.
type Block struct {
	// Kind is the directive name without the domain prefix, e.g. "function".
	Kind string
	// Signatures holds one entry per signature line.
	Signatures []string
	// Options maps option names to values. Flag options have an empty value.
	Options map[string]string
	// Body holds the text paragraphs of the content.
	Body []string
	// Refs are the role references found in the content, nested blocks
	// excluded.
	Refs     []Ref
	Children []Block
	// Line is the 1-based line of the directive marker.
	Line int
}

// HasOption reports whether the option was given, flag or not.
func (b *Block) HasOption(name string) bool {
	_, ok := b.Options[name]
	return ok
}

// Ref is an interpreted-text role such as :lua:meth:`~Object.emit`.
type Ref struct {
	Role string
	// Target is the reference target as written, markers included.
	Target string
	// Title is the explicit title of "title <target>" references, else the
	// target text.
	Title    string
	Explicit bool
	Line     int
}

// Document is a parsed source file.
type Document struct {
	Name   string
	Blocks []Block
	Body   []string
	Refs   []Ref
}

type line struct {
	text string
	num  int
}

// Parse scans src, which belongs to the document name.
func Parse(name string, src []byte) (*Document, error) {
	var lines []line
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimRight(strings.ReplaceAll(sc.Text(), "\t", "        "), " \r")
		lines = append(lines, line{text: text, num: n})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	c := parseContent(lines)
	return &Document{Name: name, Blocks: c.blocks, Body: c.body, Refs: c.refs}, nil
}

type content struct {
	blocks []Block
	body   []string
	refs   []Ref
}

// parseContent parses lines whose base indentation has already been removed.
func parseContent(lines []line) content {
	var c content
	var para []string
	flush := func() {
		if len(para) > 0 {
			c.body = append(c.body, strings.Join(para, " "))
			para = nil
		}
	}

	for i := 0; i < len(lines); {
		l := lines[i]
		if l.text == "" {
			flush()
			i++
			continue
		}
		if indentOf(l.text) > 0 {
			// blockquote or stray indentation, read as text
			para = append(para, strings.TrimSpace(l.text))
			c.refs = append(c.refs, findRefs(l)...)
			i++
			continue
		}
		if l.text != ".." && !strings.HasPrefix(l.text, ".. ") {
			para = append(para, l.text)
			c.refs = append(c.refs, findRefs(l)...)
			i++
			continue
		}

		flush()
		end := blockEnd(lines, i+1)
		inner := dedent(lines[i+1 : end])
		if m := directiveRe.FindStringSubmatch(l.text); m != nil {
			if m[1] == DomainName {
				c.blocks = append(c.blocks, parseDirective(m[2], m[3], l.num, inner))
			} else {
				// foreign directive: keep what it contains
				nested := parseContent(skipOptions(inner))
				c.blocks = append(c.blocks, nested.blocks...)
				c.body = append(c.body, nested.body...)
				c.refs = append(c.refs, nested.refs...)
			}
		}
		// anything else starting with ".." is a comment, target or footnote
		i = end
	}
	flush()
	return c
}

func parseDirective(kind, arg string, num int, inner []line) Block {
	b := Block{Kind: kind, Line: num, Options: map[string]string{}}
	if arg = strings.TrimSpace(arg); arg != "" {
		b.Signatures = append(b.Signatures, arg)
	}

	i := 0
	// further signature lines run until the first option or blank line
	for ; i < len(inner); i++ {
		t := inner[i].text
		if t == "" || optionRe.MatchString(t) {
			break
		}
		b.Signatures = append(b.Signatures, strings.TrimSpace(t))
	}
	for ; i < len(inner); i++ {
		m := optionRe.FindStringSubmatch(inner[i].text)
		if m == nil {
			break
		}
		b.Options[m[1]] = strings.TrimSpace(m[2])
	}

	c := parseContent(inner[i:])
	b.Body = c.body
	b.Refs = c.refs
	b.Children = c.blocks
	return b
}

func skipOptions(lines []line) []line {
	i := 0
	for i < len(lines) && optionRe.MatchString(lines[i].text) {
		i++
	}
	return lines[i:]
}

// blockEnd returns the index of the first line at or after start that ends
// the indented block: a non-blank line without indentation.
func blockEnd(lines []line, start int) int {
	end := start
	for end < len(lines) && (lines[end].text == "" || indentOf(lines[end].text) > 0) {
		end++
	}
	for end > start && lines[end-1].text == "" {
		end--
	}
	return end
}

func dedent(lines []line) []line {
	minIndent := -1
	for _, l := range lines {
		if l.text == "" {
			continue
		}
		if ind := indentOf(l.text); minIndent < 0 || ind < minIndent {
			minIndent = ind
		}
	}
	out := make([]line, len(lines))
	for i, l := range lines {
		if l.text != "" {
			l.text = l.text[minIndent:]
		}
		out[i] = l
	}
	return out
}

func indentOf(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

func findRefs(l line) []Ref {
	var refs []Ref
	for _, m := range roleRe.FindAllStringSubmatch(l.text, -1) {
		r := newRef(m[1], m[2])
		r.Line = l.num
		refs = append(refs, r)
	}
	return refs
}

// ReplaceRefs replaces every role reference in text with the result of fn.
func ReplaceRefs(text string, fn func(Ref) string) string {
	return roleRe.ReplaceAllStringFunc(text, func(s string) string {
		m := roleRe.FindStringSubmatch(s)
		return fn(newRef(m[1], m[2]))
	})
}

func newRef(role, content string) Ref {
	r := Ref{Role: role, Target: content, Title: content}
	if em := explicitRe.FindStringSubmatch(content); em != nil && em[1] != "" {
		r.Title, r.Target, r.Explicit = em[1], em[2], true
	}
	return r
}
