package rst

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Core API
========

.. lua:module:: deai
   :synopsis: The root object
   :platform: linux

The root module. See :lua:meth:` + "`~deai.Object.emit`" + ` for events.

.. lua:class:: Object : Base

   An object with signals.

   .. lua:method:: emit(name, [args...])
                   emit2()
      :protected:

      Emit a signal, see :lua:class:` + "`the class <deai.Object>`" + `.

   .. lua:attribute:: count : integer

.. note::

   Remember :lua:func:` + "`load_plugin`" + `.

   .. lua:function:: load_plugin(path)

.. this is a comment
   spanning two lines

Trailing text.
`

func TestParse(t *testing.T) {
	doc, err := Parse("api", []byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "api", doc.Name)

	require.Len(t, doc.Blocks, 3)

	mod := doc.Blocks[0]
	assert.Equal(t, "module", mod.Kind)
	assert.Equal(t, []string{"deai"}, mod.Signatures)
	assert.Equal(t, map[string]string{"synopsis": "The root object", "platform": "linux"}, mod.Options)
	assert.Equal(t, 4, mod.Line)

	cls := doc.Blocks[1]
	assert.Equal(t, "class", cls.Kind)
	assert.Equal(t, []string{"Object : Base"}, cls.Signatures)
	assert.Equal(t, []string{"An object with signals."}, cls.Body)
	require.Len(t, cls.Children, 2)

	meth := cls.Children[0]
	assert.Equal(t, "method", meth.Kind)
	assert.Equal(t, []string{"emit(name, [args...])", "emit2()"}, meth.Signatures)
	assert.True(t, meth.HasOption("protected"))
	assert.Equal(t, 14, meth.Line)
	want := []Ref{{Role: "class", Target: "deai.Object", Title: "the class", Explicit: true, Line: 18}}
	if diff := cmp.Diff(want, meth.Refs); diff != "" {
		t.Errorf("method refs mismatch (-want +got):\n%s", diff)
	}

	attr := cls.Children[1]
	assert.Equal(t, "attribute", attr.Kind)
	assert.Equal(t, []string{"count : integer"}, attr.Signatures)

	// directives nested in foreign directives are hoisted
	fn := doc.Blocks[2]
	assert.Equal(t, "function", fn.Kind)
	assert.Equal(t, []string{"load_plugin(path)"}, fn.Signatures)

	wantRefs := []Ref{
		{Role: "meth", Target: "~deai.Object.emit", Title: "~deai.Object.emit", Line: 8},
		{Role: "func", Target: "load_plugin", Title: "load_plugin", Line: 24},
	}
	if diff := cmp.Diff(wantRefs, doc.Refs); diff != "" {
		t.Errorf("document refs mismatch (-want +got):\n%s", diff)
	}

	assert.Contains(t, doc.Body, "Trailing text.")
	for _, p := range doc.Body {
		assert.NotContains(t, p, "comment")
	}
}

func TestParseEmpty(t *testing.T) {
	doc, err := Parse("empty", nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Blocks)
	assert.Empty(t, doc.Body)
}

func TestParseCurrentModuleWithoutContent(t *testing.T) {
	doc, err := Parse("x", []byte(".. lua:currentmodule:: spawn\n.. lua:data:: version\n"))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "currentmodule", doc.Blocks[0].Kind)
	assert.Equal(t, []string{"spawn"}, doc.Blocks[0].Signatures)
	assert.Equal(t, "data", doc.Blocks[1].Kind)
	assert.Equal(t, 2, doc.Blocks[1].Line)
}

func TestReplaceRefs(t *testing.T) {
	text := "Use :lua:func:`spawn` or :lua:class:`the object <deai.Object>`."
	got := ReplaceRefs(text, func(r Ref) string {
		if r.Explicit {
			return "[" + r.Title + "](" + r.Target + ")"
		}
		return "<" + r.Role + ":" + r.Target + ">"
	})
	assert.Equal(t, "Use <func:spawn> or [the object](deai.Object).", got)
}
