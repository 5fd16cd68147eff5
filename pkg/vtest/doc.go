// Package vtest provides an in-memory backend and test helpers for weft.
//
// The Backend keeps a small node tree (elements, text and comment anchors),
// resolves host directives for text, attributes, properties, listeners and
// attribute spreads, and logs every mutation with the effect phase it ran
// in. It is a fixture for tests, the CLI demo and devtools, not a renderer
// for any real medium.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.NewHarness()
//	    h.Render(core.Render(Counter, 0))
//	    vtest.ExpectHTML(t, h, "<button>0</button>")
//
//	    h.Click("button")
//	    vtest.ExpectHTML(t, h, "<button>1</button>")
//	}
//
// # Elements
//
// H builds element values. Attributes, properties and listeners each get
// their own binding on the element; children render through a list:
//
//	vtest.H("input", vtest.A("type", "checkbox"), vtest.P("checked", true),
//	    vtest.On("change", func(any) { ... }))
//
// # Render Assertions
//
//	vtest.ExpectContains(t, h, "Welcome")
//	vtest.ExpectNotContains(t, h, "Login")
//	vtest.ExpectAttribute(t, h, "class", "active")
package vtest
