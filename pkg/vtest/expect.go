package vtest

import (
	"strings"
	"testing"
)

// HTMLSource is anything that serializes a rendered tree.
type HTMLSource interface {
	HTML() string
}

// ExpectHTML asserts that the rendered output is exactly want.
//
// Example:
//
//	vtest.ExpectHTML(t, h, "<ul><li>a</li></ul>")
func ExpectHTML(t testing.TB, src HTMLSource, want string) {
	t.Helper()
	if got := src.HTML(); got != want {
		t.Errorf("rendered output mismatch\n got: %s\nwant: %s", truncate(got, 500), truncate(want, 500))
	}
}

// ExpectContains asserts that rendered output contains expected substring.
//
// Example:
//
//	vtest.ExpectContains(t, h, "Welcome Admin")
func ExpectContains(t testing.TB, src HTMLSource, expected string) {
	t.Helper()
	html := src.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, src HTMLSource, unexpected string) {
	t.Helper()
	html := src.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectElement asserts that rendered output contains a specific tag.
func ExpectElement(t testing.TB, src HTMLSource, tag string) {
	t.Helper()
	html := src.HTML()
	if !strings.Contains(html, "<"+tag) {
		t.Errorf("expected rendered output to contain <%s> element, got:\n%s", tag, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
//
// Example:
//
//	vtest.ExpectAttribute(t, h, "class", "btn-primary")
func ExpectAttribute(t testing.TB, src HTMLSource, attr, value string) {
	t.Helper()
	html := src.HTML()
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
