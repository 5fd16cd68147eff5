package part

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindAttribute, "Attribute"},
		{KindChildRange, "ChildRange"},
		{KindElement, "Element"},
		{KindEvent, "Event"},
		{KindProperty, "Property"},
		{Kind(0), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestPartVariants(t *testing.T) {
	node := "div#1"
	parts := []struct {
		part Part
		kind Kind
	}{
		{Attribute{Target: node, Name: "class"}, KindAttribute},
		{ChildRange{Anchor: node}, KindChildRange},
		{Element{Target: node}, KindElement},
		{Event{Target: node, Name: "click"}, KindEvent},
		{Property{Target: node, Name: "value"}, KindProperty},
	}
	for _, p := range parts {
		if p.part.Kind() != p.kind {
			t.Errorf("%v.Kind() = %v, want %v", p.part, p.part.Kind(), p.kind)
		}
		if p.part.Node() != node {
			t.Errorf("%v.Node() = %v, want %v", p.part, p.part.Node(), node)
		}
	}
}

func TestPartsAreComparable(t *testing.T) {
	a := Attribute{Target: "n", Name: "id"}
	b := Attribute{Target: "n", Name: "id"}
	if Part(a) != Part(b) {
		t.Error("equal attribute parts should compare equal")
	}
	if Part(a) == Part(Attribute{Target: "n", Name: "class"}) {
		t.Error("attribute parts with different names should differ")
	}
}

func TestDescribe(t *testing.T) {
	if got := Describe(nil); got != "<nil part>" {
		t.Errorf("Describe(nil) = %q", got)
	}
	if got := Describe(Event{Target: "btn", Name: "click"}); got != "Event(click) on btn" {
		t.Errorf("Describe(event) = %q", got)
	}
}
