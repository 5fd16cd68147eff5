package lane

import "testing"

func TestFromOptionsCumulativePriorities(t *testing.T) {
	ub := FromOptions(Options{Priority: PriorityUserBlocking})
	uv := FromOptions(Options{Priority: PriorityUserVisible})
	bg := FromOptions(Options{Priority: PriorityBackground})

	if !bg.Has(uv) {
		t.Errorf("background lanes %v should include user-visible lanes %v", bg, uv)
	}
	if !uv.Has(ub) {
		t.Errorf("user-visible lanes %v should include user-blocking lanes %v", uv, ub)
	}
	if ub.Intersects(BackgroundLane) {
		t.Errorf("user-blocking lanes %v should not carry the background lane", ub)
	}
	for _, l := range []Lanes{ub, uv, bg} {
		if !l.Has(DefaultLane) {
			t.Errorf("%v missing DefaultLane", l)
		}
	}
}

func TestFromOptionsFlags(t *testing.T) {
	l := FromOptions(Options{Immediate: true, ViewTransition: true})
	if !l.Has(SyncLane) {
		t.Errorf("immediate update should carry SyncLane, got %v", l)
	}
	if !l.Has(ViewTransitionLane) {
		t.Errorf("view-transition update should carry ViewTransitionLane, got %v", l)
	}
	if FromOptions(Options{Silent: true}) != DefaultLane {
		t.Errorf("silent flag must not change lanes")
	}
}

func TestLanesPriority(t *testing.T) {
	tests := []struct {
		lanes Lanes
		want  Priority
	}{
		{DefaultLane, PriorityUserBlocking},
		{FromOptions(Options{Priority: PriorityUserBlocking}), PriorityUserBlocking},
		{FromOptions(Options{Priority: PriorityUserVisible}), PriorityUserVisible},
		{FromOptions(Options{Priority: PriorityBackground}), PriorityBackground},
	}
	for _, tt := range tests {
		if got := tt.lanes.Priority(); got != tt.want {
			t.Errorf("%v.Priority() = %v, want %v", tt.lanes, got, tt.want)
		}
	}
}

func TestLanesString(t *testing.T) {
	if got := NoLanes.String(); got != "NoLanes" {
		t.Errorf("NoLanes.String() = %q", got)
	}
	if got := (DefaultLane | SyncLane).String(); got != "Default|Sync" {
		t.Errorf("String() = %q, want Default|Sync", got)
	}
}

func TestParsePriority(t *testing.T) {
	for _, p := range []Priority{PriorityUserBlocking, PriorityUserVisible, PriorityBackground} {
		got, ok := ParsePriority(p.String())
		if !ok || got != p {
			t.Errorf("ParsePriority(%q) = %v, %v", p.String(), got, ok)
		}
	}
	if _, ok := ParsePriority("urgent"); ok {
		t.Error("ParsePriority should reject unknown names")
	}
}

func TestHasRequiresNonEmpty(t *testing.T) {
	if AllLanes.Has(NoLanes) {
		t.Error("Has(NoLanes) should be false")
	}
}
