package schema

import (
	"errors"
	"testing"
)

func TestParseComponentID(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  ComponentID
		valid bool
	}{
		{"pair", "com.music.app/PlayerActivity", ComponentID{"com.music.app", "PlayerActivity"}, true},
		{"bare", "org.gnome.Nautilus", ComponentID{"org.gnome.Nautilus", DefaultMemberID}, true},
		{"trimmed", "  firefox / new-window ", ComponentID{"firefox", "new-window"}, true},
		{"empty", "", ComponentID{}, false},
		{"missing-member", "firefox/", ComponentID{}, false},
		{"missing-namespace", "/new-window", ComponentID{}, false},
		{"space", "fire fox/default", ComponentID{}, false},
	}
	for _, tc := range cases {
		got, err := ParseComponentID(tc.input)
		if tc.valid {
			if err != nil {
				t.Fatalf("case %q expected valid, got error: %v", tc.name, err)
			}
			if got != tc.want {
				t.Fatalf("case %q: got %+v, want %+v", tc.name, got, tc.want)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidComponent) {
			t.Fatalf("case %q expected ErrInvalidComponent, got %v", tc.name, err)
		}
	}
}

func TestSavedSelectionInvariant(t *testing.T) {
	var empty SavedSelection
	if !empty.Empty() || empty.Complete() {
		t.Fatalf("zero saved selection must be empty")
	}
	if _, ok := empty.Selection(); ok {
		t.Fatalf("empty saved selection must not convert")
	}
	sel := Selection{Component: ComponentID{"com.music.app", "PlayerActivity"}, DisplayName: "MusicPlayer"}
	saved := SavedFromSelection(sel)
	if !saved.Complete() || saved.Empty() {
		t.Fatalf("expected complete saved selection, got %+v", saved)
	}
	got, ok := saved.Selection()
	if !ok || got != sel {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, sel)
	}
	partial := SavedSelection{NamespaceID: SomeField("x")}
	if partial.Complete() || partial.Empty() {
		t.Fatalf("partial selection must be neither complete nor empty")
	}
}

func TestComponentIDString(t *testing.T) {
	if got := (ComponentID{NamespaceID: "a", MemberID: "b"}).String(); got != "a/b" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := (ComponentID{NamespaceID: "a"}).String(); got != "a" {
		t.Fatalf("unexpected string %q", got)
	}
}
