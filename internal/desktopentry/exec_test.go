package desktopentry

import (
	"context"
	"reflect"
	"testing"

	"pkt.systems/companion/schema"
)

func TestExpandExec(t *testing.T) {
	cases := []struct {
		name string
		exec string
		want []string
	}{
		{"url-code", "firefox %u", []string{"firefox"}},
		{"quoted-path", `"/opt/Music Player/bin/player" --title=%c %F`, []string{"/opt/Music Player/bin/player", "--title=Music"}},
		{"icon", "app %i", []string{"app", "--icon", "app-icon"}},
		{"percent", "printf 100%%", []string{"printf", "100%"}},
		{"desktop-path", "app --from=%k", []string{"app", "--from=/usr/share/applications/app.desktop"}},
	}
	for _, tc := range cases {
		got, err := ExpandExec(tc.exec, "app-icon", "Music", "/usr/share/applications/app.desktop")
		if err != nil {
			t.Fatalf("%s: expand: %v", tc.name, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestExpandExecRejectsEmpty(t *testing.T) {
	if _, err := ExpandExec("%U", "", "", ""); err == nil {
		t.Fatalf("expected error for empty expansion")
	}
	if _, err := ExpandExec(`"unterminated`, "", "", ""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCommandForAction(t *testing.T) {
	reg, _, _ := newTestRegistry(t, true)
	got, err := reg.Command(context.Background(), schema.ComponentID{NamespaceID: "firefox", MemberID: "new-window"})
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if want := []string{"firefox", "--new-window"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	got, err = reg.Command(context.Background(), schema.ComponentID{NamespaceID: "com-music-app", MemberID: schema.DefaultMemberID})
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	if want := []string{"/opt/Music Player/bin/player", "--title=MusicPlayer"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}
