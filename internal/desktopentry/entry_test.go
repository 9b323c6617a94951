package desktopentry

import "testing"

func TestParseKeepsQuoteCharacters(t *testing.T) {
	data := "[Desktop Entry]\n" +
		"Type=Application\n" +
		"Name=`Tick` App\n" +
		"GenericName = \"\"\"Q\"\"\" App\n" +
		"Comment=`unterminated\n" +
		"Exec=tick\n" +
		"Actions=run;\n" +
		"\n" +
		"[Desktop Action run]\n" +
		"Name=\"\"\"Run\"\"\"\n" +
		"Exec=tick --run\n"
	entry, err := Parse("tick.desktop", []byte(data), "C")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if entry.Name != "`Tick` App" {
		t.Fatalf("unexpected name %q", entry.Name)
	}
	if entry.GenericName != `"""Q""" App` {
		t.Fatalf("unexpected generic name %q", entry.GenericName)
	}
	if entry.Comment != "`unterminated" {
		t.Fatalf("unexpected comment %q", entry.Comment)
	}
	if entry.Exec != "tick" {
		t.Fatalf("unterminated quote swallowed following keys, exec %q", entry.Exec)
	}
	action, ok := entry.Action("run")
	if !ok || action.Name != `"""Run"""` || action.Exec != "tick --run" {
		t.Fatalf("unexpected action %+v", action)
	}
}

func TestGuardQuotedValuesLeavesPlainContent(t *testing.T) {
	data := []byte("[Desktop Entry]\nName=Plain\n# `comment`\n")
	if got := guardQuotedValues(data); string(got) != string(data) {
		t.Fatalf("expected content untouched, got %q", got)
	}
}
