package schema

import "strings"

// DefaultMemberID names the primary entry point of an application.
const DefaultMemberID = "default"

// ComponentID identifies one externally launchable target.
type ComponentID struct {
	NamespaceID string `json:"namespace_id"`
	MemberID    string `json:"member_id"`
}

// String renders the id as namespace/member.
func (c ComponentID) String() string {
	if c.MemberID == "" {
		return c.NamespaceID
	}
	return c.NamespaceID + "/" + c.MemberID
}

// Usable reports whether both parts of the id are present.
func (c ComponentID) Usable() bool {
	return strings.TrimSpace(c.NamespaceID) != "" && strings.TrimSpace(c.MemberID) != ""
}

// Selection is the resolved, user-facing record of a chosen component.
type Selection struct {
	Component   ComponentID `json:"component"`
	DisplayName string      `json:"display_name"`
}

// Field is one nullable persisted value.
type Field struct {
	Value   string `json:"value,omitempty"`
	Present bool   `json:"present"`
}

// SomeField returns a present field holding value.
func SomeField(value string) Field {
	return Field{Value: value, Present: true}
}

// SavedSelection is the verbatim projection of the persisted selection keys.
type SavedSelection struct {
	NamespaceID Field `json:"namespace_id"`
	MemberID    Field `json:"member_id"`
	DisplayName Field `json:"display_name"`
}

// Complete reports whether all three fields are present.
func (s SavedSelection) Complete() bool {
	return s.NamespaceID.Present && s.MemberID.Present && s.DisplayName.Present
}

// Empty reports whether no field is present.
func (s SavedSelection) Empty() bool {
	return !s.NamespaceID.Present && !s.MemberID.Present && !s.DisplayName.Present
}

// Selection converts a complete saved selection.
func (s SavedSelection) Selection() (Selection, bool) {
	if !s.Complete() {
		return Selection{}, false
	}
	return Selection{
		Component:   ComponentID{NamespaceID: s.NamespaceID.Value, MemberID: s.MemberID.Value},
		DisplayName: s.DisplayName.Value,
	}, true
}

// SavedFromSelection builds the persisted projection of sel.
func SavedFromSelection(sel Selection) SavedSelection {
	return SavedSelection{
		NamespaceID: SomeField(sel.Component.NamespaceID),
		MemberID:    SomeField(sel.Component.MemberID),
		DisplayName: SomeField(sel.DisplayName),
	}
}

// Launchable is one chooser candidate.
type Launchable struct {
	Component   ComponentID `json:"component"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
}
