package schema

import "strings"

// ParseComponentID parses "namespace/member". A bare namespace maps to DefaultMemberID.
func ParseComponentID(value string) (ComponentID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ComponentID{}, ErrInvalidComponent
	}
	ns, member, found := strings.Cut(trimmed, "/")
	if !found {
		member = DefaultMemberID
	}
	id := ComponentID{NamespaceID: strings.TrimSpace(ns), MemberID: strings.TrimSpace(member)}
	if !id.Usable() || strings.ContainsAny(id.NamespaceID, " \t\n") {
		return ComponentID{}, ErrInvalidComponent
	}
	return id, nil
}
