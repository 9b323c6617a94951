package desktopentry

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/shlex"

	"pkt.systems/companion/schema"
)

// Command returns the argv for the component's Exec line with field codes
// expanded for a launch without files or URLs.
func (r *Registry) Command(ctx context.Context, id schema.ComponentID) ([]string, error) {
	entry, err := r.Entry(ctx, id.NamespaceID)
	if err != nil {
		return nil, err
	}
	execLine, icon, name := entry.Exec, entry.Icon, entry.Name
	if id.MemberID != "" && id.MemberID != schema.DefaultMemberID {
		action, ok := entry.Action(id.MemberID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", schema.ErrNotFound, id)
		}
		execLine = action.Exec
		if action.Icon != "" {
			icon = action.Icon
		}
	}
	if strings.TrimSpace(execLine) == "" {
		return nil, fmt.Errorf("desktop entry %s has no Exec", id)
	}
	return ExpandExec(execLine, icon, name, entry.Path)
}

// ExpandExec tokenizes an Exec value and expands its field codes. File and
// URL codes expand to nothing; %i expands to "--icon <icon>" when set.
func ExpandExec(execLine, icon, name, path string) ([]string, error) {
	fields, err := shlex.Split(execLine)
	if err != nil {
		return nil, fmt.Errorf("parse Exec %q: %w", execLine, err)
	}
	var argv []string
	for _, field := range fields {
		switch field {
		case "%f", "%F", "%u", "%U", "%d", "%D", "%n", "%N", "%v", "%m":
			continue
		case "%i":
			if icon != "" {
				argv = append(argv, "--icon", icon)
			}
			continue
		}
		expanded := expandInline(field, name, path)
		if expanded == "" && field != "" {
			continue
		}
		argv = append(argv, expanded)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty command after expanding Exec %q", execLine)
	}
	return argv, nil
}

func expandInline(field, name, path string) string {
	if !strings.Contains(field, "%") {
		return field
	}
	var b strings.Builder
	for i := 0; i < len(field); i++ {
		c := field[i]
		if c != '%' || i+1 == len(field) {
			b.WriteByte(c)
			continue
		}
		i++
		switch field[i] {
		case '%':
			b.WriteByte('%')
		case 'c':
			b.WriteString(name)
		case 'k':
			b.WriteString(path)
		}
	}
	return b.String()
}
