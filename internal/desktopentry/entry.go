package desktopentry

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	mainGroup    = "Desktop Entry"
	actionPrefix = "Desktop Action "

	typeApplication = "Application"
)

// Entry is one parsed desktop entry file.
type Entry struct {
	ID          string
	Path        string
	Type        string
	Name        string
	GenericName string
	Comment     string
	Icon        string
	Exec        string
	Hidden      bool
	NoDisplay   bool
	Actions     []Action
	// Err is set when the file could not be parsed; the id is still known.
	Err error
}

// Action is a [Desktop Action <id>] group.
type Action struct {
	ID   string
	Name string
	Icon string
	Exec string
}

// Action returns the action with id.
func (e *Entry) Action(id string) (Action, bool) {
	for _, action := range e.Actions {
		if action.ID == id {
			return action, true
		}
	}
	return Action{}, false
}

// Launchable reports whether the entry should be offered in a chooser.
func (e *Entry) Launchable() bool {
	return e.Err == nil && e.Type == typeApplication && !e.Hidden && !e.NoDisplay &&
		strings.TrimSpace(e.Name) != "" && strings.TrimSpace(e.Exec) != ""
}

// quoteGuard is prefixed to values that ini would otherwise read as quoted
// (a leading backtick or triple double quote) and removed again on read.
const quoteGuard = "\uE000"

var loadOptions = ini.LoadOptions{
	IgnoreContinuation:      true,
	IgnoreInlineComment:     true,
	PreserveSurroundedQuote: true,
	SkipUnrecognizableLines: true,
	KeyValueDelimiters:      "=",
}

// ParseFile parses the desktop entry at path. Parse failures are reported in
// the returned entry's Err.
func ParseFile(id, path, locale string) *Entry {
	entry := &Entry{ID: id, Path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		entry.Err = err
		return entry
	}
	parsed, err := Parse(id, data, locale)
	if err != nil {
		entry.Err = err
		return entry
	}
	parsed.Path = path
	return parsed
}

// Parse parses desktop entry content.
func Parse(id string, data []byte, locale string) (*Entry, error) {
	file, err := ini.LoadSources(loadOptions, guardQuotedValues(data))
	if err != nil {
		return nil, fmt.Errorf("desktop entry %s: %w", id, err)
	}
	main, err := file.GetSection(mainGroup)
	if err != nil {
		return nil, fmt.Errorf("desktop entry %s: missing [%s] group", id, mainGroup)
	}
	entry := &Entry{
		ID:          id,
		Type:        value(main, "Type"),
		Name:        localized(main, "Name", locale),
		GenericName: localized(main, "GenericName", locale),
		Comment:     localized(main, "Comment", locale),
		Icon:        value(main, "Icon"),
		Exec:        value(main, "Exec"),
		Hidden:      boolean(main, "Hidden"),
		NoDisplay:   boolean(main, "NoDisplay"),
	}
	for _, actionID := range list(value(main, "Actions")) {
		section, err := file.GetSection(actionPrefix + actionID)
		if err != nil {
			continue
		}
		entry.Actions = append(entry.Actions, Action{
			ID:   actionID,
			Name: localized(section, "Name", locale),
			Icon: value(section, "Icon"),
			Exec: value(section, "Exec"),
		})
	}
	return entry, nil
}

func value(section *ini.Section, key string) string {
	if !section.HasKey(key) {
		return ""
	}
	return unescape(strings.TrimPrefix(section.Key(key).String(), quoteGuard))
}

// guardQuotedValues keeps values that start with ini quote characters
// literal. Desktop entries have no quoting at the key file level.
func guardQuotedValues(data []byte) []byte {
	lines := strings.SplitAfter(string(data), "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || trimmed[0] == '#' || trimmed[0] == '[' {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		rest := line[eq+1:]
		start := eq + 1 + len(rest) - len(strings.TrimLeft(rest, " \t"))
		v := line[start:]
		if strings.HasPrefix(v, "`") || strings.HasPrefix(v, `"""`) {
			lines[i] = line[:start] + quoteGuard + v
			changed = true
		}
	}
	if !changed {
		return data
	}
	return []byte(strings.Join(lines, ""))
}

func boolean(section *ini.Section, key string) bool {
	return strings.EqualFold(value(section, key), "true")
}

// localized picks key[ll_CC], then key[ll], then key.
func localized(section *ini.Section, key, locale string) string {
	for _, candidate := range localeCandidates(locale) {
		if v := value(section, key+"["+candidate+"]"); v != "" {
			return v
		}
	}
	return value(section, key)
}

func localeCandidates(locale string) []string {
	locale = strings.TrimSpace(locale)
	if locale == "" || locale == "C" || locale == "POSIX" {
		return nil
	}
	if idx := strings.IndexByte(locale, '.'); idx >= 0 {
		at := strings.IndexByte(locale, '@')
		if at > idx {
			locale = locale[:idx] + locale[at:]
		} else {
			locale = locale[:idx]
		}
	}
	modifier := ""
	if idx := strings.IndexByte(locale, '@'); idx >= 0 {
		modifier = locale[idx:]
		locale = locale[:idx]
	}
	lang, country, hasCountry := strings.Cut(locale, "_")
	var out []string
	if hasCountry {
		if modifier != "" {
			out = append(out, lang+"_"+country+modifier)
		}
		out = append(out, lang+"_"+country)
	}
	if modifier != "" {
		out = append(out, lang+modifier)
	}
	return append(out, lang)
}

func list(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func unescape(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' || i+1 == len(raw) {
			b.WriteByte(c)
			continue
		}
		i++
		switch raw[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(raw[i])
		}
	}
	return b.String()
}
