package desktopentry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"pkt.systems/companion/core"
	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

// Config configures the registry.
type Config struct {
	// Dirs are applications directories in precedence order; DefaultDirs when empty.
	Dirs []string
	// Locale selects localized names; DefaultLocale when empty.
	Locale string
	// IncludeActions offers desktop actions as separate chooser entries.
	IncludeActions bool
	Logger         pslog.Logger
}

// Registry answers metadata queries from the installed desktop entries. Every
// query rescans the directories so results track installs and removals.
type Registry struct {
	dirs           []string
	locale         string
	includeActions bool
	log            pslog.Logger
}

var _ core.AppRegistry = (*Registry)(nil)

// New constructs a registry.
func New(cfg Config) *Registry {
	dirs := cfg.Dirs
	if len(dirs) == 0 {
		dirs = DefaultDirs()
	}
	locale := cfg.Locale
	if locale == "" {
		locale = DefaultLocale()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Registry{
		dirs:           dirs,
		locale:         locale,
		includeActions: cfg.IncludeActions,
		log:            logger.With("registry", "desktopentry"),
	}
}

// DefaultDirs returns $XDG_DATA_HOME/applications followed by every
// $XDG_DATA_DIRS entry's applications directory.
func DefaultDirs() []string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataHome = filepath.Join(home, ".local", "share")
		}
	}
	dataDirs := os.Getenv("XDG_DATA_DIRS")
	if dataDirs == "" {
		dataDirs = "/usr/local/share:/usr/share"
	}
	var dirs []string
	if dataHome != "" {
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	for _, dir := range filepath.SplitList(dataDirs) {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, filepath.Join(dir, "applications"))
		}
	}
	return dirs
}

// DefaultLocale returns the message locale from the environment.
func DefaultLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

// Entry returns the entry with the given desktop file id.
func (r *Registry) Entry(ctx context.Context, id string) (*Entry, error) {
	entries, _, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrNotFound, id)
	}
	if entry.Err != nil {
		return nil, entry.Err
	}
	return entry, nil
}

// ApplicationLabel returns the entry's name. Hidden entries count as uninstalled.
func (r *Registry) ApplicationLabel(ctx context.Context, namespaceID string) (string, error) {
	entry, err := r.Entry(ctx, namespaceID)
	if err != nil {
		return "", err
	}
	if entry.Hidden {
		return "", fmt.Errorf("%w: %s is hidden", schema.ErrNotFound, namespaceID)
	}
	if strings.TrimSpace(entry.Name) == "" {
		return "", fmt.Errorf("%w: %s", schema.ErrNoLabel, namespaceID)
	}
	return entry.Name, nil
}

// ComponentLabel returns the name of the entry point: the generic name for the
// primary entry when it has no name, or the action's name.
func (r *Registry) ComponentLabel(ctx context.Context, id schema.ComponentID) (string, error) {
	entry, err := r.Entry(ctx, id.NamespaceID)
	if err != nil {
		return "", err
	}
	if id.MemberID == schema.DefaultMemberID {
		for _, label := range []string{entry.Name, entry.GenericName} {
			if strings.TrimSpace(label) != "" {
				return label, nil
			}
		}
		return "", fmt.Errorf("%w: %s", schema.ErrNoLabel, id)
	}
	action, ok := entry.Action(id.MemberID)
	if !ok {
		return "", fmt.Errorf("%w: %s", schema.ErrNotFound, id)
	}
	if strings.TrimSpace(action.Name) == "" {
		return "", fmt.Errorf("%w: %s", schema.ErrNoLabel, id)
	}
	return action.Name, nil
}

// InstalledApplications lists every entry. Unparseable or unnamed entries are
// returned with Err set.
func (r *Registry) InstalledApplications(ctx context.Context) ([]core.InstalledApp, error) {
	entries, order, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	apps := make([]core.InstalledApp, 0, len(order))
	for _, id := range order {
		entry := entries[id]
		app := core.InstalledApp{NamespaceID: id, Label: entry.Name, Err: entry.Err}
		if app.Err == nil && strings.TrimSpace(entry.Name) == "" {
			app.Err = schema.ErrNoLabel
		}
		apps = append(apps, app)
	}
	return apps, nil
}

// Launchables returns the chooser candidates sorted by label.
func (r *Registry) Launchables(ctx context.Context) ([]schema.Launchable, error) {
	entries, order, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	var out []schema.Launchable
	for _, id := range order {
		entry := entries[id]
		if !entry.Launchable() {
			continue
		}
		description := entry.Comment
		if description == "" {
			description = entry.GenericName
		}
		out = append(out, schema.Launchable{
			Component:   schema.ComponentID{NamespaceID: id, MemberID: schema.DefaultMemberID},
			Label:       entry.Name,
			Description: description,
		})
		if !r.includeActions {
			continue
		}
		for _, action := range entry.Actions {
			if strings.TrimSpace(action.Name) == "" || strings.TrimSpace(action.Exec) == "" {
				continue
			}
			out = append(out, schema.Launchable{
				Component:   schema.ComponentID{NamespaceID: id, MemberID: action.ID},
				Label:       entry.Name + ": " + action.Name,
				Description: description,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Label), strings.ToLower(out[j].Label)
		if li != lj {
			return li < lj
		}
		return out[i].Component.String() < out[j].Component.String()
	})
	return out, nil
}

// scan reads every directory concurrently and merges the results so that
// earlier directories shadow later ones.
func (r *Registry) scan(ctx context.Context) (map[string]*Entry, []string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([][]*Entry, len(r.dirs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, dir := range r.dirs {
		group.Go(func() error {
			entries, err := scanDir(groupCtx, dir, r.locale)
			if err != nil {
				return err
			}
			results[i] = entries
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		r.log.Warn("registry scan failed", "err", err)
		return nil, nil, err
	}
	merged := make(map[string]*Entry)
	var order []string
	for _, entries := range results {
		for _, entry := range entries {
			if _, seen := merged[entry.ID]; seen {
				continue
			}
			merged[entry.ID] = entry
			order = append(order, entry.ID)
		}
	}
	r.log.Trace("registry scan ok", "dirs", len(r.dirs), "entries", len(order))
	return merged, order, nil
}

func scanDir(ctx context.Context, dir, locale string) ([]*Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}
	var entries []*Entry
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == dir {
				return walkErr
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".desktop") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		entries = append(entries, ParseFile(FileID(rel), path, locale))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// FileID converts a path relative to an applications directory into a
// desktop file id.
func FileID(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, ".desktop")
	return strings.ReplaceAll(rel, "/", "-")
}
