package schema

import "errors"

var (
	// ErrLookupFailed indicates a registry lookup tier failed.
	ErrLookupFailed = errors.New("lookup failed")
	// ErrLookupTimeout indicates a registry lookup tier exceeded its time bound.
	ErrLookupTimeout = errors.New("lookup timed out")
	// ErrNoUsableResult indicates the chooser reported success without a component.
	ErrNoUsableResult = errors.New("no usable result")
	// ErrPersistenceFailed indicates the selection could not be written.
	ErrPersistenceFailed = errors.New("persistence failed")
	// ErrRegistryUnavailable indicates no registry is reachable.
	ErrRegistryUnavailable = errors.New("registry unavailable")
	// ErrChooserBusy indicates a chooser cycle is already outstanding.
	ErrChooserBusy = errors.New("chooser already open")
	// ErrChooserUnavailable indicates no chooser host is configured.
	ErrChooserUnavailable = errors.New("chooser not configured")
	// ErrNotFound indicates a registry entry could not be found.
	ErrNotFound = errors.New("not found")
	// ErrNoLabel indicates a registry entry carries no readable label.
	ErrNoLabel = errors.New("no label")
	// ErrNoSelection indicates nothing has been persisted yet.
	ErrNoSelection = errors.New("no companion selected")
	// ErrNoDefault indicates no default companion is configured.
	ErrNoDefault = errors.New("no default companion configured")
	// ErrInvalidComponent indicates a malformed component id.
	ErrInvalidComponent = errors.New("invalid component id")
)
