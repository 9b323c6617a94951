package core

import (
	"errors"
	"fmt"

	"pkt.systems/companion/schema"
)

// TierName identifies a lookup tier.
type TierName string

const (
	// TierApplication asks for the owning application's label.
	TierApplication TierName = "application"
	// TierComponent asks for the specific component's label.
	TierComponent TierName = "component"
	// TierScan scans every installed application.
	TierScan TierName = "scan"
)

// LookupError wraps a tier failure with its tier.
type LookupError struct {
	Tier TierName
	Err  error
}

func newLookupError(tier TierName, err error) *LookupError {
	return &LookupError{Tier: tier, Err: err}
}

func (e *LookupError) Error() string {
	if e == nil {
		return "lookup error"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s lookup: %v", e.Tier, e.Err)
	}
	return fmt.Sprintf("%s lookup failed", e.Tier)
}

func (e *LookupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is makes every LookupError match schema.ErrLookupFailed.
func (e *LookupError) Is(target error) bool {
	return target == schema.ErrLookupFailed
}

// IsLookupTimeout reports whether err came from a tier exceeding its bound.
func IsLookupTimeout(err error) bool {
	return errors.Is(err, schema.ErrLookupTimeout)
}
