package core

import (
	"context"

	"pkt.systems/companion/schema"
)

// DefaultChooserTitle is the prompt shown when none is configured.
const DefaultChooserTitle = "Choose a companion app"

// ChooserTarget describes the candidate set offered by the host.
type ChooserTarget string

// TargetLaunchable asks for every externally launchable application.
const TargetLaunchable ChooserTarget = "launchable"

// ChooserRequest asks the host to let the user pick one target.
type ChooserRequest struct {
	ID     string
	Title  string
	Target ChooserTarget
}

// ResultCode is the host's verdict for a chooser request.
type ResultCode int

const (
	// ResultCanceled means the user dismissed the chooser.
	ResultCanceled ResultCode = iota
	// ResultOK means the user picked an entry.
	ResultOK
)

func (c ResultCode) String() string {
	switch c {
	case ResultOK:
		return "ok"
	case ResultCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ChooserResult is delivered by the host once per request.
type ChooserResult struct {
	RequestID string
	Code      ResultCode
	Component *schema.ComponentID
}

// DeliverFunc receives the chooser result.
type DeliverFunc func(ctx context.Context, result ChooserResult)

// ChooserHost shows a chooser and reports the result asynchronously.
// Launch must return without waiting for the user.
type ChooserHost interface {
	Launch(ctx context.Context, req ChooserRequest, deliver DeliverFunc) error
}
