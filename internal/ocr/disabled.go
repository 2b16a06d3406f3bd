package ocr

import "context"

// DisabledLocator is the degraded-mode locator substituted when engine
// initialization fails at startup. Every Locate call reports
// ErrEngineUnavailable; extraction then yields an all-sentinel record
// instead of crashing the process.
type DisabledLocator struct {
	reason error
}

// NewDisabledLocator records the initialization failure for later reporting.
func NewDisabledLocator(reason error) *DisabledLocator {
	return &DisabledLocator{reason: reason}
}

// Name identifies the backend.
func (d *DisabledLocator) Name() string { return "disabled" }

// Locate always fails with ErrEngineUnavailable.
func (d *DisabledLocator) Locate(ctx context.Context, image []byte) ([]Span, error) {
	return nil, NewLocateError("Locate", ErrEngineUnavailable, d.reasonDetails())
}

func (d *DisabledLocator) reasonDetails() string {
	if d.reason == nil {
		return ""
	}
	return d.reason.Error()
}
