// Package render draws text and diagram panels into offscreen bitmaps.
// Panel failures are recoverable: the compositor omits the failed panel
// and keeps the rest of the scene.
package render

import "fmt"

// Error reports a panel that could not be rendered. Callers treat it as a
// per-panel failure, not fatal to the whole composition.
type Error struct {
	Panel  string // "text" or "diagram"
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render %s panel: %s: %v", e.Panel, e.Reason, e.Err)
	}
	return fmt.Sprintf("render %s panel: %s", e.Panel, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func renderErr(panel, reason string, err error) *Error {
	return &Error{Panel: panel, Reason: reason, Err: err}
}
