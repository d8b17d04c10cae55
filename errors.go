package collide

import "github.com/galvanizedlogic/collide/narrowphase"

// ErrUnsupportedShapePair is never returned to a caller — the
// dispatcher's returning None for a shape pair is silent per spec.md
// §7 ("UnsupportedShapePair — dispatcher returned None; silently
// ignored, pair never emits events, exposed only via diagnostic
// counter"). It names the condition the narrow phase counts, without
// logging, into World.Diagnostics' unsupportedPairs return.
var ErrUnsupportedShapePair = narrowphase.ErrUnsupportedShapePair

// ErrNumericalFailure names the condition counted by
// World.Diagnostics when an algorithm produces non-finite output
// (spec.md §7). Like ErrUnsupportedShapePair it is never returned from
// World.Update, which has no failing outcome, but is the value the
// narrow phase logs a warning with and counts into the
// numericalFailures return.
var ErrNumericalFailure = narrowphase.ErrNumericalFailure

// assertHandle panics if ok is false — UnknownHandle is the one
// taxonomy entry spec.md §7 allows to be a programming-error panic
// rather than a recoverable value, the same choice package dbvt makes
// for its own unknown-leaf-id case.
func assertHandle(ok bool, msg string) {
	if !ok {
		panic("collide: " + msg)
	}
}
