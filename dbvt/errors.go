package dbvt

// mustHold panics with msg if cond is false. Used the way
// undefinedopcode-cp's Space uses its own assert(cond, msg) helper
// throughout space.go: to fence off programming errors (spec.md §7
// UnknownHandle — "the implementation may assert or return a
// sentinel... Programming errors may abort") without turning every
// call site into an if/panic pair. It is not named assert so that it
// does not collide with the testify assert package the tests import.
func mustHold(cond bool, msg string) {
	if !cond {
		panic("dbvt: " + msg)
	}
}
