package utils

// Deref returns the value behind v, or T's zero value when v is nil.
// Query paths use it so a session that was cleared mid-call reads as
// empty instead of panicking.
func Deref[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}
