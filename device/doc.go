// Package device holds the time-bounded device cache built from the
// automation backend's live context dump.
//
// The live context is a line oriented text block where every entity is a
// run of "key: value" lines terminated by a blank line:
//
//	entity_id: cover.garage_door_left
//	names: Garage Door Left
//	state: closed
//	area: Garage
//
// Parse replaces the whole snapshot in one step, Find resolves a loosely
// spoken device name to a Record (exact, substring, then word overlap) and
// IsStale reports whether the snapshot is older than the configured TTL.
//
// A Cache is safe for concurrent use. Readers never observe a partially
// rebuilt snapshot.
package device
