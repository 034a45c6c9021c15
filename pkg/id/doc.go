// Package id generates store-assigned sequence ids for timeline rows.
//
// # Format
//
// A sequence id is a positive int64 holding microseconds since the Unix
// epoch. Ids from one Generator are strictly increasing, so they sort rows of
// a timeline in write order and encode to big-endian keys that preserve it.
//
// # Monotonicity
//
// The Generator ensures per-process monotonicity:
//   - If the system clock regresses, it continues from the last id issued.
//   - Ids issued within the same microsecond are bumped by one, borrowing
//     from the future; the clock catches up on its own.
//   - Observe raises the floor to an id read back from storage so a restart
//     with a slow clock never reissues an existing id.
//
// Usage
//
//	g := id.NewGenerator()
//	seq := g.Next()
package id
