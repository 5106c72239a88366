// Package table
// Author: momentics <momentics@gmail.com>
//
// Bounded registry of live connections. Slots are addressed by a SlotID that
// pairs the array index with a per-slot generation, so an id held from an
// earlier occupant never resolves to a connection inserted later.
//
// The table is not safe for concurrent mutation; the echo loop owns it.

package table
