// File: table/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package table

import (
	"fmt"

	"github.com/momentics/hioload-echo/api"
)

// DefaultCapacity is the number of simultaneously live connections.
const DefaultCapacity = 100

// SlotID identifies one occupancy of one slot.
type SlotID struct {
	Index int
	Gen   uint32
}

func (id SlotID) String() string {
	return fmt.Sprintf("%d/%d", id.Index, id.Gen)
}

// Entry is an occupied slot as returned by Occupied.
type Entry struct {
	ID   SlotID
	Conn api.Conn
}

type slot struct {
	gen  uint32
	conn api.Conn
}

// Table is a fixed-capacity slot map of live connections.
type Table struct {
	slots []slot
	live  int
}

// New creates a table with the given capacity. Non-positive capacity
// selects DefaultCapacity.
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Table{slots: make([]slot, capacity)}
}

// Cap returns the slot count.
func (t *Table) Cap() int { return len(t.slots) }

// Len returns the number of occupied slots.
func (t *Table) Len() int { return t.live }

// Insert places conn in the first empty slot found by forward scan.
func (t *Table) Insert(conn api.Conn) (SlotID, error) {
	if conn == nil {
		return SlotID{}, fmt.Errorf("insert nil conn: %w", api.ErrInvalidArgument)
	}
	free := -1
	for i := range t.slots {
		c := t.slots[i].conn
		if c == nil {
			if free < 0 {
				free = i
			}
			continue
		}
		if c.Handle() == conn.Handle() {
			return SlotID{}, fmt.Errorf("handle %d in slot %d: %w", conn.Handle(), i, api.ErrAlreadyExists)
		}
	}
	if free < 0 {
		return SlotID{}, api.ErrTableFull.WithContext("capacity", len(t.slots))
	}
	s := &t.slots[free]
	s.gen++
	s.conn = conn
	t.live++
	return SlotID{Index: free, Gen: s.gen}, nil
}

// Get resolves id to its connection when the id is still current.
func (t *Table) Get(id SlotID) (api.Conn, bool) {
	if id.Index < 0 || id.Index >= len(t.slots) {
		return nil, false
	}
	s := t.slots[id.Index]
	if s.conn == nil || s.gen != id.Gen {
		return nil, false
	}
	return s.conn, true
}

// Remove empties the slot named by id and hands back its connection.
// The connection is not closed. Stale or unknown ids are a no-op.
func (t *Table) Remove(id SlotID) (api.Conn, bool) {
	c, ok := t.Get(id)
	if !ok {
		return nil, false
	}
	t.slots[id.Index].conn = nil
	t.live--
	return c, true
}

// Range walks occupied slots in ascending index order, reading the live
// array at every step: slots emptied during the walk are skipped and slots
// filled ahead of the cursor are visited. Returning false stops the walk.
func (t *Table) Range(fn func(id SlotID, conn api.Conn) bool) {
	for i := range t.slots {
		s := t.slots[i]
		if s.conn == nil {
			continue
		}
		if !fn(SlotID{Index: i, Gen: s.gen}, s.conn) {
			return
		}
	}
}

// Occupied returns a snapshot of occupied slots in ascending index order.
func (t *Table) Occupied() []Entry {
	out := make([]Entry, 0, t.live)
	t.Range(func(id SlotID, c api.Conn) bool {
		out = append(out, Entry{ID: id, Conn: c})
		return true
	})
	return out
}

// Drain empties every slot and returns the removed connections in ascending
// slot order. Used at shutdown; the caller closes the connections.
func (t *Table) Drain() []api.Conn {
	out := make([]api.Conn, 0, t.live)
	for i := range t.slots {
		if c := t.slots[i].conn; c != nil {
			out = append(out, c)
			t.slots[i].conn = nil
		}
	}
	t.live = 0
	return out
}
