// Package symtab provides a string-interning table used to turn
// attribute names and attribute-value symbols parsed from an instance
// file into small stable integers, so every downstream package in the
// pipeline compares ids instead of strings.
package symtab

import "github.com/cespare/xxhash/v2"

// ID is an interned symbol identifier. The zero value is never
// assigned to a real symbol; Table.Intern always returns ids >= 1 so
// ID(0) can be used as a "not present" sentinel by callers.
type ID uint32

// Table interns strings to small integer ids and back. It is not
// thread-safe: each parsed Instance owns one Table and is used from
// the single verifier goroutine (spec.md §5).
type Table struct {
	byHash map[uint64][]entry
	names  []string
}

type entry struct {
	name string
	id   ID
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{byHash: make(map[uint64][]entry), names: []string{""}}
}

// Intern returns the id for name, assigning a new one if name has not
// been seen before.
func (t *Table) Intern(name string) ID {
	h := xxhash.Sum64String(name)
	for _, e := range t.byHash[h] {
		if e.name == name {
			return e.id
		}
	}
	id := ID(len(t.names))
	t.names = append(t.names, name)
	t.byHash[h] = append(t.byHash[h], entry{name: name, id: id})
	return id
}

// Lookup returns the id already assigned to name, and false if name
// has never been interned.
func (t *Table) Lookup(name string) (ID, bool) {
	h := xxhash.Sum64String(name)
	for _, e := range t.byHash[h] {
		if e.name == name {
			return e.id, true
		}
	}
	return 0, false
}

// Name returns the string a previously interned id was assigned to. It
// panics if id was never produced by this table.
func (t *Table) Name(id ID) string {
	if int(id) >= len(t.names) {
		panic("symtab: id not owned by this table")
	}
	return t.names[id]
}

// Len reports how many distinct symbols have been interned.
func (t *Table) Len() int { return len(t.names) - 1 }
