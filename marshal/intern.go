package marshal

import (
	"hash/maphash"

	"github.com/aristanetworks/gomap"
)

// internCache de-duplicates interned strings by content, the way CPython's
// own unmarshal loader interns TYPE_INTERNED/TYPE_ASCII_INTERNED/
// TYPE_SHORT_ASCII_INTERNED strings into a process-wide table (see
// SPEC_FULL.md §4, item 1). It maps decoded text to the region index of the first
// occurrence seen.
//
// This is plain string-equality, string-hash map, so it uses gomap directly
// rather than the teacher's equal/hash machinery, which exists to cover
// Python's cross-type equality (bool==int==float==Decimal); no such need
// exists here.
type internCache struct {
	seed maphash.Seed
	m    *gomap.Map[string, int]
}

func newInternCache() *internCache {
	return &internCache{
		seed: maphash.MakeSeed(),
		m:    gomap.NewHint[string, int](0, internEqual, internHash),
	}
}

func internEqual(a, b string) bool { return a == b }

func internHash(seed maphash.Seed, s string) uint64 {
	return maphash_String(seed, s)
}

// lookup returns the region index already recorded for s, if any.
func (c *internCache) lookup(s string) (int, bool) {
	return c.m.Get(s)
}

// put records idx as the canonical region index for s.
func (c *internCache) put(s string, idx int) {
	c.m.Set(s, idx)
}
