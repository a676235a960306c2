package marshal

import (
	"hash/maphash"
)

// maphash_String hashes s under seed, for use as gomap's hash callback.
func maphash_String(seed maphash.Seed, s string) uint64 {
	var h maphash.Hash
	h.SetSeed(seed)
	h.WriteString(s)
	return h.Sum64()
}
