package interp

import (
	"github.com/dolthub/swiss"

	"github.com/leastinformednerd/cpybc/lift"
	"github.com/leastinformednerd/cpybc/marshal"
)

// CPython's co_localsplus kind byte flags (Include/internal/pycore_code.h,
// 3.11+). A slot is a cell or free variable if either bit is set; otherwise
// it's a plain fast local. This package has no reference implementation to
// ground this split on: it follows CPython's own documented layout.
const (
	coFastCell = 0x40
	coFastFree = 0x80
)

// PlaceCache memoizes UnresolvedPlace resolution against one code object.
// Every use of a given locals_plus slot resolves to the same Place, so a
// code object with a large block count would otherwise re-walk
// LocalsPlusKinds for the same index over and over.
type PlaceCache struct {
	m *swiss.Map[uint32, Place]
}

// NewPlaceCache returns an empty cache.
func NewPlaceCache() *PlaceCache {
	return &PlaceCache{m: swiss.NewMap[uint32, Place](8)}
}

// EvalPlace resolves an UnresolvedPlace against code's symbol tables.
//
// Global and Name places both index the names table and, absent further
// static analysis, are both dynamically-scoped lookups: they resolve to the
// same GlobalPlace shape. Local places are split into LocalPlace or
// CellPlace by consulting code's locals_plus_kinds; Cell places already
// carry their final shape and pass through unchanged.
func EvalPlace(code marshal.CodeObject, from lift.UnresolvedPlace, cache *PlaceCache) (Place, error) {
	switch p := from.(type) {
	case lift.GlobalPlace:
		return GlobalPlace{Index: p.Index}, nil
	case lift.NamePlace:
		return GlobalPlace{Index: p.Index}, nil
	case lift.CellPlace:
		return CellPlace{Index: p.Index}, nil
	case lift.LocalPlace:
		if cached, ok := cache.m.Get(p.Index); ok {
			return cached, nil
		}
		resolved, err := resolveLocal(code, p.Index)
		if err != nil {
			return nil, err
		}
		cache.m.Put(p.Index, resolved)
		return resolved, nil
	}
	return nil, &Error{Kind: UnresolvablePlace}
}

func resolveLocal(code marshal.CodeObject, idx uint32) (Place, error) {
	kinds := code.LocalsPlusKinds()
	if int(idx) >= len(kinds) {
		return nil, &Error{Kind: PlaceIndexOutOfRange, Operand: idx}
	}
	if kinds[idx]&(coFastCell|coFastFree) != 0 {
		return CellPlace{Index: idx}, nil
	}
	return LocalPlace{Index: idx}, nil
}
