package marshal

import (
	"strconv"
	"unicode/utf8"
)

// pyquote quotes s with ", similarly to strconv.Quote, but does not use
// \u or \U escapes inside: Python's own repr() never produces them for an
// ordinary str, and this package's debug output is meant to look like
// something that could be pasted back into a Python REPL.
func pyquote(s string) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 0, len(s))

	for {
		r, width := utf8.DecodeRuneInString(s)
		if width == 0 {
			break
		}

		emitRaw := false

		switch {
		case r == utf8.RuneError:
			fallthrough
		default:
			emitRaw = true

		case r == '\\' || r == '"':
			out = append(out, '\\', byte(r))

		case strconv.IsPrint(r):
			out = append(out, s[:width]...)

		case r < ' ':
			rq := strconv.QuoteRune(r)
			rq = rq[1 : len(rq)-1]
			out = append(out, rq...)
		}

		if emitRaw {
			for i := 0; i < width; i++ {
				out = append(out, '\\', 'x', hexdigits[s[i]>>4], hexdigits[s[i]&0xf])
			}
		}

		s = s[width:]
	}

	return "\"" + string(out) + "\""
}

// Quote renders obj as a single-line, Python-repr-like debug string,
// resolving nested region indices recursively. It is meant for inspection
// and test failure messages, not as a stable serialization format.
func Quote(region *Region, obj Object) string {
	switch o := obj.(type) {
	case NoneObject:
		return "None"
	case TrueObject:
		return "True"
	case FalseObject:
		return "False"
	case StopIterObject:
		return "StopIteration"
	case EllipsisObject:
		return "Ellipsis"
	case SmallInt:
		return strconv.FormatInt(o.Value, 10)
	case LargeInt:
		v, err := AsInt64(o)
		if err != nil {
			return "<big int>"
		}
		return strconv.FormatInt(v, 10)
	case Float:
		return strconv.FormatFloat(o.Value, 'g', -1, 64)
	case Complex:
		return "(" + strconv.FormatFloat(o.Real, 'g', -1, 64) + "+" + strconv.FormatFloat(o.Imag, 'g', -1, 64) + "j)"
	case Bytes:
		return "b" + pyquote(string(o.Value))
	case String:
		return pyquote(o.Value)
	case Tuple:
		return quoteIndices(region, "(", o.Items, ")")
	case List:
		return quoteIndices(region, "[", o.Items, "]")
	case Set:
		return quoteIndices(region, "{", o.Items, "}")
	case FrozenSet:
		return "frozenset(" + quoteIndices(region, "{", o.Items, "}") + ")"
	case Dict:
		return quoteDict(region, o)
	case Code:
		return "<code>"
	}
	return "<unknown>"
}

func quoteIndices(region *Region, open string, items []int, close string) string {
	out := open
	for i, idx := range items {
		if i > 0 {
			out += ", "
		}
		out += quoteRef(region, idx)
	}
	return out + close
}

func quoteDict(region *Region, d Dict) string {
	out := "{"
	for i, p := range d.Pairs {
		if i > 0 {
			out += ", "
		}
		out += quoteRef(region, p.Key) + ": " + quoteRef(region, p.Value)
	}
	return out + "}"
}

func quoteRef(region *Region, idx int) string {
	obj, err := region.Get(idx)
	if err != nil {
		return "<dangling>"
	}
	return Quote(region, obj)
}
