package marshal

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

const refFlag byte = 0x80

const (
	tagNull               = '0'
	tagNone               = 'N'
	tagTrue               = 'T'
	tagFalse              = 'F'
	tagStopIter           = 'S'
	tagEllipsis           = '.'
	tagInt                = 'i'
	tagInt64              = 'I'
	tagFloat              = 'f'
	tagBinaryFloat        = 'g'
	tagComplex            = 'x'
	tagBinaryComplex      = 'y'
	tagLong               = 'l'
	tagString             = 's'
	tagInterned           = 't'
	tagRef                = 'r'
	tagTuple              = '('
	tagList               = '['
	tagDict               = '{'
	tagCode               = 'c'
	tagUnicode            = 'u'
	tagUnknown            = '?'
	tagSet                = '<'
	tagFrozenSet          = '>'
	tagAscii              = 'a'
	tagAsciiInterned      = 'A'
	tagSmallTuple         = ')'
	tagShortAscii         = 'z'
	tagShortAsciiInterned = 'Z'
)

// unmarshaller walks a marshal byte stream left to right, building a Region
// as it goes. Every recursive descent into a nested object goes through
// parseObject/parseTagged, which reserve the object's region slot before
// descending into its children so a child's Ref back to a not-yet-finished
// container still resolves to a valid index.
type unmarshaller struct {
	data   []byte
	pos    int
	region *Region
	refs   []int
	intern *internCache
}

// Loads decodes a marshal byte stream, with any file-specific header already
// stripped by the caller, into a Region. Index 0 of the returned Region
// holds the root object.
func Loads(data []byte) (*Region, error) {
	u := &unmarshaller{
		data:   data,
		region: &Region{},
		intern: newInternCache(),
	}
	if _, err := u.parseObject(); err != nil {
		return nil, err
	}
	return u.region, nil
}

func (u *unmarshaller) readByte() (byte, error) {
	if u.pos >= len(u.data) {
		return 0, fmt.Errorf("%w: at offset %d", ErrUnexpectedEOF, u.pos)
	}
	b := u.data[u.pos]
	u.pos++
	return b, nil
}

func (u *unmarshaller) readBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, decodingError("negative length")
	}
	if u.pos+n > len(u.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d", ErrUnexpectedEOF, n, u.pos)
	}
	b := u.data[u.pos : u.pos+n]
	u.pos += n
	return b, nil
}

func (u *unmarshaller) readU16() (uint16, error) {
	b, err := u.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (u *unmarshaller) readU32() (uint32, error) {
	b, err := u.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (u *unmarshaller) readI32() (int32, error) {
	v, err := u.readU32()
	return int32(v), err
}

func (u *unmarshaller) readI64() (int64, error) {
	b, err := u.readBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (u *unmarshaller) readF64() (float64, error) {
	b, err := u.readBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// parseObject reads one tagged object from the stream and returns its
// region index.
func (u *unmarshaller) parseObject() (int, error) {
	tagByte, err := u.readByte()
	if err != nil {
		return 0, err
	}
	return u.parseTagged(tagByte)
}

// parseTagged resolves an already-read tag byte. A Ref tag never creates a
// new region slot: it resolves straight to the index of the object it
// refers back to. An interned-string tag goes through parseInterned, which
// may also resolve to an existing slot rather than a fresh one. Every other
// tag reserves a slot, parses its body (possibly recursing, for
// containers), and fills the slot.
func (u *unmarshaller) parseTagged(tagByte byte) (int, error) {
	tag := tagByte &^ refFlag
	flagged := tagByte&refFlag != 0

	if tag == tagNull {
		return 0, ErrFoundNull
	}
	if tag == tagRef {
		n, err := u.readU32()
		if err != nil {
			return 0, err
		}
		if int(n) >= len(u.refs) {
			return 0, &DanglingRefError{Index: n}
		}
		return u.refs[n], nil
	}

	switch tag {
	case tagInterned, tagAsciiInterned:
		return u.parseInterned(u.readI32, flagged)
	case tagShortAsciiInterned:
		return u.parseInterned(u.readByteLen, flagged)
	}

	idx := u.region.reserve()
	if flagged {
		u.refs = append(u.refs, idx)
	}
	obj, err := u.parseBody(tag, idx)
	if err != nil {
		return 0, err
	}
	u.region.fill(idx, obj)
	return idx, nil
}

// parseInterned decodes an interned string and deduplicates it by content
// against every interned string already seen: a cache hit reuses the
// existing region index instead of reserving a new slot, and the ref table
// (when this occurrence is itself flagged) is pointed at that pre-existing
// index rather than a fresh one.
func (u *unmarshaller) parseInterned(readLen func() (int32, error), flagged bool) (int, error) {
	s, err := u.readLenPrefixedString(readLen)
	if err != nil {
		return 0, err
	}
	idx, ok := u.intern.lookup(s)
	if !ok {
		idx = u.region.reserve()
		u.region.fill(idx, String{Value: s})
		u.intern.put(s, idx)
	}
	if flagged {
		u.refs = append(u.refs, idx)
	}
	return idx, nil
}

func (u *unmarshaller) parseItems(n int) ([]int, error) {
	if n < 0 {
		return nil, decodingError("negative item count")
	}
	items := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx, err := u.parseObject()
		if err != nil {
			return nil, err
		}
		items = append(items, idx)
	}
	return items, nil
}

func (u *unmarshaller) parseBody(tag byte, idx int) (Object, error) {
	switch tag {
	case tagNone:
		return NoneObject{}, nil
	case tagTrue:
		return TrueObject{}, nil
	case tagFalse:
		return FalseObject{}, nil
	case tagStopIter:
		return StopIterObject{}, nil
	case tagEllipsis:
		return EllipsisObject{}, nil

	case tagInt:
		v, err := u.readI32()
		return SmallInt{Value: int64(v)}, err
	case tagInt64:
		v, err := u.readI64()
		return SmallInt{Value: v}, err

	case tagFloat:
		return u.parseLegacyFloat()
	case tagBinaryFloat:
		v, err := u.readF64()
		return Float{Value: v}, err
	case tagComplex:
		real, err := u.parseLegacyFloat()
		if err != nil {
			return nil, err
		}
		imag, err := u.parseLegacyFloat()
		if err != nil {
			return nil, err
		}
		return Complex{Real: real.(Float).Value, Imag: imag.(Float).Value}, nil
	case tagBinaryComplex:
		real, err := u.readF64()
		if err != nil {
			return nil, err
		}
		imag, err := u.readF64()
		return Complex{Real: real, Imag: imag}, err

	case tagLong:
		digits, err := u.decodeLongDigits()
		return LargeInt{Digits: digits}, err

	case tagString:
		n, err := u.readI32()
		if err != nil {
			return nil, err
		}
		b, err := u.readBytes(int(n))
		if err != nil {
			return nil, err
		}
		return Bytes{Value: append([]byte(nil), b...)}, nil

	case tagUnicode, tagAscii:
		s, err := u.readLenPrefixedString(u.readI32)
		if err != nil {
			return nil, err
		}
		return String{Value: s}, nil

	case tagShortAscii:
		s, err := u.readLenPrefixedString(u.readByteLen)
		if err != nil {
			return nil, err
		}
		return String{Value: s}, nil

	case tagTuple:
		n, err := u.readI32()
		if err != nil {
			return nil, err
		}
		items, err := u.parseItems(int(n))
		return Tuple{Items: items}, err
	case tagSmallTuple:
		n, err := u.readByte()
		if err != nil {
			return nil, err
		}
		items, err := u.parseItems(int(n))
		return Tuple{Items: items}, err
	case tagList:
		n, err := u.readI32()
		if err != nil {
			return nil, err
		}
		items, err := u.parseItems(int(n))
		return List{Items: items}, err
	case tagSet:
		n, err := u.readI32()
		if err != nil {
			return nil, err
		}
		items, err := u.parseItems(int(n))
		if err != nil {
			return nil, err
		}
		return Set{Items: dedupIndices(items)}, nil
	case tagFrozenSet:
		n, err := u.readI32()
		if err != nil {
			return nil, err
		}
		items, err := u.parseItems(int(n))
		if err != nil {
			return nil, err
		}
		return FrozenSet{Items: dedupIndices(items)}, nil

	case tagDict:
		return u.parseDict()

	case tagCode:
		return u.parseCode()

	case tagUnknown:
		return nil, ErrExplicitUnknown
	}

	return nil, invalidTagError(tag)
}

// readLenPrefixedString reads a length with readLen and then that many bytes
// of UTF-8 text. It is shared by the six text tags (plain and interned),
// which differ only in how their length is encoded (int32 vs a single
// length byte).
func (u *unmarshaller) readLenPrefixedString(readLen func() (int32, error)) (string, error) {
	n, err := readLen()
	if err != nil {
		return "", err
	}
	b, err := u.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (u *unmarshaller) readByteLen() (int32, error) {
	n, err := u.readByte()
	return int32(n), err
}

func (u *unmarshaller) parseLegacyFloat() (Object, error) {
	n, err := u.readByte()
	if err != nil {
		return nil, err
	}
	b, err := u.readBytes(int(n))
	if err != nil {
		return nil, err
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil, decodingError("malformed legacy float literal")
	}
	return Float{Value: v}, nil
}

func (u *unmarshaller) parseDict() (Object, error) {
	var pairs []DictPair
	for {
		tagByte, err := u.readByte()
		if err != nil {
			return nil, err
		}
		if tagByte&^refFlag == tagNull {
			break
		}
		keyIdx, err := u.parseTagged(tagByte)
		if err != nil {
			return nil, err
		}
		valIdx, err := u.parseObject()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, DictPair{Key: keyIdx, Value: valIdx})
	}
	return Dict{Pairs: pairs}, nil
}

func (u *unmarshaller) parseCode() (Object, error) {
	argCount, err := u.readI32()
	if err != nil {
		return nil, err
	}
	posOnly, err := u.readI32()
	if err != nil {
		return nil, err
	}
	kwOnly, err := u.readI32()
	if err != nil {
		return nil, err
	}
	stackSize, err := u.readI32()
	if err != nil {
		return nil, err
	}
	flags, err := u.readI32()
	if err != nil {
		return nil, err
	}

	codeIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	constsIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	namesIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	localsPlusNamesIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	localsPlusKindsIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	filenameIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	nameIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	qualnameIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}

	firstLineNo, err := u.readI32()
	if err != nil {
		return nil, err
	}

	lineTableIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}
	exceptionTableIdx, err := u.parseObject()
	if err != nil {
		return nil, err
	}

	ctor := &CodeConstructor{
		ArgCount:           argCount,
		PosOnlyArgCount:    posOnly,
		KwOnlyArgCount:     kwOnly,
		StackSize:          stackSize,
		Flags:              flags,
		CodeIdx:            codeIdx,
		ConstsIdx:          constsIdx,
		NamesIdx:           namesIdx,
		LocalsPlusNamesIdx: localsPlusNamesIdx,
		LocalsPlusKindsIdx: localsPlusKindsIdx,
		FilenameIdx:        filenameIdx,
		NameIdx:            nameIdx,
		QualifiedNameIdx:   qualnameIdx,
		FirstLineNo:        firstLineNo,
		LineTableIdx:       lineTableIdx,
		ExceptionTableIdx:  exceptionTableIdx,
	}
	if _, err := ctor.Construct(u.region); err != nil {
		return nil, err
	}
	return Code{CodeConstructor: ctor}, nil
}

// decodeLongDigits reassembles CPython's 15-bit marshal long digits into a
// big.Int and re-encodes it in the sign-byte-plus-magnitude layout LargeInt
// stores (see digitsFromBigInt).
func (u *unmarshaller) decodeLongDigits() ([]byte, error) {
	n, err := u.readI32()
	if err != nil {
		return nil, err
	}
	size := int(n)
	neg := false
	if size < 0 {
		neg = true
		size = -size
	}
	v := new(big.Int)
	for i := 0; i < size; i++ {
		d, err := u.readU16()
		if err != nil {
			return nil, err
		}
		if d > 0x7fff {
			return nil, decodingError("long digit out of range")
		}
		term := new(big.Int).Lsh(big.NewInt(int64(d)), uint(15*i))
		v.Or(v, term)
	}
	if neg {
		v.Neg(v)
	}
	return digitsFromBigInt(v), nil
}

func digitsFromBigInt(v *big.Int) []byte {
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	mag := new(big.Int).Abs(v).Bytes()
	out := make([]byte, 1+len(mag))
	out[0] = sign
	copy(out[1:], mag)
	return out
}
