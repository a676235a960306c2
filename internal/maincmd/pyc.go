package maincmd

import (
	"fmt"
	"os"

	"github.com/leastinformednerd/cpybc/marshal"
)

// pycHeaderSize is the size of a PEP 552 .pyc header: a 4-byte magic
// number, a 4-byte bit field, and either an 8-byte (mtime, source size)
// pair or an 8-byte source hash, depending on the bit field's low bit.
// Either way the marshal stream starts right after these 16 bytes.
const pycHeaderSize = 16

// readCodeObject reads a .pyc file, strips its header, and unmarshals and
// validates its root code object.
func readCodeObject(path string) (marshal.CodeObject, *marshal.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return marshal.CodeObject{}, nil, err
	}
	if len(data) < pycHeaderSize {
		return marshal.CodeObject{}, nil, fmt.Errorf("%s: too short to be a .pyc file", path)
	}

	region, err := marshal.Loads(data[pycHeaderSize:])
	if err != nil {
		return marshal.CodeObject{}, nil, fmt.Errorf("%s: %w", path, err)
	}

	root, err := region.Get(0)
	if err != nil {
		return marshal.CodeObject{}, nil, err
	}
	ctor, err := marshal.AsCode(root)
	if err != nil {
		return marshal.CodeObject{}, nil, fmt.Errorf("%s: root object is not a code object: %w", path, err)
	}
	code, err := ctor.Construct(region)
	if err != nil {
		return marshal.CodeObject{}, nil, fmt.Errorf("%s: %w", path, err)
	}
	return code, region, nil
}
