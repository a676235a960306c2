//go:build gofuzz

package marshal

// Fuzz is the entry point for go-fuzz. It only asserts that Loads never
// panics and that every slot of a successfully decoded Region can be read
// back with Get; errors from Loads are not inspected. marshal is
// decode-only, so there is no encode step to round trip against.
func Fuzz(data []byte) int {
	region, err := Loads(data)
	if err != nil {
		return 0
	}
	for i := 0; i < region.Len(); i++ {
		if _, err := region.Get(i); err != nil {
			panic(err)
		}
	}
	return 1
}
