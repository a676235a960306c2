// Package marshal decodes CPython's marshal format (the wire format used by
// compiled ".pyc" bytecode artifacts, version 3.14) into a flat, indexed
// object region.
//
// Use Loads to decode a byte slice obtained from a compiled artifact (with
// the file header already stripped) into a Region:
//
//	region, err := marshal.Loads(data)
//	root, err := region.Get(0)
//
// Every object that would, in the source format, hold a pointer to another
// object instead holds an integer index into the Region. This mirrors how a
// self-referential object graph is made representable without cycles at the
// storage layer: see Region for details.
package marshal
