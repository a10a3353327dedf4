package zbridge

import "slices"

// TypeSpelling is one member of the closed type vocabulary accepted in
// parameter and return position. Anything outside the vocabulary is a
// parse-time failure, never an open string.
type TypeSpelling string

// The null-terminated byte buffer pointer form. Matched before the generic
// slice form: both open with '[', and this one would otherwise be cut
// short at the star.
const CStringSpelling TypeSpelling = "[*c]u8"

var scalarSpellings = []TypeSpelling{
	"bool", "void",
	"u8", "u16", "u32", "u64", "usize",
	"i8", "i16", "i32", "i64", "isize",
	"f16", "f32", "f64",
	"c_int", "c_uint", "c_long", "c_ulong",
	// host-bridge scalars
	"beam.env", "beam.pid", "beam.term", "beam.binary",
}

// element types allowed inside a slice form
var sliceElems = []string{
	"u8", "u16", "u32", "u64",
	"i8", "i16", "i32", "i64",
	"f16", "f32", "f64",
	"beam.term",
}

// matchType reads one vocabulary member at the cursor. A failed match
// restores the cursor so the caller can report the offending token.
func matchType(c *cursor) (TypeSpelling, bool) {
	if t, ok := matchCString(c); ok {
		return t, ok
	}
	if t, ok := matchSlice(c); ok {
		return t, ok
	}
	return matchScalar(c)
}

func matchCString(c *cursor) (TypeSpelling, bool) {
	m := c.mark()
	fail := func() (TypeSpelling, bool) {
		c.reset(m)
		return "", false
	}

	if !c.eat('[') {
		return fail()
	}
	c.skipSpace()
	if !c.eat('*') {
		return fail()
	}
	c.skipSpace()
	if !c.eat('c') {
		return fail()
	}
	c.skipSpace()
	if !c.eat(']') {
		return fail()
	}
	c.skipSpace()
	if !c.lit("u8") {
		return fail()
	}
	return CStringSpelling, true
}

// matchSlice normalizes every slice form to "[]<elem>" no matter the
// internal whitespace.
func matchSlice(c *cursor) (TypeSpelling, bool) {
	m := c.mark()
	fail := func() (TypeSpelling, bool) {
		c.reset(m)
		return "", false
	}

	if !c.eat('[') {
		return fail()
	}
	c.skipSpace()
	if !c.eat(']') {
		return fail()
	}
	c.skipSpace()
	elem, ok := c.qualIdent()
	if !ok || !slices.Contains(sliceElems, elem) {
		return fail()
	}
	return TypeSpelling("[]" + elem), true
}

func matchScalar(c *cursor) (TypeSpelling, bool) {
	m := c.mark()
	word, ok := c.qualIdent()
	if !ok || !slices.Contains(scalarSpellings, TypeSpelling(word)) {
		c.reset(m)
		return "", false
	}
	return TypeSpelling(word), true
}
