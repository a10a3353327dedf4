package zbridge

import (
	"slices"
	"strconv"
	"strings"
)

const (
	docMarker = "///"
	nifMarker = "nif:"
	fnKeyword = "fn"
)

// Execution options a nif annotation may carry. Anything else trailing the
// name/arity pair is a malformed annotation.
var nifOptions = []string{"dirty_cpu", "dirty_io", "threaded", "yielding"}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// cursor is a byte cursor over a single line. Grammar rules save a mark and
// restore it on a failed match, so a no-match never consumes input.
type cursor struct {
	s   string
	pos int
}

func newCursor(s string) *cursor { return &cursor{s: s} }

func (c *cursor) mark() int   { return c.pos }
func (c *cursor) reset(m int) { c.pos = m }
func (c *cursor) eof() bool   { return c.pos >= len(c.s) }

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.s[c.pos]
}

func (c *cursor) eat(b byte) bool {
	if c.peek() != b {
		return false
	}
	c.pos++
	return true
}

func (c *cursor) lit(s string) bool {
	if !strings.HasPrefix(c.s[c.pos:], s) {
		return false
	}
	c.pos += len(s)
	return true
}

func (c *cursor) skipSpace() {
	for !c.eof() && isSpace(c.s[c.pos]) {
		c.pos++
	}
}

func (c *cursor) ident() (string, bool) {
	if !isLetter(c.peek()) {
		return "", false
	}
	start := c.pos
	for !c.eof() && (isLetter(c.s[c.pos]) || isDigit(c.s[c.pos])) {
		c.pos++
	}
	return c.s[start:c.pos], true
}

// qualIdent reads an identifier with at most one dotted segment, which is
// how the host-bridge scalars (beam.term and friends) are spelled.
func (c *cursor) qualIdent() (string, bool) {
	name, ok := c.ident()
	if !ok {
		return "", false
	}
	m := c.mark()
	if c.eat('.') {
		if seg, ok := c.ident(); ok {
			return name + "." + seg, true
		}
		c.reset(m)
	}
	return name, true
}

func (c *cursor) digits() (string, bool) {
	if !isDigit(c.peek()) {
		return "", false
	}
	start := c.pos
	for !c.eof() && isDigit(c.s[c.pos]) {
		c.pos++
	}
	return c.s[start:c.pos], true
}

// badToken returns the run of characters at the cursor up to the next
// delimiter, for error reporting when a type match fails.
func (c *cursor) badToken() string {
	start := c.pos
	for !c.eof() && !strings.ContainsRune(" \t,(){", rune(c.s[c.pos])) {
		c.pos++
	}
	return strings.TrimSpace(c.s[start:c.pos])
}

// pendingNif is an annotation waiting for its function header. The line is
// the annotation's own, used when it turns out dangling.
type pendingNif struct {
	name    string
	arity   int
	options []string
	line    int
}

// ScanContext is the mutable state threaded across one parse call. It is
// owned by the line driver and never shared across calls.
type ScanContext struct {
	file string

	pending *pendingNif

	// doc holds the trimmed documentation lines; docRaw the originals, so
	// a block that never attaches to a declaration can be restored into
	// the output verbatim.
	doc    []string
	docRaw []string

	params []TypeSpelling
	ret    TypeSpelling
}

func (ctx *ScanContext) clear() {
	ctx.pending = nil
	ctx.doc, ctx.docRaw = nil, nil
	ctx.params, ctx.ret = nil, ""
}

func (ctx *ScanContext) addDoc(raw, line string) {
	stripped := strings.TrimPrefix(strings.TrimSpace(line), docMarker)
	trimmed := strings.TrimSpace(stripped)

	ctx.docRaw = append(ctx.docRaw, raw)
	if trimmed == "" && len(ctx.doc) == 0 {
		// an empty doc line opens nothing
		return
	}
	ctx.doc = append(ctx.doc, trimmed)
}

func (ctx *ScanContext) docText() string {
	return strings.Join(ctx.doc, "\n")
}

func (ctx *ScanContext) flushDoc(out *strings.Builder) {
	for _, raw := range ctx.docRaw {
		out.WriteString(raw)
	}
	ctx.doc, ctx.docRaw = nil, nil
}

// isAnnotationLine reports whether the line carries the nif marker. Used
// both by the driver and as the docstring grammar's lookahead, so doc
// accumulation never swallows an annotation.
func isAnnotationLine(line string) bool {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, docMarker) {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(t[len(docMarker):]), nifMarker)
}

func isDocLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), docMarker) && !isAnnotationLine(line)
}

// parseAnnotation parses "/// nif: name/arity [option]...". The caller
// already matched the marker, so any deviation past it is a hard error.
// Tokens are consumed left to right: name, slash, arity digits, then one
// recognized option at a time.
func parseAnnotation(ctx *ScanContext, line string, lineno int) error {
	c := newCursor(strings.TrimSpace(line))
	c.lit(docMarker)
	c.skipSpace()
	c.lit(nifMarker)
	c.skipSpace()

	name, ok := c.ident()
	if !ok {
		return parseErrorf(ctx.file, lineno, "malformed nif annotation: expected a function name")
	}
	if !c.eat('/') {
		return parseErrorf(ctx.file, lineno, "malformed nif annotation: expected name/arity after %q", name)
	}
	digits, ok := c.digits()
	if !ok {
		return parseErrorf(ctx.file, lineno, "malformed nif annotation: expected arity digits after %q", name+"/")
	}
	arity, err := strconv.Atoi(digits)
	if err != nil {
		return parseErrorf(ctx.file, lineno, "malformed nif annotation: bad arity %q", digits)
	}

	var opts []string
	for {
		c.skipSpace()
		if c.eof() {
			break
		}
		word := c.badToken()
		if word == "" {
			return parseErrorf(ctx.file, lineno, "malformed nif annotation: unexpected trailing characters")
		}
		if !slices.Contains(nifOptions, word) {
			return parseErrorf(ctx.file, lineno, "malformed nif annotation: unknown option %q", word)
		}
		opts = append(opts, word)
	}

	// at most one live annotation at a time
	ctx.pending = &pendingNif{name: name, arity: arity, options: opts, line: lineno}
	return nil
}

// parseHeader attempts the function-header grammar on one line.
//
// matched reports whether the line was consumed: false means the driver
// should fall through to the next branch. The rule commits once it has
// seen "fn name(": from there a non-vocabulary type is a hard error that
// no other branch may swallow, while structural mismatches still
// backtrack. Headers without a pending annotation are ordinary functions
// and are left to the pass-through branch.
func parseHeader(ctx *ScanContext, line string, lineno int) (decl *Declaration, matched bool, err error) {
	c := newCursor(line)
	c.skipSpace()

	if c.lit("pub") {
		if !isSpace(c.peek()) {
			return nil, false, nil
		}
		c.skipSpace()
	}
	if !c.lit(fnKeyword) {
		return nil, false, nil
	}
	if !isSpace(c.peek()) {
		return nil, false, nil
	}
	c.skipSpace()

	name, ok := c.ident()
	if !ok {
		return nil, false, nil
	}
	c.skipSpace()
	if !c.eat('(') {
		return nil, false, nil
	}

	// committed
	ctx.params = nil
	backtrack := func() (*Declaration, bool, error) {
		ctx.params, ctx.ret = nil, ""
		return nil, false, nil
	}

	for {
		c.skipSpace()
		if c.eat(')') {
			break
		}
		if _, ok := c.ident(); !ok {
			return backtrack()
		}
		c.skipSpace()
		if !c.eat(':') {
			return backtrack()
		}
		c.skipSpace()
		t, ok := matchType(c)
		if !ok {
			return nil, false, parseErrorf(ctx.file, lineno, "unknown parameter type %q", c.badToken())
		}
		ctx.params = append(ctx.params, t)
		c.skipSpace()
		if c.eat(',') {
			continue
		}
		if c.eat(')') {
			break
		}
		return backtrack()
	}

	c.skipSpace()
	ret, ok := matchType(c)
	if !ok {
		tok := c.badToken()
		if tok == "" {
			return nil, false, parseErrorf(ctx.file, lineno, "missing return type")
		}
		return nil, false, parseErrorf(ctx.file, lineno, "unknown return type %q", tok)
	}
	ctx.ret = ret
	// the rest of the line opens the function body and is opaque

	if ctx.pending == nil {
		// not a bridge function, pass the line through unchanged
		ctx.params, ctx.ret = nil, ""
		return nil, false, nil
	}

	p := ctx.pending
	if p.name != name {
		return nil, false, parseErrorf(ctx.file, lineno,
			"nif annotation %q is not followed by its function: found %q", p.name, name)
	}
	if len(ctx.params) != p.arity {
		return nil, false, parseErrorf(ctx.file, lineno,
			"nif %s declares arity %d but function takes %d", p.name, p.arity, len(ctx.params))
	}

	decl = &Declaration{
		Name:    name,
		Arity:   p.arity,
		Params:  slices.Clone(ctx.params),
		Retval:  ctx.ret,
		Doc:     ctx.docText(),
		Options: p.options,
		Line:    lineno,
	}
	ctx.clear()
	return decl, true, nil
}
