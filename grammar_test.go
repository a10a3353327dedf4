package zbridge

import (
	"strings"
	"testing"
)

type typeTester struct {
	input string
	want  TypeSpelling
	ok    bool
}

var typeTests = map[string]*typeTester{
	"scalar":            {input: "i32", want: "i32", ok: true},
	"unit":              {input: "void", want: "void", ok: true},
	"c-abi":             {input: "c_ulong", want: "c_ulong", ok: true},
	"bridge-scalar":     {input: "beam.term", want: "beam.term", ok: true},
	"slice":             {input: "[]u8", want: "[]u8", ok: true},
	"slice-spaced":      {input: "[ ]  f64", want: "[]f64", ok: true},
	"cstring":           {input: "[*c]u8", want: CStringSpelling, ok: true},
	"cstring-spaced":    {input: "[ * c ] u8", want: CStringSpelling, ok: true},
	"unknown":           {input: "foo_t", ok: false},
	"unknown-dotted":    {input: "beam.banana", ok: false},
	"unknown-slice":     {input: "[]foo", ok: false},
	"unsupported-elem":  {input: "[]bool", ok: false},
	"bare-bracket":      {input: "[", ok: false},
	"signed-vs-unknown": {input: "i33", ok: false},
}

func TestMatchType(t *testing.T) {
	for name, conf := range typeTests {
		c := newCursor(conf.input)
		got, ok := matchType(c)
		if ok != conf.ok {
			t.Errorf("[%s] expected ok=%v, got %v", name, conf.ok, ok)
			continue
		}
		if conf.ok && got != conf.want {
			t.Errorf("[%s] expected %q, got %q", name, conf.want, got)
		}
		if !conf.ok && c.pos != 0 {
			t.Errorf("[%s] failed match must not consume input, cursor at %d", name, c.pos)
		}
	}
}

type annotationTester struct {
	line string

	name    string
	arity   int
	options []string
	err     string
}

var annotationTests = map[string]*annotationTester{
	"plain": {
		line: "/// nif: add/2",
		name: "add", arity: 2,
	},
	"padded": {
		line: "   ///   nif:   add/2  ",
		name: "add", arity: 2,
	},
	"one-option": {
		line: "/// nif: crunch/1 dirty_io",
		name: "crunch", arity: 1, options: []string{"dirty_io"},
	},
	"all-options": {
		line: "/// nif: crunch/1 dirty_cpu dirty_io threaded yielding",
		name: "crunch", arity: 1,
		options: []string{"dirty_cpu", "dirty_io", "threaded", "yielding"},
	},
	"no-name": {
		line: "/// nif: /2",
		err:  "expected a function name",
	},
	"no-slash": {
		line: "/// nif: add",
		err:  "expected name/arity",
	},
	"no-arity": {
		line: "/// nif: add/",
		err:  "expected arity digits",
	},
	"bad-option": {
		line: "/// nif: add/2 fast",
		err:  `unknown option "fast"`,
	},
	"stray-delimiter": {
		line: "/// nif: add/2 ,dirty_cpu",
		err:  "unexpected trailing characters",
	},
}

func (t *annotationTester) runTest(test *testing.T, name string) {
	ctx := &ScanContext{file: "test.zig"}
	err := parseAnnotation(ctx, t.line, 7)

	if t.err != "" {
		perr, ok := err.(*ParseError)
		if !ok {
			test.Errorf("[%s] expected a located error, got %v", name, err)
			return
		}
		if perr.Line != 7 {
			test.Errorf("[%s] expected error on line 7, got %d", name, perr.Line)
		}
		if !strings.Contains(perr.Msg, t.err) {
			test.Errorf("[%s] expected error containing %q, got %q", name, t.err, perr.Msg)
		}
		return
	}

	if err != nil {
		test.Errorf("[%s] failed to parse annotation: %v", name, err)
		return
	}
	p := ctx.pending
	if p == nil {
		test.Errorf("[%s] no pending annotation recorded", name)
		return
	}
	if p.name != t.name || p.arity != t.arity || p.line != 7 {
		test.Errorf("[%s] expected %s/%d on line 7, got %s/%d on line %d",
			name, t.name, t.arity, p.name, p.arity, p.line)
	}
	if len(p.options) != len(t.options) {
		test.Errorf("[%s] expected options %v, got %v", name, t.options, p.options)
		return
	}
	for i := range p.options {
		if p.options[i] != t.options[i] {
			test.Errorf("[%s] expected options %v, got %v", name, t.options, p.options)
			return
		}
	}
}

func TestParseAnnotation(t *testing.T) {
	for name, conf := range annotationTests {
		conf.runTest(t, name)
	}
}

func TestAnnotationLookahead(t *testing.T) {
	// doc accumulation must refuse annotation lines
	if isDocLine("/// nif: add/2") {
		t.Error("annotation line classified as documentation")
	}
	if !isDocLine("/// adds numbers") {
		t.Error("documentation line not recognized")
	}
	if !isAnnotationLine("   /// nif: add/2") {
		t.Error("padded annotation line not recognized")
	}
}
