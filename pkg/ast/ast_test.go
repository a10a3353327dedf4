package ast

import (
	"testing"

	"github.com/alecthomas/participle/v2"
)

type astTester struct {
	input string
	mods  int
	props int
}

var astTests = map[string]*astTester{
	"mods-only": {
		input: `
	mod math (src: "math.zig")
	mod text (src: "text.zig"; opts: dirty_io,threaded)
	`,
		mods: 2,
	},
	"with-properties": {
		input: `
	name = "mathlib"
	version = 1
	mod math (src: "math.zig"; opts: dirty_cpu)
	`,
		mods:  1,
		props: 2,
	},
	"bare-mod": {
		input: `mod math`,
		mods:  1,
	},
}

func (t *astTester) runTest(test *testing.T, name string) {
	parser := participle.MustBuild[Manifest](
		participle.Unquote("String"),
		participle.Union[Value](String{}, Number{}, List{}),
	)

	m, err := parser.ParseString("", t.input)
	if err != nil {
		test.Errorf("[%s] failed to parse input: %v", name, err)
		return
	}

	if len(m.Mods) != t.mods {
		test.Errorf("[%s] expected %d mods, got %d", name, t.mods, len(m.Mods))
	}
	if len(m.Properties) != t.props {
		test.Errorf("[%s] expected %d properties, got %d", name, t.props, len(m.Properties))
	}
}

func TestManifestAST(t *testing.T) {
	for name, conf := range astTests {
		conf.runTest(t, name)
	}
}
