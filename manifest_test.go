package zbridge

import (
	"slices"
	"strings"
	"testing"
)

type manifestTester struct {
	input   string
	sources map[string]string
	options map[string][]string
	err     bool
}

var manifestTests = map[string]*manifestTester{
	"simple": {
		input: `
name = "mathlib"
mod math (src: "nifs/math.zig"; opts: dirty_cpu)
mod text (src: "nifs/text.zig")
`,
		sources: map[string]string{
			"math": "nifs/math.zig",
			"text": "nifs/text.zig",
		},
		options: map[string][]string{
			"math": {"dirty_cpu"},
		},
	},
	"option-list": {
		input: `mod heavy (src: "heavy.zig"; opts: dirty_io,threaded)`,
		sources: map[string]string{
			"heavy": "heavy.zig",
		},
		options: map[string][]string{
			"heavy": {"dirty_io", "threaded"},
		},
	},
	"missing-src": {
		input: `mod math (opts: dirty_cpu)`,
		err:   true,
	},
}

func (t *manifestTester) runTest(test *testing.T, name string) {
	p := NewManifestParser()

	m, err := p.Parse(name, strings.NewReader(t.input))
	if t.err {
		if err == nil {
			test.Errorf("[%s] expected an error, got none", name)
		}
		return
	}
	if err != nil {
		test.Errorf("[%s] failed to parse manifest: %v", name, err)
		return
	}

	for mod, src := range t.sources {
		if m.Sources[mod] != src {
			test.Errorf("[%s] expected source %q for %s, got %q", name, src, mod, m.Sources[mod])
		}
	}
	for mod, opts := range t.options {
		got := m.Options[mod]
		if len(got) != len(opts) {
			test.Errorf("[%s] expected options %v for %s, got %v", name, opts, mod, got)
			continue
		}
		for i := range opts {
			if got[i] != opts[i] {
				test.Errorf("[%s] expected options %v for %s, got %v", name, opts, mod, got)
				break
			}
		}
	}
}

func TestManifestParser(t *testing.T) {
	for name, conf := range manifestTests {
		conf.runTest(t, name)
	}
}

func TestCatalogFromManifest(t *testing.T) {
	m := &Manifest{
		Sources: map[string]string{
			"math": "nifs/math.zig",
			"text": "nifs/strings.zig",
		},
		Options: map[string][]string{
			"text": {"dirty_io"},
		},
	}

	flags := CatalogFromManifest(m, string(C_UPDATE))
	if len(flags.Allowed) != 1 || flags.Allowed[0] != "nifs" {
		t.Errorf("expected allowed [nifs], got %v", flags.Allowed)
	}
	if len(flags.Required) != 2 {
		t.Errorf("expected two required patterns, got %v", flags.Required)
	}
	if flags.Mode != string(C_UPDATE) {
		t.Errorf("expected update mode, got %s", flags.Mode)
	}

	// manifest options become defaults keyed by the source slug
	if opts := flags.Defaults["strings"]; !slices.Equal(opts, []string{"dirty_io"}) {
		t.Errorf("expected strings defaults [dirty_io], got %v", opts)
	}
	if _, ok := flags.Defaults["math"]; ok {
		t.Errorf("expected no defaults for math, got %v", flags.Defaults["math"])
	}
}
