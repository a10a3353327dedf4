package zbridge

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
	"github.com/zbridge/pkg/ast"
)

const M_EXT = ".bridge"

// A project manifest names the annotated sources to catalog and the
// execution options each module defaults to.
type Manifest struct {
	Name string
	// Module name -> source file path
	Sources map[string]string
	// Module name -> default options
	Options map[string][]string
}

type ManifestParser interface {
	Parse(string, io.Reader) (*Manifest, error)
}

type manifestParser struct {
	parser *participle.Parser[ast.Manifest]
}

func NewManifestParser() *manifestParser {
	p := participle.MustBuild[ast.Manifest](
		participle.Unquote("String"),
		participle.Union[ast.Value](ast.String{}, ast.Number{}, ast.List{}),
	)

	return &manifestParser{parser: p}
}

func (p *manifestParser) Parse(fname string, r io.Reader) (*Manifest, error) {
	m, err := p.parser.Parse(fname, r)
	if err != nil {
		return nil, err
	}
	return p.bind(fname, m)
}

// Converts the AST manifest to an actual Manifest object
func (p *manifestParser) bind(fname string, m *ast.Manifest) (*Manifest, error) {
	manifest := Manifest{
		Name:    fname,
		Sources: make(map[string]string),
		Options: make(map[string][]string),
	}

	// name property overrides the file name. ignore the rest
	for _, prop := range m.Properties {
		switch prop.Key {
		case "name":
			if v, ok := prop.Value.(ast.String); ok {
				manifest.Name = v.String
			}
		}
	}

	for _, mod := range m.Mods {
		for _, attr := range mod.Attributes {
			switch attr.Key {
			case "src":
				if v, ok := attr.Value.(ast.String); ok {
					manifest.Sources[mod.Name] = v.String
				}
			case "opts":
				switch v := attr.Value.(type) {
				case ast.List:
					manifest.Options[mod.Name] = v.List
				case ast.String:
					manifest.Options[mod.Name] = []string{v.String}
				}
			}
		}
		if _, ok := manifest.Sources[mod.Name]; !ok {
			return nil, errors.Errorf("module %s declares no src", mod.Name)
		}
	}
	return &manifest, nil
}

// LoadManifest reads and binds a .bridge manifest from disk.
func LoadManifest(fpath string) (*Manifest, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open manifest")
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(fpath), M_EXT)
	return NewManifestParser().Parse(name, f)
}
