package zbridge

import (
	"fmt"
	"strings"
)

// Declaration is the validated record for one bridge function. It is
// assembled only by the function-header grammar, after the adjacency and
// arity checks have passed, and is immutable afterwards.
type Declaration struct {
	Name    string
	Arity   int
	Params  []TypeSpelling
	Retval  TypeSpelling
	Doc     string
	Options []string

	// Line is the header's absolute line in the originating file.
	Line int
}

// ParseOutcome pairs the reconstructed source text with the declarations
// found in it, in source order. The text keeps every line that was not
// declaration material, byte for byte, behind a one-line location marker.
type ParseOutcome struct {
	Text  string
	Decls []*Declaration
}

// Parse scans an annotated source blob for bridge function declarations.
//
// file is used only for diagnostics. startLine is the absolute line number
// of the blob's first line, so diagnostics stay correct when the blob is
// embedded inside a larger host file.
//
// The returned error, when not nil, is always a *ParseError: the parse
// aborted at the first hard failure and produced no partial outcome.
func Parse(text, file string, startLine int) (*ParseOutcome, error) {
	ctx := &ScanContext{file: file}

	var out strings.Builder
	var decls []*Declaration
	fmt.Fprintf(&out, "// ref: %s line: %d\n", file, startLine)

	for i, raw := range splitLines(text) {
		lineno := startLine + i
		line := strings.TrimSuffix(raw, "\n")

		switch {
		case isAnnotationLine(line):
			if err := parseAnnotation(ctx, line, lineno); err != nil {
				return nil, err
			}

		case isDocLine(line):
			ctx.addDoc(raw, line)

		default:
			decl, matched, err := parseHeader(ctx, line, lineno)
			if err != nil {
				return nil, err
			}
			if matched {
				decls = append(decls, decl)
				continue
			}

			// neither doc nor header: a pending annotation is dangling,
			// reported against its own line
			if p := ctx.pending; p != nil {
				return nil, parseErrorf(file, p.line, "missing function header for nif %s", p.name)
			}
			ctx.flushDoc(&out)
			out.WriteString(raw)
		}
	}

	if p := ctx.pending; p != nil {
		return nil, parseErrorf(file, p.line, "missing function header for nif %s", p.name)
	}
	ctx.flushDoc(&out)

	return &ParseOutcome{Text: out.String(), Decls: decls}, nil
}

// splitLines cuts text into lines with their terminators attached, so
// concatenating the pass-through segments reproduces the input exactly.
func splitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}
