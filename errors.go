package zbridge

import "fmt"

// ParseError is a hard, unrecoverable parse failure. It carries the file
// and the 1-based line of the earliest structural issue so the host build
// can surface it as a compile-time diagnostic.
//
// Grammar branches that simply fail to match never produce a ParseError;
// they report a plain no-match and the line driver tries the next branch.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func parseErrorf(file string, line int, format string, args ...any) *ParseError {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}
