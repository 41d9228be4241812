// Package errors carries Tulpar's two diagnostic severities (spec §7):
// compile-time diagnostics from the lexer/parser, and runtime errors
// from the value/runtime ops layer. Both print with source location and
// never abort the pipeline on their own.
package errors

import "fmt"

// Kind distinguishes the severities and sub-kinds of a Tulpar diagnostic.
type Kind string

const (
	SyntaxError  Kind = "SyntaxError"
	ImportError  Kind = "ImportError"
	RuntimeError Kind = "RuntimeError"
)

// TulparError is a diagnostic with source location, matching the
// teacher's SentraError shape.
type TulparError struct {
	Kind    Kind
	Message string
	File    string
	Line    int
	Column  int
}

func (e *TulparError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s (%s:%d:%d)", e.Kind, e.Message, e.File, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Message, e.Line)
}

func NewSyntaxError(msg, file string, line, col int) *TulparError {
	return &TulparError{Kind: SyntaxError, Message: msg, File: file, Line: line, Column: col}
}

func NewImportError(msg, file string, line int) *TulparError {
	return &TulparError{Kind: ImportError, Message: msg, File: file, Line: line}
}

func NewRuntimeError(msg string, line int) *TulparError {
	return &TulparError{Kind: RuntimeError, Message: msg, Line: line}
}

// Sink collects diagnostics without aborting the phase that produced
// them, mirroring spec §7: "print to the diagnostic sink... do not
// abort, and do not prevent downstream phases from trying".
type Sink struct {
	Diagnostics []*TulparError
}

func (s *Sink) Report(e *TulparError) {
	s.Diagnostics = append(s.Diagnostics, e)
}

func (s *Sink) HasErrors() bool { return len(s.Diagnostics) > 0 }
