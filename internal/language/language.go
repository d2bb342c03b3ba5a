package language

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// ParseErrorCode identifies the class of a parse failure.
type ParseErrorCode string

const UnexpectedToken ParseErrorCode = "UnexpectedToken"

// ParseError reports malformed document text. Line and Column are 1-based;
// zero means the parser did not supply a location.
type ParseError struct {
	Code    ParseErrorCode
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Code, loc, e.Message)
}

func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, toParseError("", err)
	}
	return doc, nil
}

// ParseSchema parses SDL text. Either the whole document parses or a
// *ParseError is returned; no partial document is ever produced.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, toParseError(name, err)
	}
	return doc, nil
}

func toParseError(name string, err error) *ParseError {
	pe := &ParseError{Code: UnexpectedToken, File: name, Message: err.Error()}
	var gerr *gqlerror.Error
	if errors.As(err, &gerr) {
		pe.Message = gerr.Message
		if len(gerr.Locations) > 0 {
			pe.Line = gerr.Locations[0].Line
			pe.Column = gerr.Locations[0].Column
		}
	}
	return pe
}

var prelude = sync.OnceValue(func() *SchemaDocument {
	doc, err := parser.ParseSchema(validator.Prelude)
	if err != nil {
		panic(fmt.Sprintf("parse prelude: %v", err))
	}
	return doc
})

// Prelude returns the built-in scalars, directives and introspection types
// every GraphQL schema implicitly declares. The document is shared and must
// not be modified.
func Prelude() *SchemaDocument { return prelude() }
