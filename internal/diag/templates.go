package diag

import (
	"fmt"
	"strings"
)

// Reusable constructors. Keep messages stable: snapshot tests and log
// scrapers depend on them.

func New(kind Kind, loc Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Location: loc, Message: fmt.Sprintf(format, args...)}
}

func UnknownDirectiveOnField(loc Location, directive string) *Error {
	return New(UnknownDirective, loc, "unknown directive @%s", directive)
}

func UnknownDirectiveOnType(loc Location, directive string) *Error {
	return New(UnknownDirective, loc, "directive @%s is not allowed on type definitions", directive)
}

func MissingArgument(loc Location, directive, arg string) *Error {
	return New(MissingRequiredArgument, loc, "@%s requires argument %q", directive, arg)
}

func UnknownDirectiveArgument(loc Location, directive, arg string) *Error {
	return New(UnknownArgument, loc, "unknown argument %q in @%s", arg, directive)
}

func ArgumentMismatch(loc Location, arg, expected, got string) *Error {
	return New(ArgumentTypeMismatch, loc, "argument %q expects %s, got %s", arg, expected, got)
}

// BatchKeyOnList reports a batch key on a list-returning field.
func BatchKeyOnList(loc Location, directive, fieldType string) *Error {
	return New(IncompatibleWithCardinality, loc,
		"@%s batchKey requires a singular return type, field returns %s", directive, fieldType)
}

func MultipleResolvers(loc Location, names []string) *Error {
	return New(ConflictingDirectives, loc, "field declares more than one resolver directive: @%s", strings.Join(names, ", @"))
}

func InvalidValue(loc Location, directive, arg, reason string) *Error {
	return New(InvalidArgumentValue, loc, "invalid %s in @%s: %s", arg, directive, reason)
}

func DuplicateType(loc Location, name string) *Error {
	return New(DuplicateTypeName, loc, "type %q is already declared", name)
}

func DuplicateField(loc Location, kind, field, typeName string) *Error {
	return New(DuplicateFieldName, loc, "duplicate %s %q in %q", kind, field, typeName)
}

func DuplicateArgument(loc Location, arg string) *Error {
	return New(DuplicateArgumentName, loc, "duplicate argument %q", arg)
}

func TypeNotFound(loc Location, typeName string) *Error {
	return New(UnknownTypeReference, loc, "type %q is not declared", typeName)
}

func TypeNotInput(loc Location, typeName string) *Error {
	return New(InvalidTypeReference, loc, "type %q is not an input type", typeName)
}

func TypeNotOutput(loc Location, typeName string) *Error {
	return New(InvalidTypeReference, loc, "type %q is not an output type", typeName)
}

func UnionMemberNotObject(loc Location, member string) *Error {
	return New(InvalidTypeReference, loc, "union member %q is not an object type", member)
}

func RootTypeMissing(loc Location, kind, typeName string) *Error {
	return New(MissingRootType, loc, "%s root type %q must be a declared object type", kind, typeName)
}

func ExtensionTargetMissing(loc Location, typeName string) *Error {
	return New(UnknownTypeReference, loc, "cannot extend undeclared type %q", typeName)
}

func ParentFieldNotFound(loc Location, directive, field, typeName string) *Error {
	return New(UnknownFieldReference, loc, "@%s references unknown field %q on %s", directive, field, typeName)
}

func ArgumentNotFound(loc Location, directive, arg string) *Error {
	return New(UnknownArgumentReference, loc, "@%s references undeclared argument %q", directive, arg)
}

func RelativeURLWithoutUpstream(loc Location, url string) *Error {
	return New(MissingBaseURL, loc, "relative url %q requires @upstream(baseURL:) on the schema", url)
}

func NonNullCycle(loc Location, path []string) *Error {
	return New(UnresolvableCycle, loc, "non-null type cycle cannot terminate: %s", strings.Join(path, " -> "))
}

func ReferenceCycle(loc Location, path []string) *Error {
	return New(UnresolvableCycle, loc, "resolver fields reference each other: %s", strings.Join(path, " -> "))
}

func BatchKeyFieldNotFound(loc Location, directive, field, typeName string) *Error {
	return New(UnknownFieldReference, loc, "@%s batchKey references unknown field %q on %s", directive, field, typeName)
}

func TypeNotInterface(loc Location, typeName string) *Error {
	return New(InvalidTypeReference, loc, "type %q is not an interface", typeName)
}
