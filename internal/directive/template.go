package directive

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*\.?([A-Za-z_][A-Za-z0-9_]*)((?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// parseTemplate extracts the placeholders of a url, body or query template.
// {{value.x}} is accepted as an alias of {{parent.x}}.
func parseTemplate(arg, text string) ([]Ref, error) {
	var refs []Ref
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		scope := m[1]
		var path []string
		if m[2] != "" {
			path = strings.Split(strings.TrimPrefix(m[2], "."), ".")
		}
		ref, err := newRef(arg, scope, path)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	rest := placeholderPattern.ReplaceAllString(text, "")
	if strings.Contains(rest, "{{") || strings.Contains(rest, "}}") {
		return nil, fmt.Errorf("malformed placeholder in %q", text)
	}
	return refs, nil
}

func newRef(arg, scope string, path []string) (Ref, error) {
	var s Scope
	switch scope {
	case "parent", "value":
		s = ScopeParent
	case "args":
		s = ScopeArgs
	case "env":
		s = ScopeEnv
	case "headers":
		s = ScopeHeaders
	default:
		return Ref{}, fmt.Errorf("unknown placeholder scope %q", scope)
	}
	if len(path) == 0 {
		return Ref{}, fmt.Errorf("placeholder {{%s}} must name a field", scope)
	}
	if (s == ScopeEnv || s == ScopeHeaders) && len(path) > 1 {
		return Ref{}, fmt.Errorf("placeholder {{%s.%s}} must name a single key", scope, strings.Join(path, "."))
	}
	return Ref{Scope: s, Path: path, Arg: arg}, nil
}

// substitute replaces every placeholder with repl. Used to syntax check
// templates that embed placeholders in another language.
func substitute(text, repl string) string {
	return placeholderPattern.ReplaceAllLiteralString(text, repl)
}

// isAbsoluteURL reports whether a url template starts with a scheme.
func isAbsoluteURL(u string) bool {
	i := strings.Index(u, "://")
	if i <= 0 {
		return false
	}
	for _, c := range u[:i] {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return false
		}
	}
	return true
}
