package directive

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/ir"
	language "github.com/hanpama/graphgate/internal/language"
)

// fieldBinding builds one resolver variant from already type-checked
// arguments, collecting value diagnostics along the way.
type fieldBinding struct {
	binder *Binder
	typ    *ir.TypeDef
	field  *ir.FieldDef
	args   map[string]argValue
	locate locator
	diags  diag.List
}

func (fb *fieldBinding) loc(arg string) diag.Location {
	v := fb.args[arg]
	return fb.locate(arg, v.ordinal, v.pos)
}

func (fb *fieldBinding) str(arg string) (string, bool) {
	v, ok := fb.args[arg]
	if !ok {
		return "", false
	}
	return v.value.Raw, true
}

func (fb *fieldBinding) invalid(directive, arg, format string, args ...any) {
	fb.diags = append(fb.diags, diag.InvalidValue(fb.loc(arg), directive, arg, fmt.Sprintf(format, args...)))
}

func (fb *fieldBinding) template(directive, arg string) []Ref {
	text, ok := fb.str(arg)
	if !ok {
		return nil
	}
	refs, err := parseTemplate(arg, text)
	if err != nil {
		fb.invalid(directive, arg, "%v", err)
		return nil
	}
	return refs
}

// endpoint checks a url template and reports whether it is relative.
func (fb *fieldBinding) endpoint(directive, arg string) bool {
	raw, _ := fb.str(arg)
	if strings.TrimSpace(raw) == "" {
		fb.invalid(directive, arg, "must not be empty")
		return false
	}
	if strings.HasPrefix(raw, "{{") {
		// The whole origin comes from a placeholder; nothing to check until runtime.
		return false
	}
	if !isAbsoluteURL(raw) {
		return true
	}
	u, err := url.Parse(substitute(raw, "0"))
	if err != nil {
		fb.invalid(directive, arg, "%v", err)
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		fb.invalid(directive, arg, "unsupported scheme %q", u.Scheme)
	} else if u.Host == "" {
		fb.invalid(directive, arg, "%q has no host", raw)
	}
	return false
}

func (fb *fieldBinding) batchKey(directive string) string {
	key, ok := fb.str("batchKey")
	if !ok {
		return ""
	}
	if strings.TrimSpace(key) == "" {
		fb.invalid(directive, "batchKey", "must not be empty")
		return ""
	}
	if fb.field.Type.IsList() {
		fb.diags = append(fb.diags, diag.BatchKeyOnList(fb.loc("batchKey"), directive, fb.field.Type.String()))
	}
	return key
}

func (fb *fieldBinding) http() Directive {
	d := &HTTP{}
	d.URL, _ = fb.str("url")
	d.Relative = fb.endpoint("http", "url")
	d.Deps = append(d.Deps, fb.template("http", "url")...)

	d.Method, _ = fb.str("method")
	if !slices.Contains(httpMethods, d.Method) {
		fb.invalid("http", "method", "%q is not one of %s", d.Method, strings.Join(httpMethods, ", "))
	}
	if body, ok := fb.str("body"); ok {
		d.Body = body
		if d.Method == "GET" {
			fb.invalid("http", "body", "GET requests cannot carry a body")
		}
		d.Deps = append(d.Deps, fb.template("http", "body")...)
	}
	d.BatchKey = fb.batchKey("http")
	return d
}

func (fb *fieldBinding) graphQL() Directive {
	d := &GraphQL{}
	d.Endpoint, _ = fb.str("endpoint")
	d.Relative = fb.endpoint("graphQL", "endpoint")
	d.Deps = append(d.Deps, fb.template("graphQL", "endpoint")...)

	d.Query, _ = fb.str("query")
	if refs := fb.template("graphQL", "query"); refs != nil || !strings.Contains(d.Query, "{{") {
		d.Deps = append(d.Deps, refs...)
		doc, err := language.ParseQuery(substitute(d.Query, "0"))
		switch {
		case err != nil:
			var perr *language.ParseError
			if errors.As(err, &perr) {
				fb.invalid("graphQL", "query", "%d:%d: %s", perr.Line, perr.Column, perr.Message)
			} else {
				fb.invalid("graphQL", "query", "%v", err)
			}
		case len(doc.Operations) != 1:
			fb.invalid("graphQL", "query", "must contain exactly one operation, found %d", len(doc.Operations))
		default:
			d.Operation = doc.Operations[0].Name
		}
	}
	d.BatchKey = fb.batchKey("graphQL")
	return d
}

func (fb *fieldBinding) expr() Directive {
	body, _ := fb.str("body")
	d := &Expr{Source: body}
	checked, refs, err := compileExpr(body)
	if err != nil {
		fb.invalid("expr", "body", "%v", err)
		return d
	}
	d.AST = checked
	d.Deps = refs
	d.Output = checked.OutputType().String()
	if !exprOutputFits(checked.OutputType(), fb.field.Type, fb.binder.kindOf) {
		fb.diags = append(fb.diags, diag.ArgumentMismatch(fb.loc("body"), "body", fb.field.Type.String(), d.Output))
	}
	return d
}

func (fb *fieldBinding) literal() Directive {
	v := fb.args["data"].value
	if err := fb.binder.checkLiteral(fb.loc("data"), v, fb.field.Type); err != nil {
		fb.diags = append(fb.diags, err)
	}
	d := &Literal{}
	if v != nil {
		d.Value, _ = v.Value(nil)
	}
	return d
}

func (b *Binder) kindOf(name string) (ir.Kind, bool) {
	t, ok := b.types[name]
	if !ok {
		return "", false
	}
	return t.Kind, true
}

// checkLiteral checks a constant against the declared field type. Types that
// do not resolve are left to the validator.
func (b *Binder) checkLiteral(loc diag.Location, v *language.Value, t *ir.TypeExpr) *diag.Error {
	mismatch := func() *diag.Error {
		return diag.ArgumentMismatch(loc, "data", t.String(), valueKindName(v))
	}
	if v == nil || v.Kind == language.NullValue {
		if t.IsNonNull() {
			return mismatch()
		}
		return nil
	}
	switch t.Kind {
	case ir.TypeExprKindNonNull:
		return b.checkLiteral(loc, v, t.OfType)
	case ir.TypeExprKindList:
		if v.Kind != language.ListValue {
			// A single value coerces to a one element list.
			return b.checkLiteral(loc, v, t.OfType)
		}
		for _, child := range v.Children {
			if err := b.checkLiteral(loc, child.Value, t.OfType); err != nil {
				return err
			}
		}
		return nil
	}

	if v.Kind == language.ListValue {
		return mismatch()
	}
	switch t.Named {
	case "Int":
		if v.Kind != language.IntValue {
			return mismatch()
		}
		return nil
	case "Float":
		if v.Kind != language.IntValue && v.Kind != language.FloatValue {
			return mismatch()
		}
		return nil
	case "String":
		if v.Kind != language.StringValue && v.Kind != language.BlockValue {
			return mismatch()
		}
		return nil
	case "ID":
		if v.Kind != language.StringValue && v.Kind != language.IntValue {
			return mismatch()
		}
		return nil
	case "Boolean":
		if v.Kind != language.BooleanValue {
			return mismatch()
		}
		return nil
	}

	typ, ok := b.types[t.Named]
	if !ok {
		return nil
	}
	switch typ.Kind {
	case ir.KindEnum:
		if v.Kind != language.EnumValue && v.Kind != language.StringValue {
			return mismatch()
		}
		for _, ev := range typ.Values {
			if ev.Name == v.Raw {
				return nil
			}
		}
		return diag.InvalidValue(loc, "const", "data", fmt.Sprintf("%q is not a value of enum %s", v.Raw, typ.Name))
	case ir.KindObject, ir.KindInput:
		if v.Kind != language.ObjectValue {
			return mismatch()
		}
		for _, child := range v.Children {
			f := typ.Field(child.Name)
			if f == nil {
				return diag.InvalidValue(loc, "const", "data", fmt.Sprintf("%s has no field %q", typ.Name, child.Name))
			}
			if err := b.checkLiteral(loc, child.Value, f.Type); err != nil {
				return err
			}
		}
		return nil
	case ir.KindInterface, ir.KindUnion:
		if v.Kind != language.ObjectValue {
			return mismatch()
		}
		return nil
	default:
		// Custom scalars accept any literal.
		return nil
	}
}
