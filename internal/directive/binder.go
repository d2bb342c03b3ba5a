package directive

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hanpama/graphgate/internal/diag"
	"github.com/hanpama/graphgate/internal/ir"
	language "github.com/hanpama/graphgate/internal/language"
)

const (
	DefaultHostname = "0.0.0.0"
	DefaultPort     = 8000
)

var httpMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Settings is the gateway configuration declared on the schema definition.
type Settings struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
	// BaseURL joins relative @http and @graphQL urls. Empty when the schema
	// has no @upstream.
	BaseURL string `json:"baseURL,omitempty"`
}

// Addr is the listen address for the gateway.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// Bound is the output of binding a whole document.
type Bound struct {
	Settings    Settings
	Fields      map[*ir.FieldDef]Directive
	Diagnostics diag.List
}

// Directive returns the directive bound to f, None when f has none.
func (b *Bound) Directive(f *ir.FieldDef) Directive {
	if d, ok := b.Fields[f]; ok {
		return d
	}
	return None{}
}

// Binder binds the directives of one document against a catalog.
type Binder struct {
	catalog Catalog
	doc     *ir.Document
	types   map[string]*ir.TypeDef
}

func NewBinder(catalog Catalog, doc *ir.Document) *Binder {
	types := make(map[string]*ir.TypeDef, len(doc.Types))
	for _, t := range doc.Types {
		if _, ok := types[t.Name]; !ok {
			types[t.Name] = t
		}
	}
	return &Binder{catalog: catalog, doc: doc, types: types}
}

// Bind binds the schema definition and every field of every declared type.
// Diagnostics from all of them are collected; binding never stops early.
func (b *Binder) Bind() *Bound {
	out := &Bound{Fields: map[*ir.FieldDef]Directive{}}
	settings, diags := b.BindSchema()
	out.Settings = settings
	out.Diagnostics = append(out.Diagnostics, diags...)

	for _, t := range b.doc.Types {
		out.Diagnostics = append(out.Diagnostics, b.bindType(t)...)
		for _, f := range t.Fields {
			d, diags := b.BindField(t, f)
			out.Diagnostics = append(out.Diagnostics, diags...)
			if d.Kind() != KindNone {
				out.Fields[f] = d
			}
		}
	}
	return out
}

// BindSchema reads @server and @upstream from the schema definition.
func (b *Binder) BindSchema() (Settings, diag.List) {
	s := b.doc.Schema
	settings := Settings{Hostname: DefaultHostname, Port: DefaultPort}
	var diags diag.List
	ordinal := 0
	seen := map[string]bool{}
	for _, use := range s.Directives {
		base := ordinal
		ordinal += len(use.Arguments) + 1
		loc := s.Location()
		spec, ok := b.catalog.Lookup(use.Name)
		if !ok {
			diags = append(diags, diag.UnknownDirectiveOnField(loc, use.Name))
			continue
		}
		if spec.Role != RoleSchema {
			diags = append(diags, diag.New(diag.UnknownDirective, loc, "directive @%s is not allowed on the schema definition", use.Name))
			continue
		}
		if seen[use.Name] {
			diags = append(diags, diag.New(diag.ConflictingDirectives, loc, "@%s is declared more than once", use.Name))
			continue
		}
		seen[use.Name] = true

		locate := func(arg string, n int, at ir.Pos) diag.Location {
			l := s.Location()
			l.Argument = "@" + use.Name + "." + arg
			l.ArgIndex = base + n
			if at.Line > 0 {
				l.Line, l.Column = at.Line, at.Column
			}
			return l
		}
		args, argDiags := checkArgs(spec, use, locate)
		diags = append(diags, argDiags...)
		if len(argDiags) > 0 {
			continue
		}

		switch use.Name {
		case "server":
			if v, ok := args["port"]; ok {
				port := intValue(v.value)
				if port < 1 || port > 65535 {
					diags = append(diags, diag.InvalidValue(locate("port", v.ordinal, v.pos), "server", "port", fmt.Sprintf("%s is out of range 1-65535", v.value.Raw)))
				} else {
					settings.Port = port
				}
			}
			if v, ok := args["hostname"]; ok {
				if v.value.Raw == "" {
					diags = append(diags, diag.InvalidValue(locate("hostname", v.ordinal, v.pos), "server", "hostname", "must not be empty"))
				} else {
					settings.Hostname = v.value.Raw
				}
			}
		case "upstream":
			v := args["baseURL"]
			if err := checkBaseURL(v.value.Raw); err != nil {
				diags = append(diags, diag.InvalidValue(locate("baseURL", v.ordinal, v.pos), "upstream", "baseURL", err.Error()))
			} else {
				settings.BaseURL = strings.TrimSuffix(v.value.Raw, "/")
			}
		}
	}
	return settings, diags
}

func (b *Binder) bindType(t *ir.TypeDef) diag.List {
	var (
		diags   diag.List
		ordinal int
	)
	for _, use := range t.Directives {
		base := ordinal
		ordinal += len(use.Arguments) + 1

		spec, ok := b.catalog.Lookup(use.Name)
		if !ok {
			diags = append(diags, diag.UnknownDirectiveOnField(ir.TypeLocation(t), use.Name))
			continue
		}
		if spec.Role != RolePassthrough || !spec.Scalar || t.Kind != ir.KindScalar {
			diags = append(diags, diag.UnknownDirectiveOnType(ir.TypeLocation(t), use.Name))
			continue
		}
		_, argDiags := checkArgs(spec, use, typeArgLocator(t, use, base))
		diags = append(diags, argDiags...)
	}
	return diags
}

// BindField binds the resolver directive of f. A field without one binds to
// None. The returned directive is None whenever the resolver's arguments do
// not type check.
func (b *Binder) BindField(t *ir.TypeDef, f *ir.FieldDef) (Directive, diag.List) {
	var (
		diags     diag.List
		resolvers []*ir.DirectiveUse
		bases     []int
		ordinal   int
	)
	fieldLoc := ir.FieldLocation(t, f)
	for _, use := range f.Directives {
		base := ordinal
		ordinal += len(use.Arguments) + 1

		spec, ok := b.catalog.Lookup(use.Name)
		if !ok {
			diags = append(diags, diag.UnknownDirectiveOnField(fieldLoc, use.Name))
			continue
		}
		switch spec.Role {
		case RoleSchema:
			diags = append(diags, diag.New(diag.UnknownDirective, fieldLoc, "directive @%s is only allowed on the schema definition", use.Name))
		case RolePassthrough:
			_, argDiags := checkArgs(spec, use, fieldArgLocator(t, f, use, base))
			diags = append(diags, argDiags...)
		case RoleResolver:
			if t.Kind != ir.KindObject {
				diags = append(diags, diag.New(diag.UnknownDirective, fieldLoc, "@%s is only allowed on object type fields", use.Name))
				continue
			}
			resolvers = append(resolvers, use)
			bases = append(bases, base)
		}
	}

	if len(resolvers) == 0 {
		return None{}, diags
	}
	if len(resolvers) > 1 {
		names := make([]string, len(resolvers))
		for i, r := range resolvers {
			names[i] = r.Name
		}
		diags = append(diags, diag.MultipleResolvers(fieldLoc, names))
	}

	use := resolvers[0]
	spec, _ := b.catalog.Lookup(use.Name)
	locate := fieldArgLocator(t, f, use, bases[0])
	args, argDiags := checkArgs(spec, use, locate)
	diags = append(diags, argDiags...)
	if len(argDiags) > 0 {
		return None{}, diags
	}

	fb := fieldBinding{binder: b, typ: t, field: f, args: args, locate: locate}
	var d Directive
	switch use.Name {
	case "http":
		d = fb.http()
	case "graphQL":
		d = fb.graphQL()
	case "expr":
		d = fb.expr()
	case "const":
		d = fb.literal()
	default:
		panic("directive: resolver without binding " + use.Name)
	}
	return d, append(diags, fb.diags...)
}

func fieldArgLocator(t *ir.TypeDef, f *ir.FieldDef, use *ir.DirectiveUse, base int) locator {
	return func(arg string, n int, at ir.Pos) diag.Location {
		return ir.DirectiveArgumentLocation(t, f, use, arg, base+n, at)
	}
}

func typeArgLocator(t *ir.TypeDef, use *ir.DirectiveUse, base int) locator {
	return func(arg string, n int, at ir.Pos) diag.Location {
		return ir.TypeDirectiveArgumentLocation(t, use, arg, base+n, at)
	}
}

type locator func(arg string, ordinal int, at ir.Pos) diag.Location

type argValue struct {
	value   *language.Value
	ordinal int
	pos     ir.Pos
}

// checkArgs matches the written arguments of use against spec. Null for an
// optional argument counts as omitted.
func checkArgs(spec Spec, use *ir.DirectiveUse, locate locator) (map[string]argValue, diag.List) {
	var diags diag.List
	args := map[string]argValue{}
	seen := map[string]bool{}
	for i, a := range use.Arguments {
		loc := locate(a.Name, i, a.Pos)
		as, ok := spec.Arg(a.Name)
		if !ok {
			diags = append(diags, diag.UnknownDirectiveArgument(loc, use.Name, a.Name))
			continue
		}
		if seen[a.Name] {
			diags = append(diags, diag.DuplicateArgument(loc, a.Name))
			continue
		}
		seen[a.Name] = true
		if a.Value == nil || a.Value.Kind == language.NullValue {
			if as.Required && as.Type != ArgAny {
				diags = append(diags, diag.ArgumentMismatch(loc, a.Name, string(as.Type)+"!", "null"))
			}
			if as.Type != ArgAny {
				continue
			}
		}
		if !argKindFits(as.Type, a.Value) {
			diags = append(diags, diag.ArgumentMismatch(loc, a.Name, string(as.Type), valueKindName(a.Value)))
			continue
		}
		args[a.Name] = argValue{value: a.Value, ordinal: i, pos: a.Pos}
	}
	for _, as := range spec.Args {
		if seen[as.Name] {
			continue
		}
		if as.Required {
			diags = append(diags, diag.MissingArgument(locate(as.Name, len(use.Arguments), use.Pos), use.Name, as.Name))
			continue
		}
		if as.Default != "" {
			args[as.Name] = argValue{
				value:   &language.Value{Kind: language.StringValue, Raw: as.Default},
				ordinal: len(use.Arguments),
				pos:     use.Pos,
			}
		}
	}
	return args, diags
}

func argKindFits(t ArgType, v *language.Value) bool {
	if v == nil {
		return t == ArgAny
	}
	switch t {
	case ArgString:
		return v.Kind == language.StringValue || v.Kind == language.BlockValue
	case ArgInt:
		return v.Kind == language.IntValue
	case ArgAny:
		return v.Kind != language.Variable
	default:
		return false
	}
}

func valueKindName(v *language.Value) string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case language.IntValue:
		return "Int"
	case language.FloatValue:
		return "Float"
	case language.StringValue, language.BlockValue:
		return "String"
	case language.BooleanValue:
		return "Boolean"
	case language.NullValue:
		return "null"
	case language.EnumValue:
		return "enum " + v.Raw
	case language.ListValue:
		return "list"
	case language.ObjectValue:
		return "object"
	case language.Variable:
		return "variable $" + v.Raw
	default:
		return "unknown"
	}
}

func intValue(v *language.Value) int {
	n, err := strconv.Atoi(v.Raw)
	if err != nil {
		return -1
	}
	return n
}

func checkBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an absolute http or https url", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
