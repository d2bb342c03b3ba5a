package directive

import "sort"

// Role says where a directive may be applied and what it does there.
type Role int

const (
	// RoleResolver directives decide how a field is produced. A field takes
	// at most one.
	RoleResolver Role = iota
	// RoleSchema directives configure the gateway on the schema definition.
	RoleSchema
	// RolePassthrough directives are accepted on fields and arguments, and on
	// scalar definitions when Spec.Scalar is set, and carried through
	// unchanged.
	RolePassthrough
)

// ArgType is the value kind a directive argument accepts.
type ArgType string

const (
	ArgString ArgType = "String"
	ArgInt    ArgType = "Int"
	// ArgAny accepts any value; the binder checks it against the field type.
	ArgAny ArgType = "Any"
)

type ArgSpec struct {
	Name     string
	Type     ArgType
	Required bool
	// Default is used when the argument is omitted. Empty means no default.
	Default string
}

type Spec struct {
	Name string
	Role Role
	Args []ArgSpec
	// Scalar allows a passthrough directive on scalar type definitions.
	Scalar bool
}

// Arg returns the argument spec named name.
func (s Spec) Arg(name string) (ArgSpec, bool) {
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// Catalog is the fixed set of directives the binder understands. It is
// built once and never modified, so one value may be shared by concurrent
// compilations.
type Catalog struct {
	specs map[string]Spec
}

// NewCatalog builds a catalog from specs. Later specs replace earlier ones
// with the same name.
func NewCatalog(specs ...Spec) Catalog {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		args := make([]ArgSpec, len(s.Args))
		copy(args, s.Args)
		s.Args = args
		m[s.Name] = s
	}
	return Catalog{specs: m}
}

// Lookup returns the spec for the directive named name.
func (c Catalog) Lookup(name string) (Spec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// Names returns the known directive names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.specs))
	for n := range c.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var defaultCatalog = NewCatalog(
	Spec{Name: "http", Role: RoleResolver, Args: []ArgSpec{
		{Name: "url", Type: ArgString, Required: true},
		{Name: "method", Type: ArgString, Default: "GET"},
		{Name: "body", Type: ArgString},
		{Name: "batchKey", Type: ArgString},
	}},
	Spec{Name: "graphQL", Role: RoleResolver, Args: []ArgSpec{
		{Name: "endpoint", Type: ArgString, Required: true},
		{Name: "query", Type: ArgString, Required: true},
		{Name: "batchKey", Type: ArgString},
	}},
	Spec{Name: "expr", Role: RoleResolver, Args: []ArgSpec{
		{Name: "body", Type: ArgString, Required: true},
	}},
	Spec{Name: "const", Role: RoleResolver, Args: []ArgSpec{
		{Name: "data", Type: ArgAny, Required: true},
	}},
	Spec{Name: "server", Role: RoleSchema, Args: []ArgSpec{
		{Name: "port", Type: ArgInt},
		{Name: "hostname", Type: ArgString},
	}},
	Spec{Name: "upstream", Role: RoleSchema, Args: []ArgSpec{
		{Name: "baseURL", Type: ArgString, Required: true},
	}},
	Spec{Name: "deprecated", Role: RolePassthrough, Args: []ArgSpec{
		{Name: "reason", Type: ArgString},
	}},
	Spec{Name: "specifiedBy", Role: RolePassthrough, Scalar: true, Args: []ArgSpec{
		{Name: "url", Type: ArgString, Required: true},
	}},
)

// DefaultCatalog returns the directives graphgate ships with.
func DefaultCatalog() Catalog { return defaultCatalog }
