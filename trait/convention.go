package trait

type conventionDef struct{}

// ConventionDef is the kind identifying the execution strategy a node
// targets.
var ConventionDef Def = conventionDef{}

func (conventionDef) Name() string {
	return "convention"
}

func (conventionDef) Default() Trait {
	return None
}

// Convention is a calling convention. Conventions are compared by identity:
// two conventions are equal only if they are the same instance.
type Convention struct {
	name string
}

// None is the convention of logical nodes, which cannot be executed.
var None = NewConvention("NONE")

func NewConvention(name string) *Convention {
	return &Convention{name: name}
}

func (c *Convention) Name() string {
	return c.name
}

func (c *Convention) Def() Def {
	return ConventionDef
}

func (c *Convention) Equal(other Trait) bool {
	o, ok := other.(*Convention)
	return ok && o == c
}

func (c *Convention) Satisfies(required Trait) bool {
	return c.Equal(required)
}

func (c *Convention) String() string {
	return c.name
}
