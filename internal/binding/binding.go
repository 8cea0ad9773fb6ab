// Package binding models the configuration dialect's per-file-extension
// schema: a mapping from property key to a property descriptor plus rules,
// generalizing the teacher's TypeRegistry pattern to config properties.
package binding

import "corescript/internal/types"

// Rule is a validation/emission rule attached to a property descriptor.
type Rule struct {
	Kind     RuleKind
	Lo, Hi   int64 // RANGE bounds
	Companion string // REQUIRE's companion property name
}

type RuleKind int

const (
	RuleEmitEmptyIfTrue RuleKind = iota
	RuleEmitEmptyIfFalse
	RuleRange
	RuleRequire
)

func EmitEmptyIfTrue() Rule  { return Rule{Kind: RuleEmitEmptyIfTrue} }
func EmitEmptyIfFalse() Rule { return Rule{Kind: RuleEmitEmptyIfFalse} }
func Range(lo, hi int64) Rule { return Rule{Kind: RuleRange, Lo: lo, Hi: hi} }
func Require(companion string) Rule { return Rule{Kind: RuleRequire, Companion: companion} }

// DescriptorKind distinguishes the five property-descriptor shapes.
type DescriptorKind int

const (
	KindBasic DescriptorKind = iota
	KindTypeDispatchedBasic
	KindSplitArray
	KindParameter
	KindMap
)

// Descriptor is the tagged union of property descriptor shapes.
type Descriptor struct {
	Kind DescriptorKind
	Key  string
	Rules []Rule

	// Basic
	Opcode     int
	Components []types.StackType

	// TypeDispatchedBasic
	IntOpcode      int
	LongOpcode     int
	CompanionType  string // companion property name carrying the dispatch type

	// SplitArray
	AggregateOpcode  int
	SizeType         types.StackType
	MaxSize          int
	ComponentIndex   int
	ElementID        int
	ComponentCount   int

	// Parameter
	ParamOpcode int

	// Map
	MapIntOpcode  int
	MapLongOpcode int
	KeyType       types.StackType
	ValueType     types.StackType
}

// Binding is a per-extension schema: group type plus property descriptors.
type Binding struct {
	Extension  string
	GroupType  string
	Properties map[string]*Descriptor
}

// New creates an empty binding for extension/group.
func New(extension, groupType string) *Binding {
	return &Binding{Extension: extension, GroupType: groupType, Properties: make(map[string]*Descriptor)}
}

// Add registers a property descriptor under its key.
func (b *Binding) Add(d *Descriptor) *Binding {
	b.Properties[d.Key] = d
	return b
}

// Lookup returns the descriptor for a property key, if bound.
func (b *Binding) Lookup(key string) (*Descriptor, bool) {
	d, ok := b.Properties[key]
	return d, ok
}

// HasRule reports whether d carries a rule of the given kind.
func (d *Descriptor) HasRule(kind RuleKind) (Rule, bool) {
	for _, r := range d.Rules {
		if r.Kind == kind {
			return r, true
		}
	}
	return Rule{}, false
}

// Registry holds one Binding per registered file extension.
type Registry struct {
	bindings map[string]*Binding
}

func NewRegistry() *Registry {
	return &Registry{bindings: make(map[string]*Binding)}
}

// ErrDuplicateExtension is returned by Register when extension is already
// bound - duplicate binding registration is a hard failure per spec §6.1.
type ErrDuplicateExtension struct{ Extension string }

func (e *ErrDuplicateExtension) Error() string {
	return "duplicate binding registration for extension \"" + e.Extension + "\""
}

// Register adds b under its Extension. Registering the same extension
// twice is a hard failure.
func (r *Registry) Register(b *Binding) error {
	if _, exists := r.bindings[b.Extension]; exists {
		return &ErrDuplicateExtension{Extension: b.Extension}
	}
	r.bindings[b.Extension] = b
	return nil
}

// Lookup returns the binding registered for extension.
func (r *Registry) Lookup(extension string) (*Binding, bool) {
	b, ok := r.bindings[extension]
	return b, ok
}
