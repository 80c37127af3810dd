// Package trait implements physical properties of relational expressions.
//
// A trait is a value of some trait kind (a Def). Each node carries a Set with
// exactly one trait per kind, in a fixed order. Sets are immutable: replacing
// a trait yields a new Set.
package trait

import (
	"strings"

	"mit.edu/dsg/relopt/common"
)

// Def is a trait kind. It defines the default value of the kind and how its
// values relate to each other.
type Def interface {
	// Name identifies the kind, e.g. "convention".
	Name() string

	// Default returns the value used when a set is built without an explicit
	// value of this kind.
	Default() Trait
}

// Trait is a single physical property value.
type Trait interface {
	// Def returns the kind this value belongs to.
	Def() Def

	// Equal returns true if both values are the same property.
	Equal(other Trait) bool

	// Satisfies returns true if a node with this value can be used where the
	// other value is required.
	Satisfies(required Trait) bool

	// String is the form that appears in digests.
	String() string
}

// Set is an ordered, fixed-size collection of traits, one per kind.
type Set struct {
	traits []Trait
}

// NewSet builds a set from the given traits. Each trait must be of a
// different kind.
func NewSet(traits ...Trait) Set {
	seen := make(map[Def]struct{}, len(traits))
	for _, t := range traits {
		common.Assert(t != nil, "nil trait")
		_, dup := seen[t.Def()]
		common.Assert(!dup, "trait kind %s appears twice", t.Def().Name())
		seen[t.Def()] = struct{}{}
	}
	return Set{traits: append([]Trait(nil), traits...)}
}

// DefaultSet builds a set holding the default value of each kind.
func DefaultSet(defs ...Def) Set {
	traits := make([]Trait, len(defs))
	for i, d := range defs {
		traits[i] = d.Default()
	}
	return NewSet(traits...)
}

// Size returns the number of kinds in the set.
func (s Set) Size() int {
	return len(s.traits)
}

// At returns the trait at position i.
func (s Set) At(i int) Trait {
	return s.traits[i]
}

func (s Set) indexOf(def Def) int {
	for i, t := range s.traits {
		if t.Def() == def {
			return i
		}
	}
	return -1
}

// Get returns the value of the given kind. It returns a MissingTraitError if
// the set was built without that kind.
func (s Set) Get(def Def) (Trait, error) {
	if i := s.indexOf(def); i >= 0 {
		return s.traits[i], nil
	}
	return nil, common.NewErrorf(common.MissingTraitError, "trait set %s has no %s trait", s, def.Name())
}

// GetOrDefault returns the value of the given kind, or the kind's default.
func (s Set) GetOrDefault(def Def) Trait {
	if i := s.indexOf(def); i >= 0 {
		return s.traits[i]
	}
	return def.Default()
}

// Contains returns true if the set holds a trait equal to t.
func (s Set) Contains(t Trait) bool {
	i := s.indexOf(t.Def())
	return i >= 0 && s.traits[i].Equal(t)
}

// Comprises returns true if every given trait is present in the set.
func (s Set) Comprises(traits ...Trait) bool {
	for _, t := range traits {
		if !s.Contains(t) {
			return false
		}
	}
	return true
}

// Replace returns a set in which the trait of t's kind is t. The kind must
// already be in the set.
func (s Set) Replace(t Trait) Set {
	i := s.indexOf(t.Def())
	common.Assert(i >= 0, "trait set %s has no %s trait to replace", s, t.Def().Name())
	if s.traits[i].Equal(t) {
		return s
	}
	traits := append([]Trait(nil), s.traits...)
	traits[i] = t
	return Set{traits: traits}
}

// Equal returns true if both sets hold equal traits in the same order.
func (s Set) Equal(o Set) bool {
	if len(s.traits) != len(o.traits) {
		return false
	}
	for i := range s.traits {
		if !s.traits[i].Equal(o.traits[i]) {
			return false
		}
	}
	return true
}

// Satisfies returns true if every trait of the required set is satisfied by
// the trait of the same kind in s.
func (s Set) Satisfies(required Set) bool {
	for _, r := range required.traits {
		i := s.indexOf(r.Def())
		if i < 0 || !s.traits[i].Satisfies(r) {
			return false
		}
	}
	return true
}

// String renders the set the way it appears in digests: each trait preceded
// by a dot.
func (s Set) String() string {
	var sb strings.Builder
	for _, t := range s.traits {
		sb.WriteString(".")
		sb.WriteString(t.String())
	}
	return sb.String()
}
