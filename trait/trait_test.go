package trait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mit.edu/dsg/relopt/common"
)

var iterator = NewConvention("ITERATOR")

func TestSetLookup(t *testing.T) {
	s := NewSet(None, EmptyCollation)
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, ".NONE.[]", s.String())

	conv, err := s.Get(ConventionDef)
	require.NoError(t, err)
	assert.Same(t, None, conv)

	onlyConv := NewSet(iterator)
	_, err = onlyConv.Get(CollationDef)
	assert.True(t, common.HasCode(err, common.MissingTraitError))
	assert.True(t, onlyConv.GetOrDefault(CollationDef).Equal(EmptyCollation))
}

func TestSetComprises(t *testing.T) {
	sorted := NewCollation(FieldCollation{FieldIndex: 1, Direction: Descending})
	s := NewSet(None, sorted)

	assert.True(t, s.Comprises(None))
	assert.True(t, s.Comprises(None, sorted))
	assert.True(t, s.Comprises())
	assert.False(t, s.Comprises(iterator))
	assert.False(t, s.Comprises(None, EmptyCollation))
	assert.Equal(t, ".NONE.[1 DESC]", s.String())
}

func TestSetReplaceIsImmutable(t *testing.T) {
	s := DefaultSet(ConventionDef, CollationDef)
	r := s.Replace(iterator)

	assert.True(t, s.Comprises(None))
	assert.True(t, r.Comprises(iterator))
	assert.False(t, s.Equal(r))
	assert.True(t, s.Equal(s.Replace(None)))

	assert.Panics(t, func() { NewSet(None).Replace(EmptyCollation) })
	assert.Panics(t, func() { NewSet(None, iterator) })
}

func TestCollationSatisfies(t *testing.T) {
	a := FieldCollation{FieldIndex: 0}
	b := FieldCollation{FieldIndex: 1, Nulls: NullsLast}
	ab := NewCollation(a, b)

	assert.Equal(t, "[0, 1-nulls-last]", ab.String())
	assert.True(t, ab.Satisfies(NewCollation(a)))
	assert.True(t, ab.Satisfies(EmptyCollation))
	assert.False(t, NewCollation(a).Satisfies(ab))
	assert.False(t, NewCollation(b).Satisfies(NewCollation(a)))

	required := NewSet(None, NewCollation(a))
	assert.True(t, NewSet(None, ab).Satisfies(required))
	assert.False(t, NewSet(iterator, ab).Satisfies(required))
}
