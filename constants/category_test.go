package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	cases := map[string]string{
		"math":             MathematicalPrinciples,
		"  Code ":          ProgramImplementation,
		"ideas & concepts": IdeasAndConcepts,
		"Affairs & Tasks":  AffairsAndTasks,
	}
	for in, want := range cases {
		got, ok := Canonicalize(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := Canonicalize("recipes")
	assert.False(t, ok)
	_, ok = Canonicalize("   ")
	assert.False(t, ok)
}

func TestDefaultCategoriesIsACopy(t *testing.T) {
	defs := DefaultCategories()
	defs[0].Name = "changed"
	assert.Equal(t, MathematicalPrinciples, DefaultCategories()[0].Name)
	assert.Equal(t, []string{MathematicalPrinciples, IdeasAndConcepts, ProgramImplementation, AffairsAndTasks}, AsStringSlice())
}
