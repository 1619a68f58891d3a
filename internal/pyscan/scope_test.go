package pyscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeTracker(t *testing.T) {
	var s ScopeTracker

	isModule, fn, cl := s.Current()
	assert.True(t, isModule)
	assert.Empty(t, fn)
	assert.Empty(t, cl)

	s.Push(scopeClass, "Client")
	s.Push(scopeFunction, "configure")

	isModule, fn, cl = s.Current()
	assert.False(t, isModule)
	assert.Equal(t, "configure", fn)
	assert.Equal(t, "Client", cl)

	s.Pop()
	isModule, fn, cl = s.Current()
	assert.False(t, isModule)
	assert.Empty(t, fn)
	assert.Equal(t, "Client", cl)

	s.Pop()
	isModule, _, _ = s.Current()
	assert.True(t, isModule)
}

func TestScopeTrackerNestedDefsInnermostWins(t *testing.T) {
	var s ScopeTracker
	s.Push(scopeFunction, "outer")
	s.Push(scopeFunction, "inner")

	_, fn, _ := s.Current()
	assert.Equal(t, "inner", fn)
}
