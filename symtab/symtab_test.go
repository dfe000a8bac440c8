package symtab_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mukaiizawa/XPL0/symtab"
)

func TestShadowing(t *testing.T) {
	tab := symtab.New()
	dx := 3
	require.NoError(t, tab.EnterVariable("x", 0, &dx))
	require.NoError(t, tab.EnterVariable("x", 1, &dx))

	e, idx, err := tab.Find("x")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1, e.Level)
}

func TestVariableAddrAllocation(t *testing.T) {
	tab := symtab.New()
	dx := 3
	require.NoError(t, tab.EnterVariable("a", 0, &dx))
	require.NoError(t, tab.EnterVariable("b", 0, &dx))

	a, _, err := tab.Find("a")
	require.NoError(t, err)
	b, _, err := tab.Find("b")
	require.NoError(t, err)

	assert.Equal(t, 3, a.Addr)
	assert.Equal(t, 4, b.Addr)
	assert.Equal(t, 5, dx)
}

func TestFindUndeclared(t *testing.T) {
	tab := symtab.New()
	_, _, err := tab.Find("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared")
}

func TestFindIdempotent(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.EnterConstant("c", 5))

	e1, i1, err1 := tab.Find("c")
	e2, i2, err2 := tab.Find("c")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, e1, e2)
	assert.Equal(t, i1, i2)
}

func TestCapacityOverflow(t *testing.T) {
	tab := symtab.New()
	dx := 3
	for i := 0; i < symtab.MaxSymbols; i++ {
		require.NoError(t, tab.EnterVariable("v", 0, &dx))
	}
	err := tab.EnterVariable("one-too-many", 0, &dx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many symbols")
}

func TestPatchAddr(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.EnterProcedure("p", 0))
	tab.PatchAddr(0, 42)
	e := tab.At(0)
	assert.Equal(t, 42, e.Addr)
}

func TestWriteDump(t *testing.T) {
	tab := symtab.New()
	require.NoError(t, tab.EnterConstant("c", 5))
	dx := 3
	require.NoError(t, tab.EnterVariable("v", 0, &dx))

	var buf strings.Builder
	require.NoError(t, tab.WriteDump(&buf))
	out := buf.String()
	assert.Contains(t, out, "c")
	assert.Contains(t, out, "constant")
	assert.Contains(t, out, "v")
	assert.Contains(t, out, "variable")
}
