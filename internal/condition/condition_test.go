package condition_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acoac-verify/acoac-checker/internal/condition"
	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

func TestCompileQueryMatchesSatisfies(t *testing.T) {
	syms := symtab.New()
	r := syms.Intern("r")
	x := syms.Intern("X")
	universe := &policy.Universe{
		Symbols: syms,
		Attrs:   []symtab.ID{r},
		Domains: map[symtab.ID][]symtab.ID{r: {policy.Bottom, x}},
	}
	users := []policy.UserState{{r: x}}
	query := policy.Query{{User: 0, Attr: r, Value: x}}
	in := policy.New(universe, users, []int{0}, nil, query)
	require.NoError(t, in.Validate())

	ev, err := condition.NewEvaluator(syms)
	require.NoError(t, err)
	prg, err := ev.CompileQuery(query)
	require.NoError(t, err)

	state := in.InitialState()
	activation := condition.Flatten(syms, in, state)
	ok, err := condition.EvalState(prg, activation)
	require.NoError(t, err)
	require.Equal(t, query.Satisfies(state), ok)
	require.True(t, ok)
}

func TestCompileQueryEmptyIsTrue(t *testing.T) {
	syms := symtab.New()
	ev, err := condition.NewEvaluator(syms)
	require.NoError(t, err)
	prg, err := ev.CompileQuery(nil)
	require.NoError(t, err)
	ok, err := condition.EvalState(prg, map[string]any{})
	require.NoError(t, err)
	require.True(t, ok)
}
