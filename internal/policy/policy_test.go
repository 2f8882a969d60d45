package policy_test

import (
	"testing"

	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
	"github.com/stretchr/testify/require"
)

func buildSimpleInstance(t *testing.T) *policy.Instance {
	t.Helper()
	syms := symtab.New()
	r := syms.Intern("r")
	x := syms.Intern("X")
	universe := &policy.Universe{
		Symbols: syms,
		Attrs:   []symtab.ID{r},
		Domains: map[symtab.ID][]symtab.ID{r: {policy.Bottom, x}},
	}
	users := []policy.UserState{{r: x}}
	admins := []int{0}
	query := policy.Query{{User: 0, Attr: r, Value: x}}
	in := policy.New(universe, users, admins, nil, query)
	require.NoError(t, in.Validate())
	return in
}

func TestSerializeParseRoundTrip(t *testing.T) {
	in := buildSimpleInstance(t)
	text := in.Serialize()
	parsed, err := policy.Parse(text)
	require.NoError(t, err)
	require.True(t, in.Equal(parsed))
}

func TestReplayWitnessSatisfiesQuery(t *testing.T) {
	in := buildSimpleInstance(t)
	// Trivially reachable: the initial state already satisfies the query.
	require.True(t, in.Replay(policy.Trail{}))
}

func TestCloneSharesUniverseRestrictsRulesAndUsers(t *testing.T) {
	syms := symtab.New()
	r := syms.Intern("r")
	x := syms.Intern("X")
	universe := &policy.Universe{
		Symbols: syms,
		Attrs:   []symtab.ID{r},
		Domains: map[symtab.ID][]symtab.ID{r: {policy.Bottom, x}},
	}
	users := []policy.UserState{{r: x}, {r: policy.Bottom}}
	admins := []int{0}
	rules := []policy.Rule{
		{TargetAttr: r, TargetValue: x},
		{TargetAttr: r, TargetValue: policy.Bottom, IsNegative: true},
	}
	in := policy.New(universe, users, admins, rules, nil)
	require.NoError(t, in.Validate())

	sub := in.Clone([]int{0}, []int{0, 1})
	require.Same(t, in.Universe, sub.Universe)
	require.Len(t, sub.Rules, 1)
	require.Equal(t, r, sub.Rules[0].TargetAttr)
}
