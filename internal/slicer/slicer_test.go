package slicer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/slicer"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// buildScenario4 builds the "one-step reachable" seed scenario from
// spec.md §8: U={a,u}, admin={a}, one relevant rule, plus irrelevant
// rules/attributes slicing must prune.
func buildScenario4(t *testing.T, irrelevantRules int) *policy.Instance {
	t.Helper()
	syms := symtab.New()
	r := syms.Intern("r")
	x := syms.Intern("X")
	decoy := syms.Intern("decoy")
	decoyVal := syms.Intern("D")

	universe := &policy.Universe{
		Symbols: syms,
		Attrs:   []symtab.ID{r, decoy},
		Domains: map[symtab.ID][]symtab.ID{
			r:     {policy.Bottom, x},
			decoy: {policy.Bottom, decoyVal},
		},
	}
	users := []policy.UserState{
		{r: x, decoy: policy.Bottom},
		{r: policy.Bottom, decoy: policy.Bottom},
	}
	admins := []int{0}
	rules := []policy.Rule{
		{
			AdminPrecondition:  policy.Precondition{{Attr: r, Value: x}},
			TargetPrecondition: nil,
			TargetAttr:         r,
			TargetValue:        x,
		},
	}
	for i := 0; i < irrelevantRules; i++ {
		rules = append(rules, policy.Rule{
			TargetAttr:  decoy,
			TargetValue: decoyVal,
		})
	}
	query := policy.Query{{User: 1, Attr: r, Value: x}}
	in := policy.New(universe, users, admins, rules, query)
	require.NoError(t, in.Validate())
	return in
}

func TestRunPrunesIrrelevantRules(t *testing.T) {
	in := buildScenario4(t, 100)
	sliced, result := slicer.Run(in)
	require.Equal(t, policy.VerdictUnknown, result.Verdict)
	require.Len(t, sliced.Rules, 1)
	require.Equal(t, in.Rules[0].TargetAttr, sliced.Rules[0].TargetAttr)
}

func TestRunShortCircuitsReachableWhenQueryAlreadyHolds(t *testing.T) {
	in := buildScenario4(t, 0)
	in.Users[1] = policy.UserState{} // force satisfied if query trivially holds on change below
	in.Query[0] = policy.QueryAtom{User: 0, Attr: 0, Value: 0}
	_, result := slicer.Run(in)
	require.Equal(t, policy.VerdictReachable, result.Verdict)
}

func TestRunUnreachableWhenNoRules(t *testing.T) {
	syms := symtab.New()
	r := syms.Intern("r")
	x := syms.Intern("X")
	universe := &policy.Universe{
		Symbols: syms,
		Attrs:   []symtab.ID{r},
		Domains: map[symtab.ID][]symtab.ID{r: {policy.Bottom, x}},
	}
	users := []policy.UserState{{r: policy.Bottom}}
	in := policy.New(universe, users, []int{0}, nil, policy.Query{{User: 0, Attr: r, Value: x}})
	require.NoError(t, in.Validate())

	_, result := slicer.Run(in)
	require.Equal(t, policy.VerdictUnreachable, result.Verdict)
}

func TestForwardClosureIncludesBottomAndInit(t *testing.T) {
	in := buildScenario4(t, 0)
	reach := slicer.ForwardClosure(in, nil)
	require.True(t, reach[slicer.AV{Attr: in.Universe.Attrs[0], Value: policy.Bottom}])
	require.True(t, reach[slicer.AV{Attr: in.Universe.Attrs[0], Value: in.Users[0][in.Universe.Attrs[0]]}])
}
