// Package precheck implements the cheap, sound decision procedures
// that can resolve an instance without invoking the slicer,
// abstraction-refinement, or the external checker at all.
package precheck

import (
	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// Run returns Reachable, Unreachable, or Unknown. It never raises: a
// precheck bug is a programming error, not a user-facing failure, per
// spec.md §4.2/§7.
func Run(in *policy.Instance) policy.AnalysisResult {
	initial := in.InitialState()

	if in.Query.Satisfies(initial) {
		return policy.Reachable(policy.Trail{})
	}

	if len(in.Admins) == 0 {
		return policy.Unreachable()
	}

	if noRuleApplicable(in, initial) {
		return policy.Unreachable()
	}

	if queryMentionsUnassignableValue(in) {
		return policy.Unreachable()
	}

	return policy.Unknown()
}

// noRuleApplicable reports whether every rule is inapplicable in the
// initial state for every (admin, target) pair — i.e. nothing can
// ever fire from here, so the target state (which the query doesn't
// already satisfy) can never be reached.
func noRuleApplicable(in *policy.Instance, initial policy.State) bool {
	for _, r := range in.Rules {
		for _, admin := range in.Admins {
			for target := 0; target < in.NumUsers(); target++ {
				if in.CanFire(r, admin, target, initial) {
					return false
				}
			}
		}
	}
	return true
}

// queryMentionsUnassignableValue reports whether the query names an
// (attribute, value) pair that no rule can ever assign and that does
// not already hold for the relevant user initially.
func queryMentionsUnassignableValue(in *policy.Instance) bool {
	assignable := make(map[assignment]bool)
	for _, r := range in.Rules {
		attr, val := r.Effect()
		assignable[assignment{attr, val}] = true
	}

	for _, qa := range in.Query {
		if assignable[assignment{qa.Attr, qa.Value}] {
			continue
		}
		if in.Users[qa.User][qa.Attr] == qa.Value {
			continue
		}
		return true
	}
	return false
}

type assignment struct {
	attr  symtab.ID
	value symtab.ID
}
