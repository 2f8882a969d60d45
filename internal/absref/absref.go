// Package absref implements the CEGAR-style abstraction-refinement
// stage (spec.md §4.4): forward and backward rule-selection strategies
// that jointly under-approximate the rule set, refined one round at a
// time whenever the external checker reports Unreachable on the
// current sub-instance.
package absref

import (
	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/slicer"
)

// CEGAR holds the monotonic state of one verification run's
// abstraction-refinement loop: the unabstracted (but already globally
// sliced) instance it refines toward, the round counter, and the
// forward/backward rule acceptance sets and their AV closures.
type CEGAR struct {
	full  *policy.Instance
	Round int

	setF map[int]bool
	setB map[int]bool

	reachable map[slicer.AV]bool
	useful    map[slicer.AV]bool

	converged    bool
	returnedFull bool

	lastRuleMap []int
}

// New builds a CEGAR loop over full, seeding the forward closure with
// Bottom and the initial state's AV pairs, and the backward closure
// with the query's AV pairs — round 0's starting point before any
// rule has been promoted.
func New(full *policy.Instance) *CEGAR {
	reach := make(map[slicer.AV]bool)
	for _, attr := range full.Universe.Attrs {
		reach[slicer.AV{Attr: attr, Value: policy.Bottom}] = true
	}
	for _, u := range full.Users {
		for attr, val := range u {
			reach[slicer.AV{Attr: attr, Value: val}] = true
		}
	}
	useful := make(map[slicer.AV]bool, len(full.Query))
	for _, qa := range full.Query {
		useful[slicer.AV{Attr: qa.Attr, Value: qa.Value}] = true
	}
	return &CEGAR{
		full:      full,
		setF:      make(map[int]bool),
		setB:      make(map[int]bool),
		reachable: reach,
		useful:    useful,
	}
}

// Start produces the round-0 abstraction: one forward and one
// backward promotion pass over full's rules, then SetF ∩ SetB.
func (c *CEGAR) Start() *policy.Instance {
	c.stepForward()
	c.stepBackward()
	return c.Abstraction()
}

// Refine advances both strategies by one round and re-intersects. It
// must only be called after the checker reported Unreachable on the
// previous Abstraction() — a necessary, not sufficient, condition for
// the original instance's unreachability (spec.md §4.4 soundness
// conditions). Once neither strategy can add a new rule, refinement
// has converged: Refine returns the full instance once, then nil on
// every subsequent call, signaling "no further refinement possible".
func (c *CEGAR) Refine() *policy.Instance {
	if c.converged {
		if c.returnedFull {
			return nil
		}
		c.returnedFull = true
		c.lastRuleMap = identityMap(len(c.full.Rules))
		return c.full
	}

	c.Round++
	addedF := c.stepForward()
	addedB := c.stepBackward()
	if !addedF && !addedB {
		c.converged = true
		c.returnedFull = true
		c.lastRuleMap = identityMap(len(c.full.Rules))
		return c.full
	}
	return c.Abstraction()
}

func identityMap(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// RuleMap returns, for the most recently returned sub-instance (from
// Start or Refine), the mapping from sub-instance rule index to the
// corresponding rule index in full — the unabstracted but already
// sliced instance CEGAR was built over. The driver uses this to lift
// a counter-example's rule indices one level up; a further mapping
// (recorded by the slicer) lifts them the rest of the way to the
// original, unsliced instance.
func (c *CEGAR) RuleMap() []int { return c.lastRuleMap }

// Converged reports whether refinement has reached its fixpoint (the
// sub-instance equals the full sliced instance).
func (c *CEGAR) Converged() bool { return c.converged }

func (c *CEGAR) stepForward() bool {
	added := false
	var promoted []policy.Rule
	for ri, r := range c.full.Rules {
		if c.setF[ri] {
			continue
		}
		if slicer.SatisfiedBy(r.AdminPrecondition, c.reachable) && slicer.SatisfiedBy(r.TargetPrecondition, c.reachable) {
			c.setF[ri] = true
			promoted = append(promoted, r)
			added = true
		}
	}
	// A rule promoted this round participates in the next round's
	// closure (spec.md §4.4), not this one: firing updates reachable
	// only after every rule has been checked against the round's
	// starting closure.
	for _, r := range promoted {
		c.reachable[slicer.Effect(r)] = true
	}
	return added
}

func (c *CEGAR) stepBackward() bool {
	added := false
	var promoted []policy.Rule
	for ri, r := range c.full.Rules {
		if c.setB[ri] {
			continue
		}
		if c.useful[slicer.Effect(r)] {
			c.setB[ri] = true
			promoted = append(promoted, r)
			added = true
		}
	}
	for _, r := range promoted {
		for _, atom := range slicer.PreconditionAtoms(r) {
			if atom.Negated {
				continue
			}
			c.useful[slicer.AV{Attr: atom.Attr, Value: atom.Value}] = true
		}
	}
	return added
}

// Abstraction builds the sub-instance whose rules are SetF ∩ SetB, in
// original rule order, sharing the full instance's users and query.
func (c *CEGAR) Abstraction() *policy.Instance {
	var ruleIdx []int
	for ri := range c.full.Rules {
		if c.setF[ri] && c.setB[ri] {
			ruleIdx = append(ruleIdx, ri)
		}
	}
	allUsers := make([]int, c.full.NumUsers())
	for i := range allUsers {
		allUsers[i] = i
	}
	c.lastRuleMap = ruleIdx
	return c.full.Clone(ruleIdx, allUsers)
}
