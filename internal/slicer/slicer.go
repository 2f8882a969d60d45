// Package slicer implements the semantics-preserving pruning stage of
// the pipeline (spec.md §4.3): user-cleaning and forward/backward
// attribute-value closures used both to drop irrelevant rules here
// and, incrementally, to drive the abstraction-refinement rule
// selection strategies in internal/absref.
package slicer

import (
	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// AV is an (attribute, value) pair, the unit both closures operate
// over.
type AV struct {
	Attr  symtab.ID
	Value symtab.ID
}

// Effect returns the AV a rule produces when it fires.
func Effect(r policy.Rule) AV {
	attr, val := r.Effect()
	return AV{Attr: attr, Value: val}
}

// PreconditionAtoms returns the admin- and target-precondition atoms
// of r as a single slice, used by both closures uniformly since
// neither direction distinguishes admin from target atoms.
func PreconditionAtoms(r policy.Rule) []policy.Atom {
	atoms := make([]policy.Atom, 0, len(r.AdminPrecondition)+len(r.TargetPrecondition))
	atoms = append(atoms, r.AdminPrecondition...)
	atoms = append(atoms, r.TargetPrecondition...)
	return atoms
}

// SatisfiedBy reports whether every positive atom of a precondition
// names an AV already in the set avs. Negative atoms (attr != value)
// are skipped, so they never make a precondition unsatisfied, since a
// sound answer to "could this precondition ever hold" must not assume a specific
// other value is forced; spec.md §4.3 defines usefulness/reachability
// only over positive atoms for exactly this reason.
func SatisfiedBy(pre policy.Precondition, avs map[AV]bool) bool {
	for _, atom := range pre {
		if atom.Negated {
			continue
		}
		if !avs[AV{Attr: atom.Attr, Value: atom.Value}] {
			return false
		}
	}
	return true
}

// ForwardClosure computes the least fixpoint of AV pairs reachable
// from in's initial state by firing rules (restricted to ruleIdx, or
// all rules when ruleIdx is nil): an AV is reachable if it holds
// initially for some user, if it is Bottom (every attribute starts
// assignable to "unassigned"), or if it is the effect of a rule whose
// preconditions are already reachable.
func ForwardClosure(in *policy.Instance, ruleIdx []int) map[AV]bool {
	reach := make(map[AV]bool)
	for _, attr := range in.Universe.Attrs {
		reach[AV{Attr: attr, Value: policy.Bottom}] = true
	}
	for _, u := range in.Users {
		for attr, val := range u {
			reach[AV{Attr: attr, Value: val}] = true
		}
	}
	rules := rulesFor(in, ruleIdx)
	for {
		changed := false
		for _, r := range rules {
			if !SatisfiedBy(r.AdminPrecondition, reach) || !SatisfiedBy(r.TargetPrecondition, reach) {
				continue
			}
			eff := Effect(r)
			if !reach[eff] {
				reach[eff] = true
				changed = true
			}
		}
		if !changed {
			return reach
		}
	}
}

// BackwardClosure computes the least fixpoint of AV pairs useful for
// in's query: an AV is useful if it appears positively in the query,
// or if it appears positively in the preconditions of a rule
// (restricted to ruleIdx, or all rules when nil) whose effect is useful.
func BackwardClosure(in *policy.Instance, ruleIdx []int) map[AV]bool {
	useful := make(map[AV]bool, len(in.Query))
	for _, qa := range in.Query {
		useful[AV{Attr: qa.Attr, Value: qa.Value}] = true
	}
	rules := rulesFor(in, ruleIdx)
	for {
		changed := false
		for _, r := range rules {
			if !useful[Effect(r)] {
				continue
			}
			for _, atom := range PreconditionAtoms(r) {
				if atom.Negated {
					continue
				}
				av := AV{Attr: atom.Attr, Value: atom.Value}
				if !useful[av] {
					useful[av] = true
					changed = true
				}
			}
		}
		if !changed {
			return useful
		}
	}
}

func rulesFor(in *policy.Instance, ruleIdx []int) []policy.Rule {
	if ruleIdx == nil {
		return in.Rules
	}
	out := make([]policy.Rule, len(ruleIdx))
	for i, ri := range ruleIdx {
		out[i] = in.Rules[ri]
	}
	return out
}

// Run performs the global slice: user-cleaning followed by rule
// pruning against the forward/backward closures over the whole
// instance. It short-circuits with Reachable if the initial state
// already satisfies the query, and with Unreachable if pruning
// eliminates every rule (the sliced instance can never change state).
func Run(in *policy.Instance) (*policy.Instance, policy.AnalysisResult) {
	sliced, result, _ := RunWithMap(in)
	return sliced, result
}

// RunWithMap behaves like Run but additionally returns the mapping
// from the sliced instance's rule indices back to in's rule indices
// (identity when the initial state already satisfies the query, since
// no rules have been dropped; empty when pruning eliminates every
// rule), so the driver can lift a counter-example's
// rule indices back to the originally parsed instance.
func RunWithMap(in *policy.Instance) (*policy.Instance, policy.AnalysisResult, []int) {
	if in.Query.Satisfies(in.InitialState()) {
		return in, policy.Reachable(policy.Trail{}), identity(in.NumRules())
	}
	cleaned := CleanUsers(in)
	return PruneRules(cleaned)
}

// PruneRules performs the attribute/value-driven rule pruning half of
// the global slice (spec.md §4.3) on an already user-cleaned instance:
// forward/backward AV closures over in's whole rule set, keeping only
// rules whose effect is both useful and reachable and whose
// preconditions reference only reachable AVs. The driver calls this
// directly (skipping CleanUsers, which spec.md §4.8 runs
// unconditionally regardless of --no_slicing) so user-cleaning and
// rule pruning can be gated independently. It returns the mapping from
// the pruned instance's rule indices back to in's.
func PruneRules(in *policy.Instance) (*policy.Instance, policy.AnalysisResult, []int) {
	reach := ForwardClosure(in, nil)
	useful := BackwardClosure(in, nil)

	var keptRules []int
	for ri, r := range in.Rules {
		eff := Effect(r)
		if !useful[eff] || !reach[eff] {
			continue
		}
		if !referencesOnlyReachable(r.AdminPrecondition, reach) {
			continue
		}
		if !referencesOnlyReachable(r.TargetPrecondition, reach) {
			continue
		}
		keptRules = append(keptRules, ri)
	}

	allUsers := identity(in.NumUsers())
	sliced := in.Clone(keptRules, allUsers)

	if len(sliced.Rules) == 0 {
		return sliced, policy.Unreachable(), keptRules
	}
	return sliced, policy.Unknown(), keptRules
}

func referencesOnlyReachable(pre policy.Precondition, reach map[AV]bool) bool {
	for _, atom := range pre {
		if atom.Negated {
			continue
		}
		if !reach[AV{Attr: atom.Attr, Value: atom.Value}] {
			return false
		}
	}
	return true
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ReachableValuesByAttr groups a forward closure by attribute, for the
// tight bound formula (internal/boundcalc) which needs per-attribute
// reachable-value-set sizes rather than full domain sizes.
func ReachableValuesByAttr(in *policy.Instance, reach map[AV]bool) map[symtab.ID][]symtab.ID {
	out := make(map[symtab.ID][]symtab.ID, len(in.Universe.Attrs))
	for av := range reach {
		out[av.Attr] = append(out[av.Attr], av.Value)
	}
	return out
}
