// Package policy implements the ACoAC data model: instances, rules,
// states, administrative actions, and analysis results, plus the
// invariant validation, cloning, and serialization the rest of the
// pipeline depends on.
package policy

import "github.com/acoac-verify/acoac-checker/internal/symtab"

// Bottom is the distinguished "unassigned" value every attribute's
// domain contains.
const Bottom symtab.ID = 0

// Atom is one literal of a rule precondition: "attribute = value" if
// Negated is false, "attribute != value" if true.
type Atom struct {
	Attr    symtab.ID
	Value   symtab.ID
	Negated bool
}

// Precondition is a conjunction of atoms; an empty precondition is
// trivially true.
type Precondition []Atom

// Rule is one ACoAC administrative rule.
type Rule struct {
	AdminPrecondition  Precondition
	TargetPrecondition Precondition
	TargetAttr         symtab.ID
	TargetValue        symtab.ID
	IsNegative         bool
}

// Effect returns the (attribute, value) the rule assigns when it
// fires: TargetValue normally, Bottom when IsNegative retracts it.
func (r Rule) Effect() (attr, value symtab.ID) {
	if r.IsNegative {
		return r.TargetAttr, Bottom
	}
	return r.TargetAttr, r.TargetValue
}

// Query is the conjunctive goal the verifier decides reachability of,
// expressed as atoms over (user index, attribute, value).
type QueryAtom struct {
	User  int
	Attr  symtab.ID
	Value symtab.ID
}

type Query []QueryAtom

// AdministrativeAction is the concrete effect of one fired rule.
type AdministrativeAction struct {
	AdminIdx int
	UserIdx  int
	Attr     symtab.ID
	Value    symtab.ID
}

// Trail pairs the ordered actions of a reachability witness with the
// index (in the verified sub-instance) of the rule that authorized
// each action.
type Trail struct {
	Actions []AdministrativeAction
	Rules   []int
}

// Verdict enumerates the sum type AnalysisResult from spec.md §3.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictReachable
	VerdictUnreachable
	VerdictTimeout
	VerdictError
)

func (v Verdict) String() string {
	switch v {
	case VerdictReachable:
		return "reachable"
	case VerdictUnreachable:
		return "unreachable"
	case VerdictTimeout:
		return "timeout"
	case VerdictError:
		return "error"
	default:
		return "unknown"
	}
}

// AnalysisResult is the outcome of one pipeline stage or of the whole
// driver run.
type AnalysisResult struct {
	Verdict Verdict
	Trail   Trail
	Err     error
}

// Reachable builds a Reachable result carrying a witness trail.
func Reachable(trail Trail) AnalysisResult {
	return AnalysisResult{Verdict: VerdictReachable, Trail: trail}
}

// Unreachable builds an Unreachable result.
func Unreachable() AnalysisResult { return AnalysisResult{Verdict: VerdictUnreachable} }

// Unknown builds an Unknown (intermediate-only) result.
func Unknown() AnalysisResult { return AnalysisResult{Verdict: VerdictUnknown} }

// Failed builds an Error result wrapping err.
func Failed(err error) AnalysisResult { return AnalysisResult{Verdict: VerdictError, Err: err} }

// TimedOut builds a Timeout result.
func TimedOut() AnalysisResult { return AnalysisResult{Verdict: VerdictTimeout} }
