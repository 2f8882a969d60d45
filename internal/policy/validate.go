package policy

import "github.com/acoac-verify/acoac-checker/internal/symtab"

// Validate checks the invariants spec.md §3 requires to hold after
// parsing and after every transformation. It returns an InputError
// describing the first violation found.
func (in *Instance) Validate() error {
	for _, attr := range in.Universe.Attrs {
		dom, ok := in.Universe.Domains[attr]
		if !ok {
			return NewInputError("attribute %d has no domain", attr)
		}
		if !containsID(dom, Bottom) {
			return NewInputError("attribute %d domain does not contain bottom", attr)
		}
	}

	for ui, state := range in.Users {
		for attr, val := range state {
			dom, ok := in.Universe.Domains[attr]
			if !ok {
				return NewInputError("user %d references unknown attribute %d", ui, attr)
			}
			if !containsID(dom, val) {
				return NewInputError("user %d attribute %d initial value %d not in domain", ui, attr, val)
			}
		}
	}

	for _, a := range in.Admins {
		if a < 0 || a >= len(in.Users) {
			return NewInputError("admin index %d out of range", a)
		}
	}

	for ri, r := range in.Rules {
		dom, ok := in.Universe.Domains[r.TargetAttr]
		if !ok {
			return NewInputError("rule %d: target attribute %d unknown", ri, r.TargetAttr)
		}
		if !containsID(dom, r.TargetValue) {
			return NewInputError("rule %d: target value %d not in domain of attribute %d", ri, r.TargetValue, r.TargetAttr)
		}
		if err := in.validatePrecondition(ri, r.AdminPrecondition); err != nil {
			return err
		}
		if err := in.validatePrecondition(ri, r.TargetPrecondition); err != nil {
			return err
		}
	}

	for qi, qa := range in.Query {
		if qa.User < 0 || qa.User >= len(in.Users) {
			return NewInputError("query atom %d: user %d out of range", qi, qa.User)
		}
		dom, ok := in.Universe.Domains[qa.Attr]
		if !ok {
			return NewInputError("query atom %d: unknown attribute %d", qi, qa.Attr)
		}
		if !containsID(dom, qa.Value) {
			return NewInputError("query atom %d: value %d not in domain of attribute %d", qi, qa.Value, qa.Attr)
		}
	}

	return nil
}

func (in *Instance) validatePrecondition(ruleIdx int, pre Precondition) error {
	for _, atom := range pre {
		dom, ok := in.Universe.Domains[atom.Attr]
		if !ok {
			return NewInputError("rule %d: precondition references unknown attribute %d", ruleIdx, atom.Attr)
		}
		if !containsID(dom, atom.Value) {
			return NewInputError("rule %d: precondition value %d not in domain of attribute %d", ruleIdx, atom.Value, atom.Attr)
		}
	}
	return nil
}

func containsID(dom []symtab.ID, v symtab.ID) bool {
	for _, d := range dom {
		if d == v {
			return true
		}
	}
	return false
}
