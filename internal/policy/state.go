package policy

import "github.com/acoac-verify/acoac-checker/internal/symtab"

// State is a total snapshot of every user's attribute assignment; it
// starts as a copy of Instance.Users and is mutated by replaying
// administrative actions.
type State []UserState

// InitialState returns the state implied by the instance's initial
// assignment, as an independent copy safe to mutate.
func (in *Instance) InitialState() State {
	st := make(State, len(in.Users))
	for i, u := range in.Users {
		cp := make(UserState, len(u))
		for k, v := range u {
			cp[k] = v
		}
		st[i] = cp
	}
	return st
}

func (s State) get(user int, attr symtab.ID) symtab.ID {
	if v, ok := s[user][attr]; ok {
		return v
	}
	return Bottom
}

// Satisfies reports whether q holds in state s.
func (q Query) Satisfies(s State) bool {
	for _, qa := range q {
		if s.get(qa.User, qa.Attr) != qa.Value {
			return false
		}
	}
	return true
}

func evalPrecondition(pre Precondition, s State, user int) bool {
	for _, atom := range pre {
		actual := s.get(user, atom.Attr)
		holds := actual == atom.Value
		if atom.Negated {
			holds = !holds
		}
		if !holds {
			return false
		}
	}
	return true
}

// CanFire reports whether rule r fires when admin acts on target in
// state s: admin != target, both preconditions hold, and firing would
// change the state.
func (in *Instance) CanFire(r Rule, admin, target int, s State) bool {
	if admin == target {
		return false
	}
	if !evalPrecondition(r.AdminPrecondition, s, admin) {
		return false
	}
	if !evalPrecondition(r.TargetPrecondition, s, target) {
		return false
	}
	attr, value := r.Effect()
	return s.get(target, attr) != value
}

// Apply fires rule r as admin acting on target, mutating s in place
// and returning the resulting action.
func (in *Instance) Apply(r Rule, admin, target int, s State) AdministrativeAction {
	attr, value := r.Effect()
	if s[target] == nil {
		s[target] = make(UserState)
	}
	s[target][attr] = value
	return AdministrativeAction{AdminIdx: admin, UserIdx: target, Attr: attr, Value: value}
}

// Replay applies trail's actions in order to a copy of the instance's
// initial state and reports whether the resulting state satisfies the
// query — the witness-soundness property in spec.md §8.
func (in *Instance) Replay(trail Trail) bool {
	s := in.InitialState()
	for _, act := range trail.Actions {
		if s[act.UserIdx] == nil {
			s[act.UserIdx] = make(UserState)
		}
		s[act.UserIdx][act.Attr] = act.Value
	}
	return in.Query.Satisfies(s)
}
