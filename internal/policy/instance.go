package policy

import "github.com/acoac-verify/acoac-checker/internal/symtab"

// Universe holds the parts of an instance that sub-instances share
// read-only: the symbol table, the attribute list, and each
// attribute's domain. Clones never copy or mutate it.
type Universe struct {
	Symbols    *symtab.Table
	Attrs      []symtab.ID
	Domains    map[symtab.ID][]symtab.ID
	AdminsAll  []int // user indices designated administrators, relative to Users
}

// Instance is one ACoAC policy instance. Users and Rules are owned by
// this instance; Universe is shared and read-only.
type Instance struct {
	Universe *Universe
	Users    []UserState
	Admins   []int // indices into Users that are administrators
	Rules    []Rule
	Query    Query
}

// UserState is one user's initial attribute assignment, attr -> value.
type UserState map[symtab.ID]symtab.ID

// New builds an Instance from parsed components. Callers are
// responsible for having validated atoms reference ids already
// present in universe.Domains; Validate re-checks this.
func New(universe *Universe, users []UserState, admins []int, rules []Rule, query Query) *Instance {
	return &Instance{Universe: universe, Users: users, Admins: admins, Rules: rules, Query: query}
}

// Clone returns a new Instance restricted to the given rule and user
// indices (both relative to the receiver), sharing the Universe and
// preserving relative order (spec.md §5 ordering guarantee). userIdx
// and ruleIdx need not be sorted; they are used in the order given.
func (in *Instance) Clone(ruleIdx, userIdx []int) *Instance {
	newRules := make([]Rule, len(ruleIdx))
	for i, ri := range ruleIdx {
		newRules[i] = in.Rules[ri]
	}

	oldToNewUser := make(map[int]int, len(userIdx))
	newUsers := make([]UserState, len(userIdx))
	for i, ui := range userIdx {
		newUsers[i] = in.Users[ui]
		oldToNewUser[ui] = i
	}

	var newAdmins []int
	for _, a := range in.Admins {
		if ni, ok := oldToNewUser[a]; ok {
			newAdmins = append(newAdmins, ni)
		}
	}

	newQuery := make(Query, len(in.Query))
	for i, qa := range in.Query {
		ni, ok := oldToNewUser[qa.User]
		if !ok {
			// A query atom referencing a pruned user makes the query
			// unsatisfiable in the sub-instance; callers that reach
			// here are expected to have short-circuited to
			// Unreachable before cloning, so this is a programming
			// error rather than a user error.
			PanicInvariantViolation("clone: query references user %d not retained", qa.User)
		}
		newQuery[i] = QueryAtom{User: ni, Attr: qa.Attr, Value: qa.Value}
	}

	return &Instance{
		Universe: in.Universe,
		Users:    newUsers,
		Admins:   newAdmins,
		Rules:    newRules,
		Query:    newQuery,
	}
}

// Equal reports whether in and other are structurally equal: same
// users, admins, rules and query, independent of Universe pointer
// identity (symbol ids are compared directly since both instances in
// practice share one universe throughout one driver run).
func (in *Instance) Equal(other *Instance) bool {
	if in == nil || other == nil {
		return in == other
	}
	if len(in.Users) != len(other.Users) || len(in.Admins) != len(other.Admins) ||
		len(in.Rules) != len(other.Rules) || len(in.Query) != len(other.Query) {
		return false
	}
	for i := range in.Admins {
		if in.Admins[i] != other.Admins[i] {
			return false
		}
	}
	for i := range in.Users {
		if !userStateEqual(in.Users[i], other.Users[i]) {
			return false
		}
	}
	for i := range in.Rules {
		if !ruleEqual(in.Rules[i], other.Rules[i]) {
			return false
		}
	}
	for i := range in.Query {
		if in.Query[i] != other.Query[i] {
			return false
		}
	}
	return true
}

func userStateEqual(a, b UserState) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func preconditionEqual(a, b Precondition) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func ruleEqual(a, b Rule) bool {
	return a.TargetAttr == b.TargetAttr &&
		a.TargetValue == b.TargetValue &&
		a.IsNegative == b.IsNegative &&
		preconditionEqual(a.AdminPrecondition, b.AdminPrecondition) &&
		preconditionEqual(a.TargetPrecondition, b.TargetPrecondition)
}

// NumUsers, NumRules are small readability helpers used throughout the
// pipeline packages.
func (in *Instance) NumUsers() int { return len(in.Users) }
func (in *Instance) NumRules() int { return len(in.Rules) }

// IsAdmin reports whether user index u is an administrator.
func (in *Instance) IsAdmin(u int) bool {
	for _, a := range in.Admins {
		if a == u {
			return true
		}
	}
	return false
}
