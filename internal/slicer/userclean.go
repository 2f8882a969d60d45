package slicer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// CleanUsers partitions in's users by structural equivalence of their
// initial attribute vector restricted to attributes reachable from
// the query (the backward closure's attribute set), per role
// (administrator/non-administrator), and keeps one representative —
// the lowest original index — per class. Users the query references
// directly are always kept verbatim, since merging them would change
// which state the query is evaluated against.
func CleanUsers(in *policy.Instance) *policy.Instance {
	useful := BackwardClosure(in, nil)
	relevant := make(map[symtab.ID]bool)
	for av := range useful {
		relevant[av.Attr] = true
	}
	for _, qa := range in.Query {
		relevant[qa.Attr] = true
	}

	pinned := make(map[int]bool, len(in.Query))
	for _, qa := range in.Query {
		pinned[qa.User] = true
	}

	attrs := make([]symtab.ID, 0, len(relevant))
	for a := range relevant {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i] < attrs[j] })

	seen := make(map[string]bool)
	var keep []int
	for ui := range in.Users {
		if pinned[ui] {
			keep = append(keep, ui)
			continue
		}
		key := classKey(in, ui, attrs)
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, ui)
	}

	allRules := identity(in.NumRules())
	return in.Clone(allRules, keep)
}

func classKey(in *policy.Instance, idx int, attrs []symtab.ID) string {
	var b strings.Builder
	if in.IsAdmin(idx) {
		b.WriteByte('A')
	} else {
		b.WriteByte('N')
	}
	u := in.Users[idx]
	for _, a := range attrs {
		v, ok := u[a]
		if !ok {
			v = policy.Bottom
		}
		fmt.Fprintf(&b, "|%d=%d", a, v)
	}
	return b.String()
}
