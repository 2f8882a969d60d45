package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// Serialize renders in as the module's own .aabac text encoding, used
// to persist slicingResult.aabac / abstractionRefinementResult<n>.aabac
// for debugging and to satisfy the round-trip testable property in
// spec.md §8. This is not a rewrite of any external checker's file
// format (spec.md §1 excludes that); it only needs to be consistent
// with Parse.
func (in *Instance) Serialize() string {
	var b strings.Builder

	attrNames := make([]string, len(in.Universe.Attrs))
	copy(attrNames, symbolNames(in.Universe.Symbols, in.Universe.Attrs))
	for i, attr := range in.Universe.Attrs {
		dom := in.Universe.Domains[attr]
		fmt.Fprintf(&b, "ATTR %s", attrNames[i])
		for _, v := range dom {
			fmt.Fprintf(&b, " %s", symbolOrBottom(in.Universe.Symbols, v))
		}
		b.WriteByte('\n')
	}

	for ui, u := range in.Users {
		fmt.Fprintf(&b, "USER %d", ui)
		keys := make([]symtab.ID, 0, len(u))
		for k := range u {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", in.Universe.Symbols.Name(k), symbolOrBottom(in.Universe.Symbols, u[k]))
		}
		b.WriteByte('\n')
	}

	for _, a := range in.Admins {
		fmt.Fprintf(&b, "ADMIN %d\n", a)
	}

	for _, r := range in.Rules {
		fmt.Fprintf(&b, "RULE %s ; %s ; %s=%s ; %s\n",
			formatPrecondition(in.Universe.Symbols, r.AdminPrecondition),
			formatPrecondition(in.Universe.Symbols, r.TargetPrecondition),
			in.Universe.Symbols.Name(r.TargetAttr),
			symbolOrBottom(in.Universe.Symbols, r.TargetValue),
			negFlag(r.IsNegative),
		)
	}

	if len(in.Query) > 0 {
		b.WriteString("QUERY")
		for _, qa := range in.Query {
			fmt.Fprintf(&b, " %d.%s=%s", qa.User, in.Universe.Symbols.Name(qa.Attr), symbolOrBottom(in.Universe.Symbols, qa.Value))
		}
		b.WriteByte('\n')
	}

	return b.String()
}

func symbolNames(t *symtab.Table, ids []symtab.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = t.Name(id)
	}
	return out
}

func symbolOrBottom(t *symtab.Table, id symtab.ID) string {
	if id == Bottom {
		return "_"
	}
	return t.Name(id)
}

func negFlag(neg bool) string {
	if neg {
		return "NEG"
	}
	return "POS"
}

func formatPrecondition(t *symtab.Table, pre Precondition) string {
	if len(pre) == 0 {
		return "TRUE"
	}
	parts := make([]string, len(pre))
	for i, atom := range pre {
		op := "="
		if atom.Negated {
			op = "!="
		}
		parts[i] = fmt.Sprintf("%s%s%s", t.Name(atom.Attr), op, symbolOrBottom(t, atom.Value))
	}
	return strings.Join(parts, "&")
}
