// Package arbac translates a minimal ARBAC/.mohawk-style role-based
// policy text into an ACoAC policy.Instance (spec.md §6: the
// --input/-i suffix ".arbac"/".mohawk" routes here before the common
// pipeline). Each ARBAC role becomes a boolean ACoAC attribute (domain
// {Bottom, assigned}); can_assign/can_revoke rules become ACoAC rules
// whose admin-precondition is the admin's own role membership and
// whose target-precondition is the administrative precondition over
// the target's current roles, matching classical ARBAC semantics.
//
// Full parity with any one external ARBAC/Mohawk tool's grammar is
// out of scope (spec.md §1 treats input-file parsing as an external
// collaborator); this package only needs to produce valid ACoAC
// instances from ARBAC-shaped input and to surface malformed input as
// a TranslationError, per spec.md §7.
package arbac

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// Translate parses text in the package's ARBAC dialect and returns
// the equivalent ACoAC instance.
func Translate(text string) (*policy.Instance, error) {
	syms := symtab.New()
	assigned := syms.Intern("assigned")

	universe := &policy.Universe{
		Symbols: syms,
		Domains: make(map[symtab.ID][]symtab.ID),
	}
	roleAttr := make(map[string]symtab.ID)
	declRole := func(name string) symtab.ID {
		if id, ok := roleAttr[name]; ok {
			return id
		}
		id := syms.Intern(name)
		roleAttr[name] = id
		universe.Attrs = append(universe.Attrs, id)
		universe.Domains[id] = []symtab.ID{policy.Bottom, assigned}
		return id
	}

	var users []policy.UserState
	var admins []int
	var rules []policy.Rule
	var query policy.Query

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "ROLE":
			if len(fields) != 2 {
				return nil, policy.NewTranslationError("line %d: malformed ROLE", lineNo)
			}
			declRole(fields[1])

		case "USER":
			if len(fields) < 2 {
				return nil, policy.NewTranslationError("line %d: malformed USER", lineNo)
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, policy.NewTranslationError("line %d: bad user index: %v", lineNo, err)
			}
			for len(users) <= idx {
				users = append(users, make(policy.UserState))
			}
			state := make(policy.UserState)
			for _, roleName := range fields[2:] {
				state[declRole(roleName)] = assigned
			}
			users[idx] = state

		case "ADMIN":
			if len(fields) != 2 {
				return nil, policy.NewTranslationError("line %d: malformed ADMIN", lineNo)
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, policy.NewTranslationError("line %d: bad admin index: %v", lineNo, err)
			}
			admins = append(admins, idx)

		case "ASSIGN", "REVOKE":
			rest := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
			parts := strings.SplitN(rest, ";", 3)
			if len(parts) != 3 {
				return nil, policy.NewTranslationError("line %d: malformed %s", lineNo, fields[0])
			}
			adminRole := strings.TrimSpace(parts[0])
			if adminRole == "" {
				return nil, policy.NewTranslationError("line %d: missing admin role", lineNo)
			}
			targetPre, err := parsePrecondition(strings.TrimSpace(parts[1]), declRole, assigned)
			if err != nil {
				return nil, policy.NewTranslationError("line %d: %v", lineNo, err)
			}
			targetRole := strings.TrimSpace(parts[2])
			if targetRole == "" {
				return nil, policy.NewTranslationError("line %d: missing target role", lineNo)
			}
			rules = append(rules, policy.Rule{
				AdminPrecondition:  policy.Precondition{{Attr: declRole(adminRole), Value: assigned}},
				TargetPrecondition: targetPre,
				TargetAttr:         declRole(targetRole),
				TargetValue:        assigned,
				IsNegative:         fields[0] == "REVOKE",
			})

		case "QUERY":
			for _, tok := range fields[1:] {
				userPart, roleName, ok := strings.Cut(tok, ".")
				if !ok {
					return nil, policy.NewTranslationError("line %d: malformed query atom %q", lineNo, tok)
				}
				u, err := strconv.Atoi(userPart)
				if err != nil {
					return nil, policy.NewTranslationError("line %d: bad query user index: %v", lineNo, err)
				}
				query = append(query, policy.QueryAtom{User: u, Attr: declRole(roleName), Value: assigned})
			}

		default:
			return nil, policy.NewTranslationError("line %d: unrecognized ARBAC record %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, policy.NewTranslationError("scanning ARBAC input: %v", err)
	}

	in := policy.New(universe, users, admins, rules, query)
	if err := in.Validate(); err != nil {
		return nil, policy.NewTranslationError("translated instance failed validation: %v", err)
	}
	return in, nil
}

// parsePrecondition parses a "&"-joined conjunction of role names,
// each optionally "!"-prefixed for negation, into a Precondition over
// the shared "assigned" value.
func parsePrecondition(s string, declRole func(string) symtab.ID, assigned symtab.ID) (policy.Precondition, error) {
	if s == "" || s == "TRUE" {
		return nil, nil
	}
	toks := strings.Split(s, "&")
	pre := make(policy.Precondition, 0, len(toks))
	for _, tok := range toks {
		tok = strings.TrimSpace(tok)
		neg := false
		if strings.HasPrefix(tok, "!") {
			neg = true
			tok = strings.TrimSpace(tok[1:])
		}
		if tok == "" {
			return nil, fmt.Errorf("empty role name in precondition %q", s)
		}
		pre = append(pre, policy.Atom{Attr: declRole(tok), Value: assigned, Negated: neg})
	}
	return pre, nil
}
