package policy

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// Parse reads the module's own .aabac text encoding (as produced by
// Serialize) into an Instance. It is intentionally tolerant of blank
// lines and does not attempt to accept the full external-tool .aabac
// grammar (spec.md §1 Non-goals); it only needs to round-trip output
// this package itself produced.
func Parse(text string) (*Instance, error) {
	universe := &Universe{
		Symbols: symtab.New(),
		Domains: make(map[symtab.ID][]symtab.ID),
	}
	var users []UserState
	var admins []int
	var rules []Rule
	var query Query

	sym := func(s string) symtab.ID {
		if s == "_" {
			return Bottom
		}
		return universe.Symbols.Intern(s)
	}

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
		case "ATTR":
			if len(fields) < 2 {
				return nil, NewInputError("line %d: malformed ATTR", lineNo)
			}
			attr := sym(fields[1])
			dom := make([]symtab.ID, 0, len(fields)-2)
			for _, v := range fields[2:] {
				dom = append(dom, sym(v))
			}
			universe.Attrs = append(universe.Attrs, attr)
			universe.Domains[attr] = dom

		case "USER":
			if len(fields) < 2 {
				return nil, NewInputError("line %d: malformed USER", lineNo)
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, NewInputError("line %d: bad user index: %v", lineNo, err)
			}
			for len(users) <= idx {
				users = append(users, make(UserState))
			}
			state := make(UserState)
			for _, kv := range fields[2:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return nil, NewInputError("line %d: malformed attribute assignment %q", lineNo, kv)
				}
				state[sym(k)] = sym(v)
			}
			users[idx] = state

		case "ADMIN":
			if len(fields) != 2 {
				return nil, NewInputError("line %d: malformed ADMIN", lineNo)
			}
			idx, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, NewInputError("line %d: bad admin index: %v", lineNo, err)
			}
			admins = append(admins, idx)

		case "RULE":
			rest := strings.TrimSpace(strings.TrimPrefix(line, "RULE"))
			parts := strings.Split(rest, ";")
			if len(parts) != 4 {
				return nil, NewInputError("line %d: malformed RULE", lineNo)
			}
			adminPre, err := parsePrecondition(strings.TrimSpace(parts[0]), sym)
			if err != nil {
				return nil, NewInputError("line %d: %v", lineNo, err)
			}
			targetPre, err := parsePrecondition(strings.TrimSpace(parts[1]), sym)
			if err != nil {
				return nil, NewInputError("line %d: %v", lineNo, err)
			}
			attr, val, ok := strings.Cut(strings.TrimSpace(parts[2]), "=")
			if !ok {
				return nil, NewInputError("line %d: malformed rule target", lineNo)
			}
			neg := strings.TrimSpace(parts[3]) == "NEG"
			rules = append(rules, Rule{
				AdminPrecondition:  adminPre,
				TargetPrecondition: targetPre,
				TargetAttr:         sym(attr),
				TargetValue:        sym(val),
				IsNegative:         neg,
			})

		case "QUERY":
			for _, tok := range fields[1:] {
				userPart, rest, ok := strings.Cut(tok, ".")
				if !ok {
					return nil, NewInputError("line %d: malformed query atom %q", lineNo, tok)
				}
				attr, val, ok := strings.Cut(rest, "=")
				if !ok {
					return nil, NewInputError("line %d: malformed query atom %q", lineNo, tok)
				}
				u, err := strconv.Atoi(userPart)
				if err != nil {
					return nil, NewInputError("line %d: bad query user index: %v", lineNo, err)
				}
				query = append(query, QueryAtom{User: u, Attr: sym(attr), Value: sym(val)})
			}

		default:
			return nil, NewInputError("line %d: unrecognized record %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewInputError("scanning instance: %v", err)
	}

	in := New(universe, users, admins, rules, query)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

func parsePrecondition(s string, sym func(string) symtab.ID) (Precondition, error) {
	if s == "TRUE" || s == "" {
		return nil, nil
	}
	atoms := strings.Split(s, "&")
	pre := make(Precondition, 0, len(atoms))
	for _, a := range atoms {
		neg := false
		attr, val, ok := strings.Cut(a, "!=")
		if ok {
			neg = true
		} else {
			attr, val, ok = strings.Cut(a, "=")
			if !ok {
				return nil, NewInputError("malformed precondition atom %q", a)
			}
		}
		pre = append(pre, Atom{Attr: sym(attr), Value: sym(val), Negated: neg})
	}
	return pre, nil
}
