package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

func stateKey(user int, attrName string) string {
	return fmt.Sprintf("u%d.%s", user, attrName)
}

// renderConjunction builds a CEL expression testing every atom against
// the flattened state map, joined by &&. An empty conjunction renders
// as the literal "true".
func renderConjunction(sym *symtab.Table, atoms []queryCond) string {
	if len(atoms) == 0 {
		return "true"
	}
	parts := make([]string, len(atoms))
	for i, a := range atoms {
		key := stateKey(a.user, sym.Name(a.attr))
		parts[i] = fmt.Sprintf("s[%s] == %s", quote(key), quote(symbolOrBottom(sym, a.value)))
	}
	return strings.Join(parts, " && ")
}

func quote(s string) string {
	return strconv.Quote(s)
}
