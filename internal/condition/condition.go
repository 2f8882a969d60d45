// Package condition compiles ACoAC query conjunctions into CEL boolean
// programs and evaluates them against a flattened state snapshot. It
// exists alongside the hand-rolled, tight-loop precondition evaluator
// in internal/policy (used by CanFire across O(users^2 * rules)
// candidate firings, where a CEL program per call would be far too
// slow) as the decision authority for a one-shot query check: the
// driver's final witness verification against a checker
// counter-example. Pre-check tests the initial state with
// policy.Query.Satisfies, not with this package.
package condition

import (
	"context"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/symtab"
)

// Evaluation limits mirror the teacher's policy evaluator
// (Sentinel-Gate-Sentinelgate/internal/adapter/outbound/cel): a cost
// budget to bound comprehension work and a wall-clock timeout so a
// pathological expression cannot hang the single-threaded driver.
const (
	maxCostBudget      = 10_000
	interruptCheckFreq = 64
	evalTimeout        = 2 * time.Second
)

// stateVar is the CEL variable name bound to the flattened state map:
// keys are "u<index>.<attrName>", values are the attribute's current
// value name (or "_" for Bottom).
const stateVar = "s"

// Evaluator compiles ACoAC atom conjunctions into CEL programs scoped
// to one instance's symbol table.
type Evaluator struct {
	env *cel.Env
	sym *symtab.Table
}

// NewEvaluator builds a CEL environment with a single string-to-string
// map variable representing a flattened multi-user state snapshot.
func NewEvaluator(sym *symtab.Table) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable(stateVar, cel.MapType(cel.StringType, cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("condition: building cel environment: %w", err)
	}
	return &Evaluator{env: env, sym: sym}, nil
}

// CompileQuery compiles q into a CEL boolean program.
func (e *Evaluator) CompileQuery(q policy.Query) (cel.Program, error) {
	atoms := make([]queryCond, len(q))
	for i, qa := range q {
		atoms[i] = queryCond{user: qa.User, attr: qa.Attr, value: qa.Value}
	}
	return e.compile(renderConjunction(e.sym, atoms))
}

type queryCond struct {
	user  int
	attr  symtab.ID
	value symtab.ID
}

func (e *Evaluator) compile(expr string) (cel.Program, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("condition: compiling %q: %w", expr, issues.Err())
	}
	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("condition: building program for %q: %w", expr, err)
	}
	return prg, nil
}

// EvalState evaluates a compiled program against the flattened
// projection of state, bounded by evalTimeout.
func EvalState(prg cel.Program, activation map[string]any) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	out, _, err := prg.ContextEval(ctx, map[string]any{stateVar: activation})
	if err != nil {
		return false, fmt.Errorf("condition: evaluating: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition: expression did not evaluate to bool, got %T", out.Value())
	}
	return b, nil
}

// Flatten projects a policy.State into the "u<idx>.<attr>" -> value-name
// string map the compiled programs expect.
func Flatten(sym *symtab.Table, in *policy.Instance, s policy.State) map[string]any {
	out := make(map[string]any, len(s)*len(in.Universe.Attrs))
	for ui := range s {
		for _, attr := range in.Universe.Attrs {
			v, ok := s[ui][attr]
			if !ok {
				v = policy.Bottom
			}
			out[stateKey(ui, sym.Name(attr))] = symbolOrBottom(sym, v)
		}
	}
	return out
}

func symbolOrBottom(sym *symtab.Table, id symtab.ID) string {
	if id == policy.Bottom {
		return "_"
	}
	return sym.Name(id)
}
