package checker

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/acoac-verify/acoac-checker/internal/policy"
)

// ParsedStep is one counter-example step as extracted from the
// checker's output, before being resolved against a concrete
// sub-instance's rules.
type ParsedStep struct {
	RuleIdx int
	Admin   int
	Target  int
}

// ParseResult is the behavioral parse of one checker invocation's
// captured output (spec.md §4.7, DESIGN.md Open Question (c)): the
// parser recognizes the literal tokens "***RESULT***" followed by
// Reachable/Unreachable/Unknown, and "TRACE <rule> <admin> <target>"
// counter-example lines, tolerating arbitrary surrounding preamble —
// it is not a formal grammar for any specific external checker.
type ParseResult struct {
	Verdict policy.Verdict
	Trace   []ParsedStep
}

// ParseOutput scans output line by line for the result and trace
// tokens. Unrecognized lines are ignored rather than rejected, so a
// checker's own diagnostic chatter never breaks parsing.
func ParseOutput(output string) ParseResult {
	result := ParseResult{Verdict: policy.VerdictUnknown}

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.Contains(line, "***RESULT***"):
			result.Verdict = verdictFromLine(line)
		case strings.HasPrefix(line, "TRACE"):
			if step, ok := parseTraceLine(line); ok {
				result.Trace = append(result.Trace, step)
			}
		}
	}
	return result
}

func verdictFromLine(line string) policy.Verdict {
	switch {
	case strings.Contains(line, "Unreachable"):
		return policy.VerdictUnreachable
	case strings.Contains(line, "Reachable"):
		return policy.VerdictReachable
	default:
		return policy.VerdictUnknown
	}
}

func parseTraceLine(line string) (ParsedStep, bool) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return ParsedStep{}, false
	}
	ruleIdx, err1 := strconv.Atoi(fields[1])
	admin, err2 := strconv.Atoi(fields[2])
	target, err3 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return ParsedStep{}, false
	}
	return ParsedStep{RuleIdx: ruleIdx, Admin: admin, Target: target}, true
}

// ToAnalysisResult resolves a ParseResult's counter-example steps
// against sub — the sub-instance the checker was actually run
// against — reconstructing each AdministrativeAction from the named
// rule's effect. Rule indices out of range are an unparseable
// verdict, per spec.md §4.7/§7 (CheckerFailure, not a fatal error).
func ToAnalysisResult(sub *policy.Instance, parsed ParseResult) (policy.AnalysisResult, error) {
	switch parsed.Verdict {
	case policy.VerdictUnreachable:
		return policy.Unreachable(), nil
	case policy.VerdictReachable:
		var trail policy.Trail
		for _, step := range parsed.Trace {
			if step.RuleIdx < 0 || step.RuleIdx >= len(sub.Rules) {
				return policy.AnalysisResult{}, policy.NewCheckerFailure(
					"counter-example references rule %d, sub-instance has %d rules", step.RuleIdx, len(sub.Rules))
			}
			attr, val := sub.Rules[step.RuleIdx].Effect()
			trail.Actions = append(trail.Actions, policy.AdministrativeAction{
				AdminIdx: step.Admin, UserIdx: step.Target, Attr: attr, Value: val,
			})
			trail.Rules = append(trail.Rules, step.RuleIdx)
		}
		return policy.Reachable(trail), nil
	default:
		return policy.Unknown(), nil
	}
}
