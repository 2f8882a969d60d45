// Package driver implements the CEGAR outer loop (spec.md §4.8) that
// glues pre-check, slicing, abstraction-refinement, the bound
// calculator, and the external checker subprocess into one
// verification run: load -> optional pre-check -> user-clean ->
// optional global slice -> (CEGAR loop | unabstracted instance) ->
// optional local slice -> bound -> invoke checker -> decide whether
// to refine or report.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/acoac-verify/acoac-checker/internal/absref"
	"github.com/acoac-verify/acoac-checker/internal/arbac"
	"github.com/acoac-verify/acoac-checker/internal/bigint"
	"github.com/acoac-verify/acoac-checker/internal/boundcalc"
	"github.com/acoac-verify/acoac-checker/internal/checker"
	"github.com/acoac-verify/acoac-checker/internal/condition"
	"github.com/acoac-verify/acoac-checker/internal/policy"
	"github.com/acoac-verify/acoac-checker/internal/precheck"
	"github.com/acoac-verify/acoac-checker/internal/slicer"
)

// Config holds the verification settings taken from the CLI flag set
// of spec.md §6; --compute_tightness and --output are handled by
// ComputeTightness and have no field here.
type Config struct {
	InputPath        string
	ModelCheckerPath string
	LogDir           string
	NoPrecheck       bool
	NoSlicing        bool
	NoAbsRef         bool
	SMC              bool // --smc/-n: disable bounded mode, symbolic only
	TightLevel       boundcalc.TightLevel
	NoRules          bool
	Timeout          time.Duration
}

// Driver runs one verification per Config, logging stage transitions
// and recording Prometheus metrics the way the teacher instruments its
// request path.
type Driver struct {
	logger  *slog.Logger
	metrics *Metrics
}

// New builds a Driver. logger and metrics must not be nil; callers
// typically share one *Metrics across a process's invocations even
// though the driver itself never runs two verifications concurrently
// (spec.md §5).
func New(logger *slog.Logger, metrics *Metrics) *Driver {
	return &Driver{logger: logger, metrics: metrics}
}

// Run executes the full pipeline for cfg and returns the final
// AnalysisResult with trail rule indices lifted back to the originally
// parsed instance's numbering.
func (d *Driver) Run(ctx context.Context, cfg Config) (policy.AnalysisResult, error) {
	start := time.Now()
	logger := d.logger.With("input", cfg.InputPath)

	result, err := d.run(ctx, cfg, logger)
	if err != nil {
		logger.Error("verification failed", "error", err)
	}
	d.metrics.VerifyDuration.Observe(time.Since(start).Seconds())
	d.metrics.VerdictsTotal.WithLabelValues(result.Verdict.String()).Inc()
	return result, err
}

func (d *Driver) run(ctx context.Context, cfg Config, logger *slog.Logger) (policy.AnalysisResult, error) {
	original, err := load(cfg.InputPath)
	if err != nil {
		return policy.Failed(err), err
	}
	if err := original.Validate(); err != nil {
		return policy.Failed(err), err
	}

	if !cfg.NoPrecheck {
		pre := precheck.Run(original)
		if pre.Verdict != policy.VerdictUnknown {
			logger.Info("precheck decided", "stage", "precheck", "verdict", pre.Verdict.String())
			return d.report(pre), nil
		}
	}

	cleaned := slicer.CleanUsers(original)
	logger.Info("user-cleaning complete", "stage", "userclean", "users", cleaned.NumUsers())

	working := cleaned
	ruleMap := identityMap(cleaned.NumRules())
	if !cfg.NoSlicing {
		sliced, sliceResult, sMap := slicer.PruneRules(cleaned)
		if err := d.writeArtifact(cfg.LogDir, "slicingResult.aabac", sliced); err != nil {
			return policy.Failed(err), err
		}
		logger.Info("global slice complete", "stage", "slice", "rules", sliced.NumRules(), "verdict", sliceResult.Verdict.String())
		if sliceResult.Verdict != policy.VerdictUnknown {
			return d.report(sliceResult), nil
		}
		working = sliced
		ruleMap = sMap
	}

	var cegar *absref.CEGAR
	var sub *policy.Instance
	if cfg.NoAbsRef {
		sub = working
	} else {
		cegar = absref.New(working)
		sub = cegar.Start()
	}

	round := 0
	for {
		localSub := sub
		localMap := ruleMap
		if cegar != nil {
			localMap = compose(cegar.RuleMap(), ruleMap)
		}

		if !cfg.NoSlicing {
			localSliced, localResult, localRuleMap := slicer.PruneRules(localSub)
			localSub = localSliced
			localMap = compose(localRuleMap, localMap)
			if localResult.Verdict == policy.VerdictUnreachable && cegar != nil && !cegar.Converged() {
				// A sub-instance sliced down to no rules decides nothing
				// about the full instance: refine instead of reporting.
				round++
				next := cegar.Refine()
				logger.Info("refining", "stage", "refine", "round", round)
				if next == nil {
					return d.report(policy.Unreachable()), nil
				}
				sub = next
				continue
			}
			if localResult.Verdict != policy.VerdictUnknown {
				return d.report(localResult), nil
			}
		}

		if err := d.writeArtifact(cfg.LogDir, fmt.Sprintf("abstractionRefinementResult%d.aabac", round), localSub); err != nil {
			return policy.Failed(err), err
		}

		ar, err := d.verifyRound(ctx, cfg, localSub, round, logger)
		if err != nil {
			return policy.Failed(err), err
		}
		d.metrics.RoundsTotal.Inc()

		switch ar.Verdict {
		case policy.VerdictReachable:
			lifted := liftTrail(ar.Trail, localMap)
			if !original.Replay(lifted) {
				return policy.Failed(policy.NewCheckerFailure(
					"counter-example trail does not satisfy the query when replayed on the original instance")), nil
			}
			if ok, werr := verifyWitnessWithCEL(original, lifted); werr == nil && !ok {
				return policy.Failed(policy.NewCheckerFailure(
					"counter-example trail rejected by condition evaluator")), nil
			}
			return d.report(policy.Reachable(lifted)), nil

		case policy.VerdictUnreachable:
			if cegar == nil || cegar.Converged() {
				return d.report(policy.Unreachable()), nil
			}
			round++
			next := cegar.Refine()
			logger.Info("refining", "stage", "refine", "round", round)
			if next == nil {
				return d.report(policy.Unreachable()), nil
			}
			sub = next
			continue

		default: // Unknown, Timeout, Error
			return d.report(ar), nil
		}
	}
}

// verifyRound computes the bound (unless --smc) and invokes the
// checker once against sub, which is already the final, locally
// sliced sub-instance for this round.
func (d *Driver) verifyRound(ctx context.Context, cfg Config, sub *policy.Instance, round int, logger *slog.Logger) (policy.AnalysisResult, error) {
	var bmcDepth *int
	if !cfg.SMC {
		reach := slicer.ForwardClosure(sub, nil)
		byAttr := slicer.ReachableValuesByAttr(sub, reach)
		bound := boundcalc.Compute(sub, cfg.TightLevel, byAttr)
		depth, fellBack := capToIntMax(bound)
		if fellBack {
			logger.Warn("bound exceeds INT_MAX, falling back to INT_MAX BMC depth", "round", round)
		}
		bmcDepth = &depth
	}

	modelPath := filepath.Join(cfg.LogDir, fmt.Sprintf("lastSmvInstance%d.smv", round))
	if err := os.WriteFile(modelPath, []byte(sub.Serialize()), 0o644); err != nil {
		return policy.AnalysisResult{}, policy.NewInputError("writing model file %s: %v", modelPath, err)
	}
	logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("smvOutput%d.txt", round))

	ar, _, err := checker.Invoke(ctx, checker.RunConfig{
		CheckerPath: cfg.ModelCheckerPath,
		ModelFile:   modelPath,
		BMCDepth:    bmcDepth,
		Timeout:     cfg.Timeout,
		LogPath:     logPath,
	}, sub)
	if err != nil {
		return ar, err
	}

	if ar.Verdict == policy.VerdictUnreachable && bmcDepth != nil && *bmcDepth == maxInt32 {
		logger.Warn("unreachable under INT_MAX-capped bound is unsound, retrying in symbolic mode", "round", round)
		ar2, _, err2 := checker.Invoke(ctx, checker.RunConfig{
			CheckerPath: cfg.ModelCheckerPath,
			ModelFile:   modelPath,
			BMCDepth:    nil,
			Timeout:     cfg.Timeout,
			LogPath:     logPath,
		}, sub)
		if err2 != nil {
			return ar2, err2
		}
		return ar2, nil
	}

	logger.Info("checker invoked", "stage", "checker", "round", round, "verdict", ar.Verdict.String())
	return ar, nil
}

const maxInt32 = 1<<31 - 1

// capToIntMax returns bound as an int, capped at INT_MAX (spec.md
// §4.6: "If B exceeds INT_MAX, the driver falls back to BMC with
// INT_MAX"), and whether capping occurred.
func capToIntMax(bound bigint.Int) (int, bool) {
	v, ok := bound.Int64()
	if !ok || v > maxInt32 || v < 0 {
		return maxInt32, true
	}
	return int(v), false
}

// report logs and returns the final verdict. By the time report is
// called, any trail rule indices in result are already expressed in
// the originally parsed instance's numbering (lifted via liftTrail).
func (d *Driver) report(result policy.AnalysisResult) policy.AnalysisResult {
	d.logger.Info("verification complete", "stage", "report", "verdict", result.Verdict.String())
	return result
}

func (d *Driver) writeArtifact(logDir, name string, in *policy.Instance) error {
	path := filepath.Join(logDir, name)
	if err := os.WriteFile(path, []byte(in.Serialize()), 0o644); err != nil {
		return policy.NewInputError("writing artifact %s: %v", path, err)
	}
	return nil
}

// load reads cfg's input file and dispatches on its suffix per
// spec.md §6: ".aabac" parses directly, ".arbac"/".mohawk" translate
// from ARBAC first. Any other suffix is a user error.
func load(path string) (*policy.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, policy.NewInputError("reading input file %s: %v", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".aabac":
		return policy.Parse(string(data))
	case ".arbac", ".mohawk":
		in, terr := arbac.Translate(string(data))
		if terr != nil {
			return nil, policy.NewTranslationError("translating %s: %v", path, terr)
		}
		return in, nil
	default:
		return nil, policy.NewInputError("unrecognized input suffix %q (expected .aabac, .arbac, or .mohawk)", filepath.Ext(path))
	}
}

// verifyWitnessWithCEL re-checks a counter-example trail with the CEL
// condition evaluator (internal/condition), independent of the plain
// Go Replay check, as the final authority for a one-shot query
// evaluation spec.md §4.7 expects the parsed verdict to agree with.
func verifyWitnessWithCEL(in *policy.Instance, trail policy.Trail) (bool, error) {
	eval, err := condition.NewEvaluator(in.Universe.Symbols)
	if err != nil {
		return false, err
	}
	prg, err := eval.CompileQuery(in.Query)
	if err != nil {
		return false, err
	}
	s := in.InitialState()
	for _, act := range trail.Actions {
		if s[act.UserIdx] == nil {
			s[act.UserIdx] = make(policy.UserState)
		}
		s[act.UserIdx][act.Attr] = act.Value
	}
	activation := condition.Flatten(in.Universe.Symbols, in, s)
	return condition.EvalState(prg, activation)
}

func identityMap(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// compose returns the mapping a->c given inner (a->b) and outer (b->c).
func compose(inner, outer []int) []int {
	out := make([]int, len(inner))
	for i, b := range inner {
		out[i] = outer[b]
	}
	return out
}

// liftTrail rewrites trail's rule indices from a sub-instance's
// numbering to the original instance's, via ruleMap (sub idx -> original
// idx). Action contents (attr/value/admin/target) are unchanged: they
// were already resolved against the sub-instance's rule effects, which
// are structurally identical to the corresponding original rule's.
func liftTrail(trail policy.Trail, ruleMap []int) policy.Trail {
	lifted := policy.Trail{Actions: trail.Actions, Rules: make([]int, len(trail.Rules))}
	for i, ri := range trail.Rules {
		lifted.Rules[i] = ruleMap[ri]
	}
	return lifted
}
