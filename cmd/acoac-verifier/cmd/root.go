// Package cmd provides the CLI commands for the ACoAC reachability verifier.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/acoac-verify/acoac-checker/internal/boundcalc"
	"github.com/acoac-verify/acoac-checker/internal/config"
	"github.com/acoac-verify/acoac-checker/internal/driver"
	"github.com/acoac-verify/acoac-checker/internal/policy"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "acoac-verifier",
	Short: "Administrative reachability verifier for attribute-based access control policies",
	Long: `acoac-verifier decides whether a target attribute assignment is
reachable under an administrative attribute-based access control (ACoAC)
policy, via pre-check, slicing, and counterexample-guided
abstraction-refinement over an external bounded/symbolic model checker.

Quick start:
  acoac-verifier -i policy.aabac -m /path/to/checker -l ./logs

Configuration:
  Config is loaded from acoac-verifier.yaml in the current directory,
  $HOME/.acoac-verifier/, or /etc/acoac-verifier/.

  Environment variables can override config values with the ACOAC_ prefix.
  Example: ACOAC_MODEL_CHECKER=/usr/local/bin/checker

Result output (stdout): one of reachable, unreachable, unknown, timeout,
error; on reachable, a numbered trail of administrative actions (and,
unless --no_rules, the rule index that authorized each).`,
	SilenceUsage: true,
	RunE:         runVerify,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./acoac-verifier.yaml)")
	flags.StringP("input", "i", "", "policy file to verify (.aabac, .arbac, or .mohawk)")
	flags.StringP("model_checker", "m", "", "external model-checker executable (required unless --compute_tightness)")
	flags.StringP("log_dir", "l", "", "directory for intermediate artifacts")
	flags.BoolP("no_precheck", "p", false, "disable the pre-check stage")
	flags.BoolP("no_slicing", "s", false, "disable the slicing stage")
	flags.BoolP("no_absref", "a", false, "disable the abstraction-refinement loop")
	flags.BoolP("smc", "n", false, "disable bounded mode (symbolic model checking only)")
	flags.IntP("tl", "b", 2, "bound tightness level (1 or 2)")
	flags.BoolP("no_rules", "r", false, "omit rule indices from the printed result")
	flags.IntP("timeout", "t", 60, "per-checker-invocation timeout in seconds")
	flags.BoolP("compute_tightness", "c", false, "skip verification; compute and print bound tightness")
	flags.StringP("output", "o", "", "CSV output path for tightness mode")

	_ = viper.BindPFlag("input", flags.Lookup("input"))
	_ = viper.BindPFlag("model_checker", flags.Lookup("model_checker"))
	_ = viper.BindPFlag("log_dir", flags.Lookup("log_dir"))
	_ = viper.BindPFlag("no_precheck", flags.Lookup("no_precheck"))
	_ = viper.BindPFlag("no_slicing", flags.Lookup("no_slicing"))
	_ = viper.BindPFlag("no_absref", flags.Lookup("no_absref"))
	_ = viper.BindPFlag("smc", flags.Lookup("smc"))
	_ = viper.BindPFlag("tl", flags.Lookup("tl"))
	_ = viper.BindPFlag("no_rules", flags.Lookup("no_rules"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("compute_tightness", flags.Lookup("compute_tightness"))
	_ = viper.BindPFlag("output", flags.Lookup("output"))
}

func initConfig() {
	config.InitViper(cfgFile)
}

func runVerify(cmd *cobra.Command, args []string) error {
	// config.LoadConfig validates the flag/config-file arguments
	// themselves (required flags, --tl in {1,2}, --timeout > 0, …).
	// That is spec.md §6's "argument error": returning it here lets
	// Execute() print it and os.Exit(1), rather than swallowing it.
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	metrics := driver.NewMetrics(prometheus.DefaultRegisterer)
	d := driver.New(logger, metrics)

	if cfg.ComputeTightness {
		summary, rows, err := d.ComputeTightness(cfg.Input, cfg.Output, boundcalc.TightLevel(cfg.TightLevel))
		if err != nil {
			return err
		}
		for _, row := range rows {
			fmt.Printf("%s\tloose=%s\ttight=%s\ttightness=%s\n", row.File, row.Loose.Decimal(), row.Tight.Decimal(), row.Digits)
		}
		fmt.Printf("average tightness: %s\n", summary.Digits)
		return nil
	}

	driverCfg := driver.Config{
		InputPath:        cfg.Input,
		ModelCheckerPath: cfg.ModelChecker,
		LogDir:           cfg.LogDir,
		NoPrecheck:       cfg.NoPrecheck,
		NoSlicing:        cfg.NoSlicing,
		NoAbsRef:         cfg.NoAbsRef,
		SMC:              cfg.SMC,
		TightLevel:       boundcalc.TightLevel(cfg.TightLevel),
		NoRules:          cfg.NoRules,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
	}

	// d.Run's error return, when non-nil, is already reflected in
	// result.Verdict (VerdictError/VerdictTimeout) and printed below:
	// per spec.md §6/§7 the five result tokens — including "error" and
	// "timeout" — are successful-execution outcomes with exit code 0.
	// Only CLI argument errors (above) and the fatal Overflow/
	// InternalInvariantViolation panics warrant a non-zero exit.
	result, _ := d.Run(context.Background(), driverCfg)
	printResult(result, cfg.NoRules)
	return nil
}

func printResult(result policy.AnalysisResult, noRules bool) {
	fmt.Println(result.Verdict.String())
	if result.Verdict == policy.VerdictReachable {
		for i, act := range result.Trail.Actions {
			if noRules {
				fmt.Printf("%d: admin=%d user=%d attr=%d value=%d\n", i, act.AdminIdx, act.UserIdx, act.Attr, act.Value)
			} else {
				fmt.Printf("%d: admin=%d user=%d attr=%d value=%d (rule %d)\n", i, act.AdminIdx, act.UserIdx, act.Attr, act.Value, result.Trail.Rules[i])
			}
		}
	}
	if result.Verdict == policy.VerdictError && result.Err != nil {
		fmt.Fprintln(os.Stderr, result.Err)
	}
}
