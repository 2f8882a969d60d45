// Package config resolves the verifier's configuration by merging CLI
// flags (bound via cobra/pflag), ACOAC_-prefixed environment
// variables, and an optional YAML file, in that order of precedence —
// the same viper-based InitViper/LoadConfig split the teacher uses for
// its own OSS configuration layer.
package config

// VerifierConfig is the verifier's configuration schema. Every field
// corresponds one-to-one to a flag in spec.md §6.
type VerifierConfig struct {
	// Input is the policy file to verify (--input/-i). Suffix selects
	// the parser: ".aabac" for native ACoAC, ".arbac"/".mohawk" for
	// ARBAC translated to ACoAC.
	Input string `yaml:"input" mapstructure:"input" validate:"required"`

	// ModelChecker is the external model-checker executable
	// (--model_checker/-m). Required unless ComputeTightness is set.
	ModelChecker string `yaml:"model_checker" mapstructure:"model_checker"`

	// LogDir is the directory for intermediate artifacts (--log_dir/-l):
	// slicingResult.aabac, abstractionRefinementResult<round>.aabac,
	// lastSmvInstance<round>.smv, smvOutput<round>.txt. Required unless
	// ComputeTightness is set.
	LogDir string `yaml:"log_dir" mapstructure:"log_dir"`

	// NoPrecheck disables the cheap sound pre-check stage (--no_precheck/-p).
	NoPrecheck bool `yaml:"no_precheck" mapstructure:"no_precheck"`

	// NoSlicing disables user-cleaning-driven rule pruning (--no_slicing/-s).
	NoSlicing bool `yaml:"no_slicing" mapstructure:"no_slicing"`

	// NoAbsRef disables the CEGAR abstraction-refinement loop (--no_absref/-a).
	NoAbsRef bool `yaml:"no_absref" mapstructure:"no_absref"`

	// SMC disables bounded mode; the checker runs symbolic-only (--smc/-n).
	SMC bool `yaml:"smc" mapstructure:"smc"`

	// TightLevel selects the bound formula: 1 (loose) or 2 (tight) (--tl/-b).
	TightLevel int `yaml:"tl" mapstructure:"tl" validate:"oneof=1 2"`

	// NoRules omits rule indices from the printed result (--no_rules/-r).
	NoRules bool `yaml:"no_rules" mapstructure:"no_rules"`

	// TimeoutSeconds is the per-checker-invocation wall-clock budget in
	// seconds (--timeout/-t); must be > 0.
	TimeoutSeconds int `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// ComputeTightness skips verification and computes bound tightness
	// for Input (a file or a directory) instead (--compute_tightness/-c).
	ComputeTightness bool `yaml:"compute_tightness" mapstructure:"compute_tightness"`

	// Output is the CSV output path for tightness mode (--output/-o).
	Output string `yaml:"output" mapstructure:"output"`
}

// SetDefaults applies the defaults spec.md §6 documents for optional
// flags that were not set via CLI, file, or environment.
func (c *VerifierConfig) SetDefaults() {
	if c.TightLevel == 0 {
		c.TightLevel = 2
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 60
	}
}
