package config

import (
	"strings"
	"testing"
)

func minimalValidConfig() *VerifierConfig {
	cfg := &VerifierConfig{
		Input:        "policy.aabac",
		ModelChecker: "/usr/local/bin/checker",
		LogDir:       "/tmp/acoac-logs",
	}
	cfg.SetDefaults()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestValidate_MissingInput(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.Input = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing input, got nil")
	}
	if !strings.Contains(err.Error(), "Input") {
		t.Errorf("error = %q, want to contain 'Input'", err.Error())
	}
}

func TestValidate_MissingModelChecker(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.ModelChecker = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing model_checker, got nil")
	}
	if !strings.Contains(err.Error(), "model_checker") {
		t.Errorf("error = %q, want to contain 'model_checker'", err.Error())
	}
}

func TestValidate_MissingLogDir(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.LogDir = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for missing log_dir, got nil")
	}
	if !strings.Contains(err.Error(), "log_dir") {
		t.Errorf("error = %q, want to contain 'log_dir'", err.Error())
	}
}

func TestValidate_ComputeTightnessWaivesModelCheckerAndLogDir(t *testing.T) {
	t.Parallel()

	cfg := &VerifierConfig{
		Input:            "policies/",
		ComputeTightness: true,
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with compute_tightness unexpected error: %v", err)
	}
}

func TestValidate_InvalidTightLevel(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.TightLevel = 3

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for tl=3, got nil")
	}
	if !strings.Contains(err.Error(), "TightLevel") {
		t.Errorf("error = %q, want to contain 'TightLevel'", err.Error())
	}
}

func TestValidate_ZeroTimeout(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.TimeoutSeconds = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error for timeout=0, got nil")
	}
	if !strings.Contains(err.Error(), "TimeoutSeconds") {
		t.Errorf("error = %q, want to contain 'TimeoutSeconds'", err.Error())
	}
}

func TestValidate_NegativeTimeout(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.TimeoutSeconds = -5

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() expected error for negative timeout, got nil")
	}
}

func TestFormatSingleValidationError_OneOfTag(t *testing.T) {
	t.Parallel()

	cfg := minimalValidConfig()
	cfg.TightLevel = 7

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "must be one of") {
		t.Errorf("error = %q, want to contain 'must be one of'", err.Error())
	}
}
