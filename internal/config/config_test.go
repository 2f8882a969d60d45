package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVerifierConfig_SetDefaults_TightLevel(t *testing.T) {
	t.Parallel()

	var cfg VerifierConfig
	cfg.SetDefaults()

	if cfg.TightLevel != 2 {
		t.Errorf("TightLevel = %d, want 2", cfg.TightLevel)
	}
}

func TestVerifierConfig_SetDefaults_Timeout(t *testing.T) {
	t.Parallel()

	var cfg VerifierConfig
	cfg.SetDefaults()

	if cfg.TimeoutSeconds != 60 {
		t.Errorf("TimeoutSeconds = %d, want 60", cfg.TimeoutSeconds)
	}
}

func TestVerifierConfig_SetDefaults_PreservesExistingValues(t *testing.T) {
	t.Parallel()

	cfg := VerifierConfig{
		TightLevel:     1,
		TimeoutSeconds: 30,
	}
	cfg.SetDefaults()

	if cfg.TightLevel != 1 {
		t.Errorf("TightLevel was overwritten: got %d, want 1", cfg.TightLevel)
	}
	if cfg.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds was overwritten: got %d, want 30", cfg.TimeoutSeconds)
	}
}

func TestFindConfigFileInPaths_EmptyDir(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths(empty dir) = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_MatchesYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "acoac-verifier.yaml")
	_ = os.WriteFile(cfgPath, []byte("input: policy.aabac\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_MatchesYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "acoac-verifier.yml")
	_ = os.WriteFile(cfgPath, []byte("input: policy.aabac\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != cfgPath {
		t.Errorf("findConfigFileInPaths = %q, want %q", got, cfgPath)
	}
}

func TestFindConfigFileInPaths_IgnoresNoExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// Simulate the binary: a file named "acoac-verifier" with no extension
	_ = os.WriteFile(filepath.Join(dir, "acoac-verifier"), []byte("\x7fELF binary"), 0755)

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths matched binary = %q, want empty", got)
	}
}

func TestFindConfigFileInPaths_PrefersYAMLOverYML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "acoac-verifier.yaml")
	ymlPath := filepath.Join(dir, "acoac-verifier.yml")
	_ = os.WriteFile(yamlPath, []byte("input: a.aabac\n"), 0644)
	_ = os.WriteFile(ymlPath, []byte("input: b.aabac\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != yamlPath {
		t.Errorf("findConfigFileInPaths = %q, want %q (.yaml preferred)", got, yamlPath)
	}
}

func TestFindConfigFileInPaths_IgnoresUnrelatedFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("input: a.aabac\n"), 0644)

	got := findConfigFileInPaths([]string{dir})
	if got != "" {
		t.Errorf("findConfigFileInPaths matched unrelated file = %q, want empty", got)
	}
}
