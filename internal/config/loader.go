package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes viper with the configuration file and
// environment variables. If configFile is empty, it searches for
// acoac-verifier.yaml/.yml in standard locations, mirroring the
// teacher's findConfigFile/bindNestedEnvKeys split.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("acoac-verifier")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ACOAC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindEnvKeys()
}

func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".acoac-verifier"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "acoac-verifier"))
		}
	} else {
		paths = append(paths, "/etc/acoac-verifier")
	}
	return findConfigFileInPaths(paths)
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "acoac-verifier"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindEnvKeys binds every VerifierConfig key for ACOAC_ env var support,
// e.g. ACOAC_MODEL_CHECKER overrides model_checker.
func bindEnvKeys() {
	_ = viper.BindEnv("input")
	_ = viper.BindEnv("model_checker")
	_ = viper.BindEnv("log_dir")
	_ = viper.BindEnv("no_precheck")
	_ = viper.BindEnv("no_slicing")
	_ = viper.BindEnv("no_absref")
	_ = viper.BindEnv("smc")
	_ = viper.BindEnv("tl")
	_ = viper.BindEnv("no_rules")
	_ = viper.BindEnv("timeout")
	_ = viper.BindEnv("compute_tightness")
	_ = viper.BindEnv("output")
}

// LoadConfig reads the configuration file (if any), layers CLI-flag
// overrides already bound onto viper by the caller, applies defaults,
// and validates. Mirrors the teacher's LoadConfig/LoadConfigRaw split:
// flags bound via viper.BindPFlag take precedence over file and env.
func LoadConfig() (*VerifierConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg VerifierConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was
// loaded, or "" if none was found (flags/env only).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
