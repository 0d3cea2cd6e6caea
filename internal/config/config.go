package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// DefaultPath is the project file looked up when no --config flag is given.
const DefaultPath = "assetbuilder.yaml"

// Config represents the project file describing which assets to build.
type Config struct {
	// Mode overrides the NODE_ENV derived build mode (development|production).
	Mode      string         `yaml:"mode,omitempty"`
	BuildRoot string         `yaml:"build_root"`
	Styles    StylesConfig   `yaml:"styles"`
	Scripts   ScriptsConfig  `yaml:"scripts"`
	Manifest  ManifestConfig `yaml:"manifest"`
	Tests     TestsConfig    `yaml:"tests"`
}

// StylesConfig configures the style pipeline.
type StylesConfig struct {
	Inputs        []string `yaml:"inputs"`
	OutputDir     string   `yaml:"output_dir,omitempty"`
	DependencyDir string   `yaml:"dependency_dir,omitempty"`
	// VendorPrefixing defaults to true when omitted.
	VendorPrefixing    *bool    `yaml:"vendor_prefixing,omitempty"`
	Targets            []string `yaml:"targets,omitempty"`
	Tailwind           bool     `yaml:"tailwind,omitempty"`
	TailwindConfig     string   `yaml:"tailwind_config,omitempty"`
	TailwindAutoDetect bool     `yaml:"tailwind_auto_detect,omitempty"`
	TailwindBinary     string   `yaml:"tailwind_binary,omitempty"`
	SassBinary         string   `yaml:"sass_binary,omitempty"`
}

// ScriptsConfig configures the script pipeline.
type ScriptsConfig struct {
	// Config is the path of the bundler config file (one config or a list).
	Config string `yaml:"config"`
}

// ManifestConfig configures the cache-busting manifest.
type ManifestConfig struct {
	Pattern string `yaml:"pattern,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// TestsConfig configures the test bundle assembler.
type TestsConfig struct {
	Bootstrap     string `yaml:"bootstrap"`
	ScriptsConfig string `yaml:"scripts_config"`
	Pattern       string `yaml:"pattern"`
	OutputDir     string `yaml:"output_dir,omitempty"`
	KarmaConfig   string `yaml:"karma_config,omitempty"`
	VitestConfig  string `yaml:"vitest_config,omitempty"`
}

// VendorPrefixingEnabled reports whether the vendor-prefixing plugin should run.
func (s StylesConfig) VendorPrefixingEnabled() bool {
	return s.VendorPrefixing == nil || *s.VendorPrefixing
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigurationError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	// Expand environment variables in the YAML content
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").
			WithContext("path", configPath).
			Build()
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields relative to BuildRoot.
func (c *Config) ApplyDefaults() {
	if c.BuildRoot == "" {
		c.BuildRoot = DefaultBuildRoot
	}
	if c.Styles.OutputDir == "" {
		c.Styles.OutputDir = filepath.Join(c.BuildRoot, "styles")
	}
	if c.Styles.DependencyDir == "" {
		c.Styles.DependencyDir = DefaultDependencyDir
	}
	if c.Manifest.Pattern == "" {
		c.Manifest.Pattern = filepath.ToSlash(c.BuildRoot) + "/**/*.{css,js,map}"
	}
	if c.Manifest.Path == "" {
		c.Manifest.Path = filepath.Join(c.BuildRoot, "manifest.json")
	}
	if c.Tests.OutputDir == "" {
		c.Tests.OutputDir = filepath.Join(c.BuildRoot, "scripts")
	}
}

// Validate checks option combinations that cannot be resolved by defaults.
func (c *Config) Validate() error {
	if c.Mode != "" {
		if _, err := ParseMode(c.Mode); err != nil {
			return err
		}
	}
	active := 0
	for _, on := range []bool{c.Styles.Tailwind, c.Styles.TailwindConfig != "", c.Styles.TailwindAutoDetect} {
		if on {
			active++
		}
	}
	if active > 1 {
		return ferrors.ConfigurationError("only one of tailwind, tailwind_config or tailwind_auto_detect may be set").
			WithContext("section", "styles").
			Build()
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		BuildRoot: DefaultBuildRoot,
		Styles: StylesConfig{
			Inputs:  []string{"src/styles/app.scss"},
			Targets: []string{"chrome100", "firefox100", "safari15"},
		},
		Scripts: ScriptsConfig{Config: "scripts.yaml"},
		Tests: TestsConfig{
			Bootstrap:     "src/tests/bootstrap.js",
			ScriptsConfig: "scripts.tests.yaml",
			Pattern:       "src/**/*-test.js",
			KarmaConfig:   "karma.config.cjs",
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
