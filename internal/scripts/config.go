package scripts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// BuildConfig describes one bundle: its entry points, where output goes and
// the bundler options that shape it.
type BuildConfig struct {
	Name        string            `yaml:"name,omitempty"`
	EntryPoints []string          `yaml:"entry_points"`
	Outfile     string            `yaml:"outfile,omitempty"`
	Outdir      string            `yaml:"outdir,omitempty"`
	Format      string            `yaml:"format,omitempty"`
	Platform    string            `yaml:"platform,omitempty"`
	Target      string            `yaml:"target,omitempty"`
	Sourcemap   bool              `yaml:"sourcemap,omitempty"`
	GlobalName  string            `yaml:"global_name,omitempty"`
	External    []string          `yaml:"external,omitempty"`
	Define      map[string]string `yaml:"define,omitempty"`
	Loader      map[string]string `yaml:"loader,omitempty"`
	// Minify overrides the build mode default.
	Minify *bool `yaml:"minify,omitempty"`
}

// Label identifies the config in logs.
func (c BuildConfig) Label() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Outfile != "":
		return c.Outfile
	case c.Outdir != "":
		return c.Outdir
	case len(c.EntryPoints) > 0:
		return c.EntryPoints[0]
	default:
		return "<unnamed>"
	}
}

// Validate checks the fields every engine needs.
func (c BuildConfig) Validate() error {
	if len(c.EntryPoints) == 0 {
		return ferrors.ConfigurationError("bundle config has no entry points").
			WithContext("config", c.Label()).
			Build()
	}
	if c.Outfile != "" && c.Outdir != "" {
		return ferrors.ConfigurationError("bundle config sets both outfile and outdir").
			WithContext("config", c.Label()).
			Build()
	}
	if c.Outfile == "" && c.Outdir == "" {
		return ferrors.ConfigurationError("bundle config needs an outfile or outdir").
			WithContext("config", c.Label()).
			Build()
	}
	if c.Outfile != "" && len(c.EntryPoints) > 1 {
		return ferrors.ConfigurationError("outfile requires a single entry point").
			WithContext("config", c.Label()).
			Build()
	}
	return nil
}

// ConfigList accepts either a single mapping or a sequence of mappings.
type ConfigList []BuildConfig

// UnmarshalYAML normalizes a single config to a one-element list.
func (l *ConfigList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []BuildConfig
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
	case yaml.MappingNode:
		var one BuildConfig
		if err := node.Decode(&one); err != nil {
			return err
		}
		*l = ConfigList{one}
	default:
		return fmt.Errorf("line %d: expected a bundle config or a list of them", node.Line)
	}
	return nil
}

// LoadConfigs reads and validates a bundle config file. JSON files are
// accepted as well since JSON is valid YAML.
func LoadConfigs(path string) ([]BuildConfig, error) {
	// #nosec G304 - config path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigurationError("bundle config file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read bundle config").
			WithContext("path", path).
			Build()
	}

	var list ConfigList
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &list); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse bundle config").
			WithContext("path", path).
			Build()
	}
	if len(list) == 0 {
		return nil, ferrors.ConfigurationError("bundle config file is empty").
			WithContext("path", path).
			Build()
	}
	for _, c := range list {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return list, nil
}
