package styles

import (
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Framework identifies which utility-class framework variant is active.
type Framework string

const (
	FrameworkNone       Framework = ""
	FrameworkV4         Framework = "v4-enabled"
	FrameworkV3Config   Framework = "v3-config"
	FrameworkAutoDetect Framework = "auto-detect"
)

// Options control a single Build call.
type Options struct {
	// DisableVendorPrefixing turns off the vendor-prefixing plugin, which runs by default.
	DisableVendorPrefixing bool
	// Tailwind enables the v4+ utility framework.
	Tailwind bool
	// TailwindConfig enables the v3 utility framework with the given config file.
	TailwindConfig string
	// TailwindAutoDetect lets the framework CLI find its own configuration.
	TailwindAutoDetect bool
	// Targets are browser targets for prefixing, e.g. "chrome80" or "safari14".
	// Empty means DefaultTargets.
	Targets []string
}

// Framework returns the single active framework variant.
func (o Options) Framework() (Framework, error) {
	var active []Framework
	if o.Tailwind {
		active = append(active, FrameworkV4)
	}
	if o.TailwindConfig != "" {
		active = append(active, FrameworkV3Config)
	}
	if o.TailwindAutoDetect {
		active = append(active, FrameworkAutoDetect)
	}
	switch len(active) {
	case 0:
		return FrameworkNone, nil
	case 1:
		return active[0], nil
	default:
		return FrameworkNone, ferrors.ConfigurationError("only one utility framework option may be set").
			WithContext("frameworks", active).
			Build()
	}
}

// Validate reports option conflicts without touching the filesystem.
func (o Options) Validate() error {
	if _, err := o.Framework(); err != nil {
		return err
	}
	if !o.DisableVendorPrefixing {
		if _, err := parseTargets(o.Targets); err != nil {
			return err
		}
	}
	return nil
}

// OptionsFromConfig maps the project file's styles section to build options.
func OptionsFromConfig(c config.StylesConfig) Options {
	return Options{
		DisableVendorPrefixing: !c.VendorPrefixingEnabled(),
		Tailwind:               c.Tailwind,
		TailwindConfig:         c.TailwindConfig,
		TailwindAutoDetect:     c.TailwindAutoDetect,
		Targets:                c.Targets,
	}
}
