package scripts

import (
	"context"
	"maps"
)

// Warning is a non-fatal diagnostic reported by the bundling engine.
type Warning struct {
	Config   string
	Text     string
	Location string
}

// BuildOptions are passed to the engine for every config. Unset fields fall
// back to the pipeline defaults; set fields always win.
type BuildOptions struct {
	WarningLogger func(Warning)
	Minify        *bool
	Define        map[string]string
}

// merge returns base overlaid with the non-zero fields of over.
func (base BuildOptions) merge(over BuildOptions) BuildOptions {
	out := base
	if over.WarningLogger != nil {
		out.WarningLogger = over.WarningLogger
	}
	if over.Minify != nil {
		out.Minify = over.Minify
	}
	if len(over.Define) > 0 {
		out.Define = maps.Clone(base.Define)
		if out.Define == nil {
			out.Define = make(map[string]string, len(over.Define))
		}
		maps.Copy(out.Define, over.Define)
	}
	return out
}

// EventKind enumerates watch session lifecycle events.
type EventKind int

const (
	// EventCycleStart marks the beginning of a rebuild across all configs.
	EventCycleStart EventKind = iota
	// EventBundleGenerated carries a Bundle that must be closed by the receiver.
	EventBundleGenerated
	// EventBuildError reports a failed config build; the session continues.
	EventBuildError
	// EventCycleEnd marks the end of a rebuild across all configs.
	EventCycleEnd
)

func (k EventKind) String() string {
	switch k {
	case EventCycleStart:
		return "cycle-start"
	case EventBundleGenerated:
		return "bundle-generated"
	case EventBuildError:
		return "build-error"
	case EventCycleEnd:
		return "cycle-end"
	default:
		return "unknown"
	}
}

// Event is one item of a watch session's stream.
type Event struct {
	Kind   EventKind
	Config string
	Bundle Bundle
	Err    error
}

// Bundle is the result of one config build inside a watch session. It holds
// engine resources until closed.
type Bundle interface {
	Files() []string
	Close()
}

// Engine is the bundling backend.
type Engine interface {
	// Build bundles cfg once and writes its outputs.
	Build(ctx context.Context, cfg BuildConfig, opts BuildOptions) error
	// Watch starts one session spanning all configs. The returned channel is
	// closed after ctx is done and the session has been torn down.
	Watch(ctx context.Context, cfgs []BuildConfig, opts BuildOptions) (<-chan Event, error)
}
