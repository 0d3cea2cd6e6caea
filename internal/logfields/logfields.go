package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTask       = "task"
	KeyInput      = "input"
	KeyOutput     = "output"
	KeyConfig     = "config"
	KeyPattern    = "pattern"
	KeyCycle      = "cycle"
	KeyFiles      = "files"
	KeyEntries    = "entries"
	KeyPlugin     = "plugin"
	KeyRunner     = "runner"
	KeyMode       = "mode"
	KeyStatus     = "status"
	KeyPath       = "path"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Task(name string) slog.Attr      { return slog.String(KeyTask, name) }
func Input(p string) slog.Attr        { return slog.String(KeyInput, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Config(p string) slog.Attr       { return slog.String(KeyConfig, p) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func Cycle(n int) slog.Attr           { return slog.Int(KeyCycle, n) }
func Files(n int) slog.Attr           { return slog.Int(KeyFiles, n) }
func Entries(n int) slog.Attr         { return slog.Int(KeyEntries, n) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Runner(name string) slog.Attr    { return slog.String(KeyRunner, name) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
