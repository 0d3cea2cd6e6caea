package errors

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation error", err: ValidationError("invalid input").Build(), expected: 2},
		{name: "test run failure", err: TestRunFailure(1).Build(), expected: 3},
		{name: "configuration error", err: ConfigurationError("bad config").Build(), expected: 7},
		{name: "compile error", err: CompileError("sass failed").Build(), expected: 11},
		{name: "io error", err: IOError("disk full").Build(), expected: 11},
		{name: "internal error", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified error", err: &customError{msg: "unknown error"}, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.ExitCodeFor(tt.err)
			if got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "nil error", err: nil, contains: ""},
		{
			name:     "internal error in non-verbose mode",
			err:      NewError(CategoryInternal, "internal issue").Build(),
			contains: "Internal error occurred (use -v for details)",
		},
		{
			name:     "configuration error",
			err:      ConfigurationError("only one of tailwind or tailwind_config may be set").Build(),
			contains: "only one of tailwind",
		},
		{
			name:     "test failure carries status",
			err:      TestRunFailure(4).Build(),
			contains: "status 4",
		},
		{
			name:     "runtime error is shown",
			err:      RuntimeError("failed to start sass compiler").Build(),
			contains: "Runtime error: failed to start sass compiler",
		},
		{
			name:     "hint on its own line",
			err:      ConfigurationError("no bundle config").WithContext("hint", "set scripts.config").Build(),
			contains: "\n  hint: set scripts.config",
		},
		{
			name:     "unclassified error",
			err:      &customError{msg: "unknown error"},
			contains: "Error: unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.FormatError(tt.err)
			if tt.contains == "" {
				if got != "" {
					t.Errorf("FormatError() = %q, want empty string", got)
				}
				return
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("FormatError() = %q, want to contain %q", got, tt.contains)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var logs bytes.Buffer
	code := -1

	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigurationError("conflicting options").Build())

	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
	if !strings.Contains(out.String(), "conflicting options") {
		t.Errorf("expected diagnostic on output, got %q", out.String())
	}
	if !strings.Contains(logs.String(), "category=config") {
		t.Errorf("expected fatal error to be logged with category, got %q", logs.String())
	}
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
