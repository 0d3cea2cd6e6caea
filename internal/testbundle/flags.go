package testbundle

import (
	"io"

	"github.com/spf13/pflag"

	ferrors "git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
)

// Flags are the test runner's command-line switches.
type Flags struct {
	// Grep filters discovered test files by regular expression.
	Grep string
	// Live keeps the bundle and the runner watching instead of running once.
	Live bool
}

// SingleRun reports whether the runner should exit after one pass.
func (f Flags) SingleRun() bool { return !f.Live }

// ParseFlags extracts --grep and --live from args. Unknown flags and
// positional arguments belong to the host program and are ignored.
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	fs := pflag.NewFlagSet("tests", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.StringVar(&f.Grep, "grep", "", "Run only tests where filename matches a regex pattern")
	fs.BoolVar(&f.Live, "live", false, "Continuously run tests (default: false)")
	if err := fs.Parse(args); err != nil {
		return Flags{}, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid test flags").Build()
	}
	return f, nil
}
