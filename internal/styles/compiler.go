package styles

import (
	"context"
	"path/filepath"
	"strings"
)

// CompileRequest describes one style-language source to compile.
type CompileRequest struct {
	Path         string
	IncludePaths []string
	Compressed   bool
	SourceMap    bool
}

// CompileResult is plain CSS plus an optional source map (JSON).
type CompileResult struct {
	CSS       string
	SourceMap string
}

// Compiler turns a style-language source into CSS.
type Compiler interface {
	Compile(ctx context.Context, req CompileRequest) (CompileResult, error)
}

var styleLanguageExts = map[string]bool{
	".scss": true,
	".sass": true,
}

// IsStyleLanguage reports whether path must be compiled before use.
func IsStyleLanguage(path string) bool {
	return styleLanguageExts[strings.ToLower(filepath.Ext(path))]
}
