// Package errors provides foundational, type-safe error primitives used across assetbuilder.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, compile, watch, test, filesystem, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// The pipeline taxonomy maps onto categories as follows:
//
//	ConfigurationError -> CategoryConfig
//	CompileError       -> CategoryCompile
//	WatchCycleError    -> CategoryWatch
//	TestRunFailure     -> CategoryTest
//	IOError            -> CategoryFileSystem
//
// Example usage:
//
//	err := errors.CompileError("style compilation failed").
//		WithContext("input", input).
//		WithCause(originalErr).
//		Build()
package errors
