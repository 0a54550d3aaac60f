// Package errors provides foundational, type-safe error primitives used across jasg.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, filesystem, parse, content, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLIErrorAdapter: exit codes and presentation for the jasg binary
//
// Example usage:
//
//	err := errors.WrapError(readErr, errors.CategoryFileSystem, "read source file").
//		WithContext("path", path).
//		WithContext("stage", "parse").
//		Build()
package errors
