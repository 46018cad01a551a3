package types

import "errors"

// Sentinel errors for common error conditions.
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig is returned when configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderNotAvailable is returned when a provider is not available.
	ErrProviderNotAvailable = errors.New("provider not available")

	// ErrParseError is returned when parsing fails.
	ErrParseError = errors.New("parse error")

	// ErrUnsupportedLanguage is returned for files no grammar handles.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrStoreFailed is returned when an index store operation fails.
	ErrStoreFailed = errors.New("store operation failed")

	// ErrPluginFailed is returned when an external plugin call fails.
	ErrPluginFailed = errors.New("plugin call failed")
)
