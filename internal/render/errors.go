package render

import "errors"

// Errors returned by render operations.
var (
	// ErrNoLines indicates the input contained nothing to render, either
	// because it was empty or because every file was skipped.
	ErrNoLines = errors.New("no renderable lines")

	// ErrInvalidAspectRatio indicates a non-positive target aspect ratio.
	ErrInvalidAspectRatio = errors.New("target aspect ratio must be greater than zero")

	// ErrThemeNotFound indicates the requested theme is not in the loaded
	// theme set.
	ErrThemeNotFound = errors.New("theme not found")

	// ErrCancelled indicates the render was interrupted by the caller.
	// It is a normal outcome, not an internal failure; callers should test
	// for it with errors.Is before reporting an error.
	ErrCancelled = errors.New("render cancelled")
)
