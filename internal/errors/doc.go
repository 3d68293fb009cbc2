// Package errors provides structured error types shared by the device,
// knob and harness packages.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeIO,
//	    "failed to open device",
//	    cause,
//	    map[string]any{"path": "/dev/simtemp"},
//	)
package errors
