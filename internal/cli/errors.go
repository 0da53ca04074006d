package cli

// This file defines error handling utilities for the CLI, including:
//   - Sentinel errors for each error category (Usage, Registry, Upload, Tunnel, etc.)
//   - Error wrapping functions that integrate with the errx error system
//   - Exit status resolution for main
//   - Structured error logging with context

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"relaypush/pkg/errx"
)

// Exit statuses that do not come from a failed external command.
const (
	ExitArguments   = 1
	ExitUsage       = 125
	ExitInterrupted = 130
)

var (
	debugMode   bool
	debugModeMu sync.RWMutex
)

// SetDebugMode sets the global debug mode flag.
// When enabled, logStructuredError will output structured error logs to terminal.
func SetDebugMode(enabled bool) {
	debugModeMu.Lock()
	defer debugModeMu.Unlock()
	debugMode = enabled
}

// IsDebugMode returns whether debug mode is enabled.
func IsDebugMode() bool {
	debugModeMu.RLock()
	defer debugModeMu.RUnlock()
	return debugMode
}

type errorSpec struct {
	code        string
	description string
}

// newSentinelError creates a sentinel error and registers it in errorSpecs in one step.
func newSentinelError(msg string, code, description string) error {
	err := errors.New(msg)
	errorSpecs[err] = errorSpec{code: code, description: description}
	return err
}

// errorSpecs maps sentinel errors to their error codes and descriptions.
// Must be declared before sentinel errors to ensure proper initialization order.
var errorSpecs = make(map[error]errorSpec)

// lookupSpec provides a lookup function for errx.FromSentinel.
func lookupSpec(sentinel error) (code, description string) {
	spec := specFor(sentinel)
	return spec.code, spec.description
}

// newWithSentinel creates a new error in the sentinel's category.
func newWithSentinel(base error, msg string) error {
	if base == nil {
		return errx.CreateByCode(errx.CodeCLI, errx.DescCLI, msg, nil)
	}
	return errx.FromSentinel(base, lookupSpec, msg, nil)
}

// wrapWithSentinel wraps a cause error in the sentinel's category.
func wrapWithSentinel(base, cause error, msg string) error {
	if base == nil {
		return errx.CreateByCode(errx.CodeCLI, errx.DescCLI, msg, cause)
	}
	return errx.FromSentinel(base, lookupSpec, msg, cause)
}

// wrapWithSentinelAndContext wraps an error with additional structured context
// such as the image, container or target involved.
func wrapWithSentinelAndContext(base, cause error, msg string, context map[string]any) error {
	err := wrapWithSentinel(base, cause, msg)
	if errxErr, ok := err.(*errx.Error); ok && len(context) > 0 {
		return errxErr.WithContextMap(context)
	}
	return err
}

var (
	// CLI errors.
	ErrArguments             = newSentinelError("invalid arguments", errx.CodeCLI, errx.DescCLI)
	ErrInvalidImageReference = newSentinelError("invalid image reference", errx.CodeCLI, errx.DescCLI)
	ErrInvalidTarget         = newSentinelError("invalid deploy target", errx.CodeCLI, errx.DescCLI)
	ErrInterrupted           = newSentinelError("interrupted", errx.CodeCLI, errx.DescCLI)

	// Usage errors.
	ErrUsage = newSentinelError("invalid flag usage", errx.CodeUsage, errx.DescUsage)

	// Registry errors.
	ErrCreateCacheVolumeFailed = newSentinelError("failed to create cache volume", errx.CodeRegistry, errx.DescRegistry)
	ErrStartRegistryFailed     = newSentinelError("failed to start registry", errx.CodeRegistry, errx.DescRegistry)
	ErrInspectRegistryFailed   = newSentinelError("failed to inspect registry", errx.CodeRegistry, errx.DescRegistry)
	ErrRegistryPortNotFound    = newSentinelError("registry port not published on loopback", errx.CodeRegistry, errx.DescRegistry)
	ErrRegistryNotReady        = newSentinelError("registry not ready", errx.CodeRegistry, errx.DescRegistry)

	// Upload errors.
	ErrTagImageFailed    = newSentinelError("failed to tag image", errx.CodeUpload, errx.DescUpload)
	ErrPushImageFailed   = newSentinelError("failed to push image", errx.CodeUpload, errx.DescUpload)
	ErrRemoveImageFailed = newSentinelError("failed to remove image", errx.CodeUpload, errx.DescUpload)

	// Tunnel errors.
	ErrParseSSHOptsFailed = newSentinelError("failed to parse ssh options", errx.CodeTunnel, errx.DescTunnel)
	ErrTunnelFailed       = newSentinelError("remote pull session failed", errx.CodeTunnel, errx.DescTunnel)

	// Config errors.
	ErrReadConfigFailed = newSentinelError("failed to read config", errx.CodeConfig, errx.DescConfig)
)

func specFor(base error) errorSpec {
	spec, ok := errorSpecs[base]
	if ok {
		return spec
	}
	return errorSpec{code: errx.CodeCLI, description: errx.DescCLI}
}

// ExitCode maps an error returned by the command to the process exit status.
// Usage errors are 125, argument and config errors are 1, an interrupted run
// is 130 and a failed external command keeps its own status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrInterrupted):
		return ExitInterrupted
	case errors.Is(err, ErrArguments), errors.Is(err, ErrInvalidImageReference), errors.Is(err, ErrInvalidTarget):
		return ExitArguments
	}
	return errx.ExitCode(err)
}

// logStructuredError logs an error with structured fields to terminal.
// Only logs when debug mode is enabled (via --debug flag).
//
// This extracts all context from errx.Error and logs it with structured fields:
// - error.code: "72000"
// - error.category: "Registry error"
// - error.context.container: "relaypush-registry-1700000000"
// - error.context.image: "app:latest"
// - error.context.component: "registry" | "upload" | "tunnel"
func logStructuredError(logger *zap.Logger, err error, msg string) {
	if logger == nil || err == nil || !IsDebugMode() {
		return
	}

	var errxErr *errx.Error
	if errors.As(err, &errxErr) {
		fields := []zap.Field{
			zap.String("error.code", errxErr.Code()),
			zap.String("error.category", errxErr.Description()),
			zap.String("error.message", errxErr.Message()),
			zap.Int("error.exit_code", errx.ExitCode(err)),
			zap.Error(err),
		}

		for key, value := range errxErr.Context() {
			fields = append(fields, zap.Any("error.context."+key, value))
		}

		// Distinct field name avoids a duplicate "error" key.
		if cause := errxErr.Cause(); cause != nil {
			fields = append(fields, zap.NamedError("error.cause", cause))
		}

		logger.Error(msg, fields...)
	} else {
		logger.Error(msg, zap.Error(err))
	}
}
