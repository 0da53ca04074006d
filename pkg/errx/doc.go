// Package errx provides structured, code-based errors for relaypush.
//
// Every error carries:
//   - A stable 5-digit error code (e.g., "72000" for registry errors)
//   - A category description (e.g., "Registry error")
//   - A user-facing message
//   - Optional structured context (key-value pairs)
//   - Optional cause and base sentinel errors
//   - An optional process exit status
//
// The first two digits of a code name the domain and the last three are
// subcodes:
//   - 700xx: CLI/argument validation errors
//   - 701xx: flag usage errors
//   - 72xxx: ephemeral registry errors
//   - 73xxx: image upload errors
//   - 74xxx: tunnel and remote pull errors
//   - 79xxx: configuration errors
//
// Example usage:
//
//	err := errx.WrapRegistry("failed to start registry", runErr).
//		WithContext("container", name).
//		WithBase(sentinelErr)
//
//	if errors.Is(err, sentinelErr) {
//		// Handle specific error
//	}
//
//	os.Exit(errx.ExitCode(err)) // exit status of the failed docker command
package errx
