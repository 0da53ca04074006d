package errx

// CreateByCode creates an Error using the provided code, description, and message.
func CreateByCode(code, description, message string, cause error) *Error {
	if cause != nil {
		return Wrap(code, description, message, cause)
	}
	return New(code, description, message)
}

// FromSentinel creates an Error in the sentinel's category, using lookup to
// resolve the category code. Unknown sentinels fall back to the CLI category.
func FromSentinel(sentinel error, lookup func(error) (code, description string), message string, cause error) *Error {
	code, desc := lookup(sentinel)
	if code == "" {
		code = CodeCLI
		desc = DescCLI
	}
	return CreateByCode(code, desc, message, cause).WithBase(sentinel)
}

// CLI creates an argument validation error with code 70000.
func CLI(message string) *Error {
	return New(CodeCLI, DescCLI, message)
}

// Usage creates a flag usage error with code 70100.
func Usage(message string) *Error {
	return New(CodeUsage, DescUsage, message)
}

// WrapUsage wraps a flag parsing failure.
func WrapUsage(message string, cause error) *Error {
	return Wrap(CodeUsage, DescUsage, message, cause)
}

// WrapRegistry wraps a cause with an ephemeral registry error.
func WrapRegistry(message string, cause error) *Error {
	return Wrap(CodeRegistry, DescRegistry, message, cause)
}

// WrapUpload wraps a cause with an image upload error.
func WrapUpload(message string, cause error) *Error {
	return Wrap(CodeUpload, DescUpload, message, cause)
}

// WrapTunnel wraps a cause with a tunnel error.
func WrapTunnel(message string, cause error) *Error {
	return Wrap(CodeTunnel, DescTunnel, message, cause)
}
