package errx

// RegistryEntry describes a registered error code.
type RegistryEntry struct {
	Code        string
	Description string
}

// Error codes follow a stable 5-digit scheme where the first two digits are the
// domain and the last three digits are reserved for subcodes.
const (
	CodeCLI      = "70000"
	CodeUsage    = "70100"
	CodeRegistry = "72000"
	CodeUpload   = "73000"
	CodeTunnel   = "74000"
	CodeConfig   = "79000"
)

const (
	DescCLI      = "CLI/argument validation error"
	DescUsage    = "Flag usage error"
	DescRegistry = "Registry error"
	DescUpload   = "Image upload error"
	DescTunnel   = "Tunnel/remote pull error"
	DescConfig   = "Configuration error"
)

var registryEntries = []RegistryEntry{
	{Code: CodeCLI, Description: DescCLI},
	{Code: CodeUsage, Description: DescUsage},
	{Code: CodeRegistry, Description: DescRegistry},
	{Code: CodeUpload, Description: DescUpload},
	{Code: CodeTunnel, Description: DescTunnel},
	{Code: CodeConfig, Description: DescConfig},
}

var registryMap = func() map[string]string {
	m := make(map[string]string, len(registryEntries))
	for _, entry := range registryEntries {
		m[entry.Code] = entry.Description
	}
	return m
}()

// ErrorRegistry returns the error registry in deterministic order.
func ErrorRegistry() []RegistryEntry {
	entries := make([]RegistryEntry, len(registryEntries))
	copy(entries, registryEntries)
	return entries
}

// DescriptionFor returns the registry description for a code.
func DescriptionFor(code string) (string, bool) {
	desc, ok := registryMap[code]
	return desc, ok
}

// IsValidCode checks if the given error code is registered.
func IsValidCode(code string) bool {
	_, ok := registryMap[code]
	return ok
}
