package model

// Shared defaults used by the CLI and the source producers.
const (
	// DefaultMaxPriority admits every entry (7 = debug).
	DefaultMaxPriority = 7

	// DefaultTopN is the default size of top-N breakdowns.
	DefaultTopN = 10

	// DefaultMessagePreviewLen bounds normalized messages in display output.
	DefaultMessagePreviewLen = 50

	// UnknownService is assigned when a source carries no service metadata.
	UnknownService = "unknown"
)
