package ir

// Version constants reported by `hrsync --version`.
const (
	// SchemaVersion is the record payload schema version.
	SchemaVersion = "1"

	// EngineVersion is the hrsync engine version.
	EngineVersion = "0.1.0"
)
