package ir

// Version constants for traces and the journal schema.
const (
	// TraceVersion is the version of the SyncStep trace format.
	TraceVersion = "1"

	// EngineVersion is the layersync engine version.
	EngineVersion = "0.1.0"
)
