package protocol

const (
	// CurrentProtocolVersion defines the MCP version this implementation supports.
	CurrentProtocolVersion = "2025-03-26"
	OldProtocolVersion     = "2024-11-05" // An older version accepted for compatibility

	// Initialization
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized" // Notification

	// Tools
	MethodListTools = "tools/list"
	MethodCallTool  = "tools/call"

	// Ping
	MethodPing = "ping"

	// Cancellation (Notification)
	MethodCancelled = "notifications/cancelled"
)

// SupportedProtocolVersions lists the versions accepted during initialize,
// newest first.
var SupportedProtocolVersions = []string{CurrentProtocolVersion, OldProtocolVersion}
