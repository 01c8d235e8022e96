package constants

// MCP tool names. Rate limits and audit entries are keyed by these.
const (
	ToolSimulate = "portfolio_simulate"
	ToolEstimate = "portfolio_estimate"
	ToolPresets  = "portfolio_presets"
	ToolSweep    = "portfolio_sweep"
)

// AuditFile is the MCP audit log name inside the venturesim directory.
const AuditFile = "audit.jsonl"
