package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
	// LogFilePermissions is used for history logs (rw-r--r--)
	LogFilePermissions = 0o644
)

// Gateway defaults
const (
	// DefaultBaseURL points at a local MatrixLLM gateway
	DefaultBaseURL = "http://localhost:11435/v1"
	// DefaultModel is used when the config names none
	DefaultModel = "deepseek-r1"
	// DefaultGatewayTimeout bounds a single completion call
	DefaultGatewayTimeout = 120 * time.Second
	// HealthProbeTimeout bounds the startup health probe
	HealthProbeTimeout = 1500 * time.Millisecond
)

// Context limits
const (
	// MaxContextEntries is the number of directory entries sent to the gateway
	MaxContextEntries = 200
	// MaxContextHistory is the number of recent history items sent to the gateway
	MaxContextHistory = 12
	// ExecSummaryMaxLen caps the output excerpt stored in exec history items
	ExecSummaryMaxLen = 200
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 12
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
)

// Exit codes
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitStartupConfig = 2
	ExitHealthCheck   = 3
	ExitInterrupted   = 130

	// ExitSpawnFailure is the synthetic code for a backend that could not be started
	ExitSpawnFailure = 126
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339Nano
)
