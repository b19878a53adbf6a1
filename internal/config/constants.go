package config

import "time"

// Config file locations
const (
	ConfigFileEnv     = "FEEDBACK_CONFIG_FILE"
	DefaultConfigFile = "config.yaml"
)

// Timeout constants
const (
	DefaultRequestTimeout   = 15 * time.Second
	ServerShutdownTimeout   = 30 * time.Second
	TelemetryFlushTimeout   = 5 * time.Second
	DatabaseConnMaxLifetime = 5 * time.Minute
)

// Board constants
const (
	DefaultServerPort  = "8080"
	DefaultBaseURL     = "http://localhost:8080"
	DefaultPageSize    = 10
	DefaultMaxNavPages = 5
)

// Feedback field limits
const (
	MaxTitleLength   = 100
	MaxContentLength = 2000
	MaxSearchLength  = 200
	// SnippetLength is how many runes of content a list row shows.
	SnippetLength = 120
)

// Identity headers and roles
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)
