package core

// error_messages.go maps technical errors to user-friendly messages with
// codes for support reference.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Data file not found
//	         Patterns: "no such file"
//	SRC002 - Data file not readable
//	         Patterns: "permission denied"
//	SRC003 - Snapshot file is corrupt
//	         Patterns: "invalid snapshot"
//	SRC004 - No data source configured
//	         Patterns: "no snapshot source"
//	SRC005 - No snapshot stored in the database yet
//	         Patterns: "no rows in result set"
//
// # Asset Errors (AST001-AST099)
//
//	AST001 - Asset not found
//	         Patterns: "asset not found"
//
// # Database Errors (DB001-DB099)
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request was cancelled ("context canceled")
//	REQ002 - Request timed out ("context deadline exceeded")
//
// # Rate Limiting (RATE001)
//
// # Default Error (ERR000)
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Asset Errors
	// =========================================================================
	{
		pattern: "asset not found",
		msg: UserMessage{
			Message: "Asset not found",
			Action:  "Check the asset id and return to the asset list",
			Code:    "AST001",
		},
	},

	// =========================================================================
	// Source Errors
	// =========================================================================
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "Data file not found",
			Action:  "Check DUMP_FILE or SNAPSHOT_FILE points at an existing file",
			Code:    "SRC001",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Data file could not be read",
			Action:  "Check the file permissions of the configured data file",
			Code:    "SRC002",
		},
	},
	{
		pattern: "invalid snapshot",
		msg: UserMessage{
			Message: "Snapshot data is corrupt",
			Action:  "Re-run the export from the SQL dump",
			Code:    "SRC003",
		},
	},
	{
		pattern: "no snapshot source",
		msg: UserMessage{
			Message: "No data source is configured",
			Action:  "Set DUMP_FILE, SNAPSHOT_FILE or DATABASE_URL",
			Code:    "SRC004",
		},
	},
	{
		pattern: "no rows in result set",
		msg: UserMessage{
			Message: "No snapshot has been exported to the database yet",
			Action:  "Run the export with -db before starting the viewer",
			Code:    "SRC005",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "The first request loads the whole dump; try again in a moment",
			Code:    "REQ002",
		},
	},

	// =========================================================================
	// Database Connection Errors
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// sentinelPatterns map wrapped sentinel errors onto a pattern, for errors
// whose text differs by platform.
var sentinelPatterns = []struct {
	target  error
	pattern string
}{
	{ErrAssetNotFound, "asset not found"},
	{fs.ErrNotExist, "no such file"},
	{fs.ErrPermission, "permission denied"},
	{context.Canceled, "context canceled"},
	{context.DeadlineExceeded, "context deadline exceeded"},
}

// MapError converts a technical error to a user-friendly message.
// Wrapped sentinel errors are checked first, then the error text.
// If nothing matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, sp := range sentinelPatterns {
		if errors.Is(err, sp.target) {
			errStr = sp.pattern
			break
		}
	}

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
