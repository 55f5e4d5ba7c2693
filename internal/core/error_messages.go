package core

// error_messages.go maps errors to user-facing messages with support codes.
//
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis. Typed errors of this package are matched first with
// errors.Is / errors.As; anything else is matched by case-insensitive
// substring patterns, and the ERR000 fallback is used when nothing matches.
//
// # Marker Errors (MRK001-MRK099)
//
//	MRK001 - Marker to edit/delete not found
//	MRK002 - Markers were changed by another request (revision conflict)
//	MRK003 - No markers found for this map (export)
//	MRK004 - Invalid map id
//	MRK005 - Invalid marker id
//	MRK006 - Maps API key is missing
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Latitude and Longitude are required
//	VAL002 - Latitude and Longitude must be valid numbers
//	VAL003 - Invalid marker data received
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Invalid file type
//	FILE004 - No file provided
//	FILE005 - Empty file
//	FILE006 - Missing latitude/longitude columns
//	FILE007 - Unknown export format
//
// # Storage Errors (STO001-STO099)
//
//	STO001 - Failed to save marker data
//	STO002 - Failed to load marker data
//	STO003 - Storage unreachable
//	STO004 - Storage timeout
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many imports in progress
//	IMP002 - Request cancelled
//	IMP003 - Request timed out
//
// # Authorization Errors (AUTH001-AUTH099)
//
//	AUTH001 - Missing credentials
//	AUTH002 - Invalid or expired session
//	AUTH003 - Permission denied
//
// # Fallback
//
//	ERR000 - An unexpected error occurred

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgRevisionConflict = UserMessage{
		Message: "Markers were changed by another request",
		Action:  "Reload the map and apply your change again",
		Code:    "MRK002",
	}
	msgNoMarkers = UserMessage{
		Message: "No markers found for this map.",
		Action:  "Add markers before exporting",
		Code:    "MRK003",
	}
	msgInvalidMapID = UserMessage{
		Message: "Invalid Map ID.",
		Action:  "Use the id of an existing map",
		Code:    "MRK004",
	}
	msgInvalidMarkerID = UserMessage{
		Message: "Invalid Marker ID.",
		Action:  "Reload the map and try again",
		Code:    "MRK005",
	}
	msgMissingAPIKey = UserMessage{
		Message: "Google Maps API Key is missing",
		Action:  "Configure the maps API key in the server settings",
		Code:    "MRK006",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
	msgUnsupportedFileType = UserMessage{
		Message: "Invalid file type. Please upload a valid CSV file.",
		Action:  "Save the file as CSV (comma separated) and upload it again",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "Could not read CSV header.",
		Action:  "Please upload a CSV file with a header row",
		Code:    "FILE005",
	}
	msgMissingColumns = UserMessage{
		Message: `CSV file must contain "latitude" and "longitude" columns.`,
		Action:  "Add latitude and longitude columns to the header row",
		Code:    "FILE006",
	}
	msgUnknownFormat = UserMessage{
		Message: "Unknown export format",
		Action:  "Use csv, geojson, or pdf",
		Code:    "FILE007",
	}
	msgTooManyImports = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
)

var errorPatterns = []errorPattern{
	// =========================================================================
	// Storage Errors (STO003-STO004)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach marker storage",
			Action:  "Please try again in a few moments",
			Code:    "STO003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Storage connection was interrupted",
			Action:  "Please try again",
			Code:    "STO003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Storage operation timed out",
			Action:  "Please try again later",
			Code:    "STO004",
		},
	},

	// =========================================================================
	// File Errors (FILE002, FILE004)
	// =========================================================================
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No CSV file uploaded or upload error.",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Import Errors (IMP002-IMP003)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "IMP003",
		},
	},

	// =========================================================================
	// Authorization Errors (AUTH001-AUTH003)
	// =========================================================================
	{
		pattern: "missing credentials",
		msg: UserMessage{
			Message: "Authentication required",
			Action:  "Sign in and try again",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid token",
		msg: UserMessage{
			Message: "Your session is invalid or has expired",
			Action:  "Sign in again",
			Code:    "AUTH002",
		},
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Permission denied.",
			Action:  "Ask an administrator for access to this map",
			Code:    "AUTH003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	err := service.DeleteMarker(ctx, "12", "marker_x")
//	msg := MapError(err)
//	// msg.Code == "MRK001"
//	// msg.Message == "Marker to delete not found."
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTypedError(err error) (UserMessage, bool) {
	var (
		verr  *ValidationError
		nferr *MarkerNotFoundError
		perr  *PersistenceError
	)

	switch {
	case errors.As(err, &verr):
		return validationMessage(verr), true
	case errors.As(err, &nferr):
		return UserMessage{
			Message: fmt.Sprintf("Marker to %s not found.", nferr.Op),
			Action:  "Reload the map; the marker may have been removed",
			Code:    "MRK001",
		}, true
	case errors.Is(err, ErrNotFound):
		return UserMessage{
			Message: "Marker not found.",
			Action:  "Reload the map; the marker may have been removed",
			Code:    "MRK001",
		}, true
	case errors.Is(err, ErrRevisionConflict):
		return msgRevisionConflict, true
	case errors.Is(err, ErrNoMarkers):
		return msgNoMarkers, true
	case errors.Is(err, ErrInvalidMapID):
		return msgInvalidMapID, true
	case errors.Is(err, ErrInvalidMarkerID):
		return msgInvalidMarkerID, true
	case errors.Is(err, ErrMissingAPIKey):
		return msgMissingAPIKey, true
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge, true
	case errors.Is(err, ErrUnsupportedFileType):
		return msgUnsupportedFileType, true
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile, true
	case errors.Is(err, ErrMissingRequiredColumns):
		return msgMissingColumns, true
	case errors.Is(err, ErrUnknownFormat):
		return msgUnknownFormat, true
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports, true
	case errors.As(err, &perr):
		if perr.Op == "read" {
			return UserMessage{
				Message: "Failed to load marker data.",
				Action:  "Please try again in a few moments",
				Code:    "STO002",
			}, true
		}
		return UserMessage{
			Message: "Failed to save marker data.",
			Action:  "Please try again; your changes were not stored",
			Code:    "STO001",
		}, true
	}
	return UserMessage{}, false
}

func validationMessage(verr *ValidationError) UserMessage {
	switch verr.Kind {
	case MissingCoordinates:
		return UserMessage{Message: verr.Message, Action: "Enter both latitude and longitude", Code: "VAL001"}
	case InvalidCoordinates:
		return UserMessage{Message: verr.Message, Action: "Use decimal degrees, for example 40.7128 and -74.0060", Code: "VAL002"}
	default:
		return UserMessage{Message: verr.Message, Action: "Check the submitted marker fields", Code: "VAL003"}
	}
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

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
