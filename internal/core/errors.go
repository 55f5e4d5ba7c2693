package core

// errors.go defines the error taxonomy of marker operations.
//
// Every failure is recovered at the boundary of the single operation that
// caused it and reported to the caller. Callers classify errors with
// errors.Is / errors.As, or with Kind for transport-level encoding.

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an edit or delete targets an id that is
	// not present in the map's marker list.
	ErrNotFound = errors.New("marker not found")

	// ErrUnsupportedFileType is returned when an import is not a CSV-compatible type.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrMissingRequiredColumns is returned when an import header has no
	// latitude or no longitude column.
	ErrMissingRequiredColumns = errors.New(`missing required column: CSV file must contain "latitude" and "longitude" columns`)

	// ErrNoMarkers is returned by exports of maps that have no markers.
	ErrNoMarkers = errors.New("no markers found for this map")

	// ErrRevisionConflict is returned when a compare-and-swap write finds
	// that another writer changed the marker list first.
	ErrRevisionConflict = errors.New("revision conflict: markers were changed by another request")

	// ErrInvalidMapID is returned for empty or malformed map identifiers.
	ErrInvalidMapID = errors.New("invalid map id")

	// ErrInvalidMarkerID is returned for an empty marker id on edit or delete.
	ErrInvalidMarkerID = errors.New("invalid marker id")

	// ErrEmptyFile is returned for imports without a header row.
	ErrEmptyFile = errors.New("empty file: could not read CSV header")

	// ErrFileTooLarge is returned when an import exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")

	// ErrMissingAPIKey is returned when a map is rendered without a maps API key.
	ErrMissingAPIKey = errors.New("maps api key is missing")

	// ErrUnknownFormat is returned for unsupported export formats.
	ErrUnknownFormat = errors.New("unknown export format")
)

// ValidationKind classifies a marker validation failure.
type ValidationKind string

const (
	MissingCoordinates ValidationKind = "MissingCoordinates"
	InvalidCoordinates ValidationKind = "InvalidCoordinates"
	InvalidPayload     ValidationKind = "InvalidPayload"
)

// ValidationError represents a rejected marker record.
type ValidationError struct {
	Kind    ValidationKind // Failure classification
	Field   string         // Field name, if the failure is field specific
	Value   string         // The offending value
	Message string         // Human-readable reason
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// MarkerNotFoundError reports the operation and id of a missing marker.
// It matches ErrNotFound with errors.Is.
type MarkerNotFoundError struct {
	Op string // "edit" or "delete"
	ID string
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, ErrNotFound)
}

func (e *MarkerNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a failed read or write of the underlying store.
type PersistenceError struct {
	Op    string // "read" or "write"
	MapID string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s markers of map %s: %v", e.Op, e.MapID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ImportRowSkipped records a CSV row that failed validation.
// It is collected in ImportResult.Skipped and never aborts the batch.
type ImportRowSkipped struct {
	Row    int    // 1-based data row number
	Reason string // Validation message
}

func (e *ImportRowSkipped) Error() string {
	return fmt.Sprintf("Skipped row %d: %s", e.Row, e.Reason)
}

// Kind returns the taxonomy name of err, used as the machine-readable
// "kind" of an error response.
func Kind(err error) string {
	var verr *ValidationError
	var perr *PersistenceError
	var serr *ImportRowSkipped
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "ValidationError"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrRevisionConflict):
		return "RevisionConflict"
	case errors.As(err, &perr):
		return "PersistenceError"
	case errors.As(err, &serr):
		return "ImportRowSkipped"
	case errors.Is(err, ErrUnsupportedFileType):
		return "UnsupportedFileType"
	case errors.Is(err, ErrMissingRequiredColumns):
		return "MissingRequiredColumns"
	case errors.Is(err, ErrNoMarkers):
		return "NoMarkers"
	case errors.Is(err, ErrTooManyImports):
		return "Busy"
	case errors.Is(err, ErrInvalidMapID), errors.Is(err, ErrInvalidMarkerID),
		errors.Is(err, ErrEmptyFile), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrUnknownFormat):
		return "BadRequest"
	default:
		return "Internal"
	}
}
