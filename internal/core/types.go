package core

import "context"

// Marker is one labeled geographic point belonging to a map.
//
// MarkerImage and TooltipImage are nullable: nil means "inherit the map or
// global default", a pointer to "" means "explicitly no image".
type Marker struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Phone        string  `json:"phone"`
	WebLink      string  `json:"web_link"`
	MarkerImage  *string `json:"marker_image"`
	TooltipImage *string `json:"tooltip_image"`
}

// RawMarker is an untyped marker payload as received from a request or a CSV row.
// Values may be missing, strings, numbers, or of the wrong type entirely.
type RawMarker map[string]any

// Revision is the version counter of a map's marker list.
// It increases by one on every successful write.
type Revision int64

// AnyRevision disables the compare-and-swap check on SetMarkers.
const AnyRevision Revision = -1

// MarkerStore is the persistence collaborator for marker lists.
// Implementations must make SetMarkers atomic with respect to a single caller.
type MarkerStore interface {
	// GetMarkers returns the ordered marker list of a map and its revision.
	// A map without markers yields an empty slice and revision 0.
	GetMarkers(ctx context.Context, mapID string) ([]Marker, Revision, error)

	// SetMarkers replaces the whole marker list of a map. When expect is not
	// AnyRevision and differs from the stored revision, ErrRevisionConflict
	// is returned and nothing is written.
	SetMarkers(ctx context.Context, mapID string, markers []Marker, expect Revision) (Revision, error)
}

// OptionsStore persists map display options.
type OptionsStore interface {
	// GetOptions returns the saved options and whether any were saved.
	GetOptions(ctx context.Context, mapID string) (MapOptions, bool, error)
	SetOptions(ctx context.Context, mapID string, opts MapOptions) error
}

// Store combines marker and option persistence.
type Store interface {
	MarkerStore
	OptionsStore
}

// ExportArchiver keeps a copy of every generated export.
type ExportArchiver interface {
	Archive(ctx context.Context, key, contentType string, body []byte) error
}

// EventType names a marker change event.
type EventType string

const (
	EventMarkerAdded     EventType = "marker.added"
	EventMarkerEdited    EventType = "marker.edited"
	EventMarkerDeleted   EventType = "marker.deleted"
	EventMarkersImported EventType = "markers.imported"
	EventOptionsSaved    EventType = "options.saved"
)

// Event describes a successful mutation of a map.
type Event struct {
	Type      EventType `json:"type"`
	MapID     string    `json:"map_id"`
	MarkerIDs []string  `json:"marker_ids,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
	Revision  Revision  `json:"revision"`
	At        int64     `json:"at"`
}

// EventPublisher delivers change events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}

// ImportRequest carries an uploaded CSV file.
type ImportRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Body        []byte
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported []Marker `json:"imported_markers"`
	Skipped  []string `json:"skipped,omitempty"`
	Message  string   `json:"message"`
}

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	FormatCSV     ExportFormat = "csv"
	FormatGeoJSON ExportFormat = "geojson"
	FormatPDF     ExportFormat = "pdf"
)

// ExportResult is a generated export file.
type ExportResult struct {
	FileName    string
	ContentType string
	Body        []byte
	Count       int
}

// StrPtr returns a pointer to s. It is used to set explicit image values.
func StrPtr(s string) *string {
	return &s
}

// StrValue returns the pointed-to string or "" for nil.
func StrValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
