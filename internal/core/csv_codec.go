package core

// csv_codec.go converts between CSV files and marker records.
//
// Import:
//  1. The declared (or sniffed) media type must be CSV compatible
//  2. The header row is normalized and resolved through column synonyms
//  3. Missing latitude or longitude columns fail the import before any row
//  4. Each data row is validated independently; failures become skip reasons
//  5. Blank lines are dropped without a skip reason but keep their row number
//
// Export writes the fixed column order of ExportHeader, which the synonym
// resolution of the import accepts unchanged.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// ExportHeader is the fixed column order of exported CSV files.
var ExportHeader = []string{
	"title", "address", "latitude", "longitude", "phone", "web_link", "marker_image", "tooltip_image",
}

// columnSynonyms lists the accepted header spellings per marker field.
// The first spelling present in the header wins.
var columnSynonyms = []struct {
	field string
	names []string
}{
	{"latitude", []string{"latitude", "lat"}},
	{"longitude", []string{"longitude", "lng", "lon"}},
	{"title", []string{"title"}},
	{"address", []string{"address"}},
	{"phone", []string{"phone"}},
	{"web_link", []string{"web_link", "website", "url"}},
	{"marker_image", []string{"marker_image", "image_url", "image"}},
	{"tooltip_image", []string{"tooltip_image", "tooltip_image_url"}},
}

// csvMediaTypes are the media types browsers and servers report for CSV uploads.
var csvMediaTypes = map[string]bool{
	"text/csv":                    true,
	"text/plain":                  true,
	"application/csv":             true,
	"text/comma-separated-values": true,
	"application/excel":           true,
	"application/vnd.ms-excel":    true,
	"application/vnd.msexcel":     true,
	"text/anytext":                true,
	"application/octet-stream":    true,
	"application/txt":             true,
	"text/x-csv":                  true,
}

// ColumnMap maps marker field names to CSV column positions.
type ColumnMap map[string]int

// IsCSVContentType reports whether an upload with the given declared media
// type, file name and leading bytes may be parsed as CSV.
func IsCSVContentType(contentType, fileName string, head []byte) bool {
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != "" && ext != ".csv" && ext != ".txt" {
		return false
	}

	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return false
		}
		mediaType = strings.ToLower(mt)
	}

	if mediaType == "" || mediaType == "application/octet-stream" {
		sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(head))
		return strings.HasPrefix(sniffed, "text/")
	}

	return csvMediaTypes[mediaType]
}

// ResolveColumns resolves marker fields against a header row.
// Fields without a matching column are absent from the map.
func ResolveColumns(header []string) (ColumnMap, error) {
	idx := MakeHeaderIndex(header)
	cols := make(ColumnMap, len(columnSynonyms))
	for _, syn := range columnSynonyms {
		for _, name := range syn.names {
			if pos, ok := idx[name]; ok {
				cols[syn.field] = pos
				break
			}
		}
	}

	_, hasLat := cols["latitude"]
	_, hasLng := cols["longitude"]
	if !hasLat || !hasLng {
		return nil, ErrMissingRequiredColumns
	}
	return cols, nil
}

// RawRecord builds an untyped marker record from a CSV row.
// Empty image cells are left out so that the marker inherits defaults.
func (c ColumnMap) RawRecord(row []string) RawMarker {
	raw := make(RawMarker, len(c))
	for field, pos := range c {
		value := ""
		if pos < len(row) {
			value = strings.TrimSpace(row[pos])
		}
		if (field == "marker_image" || field == "tooltip_image") && value == "" {
			continue
		}
		raw[field] = value
	}
	return raw
}

// DecodeResult is the outcome of parsing an import file.
type DecodeResult struct {
	Markers []Marker
	Skipped []*ImportRowSkipped
}

// SkipMessages returns the user-facing skip lines.
func (r *DecodeResult) SkipMessages() []string {
	msgs := make([]string, len(r.Skipped))
	for i, s := range r.Skipped {
		msgs[i] = s.Error()
	}
	return msgs
}

// DecodeMarkers parses a CSV stream into validated markers with fresh ids.
// Rows failing validation are reported in Skipped, numbered from 1 by data
// row. Blank lines are skipped silently but still consume a row number.
func DecodeMarkers(r io.Reader) (*DecodeResult, error) {
	reader := csv.NewReader(WrapForStreaming(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	cols, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}

	result := &DecodeResult{}
	_, lastLine := recordLines(reader, header)
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("invalid csv: %w", err)
			}
			rowNum += max(perr.StartLine-lastLine, 1)
			lastLine = perr.Line
			result.Skipped = append(result.Skipped, &ImportRowSkipped{Row: rowNum, Reason: "Malformed CSV row."})
			continue
		}

		first, last := recordLines(reader, row)
		rowNum += max(first-lastLine, 1)
		lastLine = last
		if isEmptyRow(row) {
			continue
		}

		m, verr := Validate(cols.RawRecord(row), ModeImport, "")
		if verr != nil {
			result.Skipped = append(result.Skipped, &ImportRowSkipped{Row: rowNum, Reason: RowSkipReason(verr)})
			continue
		}
		result.Markers = append(result.Markers, m)
	}

	return result, nil
}

// recordLines returns the first and last input line of the record just read.
// The gap to the previous record is the number of blank lines csv.Reader dropped.
func recordLines(reader *csv.Reader, row []string) (int, int) {
	first, _ := reader.FieldPos(0)
	lastField := len(row) - 1
	last, _ := reader.FieldPos(lastField)
	return first, last + strings.Count(row[lastField], "\n")
}

// WriteCSV writes markers in store order under ExportHeader.
// Absent values serialize as empty strings.
func WriteCSV(w io.Writer, markers []Marker) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, m := range markers {
		if err := cw.Write(markerRow(m)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV returns the CSV export of markers.
func EncodeCSV(markers []Marker) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, markers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func markerRow(m Marker) []string {
	return []string{
		m.Title,
		m.Address,
		FormatCoordinate(m.Latitude),
		FormatCoordinate(m.Longitude),
		m.Phone,
		m.WebLink,
		StrValue(m.MarkerImage),
		StrValue(m.TooltipImage),
	}
}
