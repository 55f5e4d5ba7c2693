package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/samber/lo"
)

// ParseExportFormat maps a query value to an ExportFormat. An empty value selects CSV.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatGeoJSON, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Extension returns the file extension of the format.
func (f ExportFormat) Extension() string {
	if f == FormatGeoJSON {
		return "geojson"
	}
	return string(f)
}

// ContentType returns the response media type of the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatGeoJSON:
		return "application/geo+json"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ExportFileName returns "map-<id>-markers-<YYYY-MM-DD>.<ext>".
func ExportFileName(mapID string, format ExportFormat, at time.Time) string {
	return fmt.Sprintf("map-%s-markers-%s.%s", mapID, at.Format("2006-01-02"), format.Extension())
}

// EncodeExport serializes markers in the requested format.
func EncodeExport(mapID string, markers []Marker, format ExportFormat) ([]byte, error) {
	switch format {
	case FormatCSV:
		return EncodeCSV(markers)
	case FormatGeoJSON:
		return BuildGeoJSON(markers)
	case FormatPDF:
		return BuildPDF(mapID, markers)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// BuildGeoJSON returns markers as a FeatureCollection of points.
// Image properties are omitted when unset.
func BuildGeoJSON(markers []Marker) ([]byte, error) {
	features := lo.Map(markers, func(m Marker, _ int) map[string]any {
		props := map[string]any{
			"id":       m.ID,
			"title":    m.Title,
			"address":  m.Address,
			"phone":    m.Phone,
			"web_link": m.WebLink,
		}
		if m.MarkerImage != nil {
			props["marker_image"] = *m.MarkerImage
		}
		if m.TooltipImage != nil {
			props["tooltip_image"] = *m.TooltipImage
		}
		return map[string]any{
			"type": "Feature",
			"geometry": map[string]any{
				"type":        "Point",
				"coordinates": []float64{m.Longitude, m.Latitude},
			},
			"properties": props,
		}
	})
	payload := map[string]any{"type": "FeatureCollection", "features": features}
	return json.MarshalIndent(payload, "", "  ")
}

// BuildPDF renders a printable marker listing.
func BuildPDF(mapID string, markers []Marker) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "", 16)
	pdf.Cell(0, 10, tr(fmt.Sprintf("Map %s markers", mapID)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Total markers: %d", len(markers)))
	pdf.Ln(10)

	for i, m := range markers {
		title := m.Title
		if title == "" {
			title = "(untitled)"
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(0, 7, tr(fmt.Sprintf("%d. %s", i+1, title)))
		pdf.Ln(7)

		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 6, fmt.Sprintf("%s, %s", FormatCoordinate(m.Latitude), FormatCoordinate(m.Longitude)))
		pdf.Ln(6)
		for _, line := range []string{m.Address, m.Phone, m.WebLink} {
			if line == "" {
				continue
			}
			pdf.Cell(0, 6, tr(line))
			pdf.Ln(6)
		}
		pdf.Ln(3)
	}

	buffer := bytes.NewBuffer(nil)
	if err := pdf.Output(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
