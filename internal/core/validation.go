package core

// validation.go turns untyped marker payloads into canonical Marker records.
//
// Validation is the only path into the store:
//  1. Coordinates must be present and parse as finite decimal numbers
//  2. Free-text fields are reduced to plain text
//  3. URL fields are kept only when well formed (otherwise "")
//  4. The id is generated, preserved, or regenerated depending on the Mode
//
// A record either produces a fully populated Marker or a *ValidationError.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Mode selects how the validator assigns marker ids.
type Mode int

const (
	// ModeCreate keeps a supplied id and generates one when absent.
	ModeCreate Mode = iota
	// ModeEdit always uses the target id, ignoring the payload's id.
	ModeEdit
	// ModeImport always generates a fresh id.
	ModeImport
)

// MarkerIDPrefix prefixes every generated marker id.
const MarkerIDPrefix = "marker_"

// maxIDLength bounds supplied ids; longer ids are replaced by generated ones.
const maxIDLength = 128

const (
	msgCoordinatesRequired = "Latitude and Longitude are required."
	msgCoordinatesNumeric  = "Latitude and Longitude must be valid numbers."
)

// NewMarkerID returns a new collision-free marker id.
func NewMarkerID() string {
	return MarkerIDPrefix + uuid.NewString()
}

// Validate checks and normalizes raw into a canonical Marker.
// targetID is only used in ModeEdit.
func Validate(raw RawMarker, mode Mode, targetID string) (Marker, error) {
	if raw == nil {
		return Marker{}, &ValidationError{Kind: InvalidPayload, Message: "Invalid marker data received."}
	}

	lat, lng, err := parseCoordinates(raw)
	if err != nil {
		return Marker{}, err
	}

	m := Marker{
		Title:     SanitizeText(stringField(raw, "title")),
		Address:   SanitizeText(stringField(raw, "address")),
		Latitude:  lat,
		Longitude: lng,
		Phone:     SanitizeText(stringField(raw, "phone")),
		WebLink:   SanitizeURL(stringField(raw, "web_link")),
	}
	m.MarkerImage = imageField(raw, "marker_image")
	m.TooltipImage = imageField(raw, "tooltip_image")

	switch mode {
	case ModeEdit:
		m.ID = targetID
	case ModeImport:
		m.ID = NewMarkerID()
	default:
		m.ID = SanitizeText(stringField(raw, "id"))
		if m.ID == "" || len(m.ID) > maxIDLength {
			m.ID = NewMarkerID()
		}
	}

	return m, nil
}

// ValidateCoordinates performs the presence and numeric checks only.
// The admin table runs it before issuing a save request.
func ValidateCoordinates(lat, lng string) error {
	_, _, err := parseCoordinates(RawMarker{"latitude": lat, "longitude": lng})
	return err
}

func parseCoordinates(raw RawMarker) (float64, float64, error) {
	latRaw, latOK := raw["latitude"]
	lngRaw, lngOK := raw["longitude"]
	if !latOK || !lngOK || isBlank(latRaw) || isBlank(lngRaw) {
		return 0, 0, &ValidationError{Kind: MissingCoordinates, Message: msgCoordinatesRequired}
	}

	lat, ok := toFloat(latRaw)
	if !ok {
		return 0, 0, &ValidationError{Kind: InvalidCoordinates, Field: "latitude", Value: fmt.Sprint(latRaw), Message: msgCoordinatesNumeric}
	}
	lng, ok := toFloat(lngRaw)
	if !ok {
		return 0, 0, &ValidationError{Kind: InvalidCoordinates, Field: "longitude", Value: fmt.Sprint(lngRaw), Message: msgCoordinatesNumeric}
	}
	return lat, lng, nil
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	}
	return false
}

// toFloat accepts JSON numbers and decimal numeric strings. NaN, infinities,
// hex floats and digit separators are rejected.
func toFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		if !isDecimal(val.String()) {
			return 0, false
		}
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		val = strings.TrimSpace(val)
		if !isDecimal(val) {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// isDecimal rejects the hex and underscore forms ParseFloat would accept.
func isDecimal(s string) bool {
	if strings.Contains(s, "_") {
		return false
	}
	unsigned := strings.TrimLeft(s, "+-")
	return !strings.HasPrefix(unsigned, "0x") && !strings.HasPrefix(unsigned, "0X")
}

// stringField returns the string value of key, or "" when absent or not text.
// Numbers are formatted so that a numeric phone still round-trips.
func stringField(raw RawMarker, key string) string {
	switch val := raw[key].(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

// imageField distinguishes an absent or null key (nil, inherit default)
// from a present value, which is sanitized and may become "".
func imageField(raw RawMarker, key string) *string {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	s, _ := v.(string)
	return StrPtr(SanitizeURL(s))
}

// RowSkipReason phrases a validation failure for the import summary.
func RowSkipReason(err error) string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	switch {
	case verr.Kind == MissingCoordinates:
		return "Missing latitude or longitude."
	case verr.Message == msgCoordinatesNumeric:
		return "Invalid latitude or longitude (must be numeric)."
	default:
		return verr.Message
	}
}
