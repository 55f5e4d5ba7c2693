package web

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// maxPayloadSize bounds JSON and form bodies of single-marker requests.
const maxPayloadSize = 1 << 20

// formPrefix is the field prefix of marker forms, as in marker_data[title].
const formPrefix = "marker_data["

// MarkerResponse is the success payload of create and update.
type MarkerResponse struct {
	Message string      `json:"message"`
	Marker  core.Marker `json:"marker"`
}

// MessageResponse is a success payload without data.
type MessageResponse struct {
	Message string `json:"message"`
}

// decodeMarkerPayload reads the marker fields of a request. JSON bodies may
// be the marker object itself or {"marker_data": {...}}. Form bodies may use
// plain field names or marker_data[field]. A body that cannot be read as
// either yields nil, which validation rejects as invalid marker data.
func decodeMarkerPayload(w http.ResponseWriter, r *http.Request) core.RawMarker {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data" {
		return formMarker(r)
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil
	}
	if nested, ok := body["marker_data"].(map[string]any); ok {
		return core.RawMarker(nested)
	}
	if _, ok := body["marker_data"]; ok {
		return nil
	}
	return core.RawMarker(body)
}

func formMarker(r *http.Request) core.RawMarker {
	if err := r.ParseMultipartForm(maxPayloadSize); err != nil && err != http.ErrNotMultipart {
		return nil
	}
	raw := core.RawMarker{}
	for key, values := range r.PostForm {
		if len(values) == 0 {
			continue
		}
		if strings.HasPrefix(key, formPrefix) && strings.HasSuffix(key, "]") {
			key = key[len(formPrefix) : len(key)-1]
		}
		raw[key] = values[0]
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// formValues flattens the submitted form to its first value per key.
func formValues(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	form := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			form[key] = values[0]
		}
	}
	return form, nil
}

// parseOverrides reads the width, height and zoom query parameters of an
// embed request. Invalid values are ignored.
func parseOverrides(r *http.Request) core.Overrides {
	q := r.URL.Query()
	o := core.Overrides{
		Width:  q.Get("width"),
		Height: q.Get("height"),
	}
	if z, err := strconv.Atoi(q.Get("zoom")); err == nil {
		o.Zoom = z
	}
	return o
}

// readLimited reads at most max+1 bytes so callers can detect oversized input.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, max+1))
}
