package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// MarkersResponse lists the markers of a map in stored order.
type MarkersResponse struct {
	MapID   string        `json:"map_id"`
	Markers []core.Marker `json:"markers"`
	Count   int           `json:"count"`
}

// handleListMarkers returns the marker list of a map.
func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)

	markers, err := s.service.ListMarkers(r.Context(), mapID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, MarkersResponse{MapID: mapID, Markers: markers, Count: len(markers)})
}

// handleExport downloads the markers of a map as csv (default), geojson or pdf.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)

	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.service.ExportMarkers(r.Context(), mapID, format)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Marker-Count", strconv.Itoa(res.Count))
	w.Write(res.Body)
}
