package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleCreateMarker adds one marker to the map and echoes the stored record.
func (s *Server) handleCreateMarker(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)
	raw := decodeMarkerPayload(w, r)

	marker, err := s.service.AddMarker(r.Context(), mapID, raw)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSONStatus(w, http.StatusCreated, MarkerResponse{
		Message: "Marker added successfully.",
		Marker:  marker,
	})
}

// handleUpdateMarker replaces the marker with the id of the route.
func (s *Server) handleUpdateMarker(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)
	markerID := chi.URLParam(r, "markerID")
	raw := decodeMarkerPayload(w, r)

	marker, err := s.service.EditMarker(r.Context(), mapID, markerID, raw)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, MarkerResponse{
		Message: "Marker updated successfully.",
		Marker:  marker,
	})
}

// handleDeleteMarker removes the marker with the id of the route. Deleting
// an id that does not exist is reported as not found.
func (s *Server) handleDeleteMarker(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)
	markerID := chi.URLParam(r, "markerID")

	if err := s.service.DeleteMarker(r.Context(), mapID, markerID); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, MessageResponse{Message: "Marker deleted successfully."})
}
