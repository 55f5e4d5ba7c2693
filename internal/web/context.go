package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

// mapScope returns the map id of the route and the request context carrying
// it as a log field.
func mapScope(r *http.Request) (string, *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	ctx := logging.ContextWith(r.Context(), "map_id", mapID)
	return mapID, r.WithContext(ctx)
}
