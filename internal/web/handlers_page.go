package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// maxMapsPerPage bounds the maps a single page request may embed.
const maxMapsPerPage = 20

// OptionsResponse is the payload of the options endpoints.
type OptionsResponse struct {
	Message string          `json:"message,omitempty"`
	Options core.MapOptions `json:"options"`
}

// handleGetOptions returns the saved display options, or the defaults.
func (s *Server) handleGetOptions(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)

	opts, err := s.service.GetOptions(r.Context(), mapID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, OptionsResponse{Options: opts})
}

// handleSaveOptions stores the display options submitted as a settings form.
func (s *Server) handleSaveOptions(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)

	form, err := formValues(w, r)
	if err != nil {
		respondError(w, r, &core.ValidationError{Kind: core.InvalidPayload, Message: "Invalid settings form."})
		return
	}

	opts, err := s.service.SaveOptions(r.Context(), mapID, form)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, OptionsResponse{Message: "Settings saved.", Options: opts})
}

// PageResponse is everything a page needs to draw its embedded maps: the
// container element of each embed, in request order, and the collected
// renderer data.
type PageResponse struct {
	Containers []PageContainer `json:"containers"`
	Data       json.RawMessage `json:"data"`
	APIKey     string          `json:"apiKey"`
}

// PageContainer is the element one embed renders into.
type PageContainer struct {
	MapID string `json:"mapId"`
	HTML  string `json:"html"`
}

// handlePage renders the maps listed in ?maps=1,2 for a single page. The
// same map may be listed more than once; every instance gets its own
// container. width, height and zoom apply to every instance.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ids := lo.Compact(lo.Map(strings.Split(r.URL.Query().Get("maps"), ","), func(id string, _ int) string {
		return strings.TrimSpace(id)
	}))
	if len(ids) == 0 || len(ids) > maxMapsPerPage {
		respondError(w, r, core.ErrInvalidMapID)
		return
	}

	overrides := parseOverrides(r)
	page := core.NewPageCollector(s.cfg.Maps.AssetBaseURL, s.service.AssetDefaults())

	containers := make([]PageContainer, 0, len(ids))
	for _, id := range ids {
		html, err := s.service.RenderMap(r.Context(), page, id, overrides)
		if err != nil {
			respondError(w, r, err)
			return
		}
		containers = append(containers, PageContainer{MapID: id, HTML: html})
	}

	data, err := page.Serialize()
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, PageResponse{
		Containers: containers,
		Data:       data,
		APIKey:     s.cfg.Maps.APIKey,
	})
}
