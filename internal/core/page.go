package core

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
)

// Overrides are per-embed adjustments of a map's saved options.
// Zero values and invalid dimensions leave the saved option in place.
type Overrides struct {
	Width  string
	Height string
	Zoom   int
}

// Apply returns opts with the valid overrides applied.
func (o Overrides) Apply(opts MapOptions) MapOptions {
	if d, ok := ParseDimension(o.Width); ok {
		opts.Width = d
	}
	if d, ok := ParseDimension(o.Height); ok {
		opts.Height = d
	}
	if o.Zoom > 0 {
		opts.Zoom = ClampZoom(o.Zoom)
	}
	return opts
}

// PageOptions are the options handed to the map renderer.
type PageOptions struct {
	MapOptions
	// CloudMapID enables cloud-based styling; empty when custom styles are set.
	CloudMapID string `json:"mapId,omitempty"`
}

// PageMarker is a marker with its icon and info window already resolved.
type PageMarker struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Icon       string  `json:"icon"`
	InfoWindow string  `json:"info_window"`
}

// PageMap is one rendered map instance on a page.
type PageMap struct {
	MapID       string       `json:"mapId"`
	ContainerID string       `json:"containerId"`
	Options     PageOptions  `json:"options"`
	Markers     []PageMarker `json:"markers"`
}

// PageCollector accumulates the maps embedded in a single page render.
// Create one per page and pass it to every rendering call.
type PageCollector struct {
	mu        sync.Mutex
	pluginURL string
	defaults  AssetDefaults
	maps      []PageMap
	seq       int
}

// NewPageCollector creates an empty collector. pluginURL is the base URL of
// the static assets the renderer loads.
func NewPageCollector(pluginURL string, defaults AssetDefaults) *PageCollector {
	return &PageCollector{pluginURL: pluginURL, defaults: defaults}
}

// AddMap records a map instance and returns the id of its container element.
// The same map may be added more than once; every instance gets its own container.
func (c *PageCollector) AddMap(mapID string, opts MapOptions, markers []Marker) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	suffix := strconv.Itoa(c.seq)
	containerID := fmt.Sprintf("gmap-mm-container-%s-%s", mapID, suffix)

	po := PageOptions{MapOptions: opts}
	if !opts.HasCustomStyles() {
		po.CloudMapID = fmt.Sprintf("GMAP_MM_%s_%s", mapID, suffix)
	}

	pms := make([]PageMarker, 0, len(markers))
	for _, m := range markers {
		pms = append(pms, PageMarker{
			ID:         m.ID,
			Title:      m.Title,
			Latitude:   m.Latitude,
			Longitude:  m.Longitude,
			Icon:       ResolveMarkerIcon(m, opts, c.defaults),
			InfoWindow: BuildInfoWindow(m, opts, c.defaults),
		})
	}

	c.maps = append(c.maps, PageMap{
		MapID:       mapID,
		ContainerID: containerID,
		Options:     po,
		Markers:     pms,
	})
	return containerID
}

// Len returns the number of map instances collected so far.
func (c *PageCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.maps)
}

// Maps returns a copy of the collected map instances.
func (c *PageCollector) Maps() []PageMap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PageMap(nil), c.maps...)
}

type pageData struct {
	Maps      []PageMap `json:"maps"`
	PluginURL string    `json:"pluginUrl"`
}

// Serialize encodes every collected map in one document for the renderer.
func (c *PageCollector) Serialize() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	maps := c.maps
	if maps == nil {
		maps = []PageMap{}
	}
	return json.Marshal(pageData{Maps: maps, PluginURL: c.pluginURL})
}

// RenderContainer returns the placeholder element a map instance is drawn into.
func RenderContainer(containerID string, opts MapOptions) string {
	var b strings.Builder
	b.WriteString(`<div id="` + html.EscapeString(containerID) + `" class="gmap-mm-container" style="width: `)
	b.WriteString(html.EscapeString(opts.Width) + "; height: " + html.EscapeString(opts.Height) + `;">`)
	b.WriteString("<p>Loading map...</p></div>")
	return b.String()
}
