package core

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Map types accepted by the maps provider.
const (
	MapTypeRoadmap   = "roadmap"
	MapTypeSatellite = "satellite"
	MapTypeHybrid    = "hybrid"
	MapTypeTerrain   = "terrain"
)

// Zoom bounds of the maps provider.
const (
	MinZoom     = 1
	MaxZoom     = 22
	DefaultZoom = 8
)

var mapTypes = []string{MapTypeRoadmap, MapTypeSatellite, MapTypeHybrid, MapTypeTerrain}

var dimensionRegex = regexp.MustCompile(`^(\d+)(px|%)$`)

// MapOptions is the display configuration of a map.
type MapOptions struct {
	Width               string `json:"width"`
	Height              string `json:"height"`
	Zoom                int    `json:"zoom"`
	Lat                 string `json:"lat"`
	Lng                 string `json:"lng"`
	MapType             string `json:"map_type"`
	TooltipShowTitle    bool   `json:"tooltip_show_title"`
	TooltipShowAddress  bool   `json:"tooltip_show_address"`
	TooltipShowPhone    bool   `json:"tooltip_show_phone"`
	TooltipShowWebLink  bool   `json:"tooltip_show_weblink"`
	TooltipShowImage    bool   `json:"tooltip_show_image"`
	CustomStyles        string `json:"custom_styles"` // JSON array, or "" for none
	DefaultMarkerImage  string `json:"default_marker_image"`
	DefaultTooltipImage string `json:"default_tooltip_image"`
}

// DefaultMapOptions returns the options of a map that was never configured.
func DefaultMapOptions() MapOptions {
	return MapOptions{
		Width:              "100%",
		Height:             "400px",
		Zoom:               DefaultZoom,
		Lat:                "39.8283",
		Lng:                "-98.5795",
		MapType:            MapTypeRoadmap,
		TooltipShowTitle:   true,
		TooltipShowAddress: true,
		TooltipShowPhone:   true,
		TooltipShowWebLink: true,
		TooltipShowImage:   true,
	}
}

// HasCustomStyles reports whether a custom style document is set.
// Custom styles and cloud-based styling through a map identifier are exclusive.
func (o MapOptions) HasCustomStyles() bool {
	return o.CustomStyles != ""
}

// OptionsFromForm recomputes every option from a submitted settings form.
// Absent or invalid keys fall back to their defaults; nothing is merged with
// previously saved options.
//
// Dimensions are accepted either combined ("500px") or split into
// "<name>_value" and "<name>_unit". Tooltip flags accept 1/0, true/false and on/off.
func OptionsFromForm(form map[string]string) MapOptions {
	def := DefaultMapOptions()
	opts := MapOptions{
		Width:   formDimension(form, "width", def.Width, "%"),
		Height:  formDimension(form, "height", def.Height, "px"),
		Zoom:    formZoom(form["zoom"], def.Zoom),
		Lat:     formCoordinate(form["lat"], def.Lat, 90),
		Lng:     formCoordinate(form["lng"], def.Lng, 180),
		MapType: def.MapType,

		CustomStyles:        NormalizeCustomStyles(form["custom_styles"]),
		DefaultMarkerImage:  SanitizeURL(form["default_marker_image"]),
		DefaultTooltipImage: SanitizeURL(form["default_tooltip_image"]),
	}

	if mt := strings.ToLower(strings.TrimSpace(form["map_type"])); lo.Contains(mapTypes, mt) {
		opts.MapType = mt
	}

	opts.TooltipShowTitle = formFlag(form, "tooltip_show_title", def.TooltipShowTitle)
	opts.TooltipShowAddress = formFlag(form, "tooltip_show_address", def.TooltipShowAddress)
	opts.TooltipShowPhone = formFlag(form, "tooltip_show_phone", def.TooltipShowPhone)
	opts.TooltipShowWebLink = formFlag(form, "tooltip_show_weblink", def.TooltipShowWebLink)
	opts.TooltipShowImage = formFlag(form, "tooltip_show_image", def.TooltipShowImage)

	return opts
}

// ParseDimension validates a "<digits><px|%>" value.
func ParseDimension(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !dimensionRegex.MatchString(s) {
		return "", false
	}
	return s, true
}

func formDimension(form map[string]string, name, fallback, defaultUnit string) string {
	if v, ok := form[name+"_value"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fallback
		}
		unit := strings.TrimSpace(form[name+"_unit"])
		if unit != "px" && unit != "%" {
			unit = defaultUnit
		}
		return strconv.Itoa(n) + unit
	}
	if d, ok := ParseDimension(form[name]); ok {
		return d
	}
	return fallback
}

func formZoom(v string, fallback int) int {
	z, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return ClampZoom(z)
}

// ClampZoom limits z to the provider's zoom range.
func ClampZoom(z int) int {
	return lo.Clamp(z, MinZoom, MaxZoom)
}

func formCoordinate(v, fallback string, limit float64) string {
	v = strings.TrimSpace(v)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < -limit || f > limit {
		return fallback
	}
	return v
}

func formFlag(form map[string]string, key string, fallback bool) bool {
	v, ok := form[key]
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// NormalizeCustomStyles returns the compact encoding of a JSON array style
// document, or "" when s is empty, not JSON, or not an array.
func NormalizeCustomStyles(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var styles []any
	if err := json.Unmarshal([]byte(s), &styles); err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return ""
	}
	return buf.String()
}
