package core

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAssets = AssetDefaults{
	MarkerIcon:   "https://assets.example.com/default-marker.png",
	TooltipImage: "https://assets.example.com/default-tooltip.png",
}

func TestResolveMarkerIcon(t *testing.T) {
	mapDefault := DefaultMapOptions()
	mapDefault.DefaultMarkerImage = "https://maps.example.com/map-pin.png"

	tests := []struct {
		name string
		m    Marker
		opts MapOptions
		want string
	}{
		{"marker value wins", Marker{MarkerImage: StrPtr("https://x.example.com/a.png")}, mapDefault, "https://x.example.com/a.png"},
		{"explicit empty suppresses", Marker{MarkerImage: StrPtr("")}, mapDefault, ""},
		{"unset uses map default", Marker{}, mapDefault, "https://maps.example.com/map-pin.png"},
		{"unset without map default uses global", Marker{}, DefaultMapOptions(), testAssets.MarkerIcon},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveMarkerIcon(tt.m, tt.opts, testAssets))
		})
	}
}

func TestBuildInfoWindow(t *testing.T) {
	m := Marker{
		Title:        `Tom & Jerry's <Shop>`,
		Address:      "1 Main St",
		Phone:        "+1 (555) 010",
		WebLink:      "https://shop.example.com",
		TooltipImage: StrPtr("https://img.example.com/t.jpg"),
	}

	t.Run("all fields in order", func(t *testing.T) {
		got := BuildInfoWindow(m, DefaultMapOptions(), testAssets)
		parts := []string{
			`<div class="gmap-mm-infowindow">`,
			`<img src="https://img.example.com/t.jpg" alt="Tom &amp; Jerry&#39;s &lt;Shop&gt;"`,
			`<strong>Tom &amp; Jerry&#39;s &lt;Shop&gt;</strong><br>`,
			`1 Main St<br>`,
			`<a href="tel:+1555010">+1 (555) 010</a><br>`,
			`<a href="https://shop.example.com" target="_blank" rel="noopener">https://shop.example.com</a><br>`,
			`</div>`,
		}
		pos := 0
		for _, p := range parts {
			i := strings.Index(got[pos:], p)
			require.GreaterOrEqual(t, i, 0, "missing or out of order %q in %s", p, got)
			pos += i + len(p)
		}
	})

	t.Run("flags hide fields", func(t *testing.T) {
		opts := DefaultMapOptions()
		opts.TooltipShowImage = false
		opts.TooltipShowPhone = false
		got := BuildInfoWindow(m, opts, testAssets)
		assert.NotContains(t, got, "<img")
		assert.NotContains(t, got, "tel:")
	})

	t.Run("explicit empty tooltip image", func(t *testing.T) {
		got := BuildInfoWindow(Marker{Title: "A", TooltipImage: StrPtr("")}, DefaultMapOptions(), testAssets)
		assert.NotContains(t, got, "<img")
	})

	t.Run("nothing to show", func(t *testing.T) {
		opts := DefaultMapOptions()
		opts.TooltipShowImage = false
		assert.Empty(t, BuildInfoWindow(Marker{}, opts, testAssets))
	})
}

func TestPageCollector(t *testing.T) {
	page := NewPageCollector("https://plugin.example.com/", testAssets)

	styled := DefaultMapOptions()
	styled.CustomStyles = `[{"featureType":"water"}]`

	markers := []Marker{{ID: "marker_1", Title: "Shop", Latitude: 40, Longitude: -75}}
	first := page.AddMap("7", DefaultMapOptions(), markers)
	second := page.AddMap("7", styled, nil)

	assert.Equal(t, "gmap-mm-container-7-1", first)
	assert.Equal(t, "gmap-mm-container-7-2", second)
	require.Equal(t, 2, page.Len())

	body, err := page.Serialize()
	require.NoError(t, err)

	var doc struct {
		Maps []struct {
			MapID       string `json:"mapId"`
			ContainerID string `json:"containerId"`
			Options     struct {
				CloudMapID   string `json:"mapId"`
				Zoom         int    `json:"zoom"`
				CustomStyles string `json:"custom_styles"`
			} `json:"options"`
			Markers []PageMarker `json:"markers"`
		} `json:"maps"`
		PluginURL string `json:"pluginUrl"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))

	assert.Equal(t, "https://plugin.example.com/", doc.PluginURL)
	require.Len(t, doc.Maps, 2)
	assert.Equal(t, "GMAP_MM_7_1", doc.Maps[0].Options.CloudMapID)
	assert.Empty(t, doc.Maps[1].Options.CloudMapID, "cloud map id set together with custom styles")
	assert.Equal(t, DefaultZoom, doc.Maps[0].Options.Zoom)
	require.Len(t, doc.Maps[0].Markers, 1)
	assert.Equal(t, testAssets.MarkerIcon, doc.Maps[0].Markers[0].Icon)
	assert.NotEmpty(t, doc.Maps[0].Markers[0].InfoWindow)
	assert.NotNil(t, doc.Maps[1].Markers, "markers encoded as null")
}

func TestPageCollector_SerializeEmpty(t *testing.T) {
	body, err := NewPageCollector("", AssetDefaults{}).Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, `{"maps":[],"pluginUrl":""}`, string(body))
}

func TestRenderContainer(t *testing.T) {
	got := RenderContainer("gmap-mm-container-3-1", MapOptions{Width: "100%", Height: "400px"})
	want := `<div id="gmap-mm-container-3-1" class="gmap-mm-container" style="width: 100%; height: 400px;"><p>Loading map...</p></div>`
	assert.Equal(t, want, got)
}
