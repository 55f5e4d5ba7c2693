package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsFromForm_Defaults(t *testing.T) {
	assert.Equal(t, DefaultMapOptions(), OptionsFromForm(map[string]string{}))
}

func TestOptionsFromForm(t *testing.T) {
	tests := []struct {
		name  string
		form  map[string]string
		check func(t *testing.T, o MapOptions)
	}{
		{
			name: "split dimensions",
			form: map[string]string{"width_value": "600", "width_unit": "px", "height_value": "50", "height_unit": "%"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, "600px", o.Width)
				assert.Equal(t, "50%", o.Height)
			},
		},
		{
			name: "combined dimensions",
			form: map[string]string{"width": "80%", "height": "500PX"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, "80%", o.Width)
				assert.Equal(t, "500px", o.Height)
			},
		},
		{
			name: "invalid dimension falls back",
			form: map[string]string{"width": "wide", "height_value": "-5"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, "100%", o.Width)
				assert.Equal(t, "400px", o.Height)
			},
		},
		{
			name: "zoom clamped",
			form: map[string]string{"zoom": "40"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, MaxZoom, o.Zoom)
			},
		},
		{
			name: "zoom below range",
			form: map[string]string{"zoom": "0"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, MinZoom, o.Zoom)
			},
		},
		{
			name: "non-numeric zoom",
			form: map[string]string{"zoom": "close"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, DefaultZoom, o.Zoom)
			},
		},
		{
			name: "map type enum",
			form: map[string]string{"map_type": "Satellite"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, MapTypeSatellite, o.MapType)
			},
		},
		{
			name: "unknown map type",
			form: map[string]string{"map_type": "moon"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, MapTypeRoadmap, o.MapType)
			},
		},
		{
			name: "center coordinates",
			form: map[string]string{"lat": "48.85", "lng": "200"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, "48.85", o.Lat)
				assert.Equal(t, "-98.5795", o.Lng, "out-of-range center falls back")
			},
		},
		{
			name: "flags",
			form: map[string]string{"tooltip_show_title": "0", "tooltip_show_phone": "", "tooltip_show_image": "on"},
			check: func(t *testing.T, o MapOptions) {
				assert.False(t, o.TooltipShowTitle)
				assert.False(t, o.TooltipShowPhone)
				assert.True(t, o.TooltipShowImage)
				assert.True(t, o.TooltipShowAddress)
				assert.True(t, o.TooltipShowWebLink)
			},
		},
		{
			name: "custom styles compacted",
			form: map[string]string{"custom_styles": "[ {\"featureType\": \"water\"} ]"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, `[{"featureType":"water"}]`, o.CustomStyles)
			},
		},
		{
			name: "custom styles object rejected",
			form: map[string]string{"custom_styles": `{"featureType":"water"}`},
			check: func(t *testing.T, o MapOptions) {
				assert.Empty(t, o.CustomStyles)
			},
		},
		{
			name: "default images sanitized",
			form: map[string]string{"default_marker_image": "https://cdn.example.com/p.png", "default_tooltip_image": "nope"},
			check: func(t *testing.T, o MapOptions) {
				assert.Equal(t, "https://cdn.example.com/p.png", o.DefaultMarkerImage)
				assert.Empty(t, o.DefaultTooltipImage)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, OptionsFromForm(tt.form))
		})
	}
}

func TestOverridesApply(t *testing.T) {
	opts := DefaultMapOptions()
	got := Overrides{Width: "300px", Height: "tall", Zoom: 99}.Apply(opts)
	assert.Equal(t, "300px", got.Width)
	assert.Equal(t, opts.Height, got.Height, "invalid height ignored")
	assert.Equal(t, MaxZoom, got.Zoom)
	assert.Equal(t, opts, (Overrides{}).Apply(opts))
}
