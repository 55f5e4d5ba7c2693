package core

import (
	"html"
	"strings"
)

// AssetDefaults are the installation-wide images used when neither a marker
// nor its map sets one.
type AssetDefaults struct {
	MarkerIcon   string
	TooltipImage string
}

const infoWindowOpen = `<div class="gmap-mm-infowindow">`

// ResolveMarkerIcon returns the icon URL to draw for m. A marker value that is
// set wins even when empty, which means no icon.
func ResolveMarkerIcon(m Marker, opts MapOptions, global AssetDefaults) string {
	if m.MarkerImage != nil {
		return *m.MarkerImage
	}
	if opts.DefaultMarkerImage != "" {
		return opts.DefaultMarkerImage
	}
	return global.MarkerIcon
}

// ResolveTooltipImage returns the info window image URL for m, following the
// same precedence as ResolveMarkerIcon.
func ResolveTooltipImage(m Marker, opts MapOptions, global AssetDefaults) string {
	if m.TooltipImage != nil {
		return *m.TooltipImage
	}
	if opts.DefaultTooltipImage != "" {
		return opts.DefaultTooltipImage
	}
	return global.TooltipImage
}

// BuildInfoWindow renders the popup HTML of a marker from the fields enabled
// in opts. It returns "" when nothing would be shown; the renderer then
// attaches no click handler to the pin.
func BuildInfoWindow(m Marker, opts MapOptions, global AssetDefaults) string {
	var b strings.Builder
	b.WriteString(infoWindowOpen)

	if img := ResolveTooltipImage(m, opts, global); opts.TooltipShowImage && img != "" {
		b.WriteString(`<img src="` + html.EscapeString(img) + `" alt="` + html.EscapeString(m.Title) +
			`" style="max-width: 150px; height: auto; margin-bottom: 5px;"><br>`)
	}
	if opts.TooltipShowTitle && m.Title != "" {
		b.WriteString("<strong>" + html.EscapeString(m.Title) + "</strong><br>")
	}
	if opts.TooltipShowAddress && m.Address != "" {
		b.WriteString(html.EscapeString(m.Address) + "<br>")
	}
	if opts.TooltipShowPhone && m.Phone != "" {
		b.WriteString(`<a href="tel:` + html.EscapeString(TelHref(m.Phone)) + `">` + html.EscapeString(m.Phone) + "</a><br>")
	}
	if opts.TooltipShowWebLink && m.WebLink != "" {
		link := html.EscapeString(m.WebLink)
		b.WriteString(`<a href="` + link + `" target="_blank" rel="noopener">` + link + "</a><br>")
	}

	if b.Len() == len(infoWindowOpen) {
		return ""
	}
	b.WriteString("</div>")
	return b.String()
}
