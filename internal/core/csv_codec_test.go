package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		want    ColumnMap
		wantErr error
	}{
		{
			name:   "export header",
			header: ExportHeader,
			want: ColumnMap{
				"title": 0, "address": 1, "latitude": 2, "longitude": 3,
				"phone": 4, "web_link": 5, "marker_image": 6, "tooltip_image": 7,
			},
		},
		{
			name:   "synonyms normalized",
			header: []string{" LAT ", "Lon", "Website", "Image URL"},
			want:   ColumnMap{"latitude": 0, "longitude": 1, "web_link": 2, "marker_image": 3},
		},
		{
			name:   "first synonym wins",
			header: []string{"lat", "latitude", "lng", "longitude"},
			want:   ColumnMap{"latitude": 1, "longitude": 3},
		},
		{
			name:   "first duplicate column wins",
			header: []string{"lat", "lat", "lng"},
			want:   ColumnMap{"latitude": 0, "longitude": 2},
		},
		{
			name:    "missing longitude",
			header:  []string{"title", "lat"},
			wantErr: ErrMissingRequiredColumns,
		},
		{
			name:    "missing both",
			header:  []string{"title", "address"},
			wantErr: ErrMissingRequiredColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColumns(tt.header)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeMarkers_SkipsInvalidRows(t *testing.T) {
	input := strings.Join([]string{
		"title,latitude,longitude",
		"A,1,1",
		"B,2,2",
		"Bad1,north,3",
		"C,3,3",
		"",
		"D,4,4",
		"Bad2,south,5",
		"E,5,5",
	}, "\n")

	res, err := DecodeMarkers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Markers, 5)
	for i, want := range []string{"A", "B", "C", "D", "E"} {
		assert.Equal(t, want, res.Markers[i].Title)
	}

	assert.Equal(t, []string{
		"Skipped row 3: Invalid latitude or longitude (must be numeric).",
		"Skipped row 7: Invalid latitude or longitude (must be numeric).",
	}, res.SkipMessages())
}

func TestDecodeMarkers_RowNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "consecutive blank lines count",
			input: "lat,lng\n1,1\n\n\nx,2\n",
			want:  []string{"Skipped row 4: Invalid latitude or longitude (must be numeric)."},
		},
		{
			name:  "rows of empty cells count",
			input: "lat,lng\n,\n  ,  \nx,2\n",
			want:  []string{"Skipped row 3: Invalid latitude or longitude (must be numeric)."},
		},
		{
			name:  "crlf line endings",
			input: "lat,lng\r\n1,1\r\n\r\nx,2\r\n",
			want:  []string{"Skipped row 3: Invalid latitude or longitude (must be numeric)."},
		},
		{
			name:  "multi-line quoted cell is one row",
			input: "title,lat,lng\n\"Line one\nLine two\",1,1\nBad,x,2\n",
			want:  []string{"Skipped row 2: Invalid latitude or longitude (must be numeric)."},
		},
		{
			name:  "blank lines after the header",
			input: "lat,lng\n\n,5\n",
			want:  []string{"Skipped row 2: Missing latitude or longitude."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeMarkers(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SkipMessages())
		})
	}
}

func TestDecodeMarkers_MissingCoordinateCell(t *testing.T) {
	res, err := DecodeMarkers(strings.NewReader("lat,lng\n,5\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Markers)
	assert.Equal(t, []string{"Skipped row 1: Missing latitude or longitude."}, res.SkipMessages())
}

func TestDecodeMarkers_CoordinatesOutsideWorldBounds(t *testing.T) {
	res, err := DecodeMarkers(strings.NewReader("latitude,longitude\n95,10\n-91,190\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	require.Len(t, res.Markers, 2)
	assert.Equal(t, 95.0, res.Markers[0].Latitude)
	assert.Equal(t, 190.0, res.Markers[1].Longitude)
}

func TestDecodeMarkers_HeaderErrors(t *testing.T) {
	_, err := DecodeMarkers(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = DecodeMarkers(strings.NewReader("title,address\nA,B\n"))
	assert.ErrorIs(t, err, ErrMissingRequiredColumns)
}

func TestDecodeMarkers_BOMAndFreshIDs(t *testing.T) {
	input := "\xEF\xBB\xBFid,latitude,longitude\nmarker_old,1,2\n"
	res, err := DecodeMarkers(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, res.Markers, 1)
	assert.NotEqual(t, "marker_old", res.Markers[0].ID)
}

func TestCSVRoundTrip(t *testing.T) {
	original := []Marker{
		{
			ID: "marker_1", Title: `Café "Central", Vienna`, Address: "Herrengasse 14\nVienna",
			Latitude: 48.2104, Longitude: 16.3657, Phone: "+43 1 533",
			WebLink: "https://cafecentral.wien", MarkerImage: StrPtr("https://cdn.example.com/pin.png"),
			TooltipImage: StrPtr("https://cdn.example.com/tip.jpg"),
		},
		{
			ID: "marker_2", Title: "Plain", Latitude: -33.868820, Longitude: 151.209296,
		},
	}

	body, err := EncodeCSV(original)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body),
		"title,address,latitude,longitude,phone,web_link,marker_image,tooltip_image\n"))

	res, err := DecodeMarkers(strings.NewReader(string(body)))
	require.NoError(t, err)
	require.Empty(t, res.Skipped)
	require.Len(t, res.Markers, len(original))

	for i, got := range res.Markers {
		want := original[i]
		assert.NotEqual(t, want.ID, got.ID, "marker %d kept its id", i)
		got.ID, want.ID = "", ""
		// Address newlines become spaces during sanitization.
		want.Address = strings.ReplaceAll(want.Address, "\n", " ")
		assert.Equal(t, want, got)
	}
}

// A CSV cell cannot tell an explicitly cleared image from an unset one, so
// both come back unset and inherit the map default after a round trip.
func TestCSVRoundTrip_ExplicitEmptyImages(t *testing.T) {
	cleared := Marker{
		ID: "marker_1", Title: "No icon", Latitude: 1, Longitude: 2,
		MarkerImage: StrPtr(""), TooltipImage: StrPtr(""),
	}

	body, err := EncodeCSV([]Marker{cleared})
	require.NoError(t, err)
	assert.Contains(t, string(body), "No icon,,1,2,,,,\n")

	res, err := DecodeMarkers(strings.NewReader(string(body)))
	require.NoError(t, err)
	require.Len(t, res.Markers, 1)
	assert.Nil(t, res.Markers[0].MarkerImage)
	assert.Nil(t, res.Markers[0].TooltipImage)

	opts := DefaultMapOptions()
	opts.DefaultMarkerImage = "https://example.com/default.png"
	assert.Empty(t, ResolveMarkerIcon(cleared, opts, AssetDefaults{}))
	assert.Equal(t, "https://example.com/default.png", ResolveMarkerIcon(res.Markers[0], opts, AssetDefaults{}))
}

func TestIsCSVContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		fileName    string
		head        string
		want        bool
	}{
		{"text/csv", "text/csv", "markers.csv", "a,b", true},
		{"excel csv", "application/vnd.ms-excel", "markers.csv", "a,b", true},
		{"with charset", "text/csv; charset=utf-8", "markers.csv", "a,b", true},
		{"octet stream sniffed text", "application/octet-stream", "markers.csv", "lat,lng\n1,2", true},
		{"empty type sniffed text", "", "markers", "lat,lng\n1,2", true},
		{"octet stream binary", "application/octet-stream", "markers.csv", "\x89PNG\r\n\x1a\n\x00\x00", false},
		{"image type", "image/png", "markers.csv", "a,b", false},
		{"wrong extension", "text/csv", "markers.xlsx", "a,b", false},
		{"pdf", "application/pdf", "markers.pdf", "%PDF-1.4", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCSVContentType(tt.contentType, tt.fileName, []byte(tt.head)))
		})
	}
}
