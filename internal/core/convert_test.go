package core

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple string unchanged",
			input: "Main Office",
			want:  "Main Office",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "surrounded by whitespace",
			input: "  40.7128  ",
			want:  "40.7128",
		},
		{
			name:  "Excel formula with quotes",
			input: `="-74.0060"`,
			want:  "-74.0060",
		},
		{
			name:  "excel formula with whitespace",
			input: `  ="555-0100"  `,
			want:  "555-0100",
		},
		{
			name:  "bare equals sign kept",
			input: "=SUM(A1)",
			want:  "=SUM(A1)",
		},
		{
			name:  "only formula quotes",
			input: `="`,
			want:  `="`,
		},
		{
			name:  "empty formula",
			input: `=""`,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCell(tt.input))
		})
	}
}

// ----------------------------------------------------------------------------
// MakeHeaderIndex Tests
// ----------------------------------------------------------------------------

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int // key -> expected index
	}{
		{
			name:   "simple headers",
			header: []string{"Title", "Latitude", "Longitude"},
			checks: map[string]int{
				"title":     0,
				"latitude":  1,
				"longitude": 2,
			},
		},
		{
			name:   "case insensitive lookup",
			header: []string{"TITLE", "Lat", "lNg"},
			checks: map[string]int{
				"title": 0,
				"lat":   1,
				"lng":   2,
			},
		},
		{
			name:   "spaces become underscores",
			header: []string{"  Web Link ", "Marker Image"},
			checks: map[string]int{
				"web_link":     0,
				"marker_image": 1,
			},
		},
		{
			name:   "headers with Excel formula",
			header: []string{`="Title"`, `="Phone"`},
			checks: map[string]int{
				"title": 0,
				"phone": 1,
			},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)

			for key, wantPos := range tt.checks {
				gotPos, ok := idx[key]
				if assert.True(t, ok, "%q not indexed", key) {
					assert.Equal(t, wantPos, gotPos, "index of %q", key)
				}
			}
		})
	}
}

// TestMakeHeaderIndex_DuplicateHeaders verifies behavior with duplicate column names
func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	// When duplicates exist, the first occurrence wins
	header := []string{"Lat", "Title", "lat", ""}
	idx := MakeHeaderIndex(header)

	assert.Equal(t, 0, idx["lat"])
	assert.Equal(t, 1, idx["title"])
	assert.NotContains(t, idx, "", "blank header indexed")
}

func TestFormatCoordinate(t *testing.T) {
	values := []float64{0, 40.7128, -74.006, 89.99999999999, -180, 1e-7}
	for _, v := range values {
		s := FormatCoordinate(v)
		got, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err, "FormatCoordinate(%v) = %q", v, s)
		assert.Equal(t, v, got, "FormatCoordinate(%v) = %q", v, s)
	}

	assert.Equal(t, "-74.006", FormatCoordinate(-74.006))
}

func TestIsEmptyRow(t *testing.T) {
	tests := []struct {
		row  []string
		want bool
	}{
		{nil, true},
		{[]string{"", " ", "\t"}, true},
		{[]string{"", "x"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isEmptyRow(tt.row), "isEmptyRow(%q)", tt.row)
	}
}
