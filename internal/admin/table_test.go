package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// fakeAPI validates payloads with the core validator and keeps markers in
// memory. block, when set, holds every mutating call until it is closed.
type fakeAPI struct {
	mu      sync.Mutex
	markers []core.Marker
	err     error
	block   chan struct{}
	entered chan struct{}
	creates int
	updates int
}

func (f *fakeAPI) wait() error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeAPI) List(_ context.Context, _ string) ([]core.Marker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Marker(nil), f.markers...), f.err
}

func (f *fakeAPI) Create(_ context.Context, _ string, raw core.RawMarker) (core.Marker, error) {
	if err := f.wait(); err != nil {
		return core.Marker{}, err
	}
	m, err := core.Validate(raw, core.ModeCreate, "")
	if err != nil {
		return core.Marker{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.markers = append(f.markers, m)
	return m, nil
}

func (f *fakeAPI) Update(_ context.Context, _, id string, raw core.RawMarker) (core.Marker, error) {
	if err := f.wait(); err != nil {
		return core.Marker{}, err
	}
	m, err := core.Validate(raw, core.ModeEdit, id)
	if err != nil {
		return core.Marker{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	for i := range f.markers {
		if f.markers[i].ID == id {
			f.markers[i] = m
			return m, nil
		}
	}
	return core.Marker{}, &core.MarkerNotFoundError{Op: "edit", ID: id}
}

func (f *fakeAPI) Delete(_ context.Context, _, id string) error {
	if err := f.wait(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.markers {
		if f.markers[i].ID == id {
			f.markers = append(f.markers[:i], f.markers[i+1:]...)
			return nil
		}
	}
	return &core.MarkerNotFoundError{Op: "delete", ID: id}
}

func (f *fakeAPI) Import(_ context.Context, _, _ string, body []byte) (*core.ImportResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := &core.ImportResult{Message: fmt.Sprintf("%d bytes", len(body))}
	for i := 0; i < 2; i++ {
		m := core.Marker{ID: core.NewMarkerID(), Title: fmt.Sprintf("Imported %d", i), Latitude: float64(i), Longitude: 1}
		res.Imported = append(res.Imported, m)
	}
	f.mu.Lock()
	f.markers = append(f.markers, res.Imported...)
	f.mu.Unlock()
	return res, nil
}

func seededTable(t *testing.T) (*Table, *fakeAPI) {
	t.Helper()
	img := "https://img.example.com/a.png"
	api := &fakeAPI{markers: []core.Marker{
		{ID: "marker_a", Title: "A", Latitude: 1.5, Longitude: 2, MarkerImage: &img},
		{ID: "marker_b", Title: "B", Latitude: -3, Longitude: 4.25},
	}}
	tbl := NewTable(api, "12")
	require.NoError(t, tbl.Refresh(context.Background()))
	return tbl, api
}

func TestLoadRows(t *testing.T) {
	tbl, _ := seededTable(t)

	rows := tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "marker_a", rows[0].MarkerID)
	assert.Equal(t, Readonly, rows[0].State)
	assert.False(t, rows[0].New)
	assert.Equal(t, "1.5", rows[0].Fields.Latitude)
	assert.Equal(t, "4.25", rows[1].Fields.Longitude)
	assert.Nil(t, rows[1].Fields.MarkerImage)
	assert.NotEqual(t, rows[0].Key, rows[1].Key)
}

func TestEditCancelRestoresSnapshot(t *testing.T) {
	tbl, api := seededTable(t)
	key := tbl.Rows()[0].Key

	require.NoError(t, tbl.Edit(key))
	require.NoError(t, tbl.SetField(key, "title", "Changed"))
	require.NoError(t, tbl.SetField(key, "marker_image", ""))
	require.NoError(t, tbl.Cancel(key))

	row, ok := tbl.Row(key)
	require.True(t, ok)
	assert.Equal(t, Readonly, row.State)
	assert.Equal(t, "A", row.Fields.Title)
	require.NotNil(t, row.Fields.MarkerImage)
	assert.Equal(t, "https://img.example.com/a.png", *row.Fields.MarkerImage)
	assert.Zero(t, api.updates)
}

func TestSaveExistingRow(t *testing.T) {
	tbl, api := seededTable(t)
	key := tbl.Rows()[1].Key

	require.NoError(t, tbl.Edit(key))
	require.NoError(t, tbl.SetField(key, "title", "<i>Shop</i>"))
	require.NoError(t, tbl.Save(context.Background(), key))

	row, _ := tbl.Row(key)
	assert.Equal(t, Readonly, row.State)
	assert.Equal(t, "Shop", row.Fields.Title, "row shows the stored value")
	assert.Equal(t, "marker_b", row.MarkerID)
	assert.Equal(t, 1, api.updates)
	assert.Zero(t, api.creates)
}

func TestAddRowSave(t *testing.T) {
	tbl, api := seededTable(t)
	def := "https://img.example.com/default.png"
	key := tbl.AddRow(Fields{MarkerImage: &def})

	row, _ := tbl.Row(key)
	assert.Equal(t, Editing, row.State)
	assert.True(t, row.New)
	assert.Empty(t, row.MarkerID)

	require.NoError(t, tbl.SetField(key, "latitude", "40.0"))
	require.NoError(t, tbl.SetField(key, "longitude", "-75.0"))
	require.NoError(t, tbl.SetField(key, "title", "Shop"))
	require.NoError(t, tbl.Save(context.Background(), key))

	row, _ = tbl.Row(key)
	assert.Equal(t, Readonly, row.State)
	assert.False(t, row.New)
	assert.NotEmpty(t, row.MarkerID)
	assert.Equal(t, 1, api.creates)

	// A saved row is no longer new: the next save is an update.
	require.NoError(t, tbl.Edit(key))
	require.NoError(t, tbl.Save(context.Background(), key))
	assert.Equal(t, 1, api.creates)
	assert.Equal(t, 1, api.updates)
}

func TestCancelNewRowDiscardsIt(t *testing.T) {
	tbl, _ := seededTable(t)
	key := tbl.AddRow(Fields{})
	require.Len(t, tbl.Rows(), 3)

	require.NoError(t, tbl.Cancel(key))
	assert.Len(t, tbl.Rows(), 2)
	_, ok := tbl.Row(key)
	assert.False(t, ok)
}

func TestSaveClientSideValidation(t *testing.T) {
	tbl, api := seededTable(t)
	key := tbl.AddRow(Fields{Latitude: "north", Longitude: "1"})

	err := tbl.Save(context.Background(), key)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, core.InvalidCoordinates, verr.Kind)

	row, _ := tbl.Row(key)
	assert.Equal(t, Editing, row.State)
	assert.Equal(t, "north", row.Fields.Latitude)
	assert.Error(t, row.Err)
	assert.Zero(t, api.creates, "no request for obviously invalid input")
}

func TestSaveFailureKeepsAttemptedData(t *testing.T) {
	tbl, api := seededTable(t)
	key := tbl.Rows()[0].Key
	require.NoError(t, tbl.Edit(key))
	require.NoError(t, tbl.SetField(key, "phone", "555-0100"))

	api.err = &core.PersistenceError{Op: "write", MapID: "12", Err: errors.New("disk full")}
	err := tbl.Save(context.Background(), key)
	require.Error(t, err)

	row, _ := tbl.Row(key)
	assert.Equal(t, Editing, row.State)
	assert.Equal(t, "555-0100", row.Fields.Phone)
	assert.Equal(t, err, row.Err)

	// Retry after the store recovers.
	api.err = nil
	require.NoError(t, tbl.Save(context.Background(), key))
	row, _ = tbl.Row(key)
	assert.Equal(t, Readonly, row.State)
	assert.Nil(t, row.Err)
	assert.Equal(t, "555-0100", row.Fields.Phone)
}

func TestDelete(t *testing.T) {
	tbl, api := seededTable(t)
	key := tbl.Rows()[0].Key

	require.NoError(t, tbl.Delete(context.Background(), key))
	rows := tbl.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "marker_b", rows[0].MarkerID)

	// The server no longer has marker_b: the row stays with the error.
	api.markers = nil
	key = rows[0].Key
	err := tbl.Delete(context.Background(), key)
	assert.True(t, errors.Is(err, core.ErrNotFound))
	row, ok := tbl.Row(key)
	require.True(t, ok)
	assert.Equal(t, Readonly, row.State)
}

func TestInvalidTransitions(t *testing.T) {
	tbl, _ := seededTable(t)
	readonly := tbl.Rows()[0].Key
	editing := tbl.AddRow(Fields{})
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"save readonly", func() error { return tbl.Save(ctx, readonly) }, ErrInvalidTransition},
		{"cancel readonly", func() error { return tbl.Cancel(readonly) }, ErrInvalidTransition},
		{"set field readonly", func() error { return tbl.SetField(readonly, "title", "x") }, ErrInvalidTransition},
		{"edit editing", func() error { return tbl.Edit(editing) }, ErrInvalidTransition},
		{"delete editing", func() error { return tbl.Delete(ctx, editing) }, ErrInvalidTransition},
		{"unknown field", func() error { return tbl.SetField(editing, "color", "red") }, ErrUnknownField},
		{"unknown row", func() error { return tbl.Edit(999) }, ErrUnknownRow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.fn(), tt.want))
		})
	}
}

func TestBusyRowRejectsSecondRequest(t *testing.T) {
	tbl, api := seededTable(t)
	api.block = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	key := tbl.Rows()[0].Key
	other := tbl.Rows()[1].Key

	done := make(chan error, 1)
	go func() { done <- tbl.Delete(context.Background(), key) }()
	<-api.entered

	assert.True(t, tbl.Busy(key))
	assert.False(t, tbl.Busy(other))
	assert.ErrorIs(t, tbl.Delete(context.Background(), key), ErrRowBusy)
	assert.ErrorIs(t, tbl.Edit(key), ErrRowBusy)

	// Other rows stay usable.
	require.NoError(t, tbl.Edit(other))

	row, _ := tbl.Row(key)
	assert.Equal(t, Deleting, row.State)

	close(api.block)
	require.NoError(t, <-done)
	assert.False(t, tbl.Busy(key))
}

func TestImportCSVAppendsRows(t *testing.T) {
	tbl, api := seededTable(t)

	res, err := tbl.ImportCSV(context.Background(), "m.csv", []byte("lat,lng\n0,1\n1,1\n"))
	require.NoError(t, err)
	assert.Len(t, res.Imported, 2)

	rows := tbl.Rows()
	require.Len(t, rows, 4)
	assert.Equal(t, "marker_a", rows[0].MarkerID)
	assert.Equal(t, "Imported 0", rows[2].Fields.Title)
	assert.Equal(t, Readonly, rows[3].State)

	api.err = core.ErrUnsupportedFileType
	_, err = tbl.ImportCSV(context.Background(), "m.png", nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedFileType)
	assert.Len(t, tbl.Rows(), 4)
}
