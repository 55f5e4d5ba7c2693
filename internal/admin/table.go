// Package admin implements the marker table of the map editor: one row per
// marker, each with its own edit/save/delete lifecycle, backed by the
// marker API.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/samber/lo"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// row's current state, such as saving a row that is not being edited.
	ErrInvalidTransition = errors.New("invalid row transition")

	// ErrRowBusy is returned while a save or delete of the row is in flight.
	ErrRowBusy = errors.New("row has a request in flight")

	// ErrUnknownRow is returned for row keys that are not in the table.
	ErrUnknownRow = errors.New("unknown row")

	// ErrUnknownField is returned by SetField for names outside Fields.
	ErrUnknownField = errors.New("unknown field")
)

// State is the lifecycle state of a table row.
type State int

const (
	Readonly State = iota
	Editing
	Saving
	Deleting
	Removed
)

func (s State) String() string {
	switch s {
	case Readonly:
		return "readonly"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Deleting:
		return "deleting"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// API is the marker endpoint surface the table drives.
type API interface {
	List(ctx context.Context, mapID string) ([]core.Marker, error)
	Create(ctx context.Context, mapID string, raw core.RawMarker) (core.Marker, error)
	Update(ctx context.Context, mapID, markerID string, raw core.RawMarker) (core.Marker, error)
	Delete(ctx context.Context, mapID, markerID string) error
	Import(ctx context.Context, mapID, fileName string, body []byte) (*core.ImportResult, error)
}

// Fields are the editable values of a row, as typed into the table inputs.
// A nil image means "use the map default", a pointer to "" means no image.
type Fields struct {
	Title        string
	Address      string
	Latitude     string
	Longitude    string
	Phone        string
	WebLink      string
	MarkerImage  *string
	TooltipImage *string
}

// FieldsFromMarker renders a stored marker as editable values.
func FieldsFromMarker(m core.Marker) Fields {
	return Fields{
		Title:        m.Title,
		Address:      m.Address,
		Latitude:     strconv.FormatFloat(m.Latitude, 'f', -1, 64),
		Longitude:    strconv.FormatFloat(m.Longitude, 'f', -1, 64),
		Phone:        m.Phone,
		WebLink:      m.WebLink,
		MarkerImage:  clonePtr(m.MarkerImage),
		TooltipImage: clonePtr(m.TooltipImage),
	}
}

// Raw converts the values into the request payload of a save.
func (f Fields) Raw() core.RawMarker {
	raw := core.RawMarker{
		"title":     f.Title,
		"address":   f.Address,
		"latitude":  f.Latitude,
		"longitude": f.Longitude,
		"phone":     f.Phone,
		"web_link":  f.WebLink,
	}
	if f.MarkerImage != nil {
		raw["marker_image"] = *f.MarkerImage
	}
	if f.TooltipImage != nil {
		raw["tooltip_image"] = *f.TooltipImage
	}
	return raw
}

func (f Fields) clone() Fields {
	f.MarkerImage = clonePtr(f.MarkerImage)
	f.TooltipImage = clonePtr(f.TooltipImage)
	return f
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Row is one marker of the table.
type Row struct {
	Key      int    // local key, stable for the lifetime of the table
	MarkerID string // empty until a new row is saved
	State    State
	New      bool // never saved; Save creates instead of updating
	Fields   Fields
	Err      error // last failure of this row, cleared by the next action

	snapshot Fields
}

// Table holds the rows of one map.
type Table struct {
	mu      sync.Mutex
	api     API
	mapID   string
	rows    []*Row
	nextKey int
}

// NewTable creates an empty table for mapID.
func NewTable(api API, mapID string) *Table {
	return &Table{api: api, mapID: mapID, nextKey: 1}
}

// MapID returns the map the table edits.
func (t *Table) MapID() string { return t.mapID }

// LoadRows replaces all rows with readonly rows for markers.
func (t *Table) LoadRows(markers []core.Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows = make([]*Row, 0, len(markers))
	for _, m := range markers {
		t.appendReadonly(m)
	}
}

// Refresh reloads the rows from the API.
func (t *Table) Refresh(ctx context.Context) error {
	markers, err := t.api.List(ctx, t.mapID)
	if err != nil {
		return fmt.Errorf("load markers of map %s: %w", t.mapID, err)
	}
	t.LoadRows(markers)
	return nil
}

func (t *Table) appendReadonly(m core.Marker) *Row {
	row := &Row{
		Key:      t.nextKey,
		MarkerID: m.ID,
		State:    Readonly,
		Fields:   FieldsFromMarker(m),
	}
	t.nextKey++
	t.rows = append(t.rows, row)
	return row
}

// AddRow appends a new row in the editing state, prefilled with defaults,
// and returns its key.
func (t *Table) AddRow(defaults Fields) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	row := &Row{
		Key:    t.nextKey,
		State:  Editing,
		New:    true,
		Fields: defaults.clone(),
	}
	t.nextKey++
	t.rows = append(t.rows, row)
	return row.Key
}

// Edit switches a readonly row into editing and remembers its values for Cancel.
func (t *Table) Edit(key int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.find(key)
	if err != nil {
		return err
	}
	if err := checkIdle(row, Readonly); err != nil {
		return err
	}
	row.snapshot = row.Fields.clone()
	row.State = Editing
	row.Err = nil
	return nil
}

// SetField changes one value of an editing row. Names are the marker field
// names used by the API, such as "latitude" or "marker_image".
func (t *Table) SetField(key int, name, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.find(key)
	if err != nil {
		return err
	}
	if err := checkIdle(row, Editing); err != nil {
		return err
	}

	f := &row.Fields
	switch name {
	case "title":
		f.Title = value
	case "address":
		f.Address = value
	case "latitude":
		f.Latitude = value
	case "longitude":
		f.Longitude = value
	case "phone":
		f.Phone = value
	case "web_link":
		f.WebLink = value
	case "marker_image":
		f.MarkerImage = &value
	case "tooltip_image":
		f.TooltipImage = &value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return nil
}

// Cancel leaves editing. Existing rows get their previous values back,
// new rows are discarded.
func (t *Table) Cancel(key int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.find(key)
	if err != nil {
		return err
	}
	if err := checkIdle(row, Editing); err != nil {
		return err
	}

	row.Err = nil
	if row.New {
		row.State = Removed
		t.drop(row)
		return nil
	}
	row.Fields = row.snapshot
	row.snapshot = Fields{}
	row.State = Readonly
	return nil
}

// Save sends an editing row to the API: a create for new rows, an update
// otherwise. Coordinates are checked locally first. On failure the row
// stays editable with the attempted values.
func (t *Table) Save(ctx context.Context, key int) error {
	t.mu.Lock()
	row, err := t.find(key)
	if err == nil {
		err = checkIdle(row, Editing)
	}
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if err := core.ValidateCoordinates(row.Fields.Latitude, row.Fields.Longitude); err != nil {
		row.Err = err
		t.mu.Unlock()
		return err
	}
	row.State = Saving
	row.Err = nil
	isNew, markerID, raw := row.New, row.MarkerID, row.Fields.Raw()
	t.mu.Unlock()

	var saved core.Marker
	if isNew {
		saved, err = t.api.Create(ctx, t.mapID, raw)
	} else {
		saved, err = t.api.Update(ctx, t.mapID, markerID, raw)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		row.State = Editing
		row.Err = err
		logging.FromContext(ctx).Warn("marker save failed",
			"map_id", t.mapID,
			"marker_id", markerID,
			"error", err,
		)
		return err
	}

	row.State = Readonly
	row.New = false
	row.MarkerID = saved.ID
	row.Fields = FieldsFromMarker(saved)
	row.snapshot = Fields{}
	return nil
}

// Delete removes a readonly row through the API. On success the row leaves
// the table; on failure it stays readonly.
func (t *Table) Delete(ctx context.Context, key int) error {
	t.mu.Lock()
	row, err := t.find(key)
	if err == nil {
		err = checkIdle(row, Readonly)
	}
	if err != nil {
		t.mu.Unlock()
		return err
	}
	row.State = Deleting
	row.Err = nil
	markerID := row.MarkerID
	t.mu.Unlock()

	err = t.api.Delete(ctx, t.mapID, markerID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		row.State = Readonly
		row.Err = err
		logging.FromContext(ctx).Warn("marker delete failed",
			"map_id", t.mapID,
			"marker_id", markerID,
			"error", err,
		)
		return err
	}
	row.State = Removed
	t.drop(row)
	return nil
}

// ImportCSV uploads a CSV file and appends the imported markers as
// readonly rows.
func (t *Table) ImportCSV(ctx context.Context, fileName string, body []byte) (*core.ImportResult, error) {
	res, err := t.api.Import(ctx, t.mapID, fileName, body)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	for _, m := range res.Imported {
		t.appendReadonly(m)
	}
	t.mu.Unlock()

	logging.FromContext(ctx).Info("markers imported",
		"map_id", t.mapID,
		"imported", len(res.Imported),
		"skipped", len(res.Skipped),
	)
	return res, nil
}

// Rows returns copies of the rows in display order.
func (t *Table) Rows() []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	return lo.Map(t.rows, func(r *Row, _ int) Row {
		c := *r
		c.Fields = r.Fields.clone()
		c.snapshot = Fields{}
		return c
	})
}

// Row returns a copy of one row.
func (t *Table) Row(key int) (Row, bool) {
	return lo.Find(t.Rows(), func(r Row) bool { return r.Key == key })
}

// Busy reports whether a save or delete of the row is in flight.
func (t *Table) Busy(key int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.find(key)
	return err == nil && inFlight(row.State)
}

func (t *Table) find(key int) (*Row, error) {
	row, ok := lo.Find(t.rows, func(r *Row) bool { return r.Key == key })
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRow, key)
	}
	return row, nil
}

func (t *Table) drop(row *Row) {
	t.rows = lo.Reject(t.rows, func(r *Row, _ int) bool { return r == row })
}

func inFlight(s State) bool {
	return s == Saving || s == Deleting
}

// checkIdle fails with ErrRowBusy while a request is in flight and with
// ErrInvalidTransition when the row is not in the wanted state.
func checkIdle(row *Row, want State) error {
	if inFlight(row.State) {
		return ErrRowBusy
	}
	if row.State != want {
		return fmt.Errorf("%w: row %d is %s", ErrInvalidTransition, row.Key, row.State)
	}
	return nil
}
