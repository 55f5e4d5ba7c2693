package core

import (
	"context"
	"slices"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
	"github.com/samber/lo"
)

// AddMarker validates raw and appends it to the map's marker list.
// A supplied id that is already taken is replaced by a generated one.
func (s *Service) AddMarker(ctx context.Context, mapID string, raw RawMarker) (Marker, error) {
	if err := ValidateMapID(mapID); err != nil {
		return Marker{}, err
	}
	m, err := Validate(raw, ModeCreate, "")
	if err != nil {
		return Marker{}, err
	}

	_, rev, err := s.mutate(ctx, mapID, func(markers []Marker) ([]Marker, error) {
		if lo.ContainsBy(markers, func(x Marker) bool { return x.ID == m.ID }) {
			m.ID = NewMarkerID()
		}
		return append(markers, m), nil
	})
	if err != nil {
		return Marker{}, err
	}

	logging.FromContext(ctx).Info("marker added", "map_id", mapID, "marker_id", m.ID)
	s.publish(ctx, EventMarkerAdded, mapID, rev, m.ID)
	return m, nil
}

// EditMarker replaces every field of the marker with the given id.
// The id is kept regardless of the payload's own id.
func (s *Service) EditMarker(ctx context.Context, mapID, id string, raw RawMarker) (Marker, error) {
	if err := ValidateMapID(mapID); err != nil {
		return Marker{}, err
	}
	if id == "" {
		return Marker{}, ErrInvalidMarkerID
	}
	m, err := Validate(raw, ModeEdit, id)
	if err != nil {
		return Marker{}, err
	}

	_, rev, err := s.mutate(ctx, mapID, func(markers []Marker) ([]Marker, error) {
		_, idx, ok := lo.FindIndexOf(markers, func(x Marker) bool { return x.ID == id })
		if !ok {
			return nil, &MarkerNotFoundError{Op: "edit", ID: id}
		}
		markers[idx] = m
		return markers, nil
	})
	if err != nil {
		return Marker{}, err
	}

	logging.FromContext(ctx).Info("marker updated", "map_id", mapID, "marker_id", id)
	s.publish(ctx, EventMarkerEdited, mapID, rev, id)
	return m, nil
}

// DeleteMarker removes the marker with the given id. Deleting an id that does
// not exist fails with ErrNotFound.
func (s *Service) DeleteMarker(ctx context.Context, mapID, id string) error {
	if err := ValidateMapID(mapID); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidMarkerID
	}

	_, rev, err := s.mutate(ctx, mapID, func(markers []Marker) ([]Marker, error) {
		_, idx, ok := lo.FindIndexOf(markers, func(x Marker) bool { return x.ID == id })
		if !ok {
			return nil, &MarkerNotFoundError{Op: "delete", ID: id}
		}
		return slices.Delete(markers, idx, idx+1), nil
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("marker deleted", "map_id", mapID, "marker_id", id)
	s.publish(ctx, EventMarkerDeleted, mapID, rev, id)
	return nil
}

// BulkAddMarkers appends already validated markers in order, in one write.
func (s *Service) BulkAddMarkers(ctx context.Context, mapID string, markers []Marker) error {
	_, err := s.bulkAdd(ctx, mapID, markers)
	return err
}

func (s *Service) bulkAdd(ctx context.Context, mapID string, batch []Marker) (Revision, error) {
	if err := ValidateMapID(mapID); err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	_, rev, err := s.mutate(ctx, mapID, func(markers []Marker) ([]Marker, error) {
		return append(markers, batch...), nil
	})
	if err != nil {
		return 0, err
	}
	return rev, nil
}

// SaveOptions recomputes all options of a map from a submitted form and stores them.
func (s *Service) SaveOptions(ctx context.Context, mapID string, form map[string]string) (MapOptions, error) {
	if err := ValidateMapID(mapID); err != nil {
		return MapOptions{}, err
	}

	opts := OptionsFromForm(form)
	if err := s.store.SetOptions(ctx, mapID, opts); err != nil {
		return MapOptions{}, &PersistenceError{Op: "write", MapID: mapID, Err: err}
	}

	logging.FromContext(ctx).Info("map options saved", "map_id", mapID)
	s.publish(ctx, EventOptionsSaved, mapID, 0)
	return opts, nil
}
