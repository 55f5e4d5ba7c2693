package core

import (
	"context"
	"path"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
)

// ListMarkers returns the ordered markers of a map. A map without markers
// yields an empty slice.
func (s *Service) ListMarkers(ctx context.Context, mapID string) ([]Marker, error) {
	if err := ValidateMapID(mapID); err != nil {
		return nil, err
	}
	markers, _, err := s.loadMarkers(ctx, mapID)
	return markers, err
}

// GetOptions returns the saved options of a map, or the defaults when the
// map was never configured.
func (s *Service) GetOptions(ctx context.Context, mapID string) (MapOptions, error) {
	if err := ValidateMapID(mapID); err != nil {
		return MapOptions{}, err
	}
	opts, ok, err := s.store.GetOptions(ctx, mapID)
	if err != nil {
		return MapOptions{}, &PersistenceError{Op: "read", MapID: mapID, Err: err}
	}
	if !ok {
		return DefaultMapOptions(), nil
	}
	return opts, nil
}

// ExportMarkers serializes every marker of a map. Maps without markers fail
// with ErrNoMarkers. When an archiver is configured the file is also stored
// under exports/<map>/<file>; archive failures are logged only.
func (s *Service) ExportMarkers(ctx context.Context, mapID string, format ExportFormat) (*ExportResult, error) {
	if err := ValidateMapID(mapID); err != nil {
		return nil, err
	}
	markers, err := s.ListMarkers(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if len(markers) == 0 {
		return nil, ErrNoMarkers
	}

	body, err := EncodeExport(mapID, markers, format)
	if err != nil {
		return nil, err
	}

	res := &ExportResult{
		FileName:    ExportFileName(mapID, format, s.now()),
		ContentType: format.ContentType(),
		Body:        body,
		Count:       len(markers),
	}

	logger := logging.WithFields(ctx, "map_id", mapID, "format", format, "markers", res.Count)
	if s.archiver != nil {
		key := path.Join("exports", mapID, res.FileName)
		if err := s.archiver.Archive(ctx, key, res.ContentType, body); err != nil {
			logger.Warn("failed to archive export", "key", key, "error", err)
		}
	}
	logger.Info("markers exported")

	return res, nil
}

// RenderMap adds one instance of a map to the page collector and returns the
// container element the renderer draws into.
func (s *Service) RenderMap(ctx context.Context, page *PageCollector, mapID string, overrides Overrides) (string, error) {
	if s.mapsAPIKey == "" {
		return "", ErrMissingAPIKey
	}
	opts, err := s.GetOptions(ctx, mapID)
	if err != nil {
		return "", err
	}
	markers, err := s.ListMarkers(ctx, mapID)
	if err != nil {
		return "", err
	}

	opts = overrides.Apply(opts)
	containerID := page.AddMap(mapID, opts, markers)
	return RenderContainer(containerID, opts), nil
}
