package core

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/logging"
	"github.com/samber/lo"
)

// sniffLen is the number of leading bytes used for content sniffing.
const sniffLen = 512

// ImportCSV parses an uploaded CSV file and appends its valid rows to the map.
//
// The file type and header are checked before any row is processed, so
// UnsupportedFileType and MissingRequiredColumns leave the map untouched.
// Rows failing validation are skipped and reported; they never abort the batch.
//
// Returns ErrTooManyImports if the concurrent import limit is reached and
// no slot becomes available within the wait period.
func (s *Service) ImportCSV(ctx context.Context, mapID string, req ImportRequest) (*ImportResult, error) {
	if err := ValidateMapID(mapID); err != nil {
		return nil, err
	}
	if req.Size > s.maxImportSize || int64(len(req.Body)) > s.maxImportSize {
		return nil, ErrFileTooLarge
	}
	if len(req.Body) == 0 {
		return nil, ErrEmptyFile
	}

	head := req.Body[:min(len(req.Body), sniffLen)]
	if !IsCSVContentType(req.ContentType, req.FileName, head) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, req.ContentType)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	logger := logging.WithFields(ctx, "map_id", mapID, "file", req.FileName)

	decoded, err := DecodeMarkers(LimitReader(bytes.NewReader(req.Body), s.maxImportSize))
	if err != nil {
		logger.Warn("csv import rejected", "error", err)
		return nil, err
	}

	rev, err := s.bulkAdd(ctx, mapID, decoded.Markers)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Imported: decoded.Markers,
		Skipped:  decoded.SkipMessages(),
	}
	if result.Imported == nil {
		result.Imported = []Marker{}
	}
	result.Message = ImportSummary(len(result.Imported), result.Skipped)

	logger.Info("csv import completed",
		"imported", len(result.Imported),
		"skipped", len(result.Skipped),
	)
	if len(result.Imported) > 0 {
		ids := lo.Map(result.Imported, func(m Marker, _ int) string { return m.ID })
		s.publish(ctx, EventMarkersImported, mapID, rev, ids...)
	}

	return result, nil
}

// ImportSummary returns the user-facing summary of an import.
func ImportSummary(imported int, skipped []string) string {
	msg := fmt.Sprintf("%d markers imported successfully.", imported)
	if imported == 1 {
		msg = "1 marker imported successfully."
	}
	if len(skipped) > 0 {
		msg += " Some rows were skipped:\n" + strings.Join(skipped, "\n")
	}
	return msg
}
