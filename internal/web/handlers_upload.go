package web

import (
	"errors"
	"net/http"

	"github.com/dev-muradkhan/google-map-multi-marker/internal/core"
)

// multipartOverhead allows for the multipart framing around the file.
const multipartOverhead = 64 << 10

// handleImport appends the markers of an uploaded CSV file (form field
// csv_file) to the map. Rows that fail validation are skipped and listed in
// the response; the batch still succeeds.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mapID, r := mapScope(r)

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, core.ErrFileTooLarge)
			return
		}
		respondError(w, r, errNoFile)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("csv_file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		respondError(w, r, core.ErrFileTooLarge)
		return
	}

	body, err := readLimited(file, maxSize)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result, err := s.service.ImportCSV(r.Context(), mapID, core.ImportRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        body,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, result)
}
