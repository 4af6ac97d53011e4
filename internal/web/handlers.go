package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/JonMunkholm/instructcsv/internal/core"
	"github.com/JonMunkholm/instructcsv/internal/logging"
)

// Response headers describing a conversion.
const (
	headerRunID          = "X-Run-ID"
	headerRowsRead       = "X-Rows-Read"
	headerRecordsWritten = "X-Records-Written"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := IndexPage(s.cfg.Upload.MaxFileSize).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render index", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, struct {
		Status      string        `json:"status"`
		Conversions limiterStatus `json:"conversions"`
	}{"ok", s.limiter.status()})
}

// handleConvert converts an uploaded file and returns the result as an
// attachment in the same format.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(w, r, fmt.Errorf("parse form: %w", err), status)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("no file provided: %w", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: read upload: %w", core.ErrIO, err), http.StatusInternalServerError)
		return
	}

	if err := s.limiter.acquire(r.Context()); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer s.limiter.release()

	var out bytes.Buffer
	report, err := s.converter.ConvertData(r.Context(), header.Filename, data, &out)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	name := resultName(header.Filename)
	w.Header().Set("Content-Type", contentType(core.FormatFor(name)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set(headerRunID, report.RunID)
	w.Header().Set(headerRowsRead, strconv.Itoa(report.RowsRead))
	w.Header().Set(headerRecordsWritten, strconv.Itoa(report.RecordsWritten))
	if _, err := out.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("send conversion result", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrParse), errors.Is(err, core.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// resultName derives the download name, e.g. posts.csv becomes
// posts.instruct.csv.
func resultName(upload string) string {
	base := path.Base(strings.ReplaceAll(upload, "\\", "/"))
	if base == "." || base == "/" {
		base = "upload.csv"
	}
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext) + ".instruct" + ext
}

func contentType(f core.Format) string {
	switch f {
	case core.FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case core.FormatTSV:
		return "text/tab-separated-values; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}
