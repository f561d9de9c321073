package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/orian/docpad/models"
)

// maxUploadMemory bounds the multipart form kept in memory per request.
const maxUploadMemory = 32 << 20

// defaultMaxUploadBytes bounds a whole upload request body.
const defaultMaxUploadBytes = 64 << 20

// Server handles HTTP requests on top of the annotation store.
type Server struct {
	store          models.Store
	executor       *ExportExecutor
	maxUploadBytes int64
}

func NewServer(s models.Store, executor *ExportExecutor) *Server {
	return &Server{
		store:          s,
		executor:       executor,
		maxUploadBytes: defaultMaxUploadBytes,
	}
}

// WithUploadLimit sets the largest accepted upload request body. Values
// below one keep the default.
func (s *Server) WithUploadLimit(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// Router builds the chi router with the API routes and the static UI.
func (s *Server) Router(staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/versions", s.handleListVersions)
		r.Post("/versions", s.handleEnsureVersion)

		r.Route("/versions/{versionId}", func(r chi.Router) {
			r.Get("/", s.handleGetVersion)
			r.Post("/images", s.handleAppendImages)
			r.Post("/files", s.handleAppendFiles)
			r.Post("/{kind}", s.handleAppend)
			r.Put("/interpreter", s.handleSetInterpreter)
		})

		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/export/formats", s.handleExportFormats)
		r.Get("/export", s.handleExport)
	})

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}

func (s *Server) handleListVersions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListVersions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleEnsureVersion(w http.ResponseWriter, r *http.Request) {
	var req VersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.EnsureVersion(req.Version); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": req.Version})
}

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	versionID, ok := versionParam(w, r)
	if !ok {
		return
	}

	snap, err := s.store.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	version, found := snap.Lookup(versionID)
	if !found {
		err := fmt.Errorf("%w: %s", models.ErrVersionNotFound, versionID)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// handleAppend appends a link, text, code snippet or terminal log. The
// collection is taken from the last path segment. Images and files have
// their own upload routes.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	versionID, ok := versionParam(w, r)
	if !ok {
		return
	}
	kind, ok := models.ParseAnnotationKind(chi.URLParam(r, "kind"))
	if !ok || kind == models.KindImage || kind == models.KindFile {
		http.NotFound(w, r)
		return
	}

	var req AnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Value == nil {
		http.Error(w, "value required", http.StatusBadRequest)
		return
	}

	if err := appendAnnotation(s.store, versionID, kind, *req.Value); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Debug("annotation appended", "version", versionID, "kind", kind)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetInterpreter(w http.ResponseWriter, r *http.Request) {
	versionID, ok := versionParam(w, r)
	if !ok {
		return
	}

	var req InterpreterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	createdAt := time.Now()
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}

	if err := s.store.SetInterpreterInfo(versionID, req.Version, createdAt); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAppendImages(w http.ResponseWriter, r *http.Request) {
	versionID, ok := versionParam(w, r)
	if !ok {
		return
	}
	parts, ok := s.readUploads(w, r, "images")
	if !ok {
		return
	}

	uploads := make([]models.ImageUpload, 0, len(parts))
	for _, p := range parts {
		uploads = append(uploads, models.ImageUpload{Name: p.name, Data: p.data})
	}
	results := appendImages(s.store, versionID, uploads)
	writeJSON(w, uploadStatus(results), results)
}

func (s *Server) handleAppendFiles(w http.ResponseWriter, r *http.Request) {
	versionID, ok := versionParam(w, r)
	if !ok {
		return
	}
	parts, ok := s.readUploads(w, r, "files")
	if !ok {
		return
	}

	uploads := make([]models.FileUpload, 0, len(parts))
	for _, p := range parts {
		uploads = append(uploads, models.FileUpload{Name: p.name, Data: p.data})
	}
	results := appendFiles(s.store, versionID, uploads)
	writeJSON(w, uploadStatus(results), results)
}

type uploadPart struct {
	name string
	data []byte
}

// readUploads reads every file of the multipart field. The request body is
// capped at s.maxUploadBytes; a larger body is answered with 413.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request, field string) ([]uploadPart, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		http.Error(w, fmt.Sprintf("no files in field %q", field), http.StatusBadRequest)
		return nil, false
	}

	parts := make([]uploadPart, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
		parts = append(parts, uploadPart{name: fh.Filename, data: data})
	}
	return parts, true
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleExportFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.executor.Configs())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := models.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeExportError(w, err)
		return
	}
	sel := models.ParseSelector(r.URL.Query().Get("version"))

	artifact, err := s.executor.Execute(r.Context(), format, sel)
	if err != nil {
		writeExportError(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		slog.Warn("failed to write export response", "error", err)
	}
}

// writeExportError reports an export failure as {"level","error"} JSON.
func writeExportError(w http.ResponseWriter, err error) {
	status, warning := exportErrorStatus(err)
	level := "error"
	if warning {
		level = "warning"
	}
	writeJSON(w, status, map[string]string{"level": level, "error": err.Error()})
}

func versionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	versionID, err := url.PathUnescape(chi.URLParam(r, "versionId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return versionID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
