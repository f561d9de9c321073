package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/orian/docpad/models"
	"github.com/orian/docpad/store"
)

// VersionRequest registers a version without attaching anything to it.
type VersionRequest struct {
	Version string `json:"version"`
}

// AnnotationRequest carries one link, note, code snippet or terminal log.
type AnnotationRequest struct {
	Value *string `json:"value"`
}

// InterpreterRequest records interpreter metadata. CreatedAt defaults to now.
type InterpreterRequest struct {
	Version   string     `json:"version"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UploadResult reports the outcome for one file of a batch upload. Image or
// File is set on success, depending on the endpoint.
type UploadResult struct {
	Name  string           `json:"name"`
	Image *models.ImageRef `json:"image,omitempty"`
	File  *models.FileRef  `json:"file,omitempty"`
	Error string           `json:"error,omitempty"`

	err error
}

// newStore opens the configured store backend.
func newStore(cfg StoreConfig) (models.Store, error) {
	var images *store.ImageIngester
	if cfg.PersistImages {
		images = store.NewImageIngester(cfg.ImageDir)
	} else {
		images = store.NewImageIngester("")
	}

	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryStore(images), nil
	case "duckdb":
		return store.NewDuckDBStore(images)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// appendAnnotation dispatches a string annotation to the store method for kind.
func appendAnnotation(s models.Store, versionID string, kind models.AnnotationKind, value string) error {
	switch kind {
	case models.KindLink:
		return s.AppendLink(versionID, value)
	case models.KindText:
		return s.AppendText(versionID, value)
	case models.KindCode:
		return s.AppendCode(versionID, value)
	case models.KindTerminal:
		return s.AppendTerminalLog(versionID, value)
	}
	return fmt.Errorf("kind %q does not take a text value", kind)
}

// appendImages stores each upload independently; a rejected file does not
// affect the others.
func appendImages(s models.Store, versionID string, uploads []models.ImageUpload) []UploadResult {
	results := make([]UploadResult, 0, len(uploads))
	for _, up := range uploads {
		ref, err := s.AppendImage(versionID, up)
		if err != nil {
			slog.Warn("image rejected", "version", versionID, "name", up.Name, "error", err)
			results = append(results, UploadResult{Name: up.Name, Error: err.Error(), err: err})
			continue
		}
		results = append(results, UploadResult{Name: up.Name, Image: &ref})
	}
	return results
}

// appendFiles stores each attachment independently, like appendImages.
func appendFiles(s models.Store, versionID string, uploads []models.FileUpload) []UploadResult {
	results := make([]UploadResult, 0, len(uploads))
	for _, up := range uploads {
		ref, err := s.AppendFile(versionID, up)
		if err != nil {
			slog.Warn("file rejected", "version", versionID, "name", up.Name, "error", err)
			results = append(results, UploadResult{Name: up.Name, Error: err.Error(), err: err})
			continue
		}
		results = append(results, UploadResult{Name: up.Name, File: &ref})
	}
	return results
}

// getExportConfig returns the config for format. Formats that are missing or
// disabled fail with models.ErrNotImplemented.
func getExportConfig(configs []models.ExportConfig, format models.ExportFormat) (models.ExportConfig, error) {
	for _, config := range configs {
		if config.Format != format {
			continue
		}
		if !config.Enabled {
			return config, fmt.Errorf("%w: %s export is disabled", models.ErrNotImplemented, format)
		}
		return config, nil
	}
	return models.ExportConfig{}, fmt.Errorf("%w: %s", models.ErrNotImplemented, format)
}

// exportErrorStatus maps an export failure to an HTTP status and whether it
// is a warning (user-correctable) rather than an error.
func exportErrorStatus(err error) (status int, warning bool) {
	switch {
	case errors.Is(err, models.ErrEmptySelection):
		return http.StatusUnprocessableEntity, true
	case errors.Is(err, models.ErrNotImplemented):
		return http.StatusNotImplemented, true
	case errors.Is(err, models.ErrRenderFailure):
		return http.StatusInternalServerError, false
	}
	return http.StatusInternalServerError, false
}

// uploadStatus is 200 when at least one upload was stored, otherwise the
// status of the first rejection.
func uploadStatus(results []UploadResult) int {
	for _, r := range results {
		if r.err == nil {
			return http.StatusOK
		}
	}
	if len(results) == 0 {
		return http.StatusBadRequest
	}
	return uploadErrorStatus(results[0].err)
}

// uploadErrorStatus maps an upload rejection to an HTTP status.
func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStorageWriteFailure):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
