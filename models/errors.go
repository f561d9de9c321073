package models

import "errors"

// Error kinds surfaced by the store and the exporter. Callers match them with
// errors.Is; the returned errors wrap them with detail.
var (
	// ErrInvalidImage is returned when uploaded content fails image decoding.
	ErrInvalidImage = errors.New("invalid image")

	// ErrEmptySelection is returned when an export selects no versions.
	ErrEmptySelection = errors.New("no versions selected for export")

	// ErrNotImplemented is returned for export formats that are unknown or disabled.
	ErrNotImplemented = errors.New("export format not implemented")

	// ErrRenderFailure is returned when the document renderer fails.
	ErrRenderFailure = errors.New("document render failed")

	// ErrStorageWriteFailure is returned when a persisted image could not be written.
	ErrStorageWriteFailure = errors.New("image storage write failed")

	// ErrVersionNotFound is returned when a single version lookup misses.
	ErrVersionNotFound = errors.New("version not found")
)
