package models

import "time"

// Store defines the annotation store for docpad.
//
// It maps version identifiers to ordered annotation collections. Versions are
// kept in order of first creation and are never deleted. Implementations live
// in the store package: MemoryStore (the default) and DuckDBStore, which keeps
// the same data in an in-memory DuckDB database.
//
// The interface is organized into three categories:
//   - Version management: EnsureVersion, ListVersions
//   - Annotations: AppendLink, AppendText, AppendCode, AppendTerminalLog,
//     AppendImage, AppendFile, SetInterpreterInfo
//   - Reading: Snapshot
//
// Thread Safety: Implementations should be safe for concurrent use.
type Store interface {
	// EnsureVersion registers id if it is not known yet. Calling it again
	// for the same id has no effect.
	EnsureVersion(id string) error

	// AppendLink appends a link to the version, creating the version if needed.
	// Empty strings are accepted.
	AppendLink(id, link string) error

	// AppendText appends a free-form note to the version.
	AppendText(id, text string) error

	// AppendCode appends a code snippet to the version.
	AppendCode(id, code string) error

	// AppendTerminalLog appends captured terminal output to the version.
	AppendTerminalLog(id, log string) error

	// SetInterpreterInfo replaces any interpreter record for the version.
	SetInterpreterInfo(id, version string, createdAt time.Time) error

	// AppendImage validates the upload and appends a reference to it.
	//
	// Returns an error wrapping:
	//   - ErrInvalidImage if the content does not decode as an image
	//   - ErrStorageWriteFailure if persisting the image to disk failed
	//
	// On error the version's image collection is left unchanged.
	AppendImage(id string, upload ImageUpload) (ImageRef, error)

	// AppendFile appends a generic attachment. The content is stored as
	// given, without validation.
	//
	// Returns an error wrapping ErrStorageWriteFailure if persisting the file
	// failed. On error the version's file collection is left unchanged.
	AppendFile(id string, upload FileUpload) (FileRef, error)

	// Snapshot returns a deep copy of all versions in creation order.
	Snapshot() (*Snapshot, error)

	// ListVersions returns all version identifiers in creation order.
	ListVersions() ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
