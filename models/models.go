// Package models defines the core data types for docpad, a versioned
// documentation scratchpad that collects links, notes, code, terminal logs
// and images per version and exports them as a document.
package models

import "time"

// Version represents a user-chosen label (a task or release version) and
// every annotation attached to it. Each collection is append-only and keeps
// save order; any of them may be empty.
type Version struct {
	// ID is the user-chosen identifier (e.g., "1.0", "fix-login").
	ID string `json:"id"`

	// CreatedAt is when the first annotation for this version was saved.
	CreatedAt time.Time `json:"createdAt"`

	// Links contains research links in save order.
	Links []string `json:"links,omitempty"`

	// Files contains generic attachments in save order. Their content is
	// never inspected.
	Files []FileRef `json:"files,omitempty"`

	// Images contains validated image references in save order.
	Images []ImageRef `json:"images,omitempty"`

	// Texts contains free-form notes in save order.
	Texts []string `json:"texts,omitempty"`

	// Codes contains code snippets in save order. All snippets share the
	// language tag configured in ExportSettings.CodeLanguage.
	Codes []string `json:"codes,omitempty"`

	// TerminalLogs contains captured stdout/stderr output in save order.
	TerminalLogs []string `json:"terminalLogs,omitempty"`

	// Interpreter holds the interpreter metadata for this version.
	// Nil when never recorded. Repeated saves overwrite it.
	Interpreter *InterpreterInfo `json:"interpreter,omitempty"`
}

// InterpreterInfo records which interpreter a version was documented against.
type InterpreterInfo struct {
	// Version is the interpreter version string (e.g., "Python 3.11.4").
	Version string `json:"version"`

	// CreatedAt is when the record was taken.
	CreatedAt time.Time `json:"createdAt"`
}

// ImageRef references validated image content attached to a version.
//
// Exactly one of Path or Data is normally set: Path when the image was
// persisted to the version's image directory, Data when no persistence
// backend is configured and the bytes live only for the session.
type ImageRef struct {
	// ID is the unique identifier for this image (UUID).
	ID string `json:"id"`

	// Name is the original upload filename, if any.
	Name string `json:"name,omitempty"`

	// Format is the decoder name reported by image.Decode ("png", "jpeg", ...).
	Format string `json:"format"`

	// Width and Height are the native pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Path is where the image was written on disk.
	Path string `json:"path,omitempty"`

	// Data holds the raw bytes for session-only images.
	Data []byte `json:"-"`
}

// ImageUpload is raw image content as received from a boundary.
type ImageUpload struct {
	Name string
	Data []byte
}

// FileRef references an attachment that is stored but never rendered.
// Exports list it by Name only.
type FileRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size"`
	Path string `json:"path,omitempty"`
	Data []byte `json:"-"`
}

// FileUpload is raw attachment content as received from a boundary.
type FileUpload struct {
	Name string
	Data []byte
}

// Snapshot is a deep, point-in-time copy of every version in creation order.
// Nothing in a Snapshot aliases store-owned memory.
type Snapshot struct {
	Versions []Version `json:"versions"`
	TakenAt  time.Time `json:"takenAt"`
}

// Lookup returns the version with the given ID.
func (s *Snapshot) Lookup(id string) (*Version, bool) {
	if s == nil {
		return nil, false
	}
	for i := range s.Versions {
		if s.Versions[i].ID == id {
			return &s.Versions[i], true
		}
	}
	return nil, false
}

// IDs returns the version identifiers in creation order.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Versions))
	for _, v := range s.Versions {
		ids = append(ids, v.ID)
	}
	return ids
}

// Clone returns a deep copy of the version.
func (v *Version) Clone() Version {
	c := Version{
		ID:           v.ID,
		CreatedAt:    v.CreatedAt,
		Links:        cloneStrings(v.Links),
		Texts:        cloneStrings(v.Texts),
		Codes:        cloneStrings(v.Codes),
		TerminalLogs: cloneStrings(v.TerminalLogs),
	}
	if v.Files != nil {
		c.Files = make([]FileRef, len(v.Files))
		for i, f := range v.Files {
			c.Files[i] = f.Clone()
		}
	}
	if v.Images != nil {
		c.Images = make([]ImageRef, len(v.Images))
		for i, img := range v.Images {
			c.Images[i] = img.Clone()
		}
	}
	if v.Interpreter != nil {
		info := *v.Interpreter
		c.Interpreter = &info
	}
	return c
}

// Clone returns a copy of the reference that does not share Data.
func (r ImageRef) Clone() ImageRef {
	if r.Data != nil {
		r.Data = append([]byte(nil), r.Data...)
	}
	return r
}

// Clone returns a copy of the reference that does not share Data.
func (r FileRef) Clone() FileRef {
	if r.Data != nil {
		r.Data = append([]byte(nil), r.Data...)
	}
	return r
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
