package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/orian/docpad/models"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImagePixels bounds the decoded size of an upload. The header is checked
// before any pixel data is allocated.
const maxImagePixels = 8192 * 8192

// ImageIngester validates uploaded images and optionally persists them and
// other attachments under a per-version directory. It is shared by every
// Store backend.
type ImageIngester struct {
	dir string
}

// NewImageIngester returns an ingester writing below dir. An empty dir keeps
// validated images in memory only.
func NewImageIngester(dir string) *ImageIngester {
	return &ImageIngester{dir: dir}
}

// Persistent reports whether images are written to disk.
func (g *ImageIngester) Persistent() bool {
	return g != nil && g.dir != ""
}

// Dir returns the base directory, or "" when images stay in memory.
func (g *ImageIngester) Dir() string {
	if g == nil {
		return ""
	}
	return g.dir
}

// Ingest decodes the upload and returns a reference to it. The whole image is
// decoded, not just its header, so truncated files are rejected too.
//
// Returns an error wrapping models.ErrInvalidImage or models.ErrStorageWriteFailure.
// Nothing is written to disk when validation fails.
func (g *ImageIngester) Ingest(versionID string, upload models.ImageUpload) (models.ImageRef, error) {
	if len(upload.Data) == 0 {
		return models.ImageRef{}, fmt.Errorf("%w: %q is empty", models.ErrInvalidImage, upload.Name)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(upload.Data))
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("%w: %q: %v", models.ErrInvalidImage, upload.Name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return models.ImageRef{}, fmt.Errorf("%w: %q: %dx%d exceeds %d pixels",
			models.ErrInvalidImage, upload.Name, cfg.Width, cfg.Height, maxImagePixels)
	}

	img, format, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return models.ImageRef{}, fmt.Errorf("%w: %q: %v", models.ErrInvalidImage, upload.Name, err)
	}
	bounds := img.Bounds()

	ref := models.ImageRef{
		ID:     uuid.New().String(),
		Name:   upload.Name,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	if !g.Persistent() {
		ref.Data = append([]byte(nil), upload.Data...)
		return ref, nil
	}

	path := filepath.Join(g.dir, versionDir(versionID), uniqueImageName(upload.Name, format))
	if err := AtomicWriteFile(path, upload.Data, 0644); err != nil {
		return models.ImageRef{}, fmt.Errorf("%w: %s: %v", models.ErrStorageWriteFailure, path, err)
	}
	slog.Debug("persisted image", "version", versionID, "path", path, "format", format)

	ref.Path = path
	return ref, nil
}

// IngestFile stores a generic attachment. Its content is not inspected and an
// empty file is accepted.
//
// Returns an error wrapping models.ErrStorageWriteFailure.
func (g *ImageIngester) IngestFile(versionID string, upload models.FileUpload) (models.FileRef, error) {
	ref := models.FileRef{
		ID:   uuid.New().String(),
		Name: upload.Name,
		Size: int64(len(upload.Data)),
	}

	if !g.Persistent() {
		ref.Data = append([]byte(nil), upload.Data...)
		return ref, nil
	}

	path := filepath.Join(g.dir, versionDir(versionID), uniqueFileName(upload.Name))
	if err := AtomicWriteFile(path, upload.Data, 0644); err != nil {
		return models.FileRef{}, fmt.Errorf("%w: %s: %v", models.ErrStorageWriteFailure, path, err)
	}
	slog.Debug("persisted file", "version", versionID, "path", path, "size", ref.Size)

	ref.Path = path
	return ref, nil
}

// versionDir names the directory holding a version's attachments. The hash
// suffix keeps IDs that sanitize to the same text apart.
func versionDir(versionID string) string {
	sum := sha256.Sum256([]byte(versionID))
	return sanitizePathSegment(versionID, "version") + "-" + hex.EncodeToString(sum[:])[:8]
}

// uniqueImageName keeps the upload's stem and appends a random suffix so two
// uploads of the same file never collide.
func uniqueImageName(name, format string) string {
	return uniqueName(uploadStem(name), "image", formatExtension(format))
}

// uniqueFileName is uniqueImageName for attachments that keep their own
// extension.
func uniqueFileName(name string) string {
	ext := ""
	if name != "" {
		ext = filepath.Ext(filepath.Base(name))
	}
	if ext != "" {
		ext = "." + sanitizePathSegment(strings.TrimPrefix(ext, "."), "bin")
	}
	return uniqueName(uploadStem(name), "file", ext)
}

func uploadStem(name string) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || stem == "." || stem == string(filepath.Separator) {
		return ""
	}
	return stem
}

func uniqueName(stem, fallback, ext string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s%s", sanitizePathSegment(stem, fallback), suffix, ext)
}

func formatExtension(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "":
		return ".img"
	}
	return "." + format
}

// sanitizePathSegment turns s into a single safe path element.
func sanitizePathSegment(s, fallback string) string {
	const maxLen = 64
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	var b strings.Builder
	for _, r := range runes {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			b.WriteRune('-')
		case r == ' ' || r == '\t':
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	switch out {
	case "":
		return fallback
	case ".", "..":
		return "_" + out
	}
	return out
}
