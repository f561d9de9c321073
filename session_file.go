package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/orian/docpad/models"
	"gopkg.in/yaml.v3"
)

// SessionFile is the YAML form of a documentation session, used by the
// export command to fill a fresh store without a running server.
type SessionFile struct {
	Versions []SessionVersion `yaml:"versions"`

	// dir resolves relative image and file paths.
	dir string
}

type SessionVersion struct {
	ID          string              `yaml:"id"`
	Links       []string            `yaml:"links,omitempty"`
	Texts       []string            `yaml:"texts,omitempty"`
	Code        []string            `yaml:"code,omitempty"`
	Terminal    []string            `yaml:"terminal,omitempty"`
	Images      []string            `yaml:"images,omitempty"`
	Files       []string            `yaml:"files,omitempty"`
	Interpreter *SessionInterpreter `yaml:"interpreter,omitempty"`
}

type SessionInterpreter struct {
	Version   string    `yaml:"version"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}

// LoadSessionFile parses the session file at path.
func LoadSessionFile(path string) (*SessionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	sf, err := ParseSessionFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sf.dir = filepath.Dir(path)
	return sf, nil
}

// ParseSessionFile decodes a session from YAML. Image and file paths are resolved
// against the working directory.
func ParseSessionFile(data []byte) (*SessionFile, error) {
	var sf SessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	for i, v := range sf.Versions {
		if v.ID == "" {
			return nil, fmt.Errorf("versions[%d]: id is required", i)
		}
	}
	return &sf, nil
}

// Apply records the session into s in file order. Images and files that
// cannot be read or stored are skipped and reported in the returned error;
// everything else is still recorded.
func (sf *SessionFile) Apply(s models.Store) error {
	var attachErrs []error
	for _, v := range sf.Versions {
		if err := s.EnsureVersion(v.ID); err != nil {
			return err
		}
		for _, group := range []struct {
			kind   models.AnnotationKind
			values []string
		}{
			{models.KindLink, v.Links},
			{models.KindText, v.Texts},
			{models.KindCode, v.Code},
			{models.KindTerminal, v.Terminal},
		} {
			for _, value := range group.values {
				if err := appendAnnotation(s, v.ID, group.kind, value); err != nil {
					return fmt.Errorf("version %s: %w", v.ID, err)
				}
			}
		}
		if v.Interpreter != nil {
			createdAt := v.Interpreter.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now()
			}
			if err := s.SetInterpreterInfo(v.ID, v.Interpreter.Version, createdAt); err != nil {
				return fmt.Errorf("version %s: %w", v.ID, err)
			}
		}
		for _, path := range v.Images {
			if err := sf.applyImage(s, v.ID, path); err != nil {
				slog.Warn("skipping image", "version", v.ID, "path", path, "error", err)
				attachErrs = append(attachErrs, fmt.Errorf("version %s image %s: %w", v.ID, path, err))
			}
		}
		for _, path := range v.Files {
			if err := sf.applyFile(s, v.ID, path); err != nil {
				slog.Warn("skipping file", "version", v.ID, "path", path, "error", err)
				attachErrs = append(attachErrs, fmt.Errorf("version %s file %s: %w", v.ID, path, err))
			}
		}
	}
	return errors.Join(attachErrs...)
}

func (sf *SessionFile) applyImage(s models.Store, versionID, path string) error {
	data, err := sf.readAttachment(path)
	if err != nil {
		return err
	}
	_, err = s.AppendImage(versionID, models.ImageUpload{Name: filepath.Base(path), Data: data})
	return err
}

func (sf *SessionFile) applyFile(s models.Store, versionID, path string) error {
	data, err := sf.readAttachment(path)
	if err != nil {
		return err
	}
	_, err = s.AppendFile(versionID, models.FileUpload{Name: filepath.Base(path), Data: data})
	return err
}

func (sf *SessionFile) readAttachment(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && sf.dir != "" {
		path = filepath.Join(sf.dir, path)
	}
	return os.ReadFile(path)
}
