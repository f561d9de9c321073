package export

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"

	"github.com/orian/docpad/models"
)

// =============================================================================
// DOCUMENT BLOCKS
// =============================================================================

// Block is one renderer-agnostic flow element of an exported document.
type Block interface {
	block()
}

// Heading is a section title. Level 1 introduces a version, level 2 a kind.
type Heading struct {
	Level int
	Text  string
}

// Paragraph is a plain body paragraph.
type Paragraph struct {
	Text string
}

// Preformatted is a fixed-width code block, already wrapped into Lines.
type Preformatted struct {
	Language string
	Lines    []string
}

// ImageBlock is an embedded image drawn into a fixed Width x Height box.
type ImageBlock struct {
	Name   string
	Format string
	Path   string
	Data   []byte
	Width  float64
	Height float64
}

// Spacer is vertical whitespace separating successive code or image entries.
type Spacer struct {
	Height float64
}

func (Heading) block()      {}
func (Paragraph) block()    {}
func (Preformatted) block() {}
func (ImageBlock) block()   {}
func (Spacer) block()       {}

// =============================================================================
// BLOCK BUILDER
// =============================================================================

// BuildBlocks walks the selected versions and emits the document flow.
//
// For each version, in snapshot order: a level 1 heading, the interpreter
// line when recorded, then every non-empty collection in ExportKindOrder as a
// level 2 heading followed by one body block per item. Files are listed by
// name only. Code and image entries are each followed by a Spacer. Images
// whose content cannot be resolved are skipped.
//
// Returns an error wrapping models.ErrEmptySelection if no version matches.
func BuildBlocks(snap *models.Snapshot, sel models.Selector, settings models.ExportSettings) ([]Block, error) {
	versions := sel.Resolve(snap)
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: selector %q", models.ErrEmptySelection, sel.String())
	}

	var blocks []Block
	for i := range versions {
		v := &versions[i]
		blocks = append(blocks, Heading{Level: 1, Text: "Version: " + v.ID})

		if v.Interpreter != nil {
			blocks = append(blocks, Paragraph{Text: fmt.Sprintf("Interpreter: %s (recorded %s)",
				v.Interpreter.Version, formatTimestamp(v.Interpreter.CreatedAt))})
		}

		for _, kind := range models.ExportKindOrder {
			if v.Count(kind) == 0 {
				continue
			}
			blocks = append(blocks, Heading{Level: 2, Text: kind.Title() + ":"})

			switch kind {
			case models.KindFile:
				for _, f := range v.Files {
					name := f.Name
					if name == "" {
						name = "Unknown"
					}
					blocks = append(blocks, Paragraph{Text: "- " + name})
				}
			case models.KindImage:
				for _, ref := range v.Images {
					img, ok := resolveImage(ref, settings)
					if !ok {
						continue
					}
					blocks = append(blocks, img, Spacer{Height: settings.SpacerHeight})
				}
			case models.KindCode:
				for _, code := range v.Codes {
					blocks = append(blocks,
						Preformatted{Language: settings.CodeLanguage, Lines: WrapCode(code, settings.CodeWrapWidth)},
						Spacer{Height: settings.SpacerHeight},
					)
				}
			default:
				for _, item := range v.Strings(kind) {
					blocks = append(blocks, Paragraph{Text: "- " + item})
				}
			}
		}
	}
	return blocks, nil
}

// resolveImage loads the image content behind ref and checks that it still
// decodes. Missing files and undecodable content are reported as unresolved.
func resolveImage(ref models.ImageRef, settings models.ExportSettings) (ImageBlock, bool) {
	data := ref.Data
	if len(data) == 0 && ref.Path != "" {
		var err error
		data, err = os.ReadFile(ref.Path)
		if err != nil {
			slog.Debug("skipping unresolvable image", "id", ref.ID, "path", ref.Path, "error", err)
			return ImageBlock{}, false
		}
	}
	if len(data) == 0 {
		slog.Debug("skipping image without content", "id", ref.ID)
		return ImageBlock{}, false
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		slog.Debug("skipping undecodable image", "id", ref.ID, "error", err)
		return ImageBlock{}, false
	}

	return ImageBlock{
		Name:   ref.Name,
		Format: format,
		Path:   ref.Path,
		Data:   data,
		Width:  settings.ImageWidth,
		Height: settings.ImageHeight,
	}, true
}
