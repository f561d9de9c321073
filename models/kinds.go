package models

// AnnotationKind identifies one list-valued annotation collection.
type AnnotationKind string

const (
	KindLink     AnnotationKind = "links"
	KindFile     AnnotationKind = "files"
	KindImage    AnnotationKind = "images"
	KindText     AnnotationKind = "text"
	KindCode     AnnotationKind = "code"
	KindTerminal AnnotationKind = "terminal"
)

// ExportKindOrder is the fixed order collections appear in within a version.
var ExportKindOrder = []AnnotationKind{KindLink, KindFile, KindImage, KindText, KindCode, KindTerminal}

// Title returns the section heading used for the kind in exports.
func (k AnnotationKind) Title() string {
	switch k {
	case KindLink:
		return "Links"
	case KindFile:
		return "Files"
	case KindImage:
		return "Images"
	case KindText:
		return "Text"
	case KindCode:
		return "Code"
	case KindTerminal:
		return "Terminal Logs"
	}
	return string(k)
}

// ParseAnnotationKind maps a route segment or tool name to a kind.
func ParseAnnotationKind(s string) (AnnotationKind, bool) {
	switch s {
	case "links", "link":
		return KindLink, true
	case "files", "file":
		return KindFile, true
	case "images", "image":
		return KindImage, true
	case "texts", "text":
		return KindText, true
	case "code", "codes":
		return KindCode, true
	case "terminal", "terminal_log", "terminal_logs":
		return KindTerminal, true
	}
	return "", false
}

// Count returns the number of items of the kind held by the version.
func (v *Version) Count(k AnnotationKind) int {
	switch k {
	case KindLink:
		return len(v.Links)
	case KindFile:
		return len(v.Files)
	case KindImage:
		return len(v.Images)
	case KindText:
		return len(v.Texts)
	case KindCode:
		return len(v.Codes)
	case KindTerminal:
		return len(v.TerminalLogs)
	}
	return 0
}

// Strings returns the items of a string-valued kind. Files and images
// return nil.
func (v *Version) Strings(k AnnotationKind) []string {
	switch k {
	case KindLink:
		return v.Links
	case KindText:
		return v.Texts
	case KindCode:
		return v.Codes
	case KindTerminal:
		return v.TerminalLogs
	}
	return nil
}
