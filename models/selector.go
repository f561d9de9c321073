package models

import "strings"

// AllVersionsKeyword selects every version when passed to ParseSelector.
const AllVersionsKeyword = "all"

// Selector chooses which versions an export covers: either all of them or a
// single version identifier.
type Selector struct {
	all     bool
	version string
}

// SelectAll returns a selector covering every version.
func SelectAll() Selector {
	return Selector{all: true}
}

// SelectVersion returns a selector for exactly one version. Use it for a
// version literally named "all".
func SelectVersion(id string) Selector {
	return Selector{version: id}
}

// ParseSelector parses user input. "all" (any case) and the empty string
// select every version; anything else names a single version.
func ParseSelector(s string) Selector {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, AllVersionsKeyword) {
		return SelectAll()
	}
	return SelectVersion(s)
}

// All reports whether the selector covers every version.
func (s Selector) All() bool { return s.all }

// Version returns the selected version id, or "" for SelectAll.
func (s Selector) Version() string { return s.version }

func (s Selector) String() string {
	if s.all {
		return AllVersionsKeyword
	}
	return s.version
}

// Resolve returns the selected versions in snapshot order. The result is
// empty when the snapshot is empty or the named version is absent.
func (s Selector) Resolve(snap *Snapshot) []Version {
	if snap == nil {
		return nil
	}
	if s.all {
		return snap.Versions
	}
	if v, ok := snap.Lookup(s.version); ok {
		return []Version{*v}
	}
	return nil
}
