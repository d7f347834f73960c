package errors

import (
	"strings"
	"unicode"
)

// maxIdentifierLength bounds individual and locus identifiers.
const maxIdentifierLength = 256

// ValidateIdentifier validates an individual identifier from a pedigree file.
//
// Identifiers are free-form but must be non-empty, printable and free of
// whitespace so that they survive the line-oriented error-file format.
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidPedigree, "identifier cannot be empty")
	}
	if len(id) > maxIdentifierLength {
		return New(ErrCodeInvalidPedigree, "identifier too long (max %d characters)", maxIdentifierLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPedigree, "identifier %q contains whitespace or control characters", id)
		}
	}
	return nil
}

// ValidateLocusName validates a marker name. Locus names are used as file
// names for error files and as cache/store keys, so path separators and
// traversal sequences are rejected.
func ValidateLocusName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidLocus, "locus name cannot be empty")
	}
	if len(name) > maxIdentifierLength {
		return New(ErrCodeInvalidLocus, "locus name too long (max %d characters)", maxIdentifierLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidLocus, "locus name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidLocus, "locus name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidatePath validates a relative output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	return nil
}
