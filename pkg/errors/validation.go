package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// documentNameRegex matches archived document names: a letter or digit
// followed by letters, digits, dots, dashes and underscores.
var documentNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateDocumentName validates the name under which a serialized document
// is archived. Names become object keys, file names and database ids, so
// the rules are conservative:
//   - No empty names
//   - Maximum length of 200 characters
//   - No control characters or path separators
//   - No ".." sequences
func ValidateDocumentName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "document name cannot be empty")
	}

	const maxNameLength = 200
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "document name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "document name contains invalid control characters")
		}
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "document name cannot contain \"..\"")
	}

	if !documentNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid document name: %q", name)
	}

	return nil
}

// ValidatePath validates an object path string before it is parsed.
// It rejects empty paths, paths without a leading "/" and null bytes.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidIdentity, "path cannot be empty")
	}
	if !strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidIdentity, "path must start with /: %q", path)
	}
	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidIdentity, "path contains a null byte")
	}
	return nil
}
