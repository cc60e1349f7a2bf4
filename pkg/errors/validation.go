package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// sheetNameRegex matches valid sheet names. Sheet names appear in URLs served
// by the HTTP server and in cache keys, so they are kept URL-safe.
var sheetNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSheetName validates the name of a sprite sheet configuration.
func ValidateSheetName(name string) error {
	if name == "" {
		return New(ErrCodeConfiguration, "sheet name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeConfiguration, "sheet name too long (max 128 characters)")
	}
	if !sheetNameRegex.MatchString(name) {
		return New(ErrCodeConfiguration, "invalid sheet name: %q", name)
	}
	return nil
}

// ValidateImageID validates an image id derived from a file name.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators
//   - Maximum length of 256 characters
func ValidateImageID(id string) error {
	if id == "" {
		return New(ErrCodeConfiguration, "image id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeConfiguration, "image id too long (max 256 characters)").ForImage(id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeConfiguration, "image id contains invalid control characters").ForImage(id)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeConfiguration, "image id cannot contain path separators").ForImage(id)
	}
	return nil
}

// ValidatePath validates an output or source path from configuration.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
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

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
