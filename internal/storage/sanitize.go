package storage

import (
	"regexp"

	"github.com/fekuna/omnipos-menu-service/internal/textutil"
)

var disallowedPathChars = regexp.MustCompile(`[^A-Za-z0-9/._ -]`)

// SanitizePath folds accented characters to their base letter and removes
// everything outside letters, digits, '/', '.', '_', '-' and space.
func SanitizePath(p string) string {
	return disallowedPathChars.ReplaceAllString(textutil.StripDiacritics(p), "")
}
