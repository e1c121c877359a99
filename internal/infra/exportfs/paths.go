package exportfs

import (
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/tverlann/anki-deck-export/internal/domain/deck"
)

// Options controls how deck names are turned into folder names.
type Options struct {
	Sanitize     bool
	AllowedChars string
	MaxDepth     int
}

func DefaultOptions() Options {
	return Options{
		Sanitize:     true,
		AllowedChars: " -_",
		MaxDepth:     10,
	}
}

// DeckPath mirrors a "::"-delimited deck name as nested folders under
// root, creating each level, and returns the final path. Segments past
// MaxDepth are dropped; segments that sanitize to nothing are skipped,
// flattening that level. Calling it again for the same name is a no-op.
func DeckPath(root, name string, opts Options) (string, error) {
	parts := deck.Split(name)
	if opts.MaxDepth > 0 && len(parts) > opts.MaxDepth {
		parts = parts[:opts.MaxDepth]
	}

	current := root
	for _, part := range parts {
		var folder string
		if opts.Sanitize {
			folder = SanitizeSegment(part, opts.AllowedChars)
		} else {
			folder = strings.TrimSpace(part)
		}
		if folder == "" {
			continue
		}
		current = filepath.Join(current, folder)
		if err := os.MkdirAll(current, 0o755); err != nil {
			return "", err
		}
	}

	return current, nil
}

// SanitizeSegment keeps letters, digits and the allowed extra characters,
// then trims surrounding whitespace. May return "".
func SanitizeSegment(segment, allowed string) string {
	var b strings.Builder
	for _, r := range segment {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(allowed, r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// SanitizeFileName is SanitizeSegment with an "unnamed" fallback, for
// names that must not vanish (package file names).
func SanitizeFileName(name, allowed string) string {
	s := SanitizeSegment(name, allowed)
	if s == "" {
		return "unnamed"
	}
	return s
}

// EnsureMediaDir creates (if needed) and returns the media subfolder of
// a deck's export directory.
func EnsureMediaDir(deckPath, folder string) (string, error) {
	if folder == "" {
		folder = "media"
	}
	mediaDir := filepath.Join(deckPath, folder)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return "", err
	}
	return mediaDir, nil
}
