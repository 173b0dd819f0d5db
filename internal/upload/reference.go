package upload

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ReferenceNumber derives the stable reference of an upload from its creation
// time (in loc) and record identity, e.g. "240131-0915_42".
func ReferenceNumber(u Upload, loc *time.Location) string {
	created := u.CreatedAt
	if loc != nil {
		created = created.In(loc)
	}
	return fmt.Sprintf("%s_%d", created.Format("060102-1504"), u.ID)
}

// FileName returns the visible name of the optimized file. The same value is
// written to the title tag because some playout tools resolve files by it.
func FileName(u Upload, loc *time.Location, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "mp3"
	}
	name := ReferenceNumber(u, loc)
	if slug := NormalizeFilename(u.Title); slug != "" {
		name += "_" + slug
	}
	return name + "." + ext
}

// StorageKey builds the media store key for a derived artifact of an upload.
func StorageKey(id int64, name string) string {
	return path.Join("uploads", fmt.Sprintf("%d", id), name)
}

var germanFolds = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "ae", "Ö", "oe", "Ü", "ue",
	"ß", "ss",
)

// NormalizeFilename lowercases value, replaces whitespace with dashes,
// transliterates German umlauts, strips other diacritics, and drops every rune
// outside [a-z0-9_-].
func NormalizeFilename(value string) string {
	value = germanFolds.Replace(strings.TrimSpace(value))
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripper, value); err == nil {
		value = folded
	}
	value = strings.ToLower(value)

	var b strings.Builder
	b.Grow(len(value))
	lastDash := false
	for _, r := range value {
		switch {
		case unicode.IsSpace(r) || r == '-':
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastDash = false
		}
	}
	return strings.TrimRight(b.String(), "-")
}
