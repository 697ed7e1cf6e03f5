// Package sanitize builds file names that are safe on common file systems.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxFilenameLength is the maximum number of runes in the name part.
	MaxFilenameLength = 120
	// DefaultExt is used when none is provided.
	DefaultExt = "mp4"
	// DefaultName replaces an empty title.
	DefaultName = "video"
)

var (
	unsafeChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)
	spaces      = regexp.MustCompile(`\s+`)
)

// ToSafeFilename builds a safe file name from title and ext (without dot).
func ToSafeFilename(title, ext string) string {
	name := spaces.ReplaceAllString(title, " ")
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")
	if name == "" {
		name = DefaultName
	}
	if utf8.RuneCountInString(name) > MaxFilenameLength {
		name = strings.TrimRight(string([]rune(name)[:MaxFilenameLength]), " .")
	}
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = DefaultExt
	}
	return name + "." + ext
}

// StreamFilename names one stream of a video, e.g. "Title (720p).mp4".
func StreamFilename(title, quality, ext string) string {
	quality = strings.TrimSpace(quality)
	if quality != "" {
		if strings.TrimSpace(title) == "" {
			title = DefaultName
		}
		title = strings.TrimSpace(title) + " (" + quality + ")"
	}
	return ToSafeFilename(title, ext)
}
