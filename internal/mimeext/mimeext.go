// Package mimeext maps stream mime types to file extensions.
package mimeext

import (
	"mime"
	"strings"

	"github.com/ytget/ytinfo/types"
)

const (
	// DefaultVideoExt is used for video streams with an unknown mime type.
	DefaultVideoExt = "mp4"
	// DefaultAudioExt is used for audio streams with an unknown mime type.
	DefaultAudioExt = "m4a"

	ExtMP4  = "mp4"
	ExtM4A  = "m4a"
	ExtWebM = "webm"
	Ext3GP  = "3gp"
)

var byMime = map[string]string{
	"video/mp4":  ExtMP4,
	"audio/mp4":  ExtM4A,
	"video/webm": ExtWebM,
	"audio/webm": ExtWebM,
	"video/3gpp": Ext3GP,
}

// Base returns the lower-cased type/subtype without parameters.
func Base(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		return mt
	}
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// ExtFromMime returns the extension (without dot) for a stream of the given kind.
// Unknown types fall back to their subtype, then to the kind default.
func ExtFromMime(kind types.StreamKind, mimeType string) string {
	base := Base(mimeType)
	if ext, ok := byMime[base]; ok {
		return ext
	}
	if _, sub, ok := strings.Cut(base, "/"); ok && sub != "" && !strings.ContainsAny(sub, "+.") {
		return sub
	}
	if kind == types.KindAudio {
		return DefaultAudioExt
	}
	return DefaultVideoExt
}
