package formats

import (
	"strconv"
	"strings"

	"github.com/ytget/ytinfo/internal/mimeext"
	"github.com/ytget/ytinfo/youtube/payload"
)

// hasDirectURL returns true when the descriptor already carries a usable URL.
func hasDirectURL(d payload.FormatDescriptor) bool {
	return d.DirectURL != nil && strings.TrimSpace(*d.DirectURL) != ""
}

// hasCipherBlob returns true when the descriptor needs signature decoding.
func hasCipherBlob(d payload.FormatDescriptor) bool {
	return d.CipherBlob != nil && strings.TrimSpace(*d.CipherBlob) != ""
}

// mimeMatches compares the base types of a descriptor mime and a target.
// An empty target matches everything.
func mimeMatches(d payload.FormatDescriptor, target string) bool {
	t := mimeext.Base(target)
	if t == "" {
		return true
	}
	return mimeext.Base(d.MimeType) == t
}

// qualityLabel prefers the explicit label and falls back to the bitrate.
func qualityLabel(d payload.FormatDescriptor) string {
	if d.QualityLabel != nil && *d.QualityLabel != "" {
		return *d.QualityLabel
	}
	if d.Bitrate != nil {
		return strconv.FormatInt(*d.Bitrate, 10)
	}
	return ""
}
