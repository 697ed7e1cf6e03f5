// Package urlmatch recognises supported video page URLs and extracts the video id.
package urlmatch

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/ytget/ytinfo/errs"
)

const idToken = `([A-Za-z0-9_-]+)`

// patterns are tried in order; the first match wins.
var patterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"watch", regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.[a-z]{2,3}(?:\.[a-z]{2})?/watch/?\?(?:[^#]*?&)?vi?=` + idToken)},
	{"short", regexp.MustCompile(`^(?:https?://)?(?:www\.)?youtu\.be/` + idToken)},
	{"embed", regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.)?youtube\.[a-z]{2,3}(?:\.[a-z]{2})?/embed/` + idToken)},
}

// Match returns the video id embedded in raw, or an error wrapping errs.ErrNotValidURL.
func Match(raw string) (string, error) {
	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(raw); len(m) == 2 && m[1] != "" {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q", errs.ErrNotValidURL, raw)
}

// CanHandle reports whether raw is a supported URL.
func CanHandle(raw string) bool {
	_, err := Match(raw)
	return err == nil
}

// WatchURL returns the canonical watch page URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}
