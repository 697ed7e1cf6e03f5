// Package fetcher issues the network calls needed to resolve one video:
// the metadata endpoint, the watch page and the player script.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ytget/ytinfo/client"
	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/internal/logger"
)

const (
	// DefaultBaseURL is the origin every request is issued against.
	DefaultBaseURL = "https://www.youtube.com"

	embedPlayerURL = "https://youtube.googleapis.com/v/"
	tvClientName   = "TVHTML5"
	tvClientVer    = "6.20180913"
	bpctrValue     = "9999999999"

	playerMarker = "player"
	scriptSuffix = ".js"
)

// jsUrlRe finds the player bundle in the inline ytcfg blob when no script tag names it.
var jsUrlRe = regexp.MustCompile(`"jsUrl":"([^"]+)"`)

// Fetcher builds the platform URLs and hands them to a client.Getter.
type Fetcher struct {
	client  client.Getter
	baseURL string
}

// New creates a fetcher over c. A nil c uses client.New().
func New(c client.Getter) *Fetcher {
	if c == nil {
		c = client.New()
	}
	return &Fetcher{client: c, baseURL: DefaultBaseURL}
}

// WithBaseURL overrides the origin. Used by tests and mirrors.
func (f *Fetcher) WithBaseURL(base string) *Fetcher {
	if base != "" {
		f.baseURL = strings.TrimRight(base, "/")
	}
	return f
}

// BaseURL returns the configured origin.
func (f *Fetcher) BaseURL() string { return f.baseURL }

// VideoInfoURL returns the metadata endpoint URL for id.
func (f *Fetcher) VideoInfoURL(id string) string {
	q := url.Values{}
	q.Set("video_id", id)
	q.Set("eurl", embedPlayerURL+id)
	q.Set("html5", "1")
	q.Set("c", tvClientName)
	q.Set("cver", tvClientVer)
	return f.baseURL + "/get_video_info?" + q.Encode()
}

// WatchPageURL returns the watch page URL for id.
func (f *Fetcher) WatchPageURL(id string) string {
	q := url.Values{}
	q.Set("v", id)
	q.Set("gl", "US")
	q.Set("hl", "en")
	q.Set("has_verified", "1")
	q.Set("bpctr", bpctrValue)
	return f.baseURL + "/watch?" + q.Encode()
}

// VideoInfo fetches the raw metadata endpoint body.
func (f *Fetcher) VideoInfo(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("video info: %w: empty video id", errs.ErrNotValidURL)
	}
	return f.get(ctx, "video info", f.VideoInfoURL(id))
}

// WatchPage fetches the watch page HTML.
func (f *Fetcher) WatchPage(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("watch page: %w: empty video id", errs.ErrNotValidURL)
	}
	return f.get(ctx, "watch page", f.WatchPageURL(id))
}

// PlayerScriptURL extracts the absolute player bundle URL from a watch page.
// It returns "" when the page does not reference one.
func (f *Fetcher) PlayerScriptURL(watchPage []byte) string {
	log := logger.WithComponent(logger.ComponentFetcher)

	var src string
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(watchPage))
	if err != nil {
		log.Debug("watch page is not parseable html", map[string]interface{}{"error": err.Error()})
	} else {
		doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("src")
			if isPlayerScript(v) {
				src = v
				return false
			}
			return true
		})
	}

	if src == "" {
		if m := jsUrlRe.FindSubmatch(watchPage); len(m) == 2 {
			if v := strings.ReplaceAll(string(m[1]), `\/`, `/`); isPlayerScript(v) {
				src = v
			}
		}
	}
	if src == "" {
		return ""
	}
	return f.resolve(src)
}

// PlayerScript fetches the watch page for id, discovers the player bundle and
// returns its text. A page without a player reference yields "" and no error.
func (f *Fetcher) PlayerScript(ctx context.Context, id string) (string, error) {
	page, err := f.WatchPage(ctx, id)
	if err != nil {
		return "", err
	}
	return f.PlayerScriptFromPage(ctx, page)
}

// PlayerScriptFromPage discovers and fetches the player bundle referenced by page.
func (f *Fetcher) PlayerScriptFromPage(ctx context.Context, page []byte) (string, error) {
	scriptURL := f.PlayerScriptURL(page)
	if scriptURL == "" {
		logger.WithComponent(logger.ComponentFetcher).Warn("no player script referenced by watch page")
		return "", nil
	}
	body, err := f.get(ctx, "player script", scriptURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *Fetcher) get(ctx context.Context, what, rawURL string) ([]byte, error) {
	log := logger.WithComponent(logger.ComponentFetcher)
	log.Debug("fetching "+what, map[string]interface{}{"url": rawURL})
	body, err := f.client.Get(ctx, rawURL)
	if err != nil {
		log.Warn(what+" fetch failed", map[string]interface{}{"url": rawURL, "error": err.Error()})
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	log.Debug(what+" fetched", map[string]interface{}{"url": rawURL, "bytes": len(body)})
	return body, nil
}

// resolve makes ref absolute against the base URL.
func (f *Fetcher) resolve(ref string) string {
	base, err := url.Parse(f.baseURL + "/")
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func isPlayerScript(src string) bool {
	path := src
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.Contains(path, playerMarker) && strings.HasSuffix(path, scriptSuffix)
}
