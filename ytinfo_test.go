package ytinfo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ytget/ytinfo/client"
	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/types"
	"github.com/ytget/ytinfo/youtube/cipher"
)

const (
	watchURL   = "https://www.youtube.com/watch?v=43TmnIaL3n4"
	playerPath = "/s/player/abc123/player_ias.vflset/en_US/base.js"
)

// fakeSite serves the three endpoints a resolution touches and counts hits.
type fakeSite struct {
	info, watch, script string
	infoStatus          int
	watchStatus         int

	infoHits, watchHits, scriptHits atomic.Int32
}

func (s *fakeSite) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/get_video_info", func(w http.ResponseWriter, r *http.Request) {
		s.infoHits.Add(1)
		if s.infoStatus != 0 {
			w.WriteHeader(s.infoStatus)
			return
		}
		_, _ = w.Write([]byte(s.info))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		s.watchHits.Add(1)
		if s.watchStatus != 0 {
			w.WriteHeader(s.watchStatus)
			return
		}
		_, _ = w.Write([]byte(s.watch))
	})
	mux.HandleFunc(playerPath, func(w http.ResponseWriter, r *http.Request) {
		s.scriptHits.Add(1)
		_, _ = w.Write([]byte(s.script))
	})
	return mux
}

func readFile(t *testing.T, parts ...string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(parts...))
	if err != nil {
		t.Fatalf("read %v: %v", parts, err)
	}
	return string(b)
}

func newSite(t *testing.T) *fakeSite {
	t.Helper()
	return &fakeSite{
		info:   readFile(t, "youtube", "payload", "testdata", "get_video_info.txt"),
		watch:  `<html><head><script src="` + playerPath + `"></script></head><body></body></html>`,
		script: readFile(t, "youtube", "cipher", "testdata", "synthetic_base_v1.js"),
	}
}

func startSite(t *testing.T, site *fakeSite) *Resolver {
	t.Helper()
	srv := httptest.NewServer(site.handler())
	t.Cleanup(srv.Close)
	return New().WithClient(client.NewWith(client.Config{Timeout: 5 * time.Second})).WithBaseURL(srv.URL)
}

func TestResolveFixture(t *testing.T) {
	site := newSite(t)
	r := startSite(t, site)

	res, err := r.Resolve(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.VideoID != "43TmnIaL3n4" || res.SourceURL != watchURL {
		t.Errorf("ref = %q %q", res.VideoID, res.SourceURL)
	}
	if res.Title != "Sample & Title {braces}" {
		t.Errorf("Title = %q", res.Title)
	}
	if res.Author != (types.Author{ChannelID: "UCabc123", DisplayName: "Sample Channel"}) {
		t.Errorf("Author = %+v", res.Author)
	}
	if res.ViewCount == nil || *res.ViewCount != 1234567 || res.Duration != 213 {
		t.Errorf("ViewCount = %v, Duration = %d", res.ViewCount, res.Duration)
	}
	if res.ThumbnailURL != "https://i.ytimg.com/vi/43TmnIaL3n4/maxresdefault.jpg" {
		t.Errorf("ThumbnailURL = %q", res.ThumbnailURL)
	}
	if len(res.Tags) != 2 {
		t.Errorf("Tags = %v", res.Tags)
	}
	if len(res.Captions) != 2 || res.Captions[0].LanguageCode != "en" || res.Captions[1].Name != "German (auto)" {
		t.Errorf("Captions = %+v", res.Captions)
	}
	if res.Playability == nil || res.Playability.Status != "OK" {
		t.Errorf("Playability = %+v", res.Playability)
	}

	if len(res.Videos) != 2 || res.Videos[0].Itag != 18 || res.Videos[1].Itag != 22 {
		t.Fatalf("Videos = %+v", res.Videos)
	}
	hd := res.Videos[1]
	if hd.Quality != "720p" || hd.Ext != "mp4" || hd.Filename != "Sample & Title {braces} (720p).mp4" {
		t.Errorf("720p stream = %+v", hd)
	}
	if res.PreviewVideo == nil || res.PreviewVideo.Itag != 18 {
		t.Errorf("PreviewVideo = %+v", res.PreviewVideo)
	}

	if len(res.Audios) != 1 {
		t.Fatalf("Audios = %+v", res.Audios)
	}
	audio := res.Audios[0]
	wantURL := "https://r1.googlevideo.com/videoplayback?expire=1700000000&itag=140&mime=audio%2Fmp4&sig=AJFEDCBH"
	if audio.URL != wantURL {
		t.Errorf("audio URL = %q, want %q", audio.URL, wantURL)
	}
	if audio.Kind != types.KindAudio || audio.Ext != "m4a" {
		t.Errorf("audio stream = %+v", audio)
	}

	if site.infoHits.Load() != 1 || site.watchHits.Load() != 1 || site.scriptHits.Load() != 1 {
		t.Errorf("hits info=%d watch=%d script=%d, want 1 each",
			site.infoHits.Load(), site.watchHits.Load(), site.scriptHits.Load())
	}
}

func encodedPayload(json string) string {
	return "status=ok&player_response=" + url.QueryEscape(json) + "&fexp=1"
}

func TestResolveDirectVideoAndCipheredAudio(t *testing.T) {
	site := newSite(t)
	site.info = encodedPayload(`{"responseContext":{},"videoDetails":{"videoId":"43TmnIaL3n4"},"streamingData":{` +
		`"formats":[{"itag":22,"url":"https://v.example/22?a=1&b=2","mimeType":"video/mp4; codecs=\"avc1\"","qualityLabel":"720p"}],` +
		`"adaptiveFormats":[{"itag":140,"signatureCipher":"s=abcdefghij&sp=sig&url=https%3A%2F%2Fa.example%2Fa%3Fitag%3D140","mimeType":"audio/mp4; codecs=\"mp4a.40.2\"","bitrate":130000}]}}`)
	r := startSite(t, site)

	res, err := r.Resolve(context.Background(), "https://youtu.be/43TmnIaL3n4")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Videos) != 1 || res.Videos[0].Quality != "720p" || res.Videos[0].URL != "https://v.example/22?a=1&b=2" {
		t.Fatalf("Videos = %+v", res.Videos)
	}
	if res.PreviewVideo == nil || res.PreviewVideo.URL != res.Videos[0].URL {
		t.Errorf("PreviewVideo = %+v", res.PreviewVideo)
	}
	if len(res.Audios) != 1 || res.Audios[0].URL != "https://a.example/a?itag=140&sig=ajfedcbh" {
		t.Fatalf("Audios = %+v", res.Audios)
	}
	if res.Title != "" || res.ViewCount != nil || res.Captions != nil {
		t.Errorf("absent metadata should stay empty: %+v", res)
	}
}

func TestResolveDirectOnlySkipsWatchPage(t *testing.T) {
	site := newSite(t)
	site.info = encodedPayload(`{"responseContext":{},"streamingData":{"formats":[{"itag":18,"url":"https://v.example/18","mimeType":"video/mp4","qualityLabel":"360p"}]}}`)
	r := startSite(t, site)

	res, err := r.Resolve(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Videos) != 1 || len(res.Audios) != 0 {
		t.Errorf("result = %+v", res)
	}
	if site.watchHits.Load() != 0 || site.scriptHits.Load() != 0 {
		t.Errorf("watch=%d script=%d, want no lazy fetches", site.watchHits.Load(), site.scriptHits.Load())
	}
}

func TestResolveWithPrefetch(t *testing.T) {
	site := newSite(t)
	r := startSite(t, site).WithPrefetch(true)

	res, err := r.Resolve(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Audios) != 1 || res.Audios[0].URL == "" {
		t.Fatalf("Audios = %+v", res.Audios)
	}
	if site.watchHits.Load() != 1 || site.scriptHits.Load() != 1 {
		t.Errorf("watch=%d script=%d, want 1 each", site.watchHits.Load(), site.scriptHits.Load())
	}
}

func TestResolveSharesProgramCache(t *testing.T) {
	site := newSite(t)
	cache := cipher.NewProgramCache(time.Hour)
	r := startSite(t, site).WithProgramCache(cache)

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), watchURL); err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
	}
	st := cache.Stats()
	if st.Entries != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Errorf("cache stats = %+v", st)
	}
}

func TestResolveMissingPlayerScriptSkipsCiphers(t *testing.T) {
	site := newSite(t)
	site.watch = "<html><body>no player here</body></html>"
	r := startSite(t, site)

	res, err := r.Resolve(context.Background(), watchURL)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Videos) != 2 || len(res.Audios) != 0 || res.Skipped != 1 {
		t.Errorf("videos=%d audios=%d skipped=%d", len(res.Videos), len(res.Audios), res.Skipped)
	}
	if site.scriptHits.Load() != 0 {
		t.Errorf("script fetched without a reference")
	}
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		mutate func(*fakeSite)
		want   error
		hits   int32
	}{
		{name: "unsupported url", url: "https://www.vimeo.com/watch?v=43TmnIaL3n4", want: errs.ErrNotValidURL, hits: 0},
		{name: "rate limited", url: watchURL, mutate: func(s *fakeSite) { s.infoStatus = http.StatusTooManyRequests }, want: errs.ErrTooManyRequests, hits: 1},
		{name: "server error", url: watchURL, mutate: func(s *fakeSite) { s.infoStatus = http.StatusInternalServerError }, want: errs.ErrBadResponse, hits: 1},
		{name: "no payload", url: watchURL, mutate: func(s *fakeSite) { s.info = "status=fail&reason=gone" }, want: errs.ErrNothingToExtract, hits: 1},
		{name: "watch page failure", url: watchURL, mutate: func(s *fakeSite) { s.watchStatus = http.StatusServiceUnavailable }, want: errs.ErrBadResponse, hits: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newSite(t)
			if tt.mutate != nil {
				tt.mutate(site)
			}
			r := startSite(t, site)

			res, err := r.Resolve(context.Background(), tt.url)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if res != nil {
				t.Errorf("expected nil resource, got %+v", res)
			}
			if !errs.IsFatal(err) {
				t.Errorf("%v should be request-fatal", err)
			}
			if got := site.infoHits.Load(); got != tt.hits {
				t.Errorf("metadata hits = %d, want %d", got, tt.hits)
			}
		})
	}
}

func TestResolveTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New().WithBaseURL(base).Resolve(context.Background(), watchURL)
	if !errors.Is(err, errs.ErrTransportFailure) {
		t.Fatalf("err = %v, want ErrTransportFailure", err)
	}
}

func TestCanHandle(t *testing.T) {
	var h Handler = New()
	if !h.CanHandle("https://m.youtube.com/watch?v=43TmnIaL3n4") {
		t.Error("expected mobile watch URL to be handled")
	}
	if h.CanHandle("https://example.com/video/1") {
		t.Error("unexpected match for foreign host")
	}
}

func TestWithSetters(t *testing.T) {
	r := New().WithMimeTypes("video/webm", "").WithBaseURL("http://127.0.0.1:1/").WithPrefetch(true).WithHTTPClient(&http.Client{})
	if r.videoMime != "video/webm" || r.audioMime != "audio/mp4" {
		t.Errorf("mimes = %q %q", r.videoMime, r.audioMime)
	}
	if r.baseURL != "http://127.0.0.1:1" || !r.prefetch {
		t.Errorf("resolver = %+v", r)
	}
	if _, ok := r.client.(*client.Client); !ok {
		t.Errorf("client = %T", r.client)
	}
	if New().WithClient(nil).client == nil {
		t.Error("nil client should keep the default")
	}
}
