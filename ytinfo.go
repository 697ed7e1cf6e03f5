package ytinfo

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ytget/ytinfo/client"
	"github.com/ytget/ytinfo/internal/logger"
	"github.com/ytget/ytinfo/types"
	"github.com/ytget/ytinfo/youtube/cipher"
	"github.com/ytget/ytinfo/youtube/fetcher"
	"github.com/ytget/ytinfo/youtube/formats"
	"github.com/ytget/ytinfo/youtube/payload"
	"github.com/ytget/ytinfo/youtube/urlmatch"
)

// Handler resolves page URLs of one video platform.
type Handler interface {
	CanHandle(rawURL string) bool
	Resolve(ctx context.Context, rawURL string) (*types.Resource, error)
}

var _ Handler = (*Resolver)(nil)

// Resolver turns a video page URL into a Resource. It is safe for concurrent
// use once configured; the With* setters are not.
type Resolver struct {
	client    client.Getter
	baseURL   string
	videoMime string
	audioMime string
	evaluator cipher.Evaluator
	cache     *cipher.ProgramCache
	prefetch  bool
	log       *logger.Logger
}

// New creates a Resolver with the default client and mime targets.
func New() *Resolver {
	return &Resolver{
		client:    client.New(),
		baseURL:   fetcher.DefaultBaseURL,
		videoMime: formats.DefaultVideoMime,
		audioMime: formats.DefaultAudioMime,
	}
}

// WithClient sets the client used for every outbound request.
func (r *Resolver) WithClient(c client.Getter) *Resolver {
	if c != nil {
		r.client = c
	}
	return r
}

// WithHTTPClient wraps hc with the default headers and response classification.
func (r *Resolver) WithHTTPClient(hc *http.Client) *Resolver {
	if hc != nil {
		r.client = &client.Client{HTTPClient: hc}
	}
	return r
}

// WithBaseURL points the resolver at another host, e.g. a test server.
func (r *Resolver) WithBaseURL(base string) *Resolver {
	r.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	return r
}

// WithMimeTypes sets the containers kept among progressive (video) and
// adaptive (audio) formats. Empty values keep the current setting.
func (r *Resolver) WithMimeTypes(video, audio string) *Resolver {
	if video = strings.TrimSpace(video); video != "" {
		r.videoMime = video
	}
	if audio = strings.TrimSpace(audio); audio != "" {
		r.audioMime = audio
	}
	return r
}

// WithEvaluator sets the JavaScript evaluator used for unknown helper shapes.
func (r *Resolver) WithEvaluator(ev cipher.Evaluator) *Resolver {
	r.evaluator = ev
	return r
}

// WithProgramCache shares derived cipher programs across requests.
func (r *Resolver) WithProgramCache(c *cipher.ProgramCache) *Resolver {
	r.cache = c
	return r
}

// WithPrefetch starts the watch page and player script fetch alongside the
// metadata request instead of waiting for the first cipher blob.
func (r *Resolver) WithPrefetch(enabled bool) *Resolver {
	r.prefetch = enabled
	return r
}

// WithLogger sets the logger for request-level entries. Defaults to the global logger.
func (r *Resolver) WithLogger(l *logger.Logger) *Resolver {
	r.log = l
	return r
}

// CanHandle reports whether rawURL has a supported shape.
func (r *Resolver) CanHandle(rawURL string) bool {
	return urlmatch.CanHandle(rawURL)
}

// Resolve matches rawURL, fetches and parses the metadata, resolves stream
// URLs and assembles the result.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*types.Resource, error) {
	log := r.logger().WithComponent(logger.ComponentApp).With(map[string]interface{}{
		"request_id": uuid.NewString(),
	})

	id, err := urlmatch.Match(rawURL)
	if err != nil {
		log.Debug("url rejected", map[string]interface{}{"url": rawURL})
		return nil, err
	}
	log = log.With(map[string]interface{}{"video_id": id})
	log.Info("resolving")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := fetcher.New(r.client).WithBaseURL(r.baseURL)
	src := r.scriptSource(ctx, f, id)

	body, err := f.VideoInfo(ctx, id)
	if err != nil {
		log.Warn("metadata fetch failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	info, err := payload.Parse(body)
	if err != nil {
		log.Warn("metadata parse failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	fr := &formats.Resolver{
		VideoMime: r.videoMime,
		AudioMime: r.audioMime,
		Decoder:   &cipher.Decoder{Evaluator: r.evaluator, Cache: r.cache},
	}
	result, err := fr.Resolve(ctx, info, src)
	if err != nil {
		log.Warn("format resolution failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	res := Assemble(Ref{SourceURL: rawURL, VideoID: id}, info, result)
	log.Info("resolved", map[string]interface{}{
		"videos":  len(res.Videos),
		"audios":  len(res.Audios),
		"skipped": res.Skipped,
	})
	return res, nil
}

// scriptSource returns the request-scoped player script source. With prefetch
// the watch page chain starts now and the memo waits for it on first use.
func (r *Resolver) scriptSource(ctx context.Context, f *fetcher.Fetcher, id string) *formats.Memo {
	if !r.prefetch {
		return formats.NewMemo(func(ctx context.Context) (string, error) {
			return f.PlayerScript(ctx, id)
		})
	}

	type outcome struct {
		script string
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		script, err := f.PlayerScript(ctx, id)
		ch <- outcome{script, err}
	}()
	return formats.NewMemo(func(waitCtx context.Context) (string, error) {
		select {
		case o := <-ch:
			return o.script, o.err
		case <-waitCtx.Done():
			return "", waitCtx.Err()
		}
	})
}

func (r *Resolver) logger() *logger.Logger {
	if r.log != nil {
		return r.log
	}
	return logger.GetGlobalLogger()
}
