// Package formats turns format descriptors into playable streams, decoding
// signature ciphers with the player script when needed.
package formats

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/internal/logger"
	"github.com/ytget/ytinfo/types"
	"github.com/ytget/ytinfo/youtube/cipher"
	"github.com/ytget/ytinfo/youtube/payload"
)

const (
	// DefaultVideoMime is the container kept among progressive formats.
	DefaultVideoMime = "video/mp4"
	// DefaultAudioMime is the container kept among adaptive formats.
	DefaultAudioMime = "audio/mp4"
	// defaultSigParam is used when a cipher blob has no sp field.
	defaultSigParam = "signature"
)

// ScriptSource provides the player script for one request.
type ScriptSource interface {
	PlayerScript(ctx context.Context) (string, error)
}

// Memo fetches the player script at most once and replays the outcome.
type Memo struct {
	fetch  func(context.Context) (string, error)
	once   sync.Once
	script string
	err    error
}

// NewMemo wraps fetch so that concurrent and repeated calls share one result.
func NewMemo(fetch func(context.Context) (string, error)) *Memo {
	return &Memo{fetch: fetch}
}

// PlayerScript implements ScriptSource.
func (m *Memo) PlayerScript(ctx context.Context) (string, error) {
	m.once.Do(func() {
		m.script, m.err = m.fetch(ctx)
	})
	return m.script, m.err
}

// Resolver selects progressive video and adaptive audio formats by mime type
// and turns each into a stream URL.
type Resolver struct {
	VideoMime string
	AudioMime string
	Decoder   *cipher.Decoder
}

// NewResolver returns a resolver with the default mime filters.
func NewResolver() *Resolver {
	return &Resolver{VideoMime: DefaultVideoMime, AudioMime: DefaultAudioMime}
}

// Outcome records a descriptor that matched a filter but could not be resolved.
type Outcome struct {
	Descriptor payload.FormatDescriptor
	Kind       types.StreamKind
	Err        error
}

// Result holds resolved streams in payload order.
type Result struct {
	Videos  []types.Stream
	Audios  []types.Stream
	Skipped []Outcome
}

// Preview returns the first resolved video, or nil.
func (r *Result) Preview() *types.Stream {
	if r == nil || len(r.Videos) == 0 {
		return nil
	}
	s := r.Videos[0]
	return &s
}

// Resolve walks progressive formats as videos and adaptive formats as audios.
// Descriptors that cannot be resolved are skipped; the returned error is
// non-nil only when the player script could not be fetched.
func (r *Resolver) Resolve(ctx context.Context, info *payload.VideoInfo, src ScriptSource) (*Result, error) {
	res := &Result{}
	if info == nil {
		return res, nil
	}
	log := logger.WithComponent(logger.ComponentFormat)
	if info.VideoID != nil {
		log = log.With(map[string]interface{}{"video_id": *info.VideoID})
	}

	st := &requestState{resolver: r, src: src}

	groups := []struct {
		kind  types.StreamKind
		mime  string
		items []payload.FormatDescriptor
		out   *[]types.Stream
	}{
		{types.KindVideo, r.videoMime(), info.ProgressiveFormats, &res.Videos},
		{types.KindAudio, r.audioMime(), info.AdaptiveFormats, &res.Audios},
	}

	for _, g := range groups {
		for _, d := range g.items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !mimeMatches(d, g.mime) {
				continue
			}
			streamURL, err := st.streamURL(ctx, d)
			if err != nil {
				if errs.IsFatal(err) {
					return nil, err
				}
				log.Debug("skipping format", map[string]interface{}{
					"itag":  d.Itag,
					"kind":  string(g.kind),
					"error": err.Error(),
				})
				res.Skipped = append(res.Skipped, Outcome{Descriptor: d, Kind: g.kind, Err: err})
				continue
			}
			*g.out = append(*g.out, types.Stream{
				URL:      streamURL,
				Quality:  qualityLabel(d),
				Kind:     g.kind,
				Itag:     d.Itag,
				MimeType: d.MimeType,
			})
		}
	}

	log.Debug("formats resolved", map[string]interface{}{
		"videos":  len(res.Videos),
		"audios":  len(res.Audios),
		"skipped": len(res.Skipped),
	})
	return res, nil
}

func (r *Resolver) videoMime() string {
	if r == nil || r.VideoMime == "" {
		return DefaultVideoMime
	}
	return r.VideoMime
}

func (r *Resolver) audioMime() string {
	if r == nil || r.AudioMime == "" {
		return DefaultAudioMime
	}
	return r.AudioMime
}

// requestState derives the cipher program at most once per request.
type requestState struct {
	resolver *Resolver
	src      ScriptSource

	derived bool
	program cipher.Program
	progErr error
}

func (st *requestState) streamURL(ctx context.Context, d payload.FormatDescriptor) (string, error) {
	if hasDirectURL(d) {
		return *d.DirectURL, nil
	}
	if !hasCipherBlob(d) {
		return "", fmt.Errorf("%w: itag %d has neither url nor cipher", errs.ErrNotValidItem, d.Itag)
	}

	query, err := url.ParseQuery(*d.CipherBlob)
	if err != nil {
		return "", fmt.Errorf("%w: itag %d: parse cipher: %v", errs.ErrNotValidItem, d.Itag, err)
	}
	sig := query.Get("s")
	base := query.Get("url")
	if sig == "" || base == "" {
		return "", fmt.Errorf("%w: itag %d: cipher missing s or url", errs.ErrNotValidItem, d.Itag)
	}
	sp := query.Get("sp")
	if sp == "" {
		sp = defaultSigParam
	}

	prog, err := st.programFor(ctx)
	if err != nil {
		if errs.IsFatal(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: itag %d: %w", errs.ErrNotValidItem, d.Itag, err)
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: itag %d: parse url: %v", errs.ErrNotValidItem, d.Itag, err)
	}
	// the base query is kept byte for byte; the signature goes last
	pair := url.QueryEscape(sp) + "=" + url.QueryEscape(prog.Apply(sig))
	if u.RawQuery == "" {
		u.RawQuery = pair
	} else {
		u.RawQuery += "&" + pair
	}
	return u.String(), nil
}

func (st *requestState) programFor(ctx context.Context) (cipher.Program, error) {
	if st.derived {
		return st.program, st.progErr
	}
	if st.src == nil {
		return nil, cipher.NewError(cipher.ErrCodeEmptyScript, "no player script source")
	}
	script, err := st.src.PlayerScript(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch player script: %w", err)
	}
	st.derived = true
	st.program, st.progErr = st.resolver.decoder().Program(script)
	return st.program, st.progErr
}

func (r *Resolver) decoder() *cipher.Decoder {
	if r == nil {
		return nil
	}
	return r.Decoder
}

// PreferredThumbnail returns the last listed thumbnail, which the service
// orders from smallest to largest.
func PreferredThumbnail(thumbs []payload.Thumbnail) *payload.Thumbnail {
	if len(thumbs) == 0 {
		return nil
	}
	t := thumbs[len(thumbs)-1]
	return &t
}
