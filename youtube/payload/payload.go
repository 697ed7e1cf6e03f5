// Package payload extracts the embedded player response from a metadata
// endpoint body and exposes it as a tree of optional fields.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/internal/logger"
)

// marker opens the embedded player response object.
const marker = `{"responseContext`

// VideoInfo is the parsed payload. Every field may be absent.
type VideoInfo struct {
	VideoID            *string
	Title              *string
	Description        *string
	Keywords           []string
	ViewCount          *int64
	ChannelID          *string
	AuthorName         *string
	LengthSeconds      *int64
	Thumbnails         []Thumbnail
	CaptionTracks      []CaptionTrack
	ProgressiveFormats []FormatDescriptor
	AdaptiveFormats    []FormatDescriptor
	Playability        *Playability
}

// Thumbnail is one preview image; the platform lists them smallest first.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// CaptionTrack is one caption track reference.
type CaptionTrack struct {
	BaseURL      string
	LanguageCode string
	Name         *string
}

// Playability is the platform's verdict on whether the video can be played.
type Playability struct {
	Status string
	Reason string
}

// FormatDescriptor describes one stream format. Exactly one of DirectURL and
// CipherBlob is expected; a descriptor with neither is unusable.
type FormatDescriptor struct {
	Itag         int
	MimeType     string
	QualityLabel *string
	Bitrate      *int64
	DirectURL    *string
	CipherBlob   *string
}

// Parse decodes the metadata endpoint body. A missing marker or malformed
// embedded object yields an error wrapping errs.ErrNothingToExtract.
func Parse(body []byte) (*VideoInfo, error) {
	log := logger.WithComponent(logger.ComponentPayload)

	decoded, err := url.QueryUnescape(string(body))
	if err != nil {
		// one bad escape must not hide the other fields
		log.Debug("body does not unescape as a whole", map[string]interface{}{"error": err.Error()})
		decoded = unescapeFields(string(body))
		if !strings.Contains(decoded, marker) {
			decoded = string(body)
		}
	}

	raw, err := extractObject([]byte(decoded))
	if err != nil {
		return nil, err
	}

	var w wireResponse
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: decode player response: %v", errs.ErrNothingToExtract, err)
	}

	info := w.toVideoInfo()
	log.Debug("payload parsed", map[string]interface{}{
		"progressive": len(info.ProgressiveFormats),
		"adaptive":    len(info.AdaptiveFormats),
		"captions":    len(info.CaptionTracks),
	})
	return info, nil
}

// unescapeFields decodes each key=value pair of a form body on its own.
// Pairs that fail to decode are kept as they are.
func unescapeFields(body string) string {
	fields := strings.Split(body, "&")
	for i, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			continue
		}
		if v, err := url.QueryUnescape(value); err == nil {
			fields[i] = key + "=" + v
		}
	}
	return strings.Join(fields, "&")
}

// extractObject returns the balanced object starting at marker. String
// literals are honoured so braces and '&' inside values do not end the scan;
// a bare '&' before the object closes means the object was cut off.
func extractObject(s []byte) ([]byte, error) {
	start := bytes.Index(s, []byte(marker))
	if start < 0 {
		return nil, fmt.Errorf("%w: player response marker not found", errs.ErrNothingToExtract)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		case '&':
			return nil, fmt.Errorf("%w: player response truncated at offset %d", errs.ErrNothingToExtract, i)
		}
	}
	return nil, fmt.Errorf("%w: player response not terminated", errs.ErrNothingToExtract)
}

type wireResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData *struct {
		Formats         []wireFormat `json:"formats"`
		AdaptiveFormats []wireFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
	Captions *struct {
		Renderer *struct {
			CaptionTracks []wireCaption `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	VideoDetails *struct {
		VideoID          string   `json:"videoId"`
		Title            string   `json:"title"`
		LengthSeconds    flexInt  `json:"lengthSeconds"`
		Keywords         []string `json:"keywords"`
		ChannelID        string   `json:"channelId"`
		ShortDescription string   `json:"shortDescription"`
		Thumbnail        *struct {
			Thumbnails []struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
		ViewCount flexInt `json:"viewCount"`
		Author    string  `json:"author"`
	} `json:"videoDetails"`
}

type wireFormat struct {
	Itag            int     `json:"itag"`
	URL             string  `json:"url"`
	MimeType        string  `json:"mimeType"`
	Bitrate         flexInt `json:"bitrate"`
	QualityLabel    string  `json:"qualityLabel"`
	SignatureCipher string  `json:"signatureCipher"`
	Cipher          string  `json:"cipher"`
}

type wireCaption struct {
	BaseURL      string   `json:"baseUrl"`
	LanguageCode string   `json:"languageCode"`
	Name         wireText `json:"name"`
}

// wireText is the platform's rich text: either simpleText or a list of runs.
type wireText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t wireText) String() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	var b bytes.Buffer
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// flexInt accepts a JSON number or a numeric string. Anything else reads as absent.
type flexInt struct {
	v *int64
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	f.v = nil
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if uq, err := strconv.Unquote(s); err == nil {
			s = uq
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.v = &n
	}
	return nil
}

func (w *wireResponse) toVideoInfo() *VideoInfo {
	info := &VideoInfo{}

	if d := w.VideoDetails; d != nil {
		info.VideoID = optString(d.VideoID)
		info.Title = optString(d.Title)
		info.Description = optString(d.ShortDescription)
		info.Keywords = d.Keywords
		info.ViewCount = d.ViewCount.v
		info.ChannelID = optString(d.ChannelID)
		info.AuthorName = optString(d.Author)
		info.LengthSeconds = d.LengthSeconds.v
		if d.Thumbnail != nil {
			for _, th := range d.Thumbnail.Thumbnails {
				if th.URL == "" {
					continue
				}
				info.Thumbnails = append(info.Thumbnails, Thumbnail{URL: th.URL, Width: th.Width, Height: th.Height})
			}
		}
	}

	if c := w.Captions; c != nil && c.Renderer != nil {
		for _, ct := range c.Renderer.CaptionTracks {
			if ct.BaseURL == "" {
				continue
			}
			info.CaptionTracks = append(info.CaptionTracks, CaptionTrack{
				BaseURL:      ct.BaseURL,
				LanguageCode: ct.LanguageCode,
				Name:         optString(ct.Name.String()),
			})
		}
	}

	if sd := w.StreamingData; sd != nil {
		info.ProgressiveFormats = convertFormats(sd.Formats)
		info.AdaptiveFormats = convertFormats(sd.AdaptiveFormats)
	}

	if ps := w.PlayabilityStatus; ps != nil && (ps.Status != "" || ps.Reason != "") {
		info.Playability = &Playability{Status: ps.Status, Reason: ps.Reason}
	}
	return info
}

func convertFormats(in []wireFormat) []FormatDescriptor {
	if len(in) == 0 {
		return nil
	}
	out := make([]FormatDescriptor, 0, len(in))
	for _, f := range in {
		blob := f.SignatureCipher
		if blob == "" {
			blob = f.Cipher
		}
		out = append(out, FormatDescriptor{
			Itag:         f.Itag,
			MimeType:     f.MimeType,
			QualityLabel: optString(f.QualityLabel),
			Bitrate:      f.Bitrate.v,
			DirectURL:    optString(f.URL),
			CipherBlob:   optString(blob),
		})
	}
	return out
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
