package types

// StreamKind distinguishes muxed video streams from audio-only streams.
type StreamKind string

const (
	KindVideo StreamKind = "video"
	KindAudio StreamKind = "audio"
)

// Stream is a resolved, directly downloadable media stream.
type Stream struct {
	URL      string     `json:"url"`
	Quality  string     `json:"quality"`
	Kind     StreamKind `json:"kind"`
	Itag     int        `json:"itag,omitempty"`
	MimeType string     `json:"mimeType,omitempty"`
	Ext      string     `json:"ext,omitempty"`
	Filename string     `json:"filename,omitempty"`
}

// Caption is a single caption track.
type Caption struct {
	URL          string `json:"url"`
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name,omitempty"`
}

// Author identifies the channel that published the video.
type Author struct {
	ChannelID   string `json:"channelId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Playability mirrors the platform's playability verdict. It is informative only.
type Playability struct {
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Resource is the assembled description of one video page.
// Every metadata field may be empty; partial results are valid.
type Resource struct {
	SourceURL    string       `json:"sourceUrl"`
	VideoID      string       `json:"videoId"`
	Title        string       `json:"title,omitempty"`
	Description  string       `json:"description,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	ViewCount    *int64       `json:"viewCount,omitempty"`
	Duration     int64        `json:"durationSeconds,omitempty"`
	Author       Author       `json:"author"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Captions     []Caption    `json:"captions,omitempty"`
	Videos       []Stream     `json:"videos"`
	PreviewVideo *Stream      `json:"previewVideo,omitempty"`
	Audios       []Stream     `json:"audios"`
	Playability  *Playability `json:"playability,omitempty"`
	// Skipped counts format descriptors dropped during resolution.
	Skipped int `json:"skipped,omitempty"`
}
