package ytinfo

import (
	"github.com/ytget/ytinfo/internal/mimeext"
	"github.com/ytget/ytinfo/internal/sanitize"
	"github.com/ytget/ytinfo/types"
	"github.com/ytget/ytinfo/youtube/formats"
	"github.com/ytget/ytinfo/youtube/payload"
)

// Ref identifies the page a resource was resolved from.
type Ref struct {
	SourceURL string
	VideoID   string
}

// Assemble packages parsed metadata and resolved streams into a Resource.
// Absent metadata leaves the corresponding field empty.
func Assemble(ref Ref, info *payload.VideoInfo, result *formats.Result) *types.Resource {
	res := &types.Resource{
		SourceURL: ref.SourceURL,
		VideoID:   ref.VideoID,
		Videos:    []types.Stream{},
		Audios:    []types.Stream{},
	}

	if info != nil {
		if info.VideoID != nil && *info.VideoID != "" {
			res.VideoID = *info.VideoID
		}
		res.Title = deref(info.Title)
		res.Description = deref(info.Description)
		res.Tags = info.Keywords
		res.ViewCount = info.ViewCount
		if info.LengthSeconds != nil {
			res.Duration = *info.LengthSeconds
		}
		res.Author = types.Author{
			ChannelID:   deref(info.ChannelID),
			DisplayName: deref(info.AuthorName),
		}
		if t := formats.PreferredThumbnail(info.Thumbnails); t != nil {
			res.ThumbnailURL = t.URL
		}
		for _, c := range info.CaptionTracks {
			if c.BaseURL == "" {
				continue
			}
			res.Captions = append(res.Captions, types.Caption{
				URL:          c.BaseURL,
				LanguageCode: c.LanguageCode,
				Name:         deref(c.Name),
			})
		}
		if info.Playability != nil {
			res.Playability = &types.Playability{Status: info.Playability.Status, Reason: info.Playability.Reason}
		}
	}

	if result != nil {
		named := formats.Result{
			Videos: withFileNames(result.Videos, res.Title),
			Audios: withFileNames(result.Audios, res.Title),
		}
		res.Videos = append(res.Videos, named.Videos...)
		res.Audios = append(res.Audios, named.Audios...)
		res.Skipped = len(result.Skipped)
		res.PreviewVideo = named.Preview()
	}
	return res
}

func withFileNames(streams []types.Stream, title string) []types.Stream {
	out := make([]types.Stream, len(streams))
	for i, s := range streams {
		s.Ext = mimeext.ExtFromMime(s.Kind, s.MimeType)
		s.Filename = sanitize.StreamFilename(title, s.Quality, s.Ext)
		out[i] = s
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
