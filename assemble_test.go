package ytinfo

import (
	"testing"

	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/types"
	"github.com/ytget/ytinfo/youtube/formats"
	"github.com/ytget/ytinfo/youtube/payload"
)

func sp(s string) *string { return &s }
func ip(n int64) *int64   { return &n }

func TestAssemble_Full(t *testing.T) {
	info := &payload.VideoInfo{
		VideoID:       sp("abcdefghijk"),
		Title:         sp("Clip One"),
		Description:   sp("desc"),
		Keywords:      []string{"a", "b"},
		ViewCount:     ip(42),
		ChannelID:     sp("UC1"),
		AuthorName:    sp("Someone"),
		LengthSeconds: ip(61),
		Thumbnails: []payload.Thumbnail{
			{URL: "https://i.example/small.jpg", Width: 120, Height: 90},
			{URL: "https://i.example/large.jpg", Width: 1280, Height: 720},
		},
		CaptionTracks: []payload.CaptionTrack{
			{BaseURL: "https://c.example/en", LanguageCode: "en", Name: sp("English")},
			{BaseURL: "", LanguageCode: "de"},
		},
		Playability: &payload.Playability{Status: "OK"},
	}
	result := &formats.Result{
		Videos: []types.Stream{
			{URL: "https://v.example/1", Quality: "720p", Kind: types.KindVideo, Itag: 22, MimeType: "video/mp4"},
			{URL: "https://v.example/2", Quality: "360p", Kind: types.KindVideo, Itag: 18, MimeType: "video/mp4"},
		},
		Audios: []types.Stream{
			{URL: "https://a.example/1", Quality: "130000", Kind: types.KindAudio, Itag: 140, MimeType: "audio/mp4"},
		},
		Skipped: []formats.Outcome{{Kind: types.KindVideo, Err: errs.ErrNotValidItem}},
	}

	res := Assemble(Ref{SourceURL: "https://youtu.be/abcdefghijk", VideoID: "fromurl0000"}, info, result)

	if res.VideoID != "abcdefghijk" {
		t.Errorf("VideoID = %q", res.VideoID)
	}
	if res.SourceURL != "https://youtu.be/abcdefghijk" {
		t.Errorf("SourceURL = %q", res.SourceURL)
	}
	if res.Title != "Clip One" || res.Description != "desc" {
		t.Errorf("title/description = %q/%q", res.Title, res.Description)
	}
	if len(res.Tags) != 2 || res.ViewCount == nil || *res.ViewCount != 42 || res.Duration != 61 {
		t.Errorf("tags/views/duration = %v/%v/%d", res.Tags, res.ViewCount, res.Duration)
	}
	if res.Author.ChannelID != "UC1" || res.Author.DisplayName != "Someone" {
		t.Errorf("Author = %+v", res.Author)
	}
	if res.ThumbnailURL != "https://i.example/large.jpg" {
		t.Errorf("ThumbnailURL = %q", res.ThumbnailURL)
	}
	if len(res.Captions) != 1 || res.Captions[0].Name != "English" {
		t.Errorf("Captions = %+v", res.Captions)
	}
	if res.Playability == nil || res.Playability.Status != "OK" {
		t.Errorf("Playability = %+v", res.Playability)
	}
	if len(res.Videos) != 2 || len(res.Audios) != 1 {
		t.Fatalf("streams = %d videos, %d audios", len(res.Videos), len(res.Audios))
	}
	if res.Videos[0].Ext != "mp4" || res.Videos[0].Filename != "Clip One (720p).mp4" {
		t.Errorf("video 0 = %+v", res.Videos[0])
	}
	if res.Audios[0].Ext != "m4a" || res.Audios[0].Filename != "Clip One (130000).m4a" {
		t.Errorf("audio 0 = %+v", res.Audios[0])
	}
	if res.PreviewVideo == nil || res.PreviewVideo.Itag != 22 || res.PreviewVideo.Filename != "Clip One (720p).mp4" {
		t.Fatalf("PreviewVideo = %+v", res.PreviewVideo)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped = %d", res.Skipped)
	}

	// the preview is a copy
	res.PreviewVideo.URL = "changed"
	if res.Videos[0].URL != "https://v.example/1" {
		t.Error("PreviewVideo aliases Videos[0]")
	}
	// input streams are not modified
	if result.Videos[0].Filename != "" {
		t.Error("Assemble modified the input result")
	}
}

func TestAssemble_Empty(t *testing.T) {
	res := Assemble(Ref{SourceURL: "u", VideoID: "fromurl0000"}, nil, nil)
	if res.VideoID != "fromurl0000" {
		t.Errorf("VideoID = %q", res.VideoID)
	}
	if res.Videos == nil || res.Audios == nil {
		t.Error("stream lists must be non-nil")
	}
	if res.PreviewVideo != nil || res.Playability != nil || res.Title != "" {
		t.Errorf("unexpected fields: %+v", res)
	}
}

func TestAssemble_UntitledStreamNames(t *testing.T) {
	result := &formats.Result{
		Videos: []types.Stream{{URL: "u", Quality: "480p", Kind: types.KindVideo, MimeType: "video/webm"}},
	}
	res := Assemble(Ref{}, &payload.VideoInfo{}, result)
	if got := res.Videos[0].Filename; got != "video (480p).webm" {
		t.Errorf("Filename = %q", got)
	}
}
