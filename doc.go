// Package ytinfo resolves a YouTube video page URL into a description of its
// media: direct stream URLs for muxed video and audio-only formats, captions,
// thumbnail and basic metadata.
//
// A request runs URL matching, the metadata fetch, payload parsing and format
// resolution in sequence. Ciphered formats trigger a single watch page and
// player script fetch per request; the player script is then analysed to
// recover the signature transformation.
//
// Failures are classified by the errs package. A request either fails with a
// request-fatal error or succeeds with whatever streams could be resolved.
//
// Outbound TLS verification is off unless the client is built with
// client.Config{VerifyTLS: true}.
//
//	res, err := ytinfo.New().WithPrefetch(true).Resolve(ctx, "https://youtu.be/43TmnIaL3n4")
package ytinfo
