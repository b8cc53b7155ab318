package model

import (
	"net/url"
	"path"
	"strings"
)

// MediaClass is the playback classification of a track.
type MediaClass string

const (
	MediaAudio MediaClass = "audio"
	MediaVideo MediaClass = "video"
)

// audioExtensions is the extension heuristic used when a track carries no
// explicit type tag. Anything not matched is treated as video.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
}

// ClassifyMedia decides whether a track is audio or video. An explicit type
// tag wins; otherwise the source URL's file extension is consulted.
func ClassifyMedia(t Track) MediaClass {
	switch strings.ToLower(strings.TrimSpace(t.Type)) {
	case "audio":
		return MediaAudio
	case "video":
		return MediaVideo
	}

	ext := strings.ToLower(path.Ext(urlPath(t.SourceURL)))
	if audioExtensions[ext] {
		return MediaAudio
	}
	return MediaVideo
}

// urlPath extracts the path component of a URL, falling back to the raw
// string when it does not parse (so bare filenames still classify).
func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}
