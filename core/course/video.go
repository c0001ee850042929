package course

import (
	"net/url"
	"regexp"
	"strings"
)

// Video kinds
const (
	VideoNone        = "none"
	VideoYouTube     = "youtube"
	VideoGoogleDrive = "googledrive"
	VideoWistia      = "wistia"
	VideoFile        = "file"
)

// VideoSource classifies a lesson's video URL and carries the URL a client
// should actually embed or play.
type VideoSource struct {
	Kind     string `json:"kind"`
	EmbedURL string `json:"embed_url,omitempty"`
}

// a bare 10-character Wistia media id; not a URL
var wistiaIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]{10}$`)

// ResolveVideoSource maps the handful of video URL shapes lessons use
// (YouTube links, Google Drive share links, bare Wistia ids, direct file
// URLs) to an embeddable source.
func ResolveVideoSource(rawURL string) VideoSource {
	if rawURL == "" {
		return VideoSource{Kind: VideoNone}
	}

	if !strings.ContainsAny(rawURL, "/:") && wistiaIDRegex.MatchString(rawURL) {
		return VideoSource{Kind: VideoWistia, EmbedURL: "https://fast.wistia.net/embed/iframe/" + rawURL}
	}

	if embed := youTubeEmbedURL(rawURL); embed != "" {
		return VideoSource{Kind: VideoYouTube, EmbedURL: embed}
	}
	if embed := googleDriveEmbedURL(rawURL); embed != "" {
		return VideoSource{Kind: VideoGoogleDrive, EmbedURL: embed}
	}

	return VideoSource{Kind: VideoFile, EmbedURL: rawURL}
}

func youTubeEmbedURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	var videoID string
	switch {
	case strings.Contains(u.Hostname(), "youtube.com"):
		videoID = u.Query().Get("v")
	case strings.Contains(u.Hostname(), "youtu.be"):
		videoID = strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	}
	if videoID == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + videoID
}

func googleDriveEmbedURL(rawURL string) string {
	if !strings.Contains(rawURL, "drive.google.com") {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	// share links look like /file/d/<fileID>/view
	parts := strings.Split(u.Path, "/")
	for i, part := range parts {
		if part == "d" && i+1 < len(parts) && parts[i+1] != "" {
			return "https://drive.google.com/file/d/" + parts[i+1] + "/preview"
		}
	}
	return ""
}
