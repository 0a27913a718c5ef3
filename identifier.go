package streamdl

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/alanbriolat/streamdl/generic"
)

// VideoIDLength is the length of every YouTube video ID.
const VideoIDLength = 11

var videoIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

var (
	errNotBareID        = errors.New("not a bare video ID")
	errNotURL           = errors.New("not a URL")
	errUnrecognisedHost = errors.New("unrecognised hostname")
	errNoVideoID        = errors.New("could not extract video ID")
)

// A VideoID is a validated YouTube video ID. Only ParseVideoID creates valid ones.
type VideoID string

func (id VideoID) String() string {
	return string(id)
}

// URL returns the canonical watch URL for the video.
func (id VideoID) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", string(id))
}

// An idMatcher extracts a VideoID from raw input in one particular shape, or explains why it can't.
type idMatcher struct {
	name  string
	match func(string) (VideoID, error)
}

// idMatchers are tried in order, first success wins.
var idMatchers = []idMatcher{
	{"id", matchBareID},
	{"url", matchURL},
}

// ParseVideoID accepts either a bare video ID or any of the URL shapes that YouTube uses to link to a video:
//
//	http(s)://(www|m|music).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s)://(www|m|music).youtube.com/(v|embed|shorts|live)/{VIDEO_ID}
//	http(s)://www.youtube-nocookie.com/embed/{VIDEO_ID}
//	http(s)://youtu.be/{VIDEO_ID}
//
// The scheme may be omitted. If nothing matches, the returned error wraps ErrInvalidIdentifier along with the
// reason each shape was rejected.
func ParseVideoID(raw string) (VideoID, error) {
	s := strings.TrimSpace(raw)
	var result error
	for _, m := range idMatchers {
		if id, err := m.match(s); err == nil {
			return id, nil
		} else {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", m.name)))
		}
	}
	return "", fmt.Errorf("%w %q: %w", ErrInvalidIdentifier, raw, result)
}

// MustParseVideoID wraps ParseVideoID but panics if there is an error.
func MustParseVideoID(raw string) VideoID {
	return generic.Unwrap(ParseVideoID(raw))
}

func matchBareID(s string) (VideoID, error) {
	if videoIDPattern.MatchString(s) {
		return VideoID(s), nil
	}
	return "", errNotBareID
}

var (
	youtubeHosts   = generic.NewSet("youtube.com", "www.youtube.com", "m.youtube.com", "music.youtube.com")
	nocookieHosts  = generic.NewSet("youtube-nocookie.com", "www.youtube-nocookie.com")
	shortLinkHosts = generic.NewSet("youtu.be", "www.youtu.be")
	pathPrefixes   = []string{"/v/", "/embed/", "/shorts/", "/live/"}
	urlSchemes     = generic.NewSet("http", "https")
)

func matchURL(s string) (VideoID, error) {
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	parsedURL, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errNotURL, err)
	}
	if !urlSchemes.Contains(parsedURL.Scheme) {
		return "", fmt.Errorf("%w: unknown URL scheme %v", errNotURL, parsedURL.Scheme)
	}
	var id string
	host := strings.ToLower(parsedURL.Hostname())
	switch {
	case youtubeHosts.Contains(host):
		if parsedURL.Path == "/watch" || parsedURL.Path == "/details" {
			id = parsedURL.Query().Get("v")
		} else {
			id = idFromPath(parsedURL.Path)
		}
	case nocookieHosts.Contains(host):
		id = idFromPath(parsedURL.Path)
	case shortLinkHosts.Contains(host):
		id = strings.Trim(parsedURL.Path, "/")
	default:
		return "", fmt.Errorf("%w %q", errUnrecognisedHost, host)
	}
	if !videoIDPattern.MatchString(id) {
		return "", errNoVideoID
	}
	return VideoID(id), nil
}

// idFromPath extracts the ID from paths like /embed/{VIDEO_ID}, ignoring anything after it.
func idFromPath(path string) string {
	for _, prefix := range pathPrefixes {
		if rest, ok := strings.CutPrefix(path, prefix); ok {
			return strings.SplitN(rest, "/", 2)[0]
		}
	}
	return ""
}
