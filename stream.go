package streamdl

import (
	"fmt"
	"iter"
	"mime"
	"strconv"
	"strings"
	"time"
)

// Container is a normalised container name such as "mp4". Names other than the constants below are valid, they are
// just never preferred by default. The zero value means the container is unknown.
type Container string

const (
	ContainerUnknown Container = ""
	Container3GPP    Container = "3gp"
	ContainerMP4     Container = "mp4"
	ContainerWebM    Container = "webm"
)

func (c Container) String() string {
	if c == ContainerUnknown {
		return "unknown"
	}
	return string(c)
}

// ParseContainer normalises a container name or file extension, e.g. "MP4", ".webm", "3gpp".
func ParseContainer(s string) (Container, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch name {
	case "":
		return ContainerUnknown, fmt.Errorf("empty container name")
	case "m4a", "m4v":
		return ContainerMP4, nil
	case "3gpp":
		return Container3GPP, nil
	default:
		return Container(name), nil
	}
}

// ParseMimeType extracts the container and codec list from a MIME type like `video/mp4; codecs="avc1.4d401f, mp4a.40.2"`.
func ParseMimeType(mimeType string) (Container, []string) {
	mediaType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return ContainerUnknown, nil
	}
	var codecs []string
	for _, codec := range strings.Split(params["codecs"], ",") {
		if codec = strings.TrimSpace(codec); codec != "" {
			codecs = append(codecs, codec)
		}
	}
	_, subtype, _ := strings.Cut(mediaType, "/")
	container, _ := ParseContainer(subtype)
	return container, codecs
}

// Quality is the resolution tier of a stream's video track; streams without video are QualityNone. Higher is better.
type Quality int

const (
	QualityNone Quality = iota
	Quality144p
	Quality240p
	Quality360p
	Quality480p
	Quality720p
	Quality1080p
	Quality1440p
	Quality2160p
	Quality4320p
)

var qualityHeights = []int{0, 144, 240, 360, 480, 720, 1080, 1440, 2160, 4320}

func (q Quality) String() string {
	if q == QualityNone {
		return "none"
	}
	if q < QualityNone || int(q) >= len(qualityHeights) {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return fmt.Sprintf("%dp", qualityHeights[q])
}

// QualityFromHeight returns the highest tier whose nominal height is not above height, so that e.g. a 1920x800
// video counts as 720p rather than 1080p.
func QualityFromHeight(height int) Quality {
	q := QualityNone
	for i, h := range qualityHeights[1:] {
		if height >= h {
			q = Quality(i + 1)
		}
	}
	return q
}

// ParseQuality accepts quality labels as YouTube writes them ("720p", "1080p60", "2160p HDR") or as bare heights.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" || s == "audio" {
		return QualityNone, nil
	}
	digits := strings.TrimLeft(s, "0123456789")
	height, err := strconv.Atoi(s[:len(s)-len(digits)])
	if err != nil {
		return QualityNone, fmt.Errorf("invalid quality %q", s)
	}
	for i, h := range qualityHeights {
		if h == height {
			return Quality(i), nil
		}
	}
	return QualityNone, fmt.Errorf("unknown quality %q", s)
}

// A Stream describes one downloadable rendition of a video. Streams are values; nothing modifies one after the
// metadata provider has built it.
type Stream struct {
	// VideoID is the video the stream belongs to.
	VideoID   VideoID
	Itag      int
	MimeType  string
	Container Container
	Codecs    []string
	HasVideo  bool
	HasAudio  bool
	Quality   Quality
	// Resolution details are informational; comparisons use Quality.
	Width  int
	Height int
	FPS    int
	// Bitrate in bits per second, 0 if unknown.
	Bitrate int
	// ContentLength in bytes, 0 if unknown.
	ContentLength int64
	AudioChannels int
	// URL is the descrambled transport reference, only meaningful to a Transferrer.
	URL string
}

func (s Stream) String() string {
	var tracks string
	switch {
	case s.HasVideo && s.HasAudio:
		tracks = "audio+video"
	case s.HasVideo:
		tracks = "video-only"
	case s.HasAudio:
		tracks = "audio-only"
	default:
		tracks = "no tracks"
	}
	return fmt.Sprintf("itag=%d %s/%s/%s", s.Itag, s.Container, s.Quality, tracks)
}

// A StreamSet is every stream of one video, in the order the metadata provider returned them.
type StreamSet []Stream

// All iterates over the streams in order.
func (ss StreamSet) All() iter.Seq[Stream] {
	return func(yield func(Stream) bool) {
		for _, s := range ss {
			if !yield(s) {
				return
			}
		}
	}
}

type VideoInfo struct {
	ID       VideoID
	Title    string
	Author   string
	Duration time.Duration
}
