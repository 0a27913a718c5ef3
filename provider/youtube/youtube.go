package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/streamdl"
	"github.com/alanbriolat/streamdl/transfer"
)

// client is the part of youtube.Client the provider uses.
type client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Provider is a streamdl.MetadataProvider backed by github.com/kkdai/youtube. It remembers the videos it has
// fetched, so that its Transferrer can download their streams without fetching them again.
type Provider struct {
	client client
	mu     sync.Mutex
	videos map[streamdl.VideoID]*youtube.Video
}

// New creates a Provider; httpClient may be nil to use http.DefaultClient.
func New(httpClient *http.Client) *Provider {
	return &Provider{client: &youtube.Client{HTTPClient: httpClient}}
}

func (p *Provider) Fetch(ctx context.Context, id streamdl.VideoID) (streamdl.Metadata, error) {
	video, err := p.fetch(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", streamdl.ErrFetch, err)
	}
	return &metadata{client: p.client, video: video}, nil
}

func (p *Provider) fetch(ctx context.Context, id streamdl.VideoID) (*youtube.Video, error) {
	logger := streamdl.Logger(ctx).Sugar().Named("youtube")
	logger.Debugf("fetching %s", id.URL())
	video, err := p.client.GetVideoContext(ctx, id.URL())
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, fmt.Errorf("empty response for %s", id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.videos == nil {
		p.videos = make(map[streamdl.VideoID]*youtube.Video)
	}
	p.videos[id] = video
	return video, nil
}

// video returns the video fetched earlier, or fetches it now.
func (p *Provider) video(ctx context.Context, id streamdl.VideoID) (*youtube.Video, error) {
	p.mu.Lock()
	video, ok := p.videos[id]
	p.mu.Unlock()
	if ok {
		return video, nil
	}
	return p.fetch(ctx, id)
}

// Transferrer returns a streamdl.Transferrer that downloads the streams of this provider's videos through the
// youtube client, which requests large streams in chunks to avoid throttling, and saves them with saver.
func (p *Provider) Transferrer(saver *transfer.Saver) *Transferrer {
	return &Transferrer{provider: p, saver: saver}
}

type Transferrer struct {
	provider *Provider
	saver    *transfer.Saver
}

func (t *Transferrer) Transfer(ctx context.Context, stream streamdl.Stream, target string) error {
	if err := t.transfer(ctx, stream, target); err != nil {
		return fmt.Errorf("%w: %w", streamdl.ErrTransfer, err)
	}
	return nil
}

func (t *Transferrer) transfer(ctx context.Context, stream streamdl.Stream, target string) error {
	if stream.VideoID == "" {
		return fmt.Errorf("stream %v doesn't belong to a video", stream)
	}
	video, err := t.provider.video(ctx, stream.VideoID)
	if err != nil {
		return fmt.Errorf("failed to fetch video: %w", err)
	}
	format := findFormat(video, stream.Itag)
	if format == nil {
		return fmt.Errorf("video %s has no format with itag %d", stream.VideoID, stream.Itag)
	}
	r, size, err := t.provider.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	defer r.Close()
	if size <= 0 {
		size = stream.ContentLength
	}
	return t.saver.Save(ctx, r, size, target)
}

func findFormat(video *youtube.Video, itag int) *youtube.Format {
	for i := range video.Formats {
		if video.Formats[i].ItagNo == itag {
			return &video.Formats[i]
		}
	}
	return nil
}

type metadata struct {
	client client
	video  *youtube.Video
}

func (m *metadata) Info() streamdl.VideoInfo {
	return streamdl.VideoInfo{
		ID:       streamdl.VideoID(m.video.ID),
		Title:    m.video.Title,
		Author:   m.video.Author,
		Duration: m.video.Duration,
	}
}

// Descramble resolves the stream URL of every format, deciphering signatures where needed. A single format that
// can't be resolved fails the whole set.
func (m *metadata) Descramble(ctx context.Context) (streamdl.StreamSet, error) {
	streams := make(streamdl.StreamSet, 0, len(m.video.Formats))
	for i := range m.video.Formats {
		format := &m.video.Formats[i]
		url, err := m.client.GetStreamURLContext(ctx, m.video, format)
		if err != nil {
			return nil, fmt.Errorf("%w: itag %d: %w", streamdl.ErrDescramble, format.ItagNo, err)
		}
		streams = append(streams, convertFormat(streamdl.VideoID(m.video.ID), format, url))
	}
	return streams, nil
}

func convertFormat(id streamdl.VideoID, f *youtube.Format, url string) streamdl.Stream {
	container, codecs := streamdl.ParseMimeType(f.MimeType)
	s := streamdl.Stream{
		VideoID:       id,
		Itag:          f.ItagNo,
		MimeType:      f.MimeType,
		Container:     container,
		Codecs:        codecs,
		Width:         f.Width,
		Height:        f.Height,
		FPS:           f.FPS,
		Bitrate:       f.Bitrate,
		ContentLength: f.ContentLength,
		AudioChannels: f.AudioChannels,
		URL:           url,
	}
	if f.AverageBitrate > 0 {
		s.Bitrate = f.AverageBitrate
	}
	s.HasVideo = f.Width > 0 || f.Height > 0 || f.QualityLabel != ""
	s.HasAudio = f.AudioChannels > 0 || f.AudioQuality != ""
	if s.HasVideo {
		if q, err := streamdl.ParseQuality(f.QualityLabel); err == nil {
			s.Quality = q
		} else {
			s.Quality = streamdl.QualityFromHeight(f.Height)
		}
	}
	return s
}
