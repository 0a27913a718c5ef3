package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/streamdl"
	"github.com/alanbriolat/streamdl/provider/youtube"
)

func fetchCommand() *cli.Command {
	flags := []cli.Flag{
		identifierFlag(),
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print the video information as JSON",
		},
		&cli.BoolFlag{
			Name:  "rank",
			Usage: "only list streams matching the criteria, best first",
		},
	}
	flags = append(flags, criteriaFlags()...)
	return &cli.Command{
		Name:      "fetch",
		Usage:     "print information about a video and its streams",
		ArgsUsage: "ID|URL",
		Flags:     flags,
		Action:    fetch,
	}
}

func fetch(c *cli.Context) error {
	identifier, err := identifierArg(c)
	if err != nil {
		return err
	}
	pipeline, err := streamdl.NewPipelineBuilder().WithProvider(youtube.New(nil)).Build()
	if err != nil {
		return err
	}
	result, err := pipeline.Fetch(c.Context, identifier)
	if err != nil {
		if result != nil {
			// Still show what we know about the video
			printInfo(c.App.Writer, result.Info)
		}
		return err
	}
	streams := []streamdl.Stream(result.Streams)
	if c.Bool("rank") {
		criteria, err := criteriaFromFlags(c)
		if err != nil {
			return err
		}
		streams = streamdl.Rank(streamdl.Filter(result.Streams.All(), criteria), criteria)
	}
	if c.Bool("json") {
		return printJSON(c.App.Writer, result.Info, streams)
	}
	return printStreams(c.App.Writer, result.Info, streams)
}

type videoJSON struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Author   string       `json:"author"`
	Duration float64      `json:"duration_seconds"`
	Streams  []streamJSON `json:"streams"`
}

type streamJSON struct {
	Itag          int      `json:"itag"`
	MimeType      string   `json:"mime_type"`
	Container     string   `json:"container"`
	Codecs        []string `json:"codecs,omitempty"`
	Quality       string   `json:"quality"`
	HasVideo      bool     `json:"has_video"`
	HasAudio      bool     `json:"has_audio"`
	Width         int      `json:"width,omitempty"`
	Height        int      `json:"height,omitempty"`
	FPS           int      `json:"fps,omitempty"`
	Bitrate       int      `json:"bitrate,omitempty"`
	ContentLength int64    `json:"content_length,omitempty"`
	URL           string   `json:"url"`
}

func printJSON(w io.Writer, info streamdl.VideoInfo, streams []streamdl.Stream) error {
	v := videoJSON{
		ID:       info.ID.String(),
		Title:    info.Title,
		Author:   info.Author,
		Duration: info.Duration.Seconds(),
		Streams:  make([]streamJSON, 0, len(streams)),
	}
	for _, s := range streams {
		v.Streams = append(v.Streams, streamJSON{
			Itag:          s.Itag,
			MimeType:      s.MimeType,
			Container:     s.Container.String(),
			Codecs:        s.Codecs,
			Quality:       s.Quality.String(),
			HasVideo:      s.HasVideo,
			HasAudio:      s.HasAudio,
			Width:         s.Width,
			Height:        s.Height,
			FPS:           s.FPS,
			Bitrate:       s.Bitrate,
			ContentLength: s.ContentLength,
			URL:           s.URL,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printInfo(w io.Writer, info streamdl.VideoInfo) {
	fmt.Fprintf(w, "%s [%s]\n", info.Title, info.ID)
	fmt.Fprintf(w, "by %s, %v\n", info.Author, info.Duration)
}

func printStreams(w io.Writer, info streamdl.VideoInfo, streams []streamdl.Stream) error {
	printInfo(w, info)
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITAG\tCONTAINER\tQUALITY\tTRACKS\tFPS\tBITRATE\tSIZE\tCODECS")
	for _, s := range streams {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.Itag, s.Container, s.Quality, tracks(s), s.FPS, s.Bitrate, s.ContentLength, strings.Join(s.Codecs, ","))
	}
	return tw.Flush()
}

func tracks(s streamdl.Stream) string {
	var parts []string
	if s.HasVideo {
		parts = append(parts, "video")
	}
	if s.HasAudio {
		parts = append(parts, "audio")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "+")
}
