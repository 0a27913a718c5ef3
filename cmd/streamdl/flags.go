package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/streamdl"
	"github.com/alanbriolat/streamdl/generic"
)

var errMissingIdentifier = errors.New("missing video ID or URL")

// criteriaFlags are shared by every command that selects streams.
func criteriaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "container",
			Usage: "only consider streams in `CONTAINER` (e.g. mp4, webm)",
		},
		&cli.BoolFlag{
			Name:  "ignore-missing-video",
			Usage: "allow streams without a video track",
		},
		&cli.BoolFlag{
			Name:  "ignore-missing-audio",
			Usage: "allow streams without an audio track",
		},
		&cli.BoolFlag{
			Name:  "no-video",
			Usage: "only consider streams without a video track (implies --ignore-missing-video)",
		},
		&cli.BoolFlag{
			Name:  "no-audio",
			Usage: "only consider streams without an audio track (implies --ignore-missing-audio)",
		},
		&cli.StringFlag{
			Name:  "min-quality",
			Usage: "only consider streams of at least `QUALITY` (e.g. 480p)",
		},
		&cli.StringFlag{
			Name:  "max-quality",
			Usage: "only consider streams of at most `QUALITY` (e.g. 1080p)",
		},
		&cli.StringFlag{
			Name:    "priority",
			Usage:   "rank streams by `KEYS`, most significant first (quality, tracks, bitrate, size, fps, container)",
			EnvVars: []string{"STREAMDL_PRIORITY"},
		},
		&cli.StringSliceFlag{
			Name:    "prefer-container",
			Usage:   "container preference for --priority=container, most preferred first",
			EnvVars: []string{"STREAMDL_PREFER_CONTAINER"},
		},
		&cli.BoolFlag{
			Name:  "worst",
			Usage: "choose the lowest ranked stream instead of the highest",
		},
	}
}

// criteriaFromFlags builds the FilterCriteria; like the original tool, both tracks are required unless asked otherwise.
func criteriaFromFlags(c *cli.Context) (streamdl.FilterCriteria, error) {
	criteria := streamdl.FilterCriteria{
		RequireVideo: !(c.Bool("ignore-missing-video") || c.Bool("no-video")),
		RequireAudio: !(c.Bool("ignore-missing-audio") || c.Bool("no-audio")),
		ExcludeVideo: c.Bool("no-video"),
		ExcludeAudio: c.Bool("no-audio"),
		Worst:        c.Bool("worst"),
	}
	if criteria.ExcludeVideo && criteria.ExcludeAudio {
		return criteria, fmt.Errorf("--no-video and --no-audio together exclude every stream")
	}
	if name := c.String("container"); name != "" {
		container, err := streamdl.ParseContainer(name)
		if err != nil {
			return criteria, err
		}
		criteria.Container = generic.Some(container)
	}
	var err error
	if criteria.MinQuality, err = qualityFlag(c, "min-quality"); err != nil {
		return criteria, err
	}
	if criteria.MaxQuality, err = qualityFlag(c, "max-quality"); err != nil {
		return criteria, err
	}
	if criteria.Priority, err = streamdl.ParseSortKeys(c.String("priority")); err != nil {
		return criteria, err
	}
	for _, name := range c.StringSlice("prefer-container") {
		container, err := streamdl.ParseContainer(name)
		if err != nil {
			return criteria, err
		}
		criteria.PreferContainers = append(criteria.PreferContainers, container)
	}
	return criteria, nil
}

func qualityFlag(c *cli.Context, name string) (generic.Option[streamdl.Quality], error) {
	value := c.String(name)
	if value == "" {
		return generic.None[streamdl.Quality](), nil
	}
	q, err := streamdl.ParseQuality(value)
	if err != nil {
		return generic.None[streamdl.Quality](), fmt.Errorf("--%s: %w", name, err)
	}
	return generic.Some(q), nil
}

// identifierArg takes the video from --identifier or the single positional argument.
func identifierArg(c *cli.Context) (string, error) {
	if id := c.String("identifier"); id != "" {
		if c.NArg() > 0 {
			return "", fmt.Errorf("unexpected arguments with --identifier: %v", c.Args().Slice())
		}
		return id, nil
	}
	switch c.NArg() {
	case 0:
		return "", errMissingIdentifier
	case 1:
		return c.Args().First(), nil
	default:
		return "", fmt.Errorf("expected one video ID or URL, got %d", c.NArg())
	}
}

func identifierFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "identifier",
		Aliases: []string{"id", "url"},
		Usage:   "video `ID` or URL (instead of the positional argument)",
	}
}
