package main

import (
	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/streamdl"
	"github.com/alanbriolat/streamdl/generic"
	"github.com/alanbriolat/streamdl/internal/history"
	"github.com/alanbriolat/streamdl/provider/youtube"
	"github.com/alanbriolat/streamdl/transfer"
)

func downloadCommand() *cli.Command {
	flags := []cli.Flag{
		identifierFlag(),
		&cli.StringFlag{
			Name:    "filename",
			Aliases: []string{"f"},
			Usage:   "save as `FILE` (default: <ID>.mp4)",
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "save into `DIR` (default: current directory)",
			EnvVars: []string{"STREAMDL_DIR"},
		},
		&cli.BoolFlag{
			Name:  "no-progress",
			Usage: "don't show a progress bar",
		},
	}
	flags = append(flags, historyFlags()...)
	flags = append(flags, criteriaFlags()...)
	return &cli.Command{
		Name:      "download",
		Usage:     "download the best stream matching the criteria",
		ArgsUsage: "ID|URL",
		Flags:     flags,
		Action:    download,
	}
}

func download(c *cli.Context) error {
	logger := zap.S()
	identifier, err := identifierArg(c)
	if err != nil {
		return err
	}
	criteria, err := criteriaFromFlags(c)
	if err != nil {
		return err
	}

	saverBuilder := transfer.NewBuilder()
	var bar *progressbar.ProgressBar
	if !c.Bool("no-progress") {
		bar = progressbar.DefaultBytes(-1, "downloading")
		saverBuilder.WithProgressCallback(progressBarCallback(bar, logger))
	}

	provider := youtube.New(nil)
	pipeline, err := streamdl.NewPipelineBuilder().
		WithProvider(provider).
		WithTransferrer(provider.Transferrer(saverBuilder.Build())).
		WithObserver(logStateChanges(logger)).
		Build()
	if err != nil {
		return err
	}

	result, err := pipeline.Download(c.Context, streamdl.DownloadRequest{
		Identifier: identifier,
		Filename:   generic.NonZero(c.String("filename")),
		Dir:        generic.NonZero(c.String("dir")),
		Criteria:   criteria,
	})
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	logger.Infof("Saved %q (%v) to %s", result.Info.Title, result.Stream, result.Target)

	if !c.Bool("no-history") {
		if err := recordHistory(c.String("history-db"), result); err != nil {
			logger.Warnf("failed to record download history: %v", err)
		}
	}
	return nil
}

// progressBarCallback keeps bar in step with a transfer. A bar that fails to draw doesn't stop the transfer.
func progressBarCallback(bar *progressbar.ProgressBar, logger *zap.SugaredLogger) transfer.ProgressFunc {
	return func(downloaded int64, expected int64) {
		if expected > 0 && bar.GetMax() != int(expected) {
			bar.ChangeMax(int(expected))
		}
		if err := bar.Set(int(downloaded)); err != nil {
			logger.Debugf("failed to update progress bar: %v", err)
		}
	}
}

// logStateChanges logs every field that changes between pipeline states, and the end of the run.
func logStateChanges(logger *zap.SugaredLogger) streamdl.ObserverFunc {
	return func(old streamdl.State, new streamdl.State) {
		changes, err := diff.Diff(old, new)
		if err != nil {
			logger.Errorf("failed to diff old and new pipeline state: %v", err)
			return
		}
		for _, change := range changes {
			logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
		}
		if new.Stage.IsTerminal() && !old.Stage.IsTerminal() {
			if new.Stage == streamdl.StageFailed {
				logger.Debugf("run %s failed while %s", new.RunID, new.FailedAt)
			} else {
				logger.Debugf("run %s finished", new.RunID)
			}
		}
	}
}

func recordHistory(path string, result *streamdl.DownloadResult) error {
	store, err := openHistory(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(&history.Entry{
		VideoID:   result.Info.ID.String(),
		Title:     result.Info.Title,
		Itag:      result.Stream.Itag,
		Container: result.Stream.Container.String(),
		Quality:   result.Stream.Quality.String(),
		Target:    result.Target,
		Size:      result.Stream.ContentLength,
		Duration:  result.Info.Duration,
	})
}
