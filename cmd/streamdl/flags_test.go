package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alanbriolat/streamdl"
	"github.com/alanbriolat/streamdl/generic"
	"github.com/alanbriolat/streamdl/internal/history"
)

// parseCriteria runs a throwaway app with the criteria flags, returning what the action saw.
func parseCriteria(t *testing.T, args ...string) (streamdl.FilterCriteria, string, error) {
	var criteria streamdl.FilterCriteria
	var identifier string
	flags := append([]cli.Flag{identifierFlag()}, criteriaFlags()...)
	app := &cli.App{
		Name:  "test",
		Flags: flags,
		Action: func(c *cli.Context) (err error) {
			if identifier, err = identifierArg(c); err != nil {
				return err
			}
			criteria, err = criteriaFromFlags(c)
			return err
		},
	}
	err := app.Run(append([]string{"test"}, args...))
	return criteria, identifier, err
}

func TestCriteriaDefaults(t *testing.T) {
	assert := assert_.New(t)
	criteria, identifier, err := parseCriteria(t, "dQw4w9WgXcQ")
	require_.NoError(t, err)
	assert.Equal("dQw4w9WgXcQ", identifier)
	assert.True(criteria.RequireVideo)
	assert.True(criteria.RequireAudio)
	assert.False(criteria.ExcludeVideo)
	assert.True(criteria.Container.IsNone())
	assert.True(criteria.MinQuality.IsNone())
	assert.Empty(criteria.Priority)
	assert.False(criteria.Worst)
}

func TestCriteriaFlags(t *testing.T) {
	assert := assert_.New(t)
	criteria, identifier, err := parseCriteria(t,
		"--container", "WebM",
		"--no-video",
		"--min-quality", "none",
		"--max-quality", "1080p60",
		"--priority", "bitrate,container",
		"--prefer-container", "webm",
		"--prefer-container", "mp4",
		"--worst",
		"--url", "https://youtu.be/dQw4w9WgXcQ",
	)
	require_.NoError(t, err)
	assert.Equal("https://youtu.be/dQw4w9WgXcQ", identifier)
	assert.Equal(generic.Some(streamdl.ContainerWebM), criteria.Container)
	assert.False(criteria.RequireVideo)
	assert.True(criteria.ExcludeVideo)
	assert.True(criteria.RequireAudio)
	assert.Equal(generic.Some(streamdl.QualityNone), criteria.MinQuality)
	assert.Equal(generic.Some(streamdl.Quality1080p), criteria.MaxQuality)
	assert.Equal([]streamdl.SortKey{streamdl.SortByBitrate, streamdl.SortByContainer}, criteria.Priority)
	assert.Equal([]streamdl.Container{streamdl.ContainerWebM, streamdl.ContainerMP4}, criteria.PreferContainers)
	assert.True(criteria.Worst)
}

func TestCriteriaIgnoreMissing(t *testing.T) {
	criteria, _, err := parseCriteria(t, "--ignore-missing-video", "--ignore-missing-audio", "dQw4w9WgXcQ")
	require_.NoError(t, err)
	assert_.False(t, criteria.RequireVideo)
	assert_.False(t, criteria.RequireAudio)
	assert_.False(t, criteria.ExcludeVideo)
	assert_.False(t, criteria.ExcludeAudio)
}

func TestCriteriaErrors(t *testing.T) {
	cases := map[string][]string{
		"no identifier":   {},
		"two identifiers": {"dQw4w9WgXcQ", "jNQXAC9IVRw"},
		"both forms":      {"--id", "dQw4w9WgXcQ", "jNQXAC9IVRw"},
		"bad quality":     {"--min-quality", "hd", "dQw4w9WgXcQ"},
		"bad priority":    {"--priority", "quality,quality", "dQw4w9WgXcQ"},
		"no tracks":       {"--no-video", "--no-audio", "dQw4w9WgXcQ"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseCriteria(t, args...)
			assert_.Error(t, err)
		})
	}
	_, _, err := parseCriteria(t)
	assert_.ErrorIs(t, err, errMissingIdentifier)
}

func TestPrintStreams(t *testing.T) {
	var out bytes.Buffer
	info := streamdl.VideoInfo{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up", Author: "Rick Astley", Duration: 212 * time.Second}
	streams := []streamdl.Stream{
		{Itag: 18, Container: streamdl.ContainerMP4, Quality: streamdl.Quality360p, HasVideo: true, HasAudio: true, Codecs: []string{"avc1.42001E", "mp4a.40.2"}},
		{Itag: 251, Container: streamdl.ContainerWebM, HasAudio: true, Bitrate: 160000},
	}
	require_.NoError(t, printStreams(&out, info, streams))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require_.Len(t, lines, 6)
	assert_.Equal(t, "Never Gonna Give You Up [dQw4w9WgXcQ]", lines[0])
	assert_.Equal(t, "by Rick Astley, 3m32s", lines[1])
	assert_.Empty(t, lines[2])
	assert_.True(t, strings.HasPrefix(lines[3], "ITAG"))
	assert_.True(t, strings.HasPrefix(lines[4], "18 "))
	assert_.Contains(t, lines[4], "video+audio")
	assert_.Contains(t, lines[4], "avc1.42001E,mp4a.40.2")
	assert_.Contains(t, lines[5], "audio")
	assert_.Contains(t, lines[5], "160000")
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	info := streamdl.VideoInfo{ID: "dQw4w9WgXcQ", Title: "t", Duration: 1500 * time.Millisecond}
	require_.NoError(t, printJSON(&out, info, []streamdl.Stream{{Itag: 140, Container: streamdl.ContainerMP4, HasAudio: true}}))
	assert_.JSONEq(t, `{
		"id": "dQw4w9WgXcQ",
		"title": "t",
		"author": "",
		"duration_seconds": 1.5,
		"streams": [{
			"itag": 140,
			"mime_type": "",
			"container": "mp4",
			"quality": "none",
			"has_video": false,
			"has_audio": true,
			"url": ""
		}]
	}`, out.String())
}

func TestHistoryCommand(t *testing.T) {
	path := t.TempDir() + "/history.db"
	store, err := history.Open(path)
	require_.NoError(t, err)
	require_.NoError(t, store.Record(&history.Entry{VideoID: "dQw4w9WgXcQ", Itag: 18, Container: "mp4", Quality: "360p", Target: "dQw4w9WgXcQ.mp4", Title: "Never Gonna Give You Up"}))
	require_.NoError(t, store.Close())

	var out bytes.Buffer
	app := newApp(&out)
	require_.NoError(t, app.Run([]string{appName, "--log-level", "error", "history", "--history-db", path}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require_.Len(t, lines, 2)
	assert_.Contains(t, lines[1], "dQw4w9WgXcQ")
	assert_.Contains(t, lines[1], "mp4/360p")
	assert_.Contains(t, lines[1], "Never Gonna Give You Up")

	id := strings.Fields(lines[1])[0]
	out.Reset()
	require_.NoError(t, newApp(&out).Run([]string{appName, "--log-level", "error", "history", "--history-db", path, "--delete", id}))
	assert_.Empty(t, out.String())
	err = newApp(&out).Run([]string{appName, "--log-level", "error", "history", "--history-db", path, "--delete", id})
	assert_.ErrorIs(t, err, history.ErrNotFound)

	out.Reset()
	require_.NoError(t, newApp(&out).Run([]string{appName, "--log-level", "error", "history", "--history-db", path}))
	assert_.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 1, "only the header is left")
}

func TestRecordHistory(t *testing.T) {
	path := t.TempDir() + "/history.db"
	result := &streamdl.DownloadResult{
		Info:   streamdl.VideoInfo{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up"},
		Stream: streamdl.Stream{Itag: 22, Container: streamdl.ContainerMP4, Quality: streamdl.Quality720p},
		Target: "/tmp/out.mp4",
	}
	require_.NoError(t, recordHistory(path, result))

	store, err := history.Open(path)
	require_.NoError(t, err)
	defer store.Close()
	entries, err := store.List()
	require_.NoError(t, err)
	require_.Len(t, entries, 1)
	assert_.Equal(t, "720p", entries[0].Quality)
	assert_.Equal(t, "/tmp/out.mp4", entries[0].Target)
}

func TestLogStateChanges(t *testing.T) {
	assert := assert_.New(t)
	core, logs := observer.New(zap.DebugLevel)
	observe := logStateChanges(zap.New(core).Sugar())

	observe(streamdl.State{RunID: "r1"}, streamdl.State{RunID: "r1", Stage: streamdl.StageResolving, VideoID: "dQw4w9WgXcQ"})
	assert.NotEmpty(logs.FilterMessageSnippet("dQw4w9WgXcQ").All())
	assert.Empty(logs.FilterMessageSnippet("run r1").All())

	observe(streamdl.State{RunID: "r1", Stage: streamdl.StageFetching}, streamdl.State{RunID: "r1", Stage: streamdl.StageFailed, Error: "boom", FailedAt: streamdl.StageFetching})
	assert.Len(logs.FilterMessage("run r1 failed while fetching").All(), 1)

	observe(streamdl.State{RunID: "r2", Stage: streamdl.StageTransferring}, streamdl.State{RunID: "r2", Stage: streamdl.StageDone})
	assert.Len(logs.FilterMessage("run r2 finished").All(), 1)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestProgressBarCallback(t *testing.T) {
	bar := progressbar.NewOptions64(-1, progressbar.OptionSetWriter(failingWriter{}))
	update := progressBarCallback(bar, zapNop())
	assert_.NotPanics(t, func() {
		update(0, 100)
		update(50, 100)
	})
	assert_.Equal(t, 100, bar.GetMax())
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("chatty", "")
	assert_.Error(t, err)
	logger, err := newLogger("warn", "")
	require_.NoError(t, err)
	assert_.False(t, logger.Core().Enabled(-1))
}

func zapNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
