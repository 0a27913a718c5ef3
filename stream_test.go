package streamdl

import (
	"slices"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestParseContainer(t *testing.T) {
	assert := assert_.New(t)
	for input, expected := range map[string]Container{
		"mp4":  ContainerMP4,
		".MP4": ContainerMP4,
		"m4a":  ContainerMP4,
		"webm": ContainerWebM,
		"3gpp": Container3GPP,
		"AVI":  Container("avi"),
	} {
		c, err := ParseContainer(input)
		assert.NoError(err, input)
		assert.Equal(expected, c, input)
	}
	_, err := ParseContainer(" ")
	assert.Error(err)
	assert.Equal("webm", ContainerWebM.String())
	assert.Equal("unknown", ContainerUnknown.String())
}

func TestParseMimeType(t *testing.T) {
	assert := assert_.New(t)

	c, codecs := ParseMimeType(`video/mp4; codecs="avc1.4d401f, mp4a.40.2"`)
	assert.Equal(ContainerMP4, c)
	assert.Equal([]string{"avc1.4d401f", "mp4a.40.2"}, codecs)

	c, codecs = ParseMimeType(`audio/webm; codecs="opus"`)
	assert.Equal(ContainerWebM, c)
	assert.Equal([]string{"opus"}, codecs)

	c, codecs = ParseMimeType("video/x-flv")
	assert.Equal(Container("x-flv"), c)
	assert.Nil(codecs)

	c, _ = ParseMimeType("")
	assert.Equal(ContainerUnknown, c)
}

func TestQuality(t *testing.T) {
	assert := assert_.New(t)

	for input, expected := range map[string]Quality{
		"144p":      Quality144p,
		"720p":      Quality720p,
		"720p60":    Quality720p,
		"1080p HDR": Quality1080p,
		"2160":      Quality2160p,
		"none":      QualityNone,
	} {
		q, err := ParseQuality(input)
		assert.NoError(err, input)
		assert.Equal(expected, q, input)
	}
	for _, input := range []string{"", "hd", "1000p"} {
		_, err := ParseQuality(input)
		assert.Error(err, input)
	}

	assert.True(Quality480p < Quality720p)
	assert.Equal("1440p", Quality1440p.String())
	assert.Equal("none", QualityNone.String())

	assert.Equal(QualityNone, QualityFromHeight(0))
	assert.Equal(Quality720p, QualityFromHeight(720))
	assert.Equal(Quality720p, QualityFromHeight(800))
	assert.Equal(Quality4320p, QualityFromHeight(9000))
}

func TestStreamSet(t *testing.T) {
	assert := assert_.New(t)
	streams := StreamSet{{Itag: 18}, {Itag: 22}, {Itag: 137}}

	assert.Equal([]Stream{{Itag: 18}, {Itag: 22}, {Itag: 137}}, slices.Collect(streams.All()))

	var first []int
	for s := range streams.All() {
		first = append(first, s.Itag)
		break
	}
	assert.Equal([]int{18}, first)
}

func TestStreamString(t *testing.T) {
	s := Stream{Itag: 22, Container: ContainerMP4, Quality: Quality720p, HasVideo: true, HasAudio: true}
	assert_.Equal(t, "itag=22 mp4/720p/audio+video", s.String())
	s = Stream{Itag: 140, Container: ContainerMP4, HasAudio: true}
	assert_.Equal(t, "itag=140 mp4/none/audio-only", s.String())
}
