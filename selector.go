package streamdl

import (
	"cmp"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/alanbriolat/streamdl/generic"
)

// A SortKey is one attribute streams can be ranked by.
type SortKey string

const (
	// SortByQuality prefers the higher resolution tier.
	SortByQuality SortKey = "quality"
	// SortByTracks prefers streams carrying both audio and video over single-track streams.
	SortByTracks SortKey = "tracks"
	// SortByBitrate prefers the higher bitrate; unknown bitrate ranks lowest.
	SortByBitrate SortKey = "bitrate"
	// SortBySize prefers the larger file; unknown size ranks lowest.
	SortBySize SortKey = "size"
	SortByFPS  SortKey = "fps"
	// SortByContainer prefers containers listed earlier in FilterCriteria.PreferContainers.
	SortByContainer SortKey = "container"
)

var (
	DefaultPriority         = []SortKey{SortByQuality, SortByTracks, SortByBitrate, SortByFPS}
	DefaultPreferContainers = []Container{ContainerMP4, ContainerWebM}
)

var sortKeys = generic.NewSet(SortByQuality, SortByTracks, SortByBitrate, SortBySize, SortByFPS, SortByContainer)

func ParseSortKey(s string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if !sortKeys.Contains(key) {
		return "", fmt.Errorf("unknown sort key %q", s)
	}
	return key, nil
}

// ParseSortKeys parses a comma-separated priority list like "quality,bitrate". Repeating a key is an error, since
// the repeat could never decide anything.
func ParseSortKeys(s string) ([]SortKey, error) {
	var keys []SortKey
	seen := generic.NewSet[SortKey]()
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, err := ParseSortKey(part)
		if err != nil {
			return nil, err
		}
		if !seen.Add(key) {
			return nil, fmt.Errorf("duplicate sort key %q", key)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// A Comparator orders streams lexicographically over a fixed list of sort keys: the first key on which two streams
// differ decides, and streams that tie on every key compare equal.
type Comparator struct {
	keys           []SortKey
	containerRanks map[Container]int
	worst          bool
}

func NewComparator(c FilterCriteria) Comparator {
	keys := c.Priority
	if len(keys) == 0 {
		keys = DefaultPriority
	}
	prefer := c.PreferContainers
	if len(prefer) == 0 {
		prefer = DefaultPreferContainers
	}
	ranks := make(map[Container]int, len(prefer))
	for i, container := range prefer {
		if _, ok := ranks[container]; !ok {
			ranks[container] = len(prefer) - i
		}
	}
	return Comparator{
		keys:           slices.Clone(keys),
		containerRanks: ranks,
		worst:          c.Worst,
	}
}

// Compare returns a positive number if a is better than b, negative if b is better, or 0 if they tie on every key.
func (c Comparator) Compare(a, b Stream) int {
	for _, key := range c.keys {
		if r := c.compareKey(key, a, b); r != 0 {
			if c.worst {
				return -r
			}
			return r
		}
	}
	return 0
}

func (c Comparator) compareKey(key SortKey, a, b Stream) int {
	switch key {
	case SortByQuality:
		return cmp.Compare(a.Quality, b.Quality)
	case SortByTracks:
		return cmp.Compare(trackScore(a), trackScore(b))
	case SortByBitrate:
		return cmp.Compare(a.Bitrate, b.Bitrate)
	case SortBySize:
		return cmp.Compare(a.ContentLength, b.ContentLength)
	case SortByFPS:
		return cmp.Compare(a.FPS, b.FPS)
	case SortByContainer:
		return cmp.Compare(c.containerRanks[a.Container], c.containerRanks[b.Container])
	default:
		panic(fmt.Sprintf("unhandled sort key %q", key))
	}
}

func trackScore(s Stream) int {
	score := 0
	if s.HasVideo {
		score++
	}
	if s.HasAudio {
		score++
	}
	return score
}

// Select picks the best of candidates in a single pass, keeping the first encountered of any streams that compare
// equal. When there are no candidates, sourceEmpty says why: ErrNoStreamsAtAll if the stream set they were filtered
// from was itself empty, otherwise ErrNoStreamsMatchCriteria.
func Select(candidates iter.Seq[Stream], sourceEmpty bool, c FilterCriteria) (Stream, error) {
	comparator := NewComparator(c)
	var best Stream
	found := false
	for s := range candidates {
		if !found || comparator.Compare(s, best) > 0 {
			best = s
			found = true
		}
	}
	if !found {
		if sourceEmpty {
			return Stream{}, ErrNoStreamsAtAll
		}
		return Stream{}, ErrNoStreamsMatchCriteria
	}
	return best, nil
}

// SelectFrom filters the stream set and selects the best match.
func SelectFrom(streams StreamSet, c FilterCriteria) (Stream, error) {
	return Select(Filter(streams.All(), c), len(streams) == 0, c)
}

// Rank returns every candidate, best first, with equal streams in their original order. Rank(...)[0] is always the
// stream Select would choose.
func Rank(candidates iter.Seq[Stream], c FilterCriteria) []Stream {
	comparator := NewComparator(c)
	ranked := slices.Collect(candidates)
	slices.SortStableFunc(ranked, func(a, b Stream) int {
		return comparator.Compare(b, a)
	})
	return ranked
}
