package streamdl

import (
	"iter"

	"github.com/alanbriolat/streamdl/generic"
)

// FilterCriteria decides which streams are acceptable (Matches) and which acceptable stream is best (Comparator).
// The zero value accepts every stream and ranks them by DefaultPriority.
type FilterCriteria struct {
	// Container, if set, must match exactly.
	Container generic.Option[Container]
	// RequireVideo and RequireAudio demand the track is present.
	RequireVideo bool
	RequireAudio bool
	// ExcludeVideo and ExcludeAudio demand the track is absent.
	ExcludeVideo bool
	ExcludeAudio bool
	// MinQuality and MaxQuality bound Stream.Quality, inclusive.
	MinQuality generic.Option[Quality]
	MaxQuality generic.Option[Quality]

	// Priority lists the attributes to rank matching streams by, most significant first. Empty means
	// DefaultPriority.
	Priority []SortKey
	// PreferContainers ranks containers for SortByContainer, most preferred first.
	PreferContainers []Container
	// Worst selects the lowest ranked stream instead of the highest.
	Worst bool
}

// Matches returns true if the stream satisfies every criterion that is set.
func (c FilterCriteria) Matches(s Stream) bool {
	if container, ok := c.Container.Get(); ok && s.Container != container {
		return false
	}
	if c.RequireVideo && !s.HasVideo {
		return false
	}
	if c.RequireAudio && !s.HasAudio {
		return false
	}
	if c.ExcludeVideo && s.HasVideo {
		return false
	}
	if c.ExcludeAudio && s.HasAudio {
		return false
	}
	if minQuality, ok := c.MinQuality.Get(); ok && s.Quality < minQuality {
		return false
	}
	if maxQuality, ok := c.MaxQuality.Get(); ok && s.Quality > maxQuality {
		return false
	}
	return true
}

// Filter lazily yields the streams that match c, in their original order.
func Filter(streams iter.Seq[Stream], c FilterCriteria) iter.Seq[Stream] {
	return func(yield func(Stream) bool) {
		for s := range streams {
			if c.Matches(s) && !yield(s) {
				return
			}
		}
	}
}
