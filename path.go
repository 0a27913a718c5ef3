package streamdl

import (
	"path/filepath"

	"github.com/alanbriolat/streamdl/generic"
)

// DefaultExtension is used for the default filename regardless of the selected stream's container.
const DefaultExtension = "mp4"

// DefaultFilename is the filename used when none is given: "<id>.mp4".
func DefaultFilename(id VideoID) string {
	return id.String() + "." + DefaultExtension
}

// ResolvePath computes where a download should be saved. The filename defaults to DefaultFilename(id), and the
// directory to the current directory. An absolute filename ignores the directory. Nothing is checked against the
// filesystem.
func ResolvePath(filename generic.Option[string], dir generic.Option[string], id VideoID) string {
	name := filename.UnwrapOrElse(func() string { return DefaultFilename(id) })
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(dir.UnwrapOr(""), name)
}
