package streamdl

import "context"

// A MetadataProvider looks up a video. Failures should wrap ErrFetch.
type MetadataProvider interface {
	Fetch(ctx context.Context, id VideoID) (Metadata, error)
}

// Metadata is a fetched video whose streams still need descrambling before they can be used.
type Metadata interface {
	Info() VideoInfo
	// Descramble returns every stream of the video with a usable URL. It must not silently drop streams it
	// can't handle; failures should wrap ErrDescramble.
	Descramble(ctx context.Context) (StreamSet, error)
}

// A Transferrer saves a stream to the target path, which it may overwrite. Failures should wrap ErrTransfer.
type Transferrer interface {
	Transfer(ctx context.Context, stream Stream, target string) error
}
