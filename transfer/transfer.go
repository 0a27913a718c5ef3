// Package transfer saves downloaded streams to disk.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alanbriolat/streamdl"
)

// ProgressFunc receives the bytes downloaded so far and the bytes expected (0 if unknown).
type ProgressFunc func(downloaded int64, expected int64)

// A Saver writes a stream under a temporary name in the target directory and only renames it to the target once
// complete, replacing any existing file.
type Saver struct {
	progress ProgressFunc
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Save copies r to target. If expected is known (> 0), anything other than exactly that many bytes is an error.
func (s *Saver) Save(ctx context.Context, r io.Reader, expected int64, target string) error {
	logger := streamdl.Logger(ctx).Sugar().Named("transfer")
	if err := ctx.Err(); err != nil {
		return err
	}

	p := &progress{callback: s.progress, expected: expected}
	p.report()

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, s.dirMode); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to open temporary file: %w", err)
	}
	tempPath := f.Name()
	logger.Debugf("saving to %s via %s", target, tempPath)
	if err := s.saveStream(f, &contextReader{ctx: ctx, r: r}, p); err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if err := os.Rename(tempPath, target); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// saveStream copies the stream into f, closing f whatever happens.
func (s *Saver) saveStream(f *os.File, stream io.Reader, p *progress) error {
	_, err := io.Copy(io.MultiWriter(f, p), stream)
	if err == nil {
		// CreateTemp always uses 0600
		err = f.Chmod(s.fileMode)
	}
	closeErr := f.Close()
	if err != nil {
		return fmt.Errorf("failed to save stream: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to save stream: %w", closeErr)
	}
	if p.expected > 0 && p.downloaded != p.expected {
		return fmt.Errorf("incomplete download: got %d of %d bytes", p.downloaded, p.expected)
	}
	return nil
}

// contextReader stops reading once the context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *contextReader) Read(b []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(b)
}

// progress discards the data written to it, counting the bytes instead. It must be the last writer of an
// io.MultiWriter so that failed writes aren't counted.
type progress struct {
	callback   ProgressFunc
	downloaded int64
	expected   int64
}

func (p *progress) Write(b []byte) (int, error) {
	p.downloaded += int64(len(b))
	p.report()
	return len(b), nil
}

func (p *progress) report() {
	if p.callback != nil {
		p.callback(p.downloaded, p.expected)
	}
}

type Builder interface {
	Build() *Saver
	WithProgressCallback(f ProgressFunc) Builder
	WithDirMode(mode os.FileMode) Builder
	WithFileMode(mode os.FileMode) Builder
}

type builder struct {
	Saver
}

func NewBuilder() Builder {
	return &builder{
		Saver: Saver{
			dirMode:  0775,
			fileMode: 0644,
		},
	}
}

func (b *builder) Build() *Saver {
	s := b.Saver
	return &s
}

func (b *builder) WithProgressCallback(f ProgressFunc) Builder {
	b.progress = f
	return b
}

func (b *builder) WithDirMode(mode os.FileMode) Builder {
	b.dirMode = mode
	return b
}

func (b *builder) WithFileMode(mode os.FileMode) Builder {
	b.fileMode = mode
	return b
}
