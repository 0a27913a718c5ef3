package streamdl

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentifier = errors.New("invalid video identifier")
	ErrFetch             = errors.New("could not fetch the video information")
	ErrDescramble        = errors.New("could not descramble the video information")
	// ErrNoStreamsAtAll means the video itself offered nothing to download.
	ErrNoStreamsAtAll = errors.New("there are no streams for this video")
	// ErrNoStreamsMatchCriteria means there were streams, but the filter rejected all of them.
	ErrNoStreamsMatchCriteria = errors.New("there are no streams that match all your criteria")
	ErrTransfer               = errors.New("could not download the stream")
)

// StageError is the terminal failure of a Pipeline run: the stage that failed and the error it failed with.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage a Pipeline error happened in, or StageUndefined if err didn't come from a Pipeline.
func FailedStage(err error) Stage {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return StageUndefined
}

// wrapKind ensures err is recognisable as kind with errors.Is, without wrapping it twice.
func wrapKind(kind error, err error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
