package streamdl

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbriolat/streamdl/generic"
)

// ObserverFunc is called on every stage transition with the previous and new state of the run.
type ObserverFunc func(old State, new State)

type DownloadRequest struct {
	// Identifier is a video ID or URL, see ParseVideoID.
	Identifier string
	Filename   generic.Option[string]
	Dir        generic.Option[string]
	Criteria   FilterCriteria
}

type DownloadResult struct {
	Info   VideoInfo
	Stream Stream
	Target string
}

type FetchResult struct {
	Info    VideoInfo
	Streams StreamSet
}

// A Pipeline runs a download through its stages one after another, stopping at the first failure. The error from a
// failed run is always a *StageError.
type Pipeline struct {
	provider    MetadataProvider
	transferrer Transferrer
	observer    ObserverFunc
}

// Download resolves the identifier, fetches and descrambles the video, selects the best stream matching
// req.Criteria and transfers it to the path from ResolvePath.
func (p *Pipeline) Download(ctx context.Context, req DownloadRequest) (*DownloadResult, error) {
	r := p.newRun(ctx)
	r.log.Infow("starting download", "identifier", req.Identifier)

	id, err := r.resolve(req.Identifier)
	if err != nil {
		return nil, err
	}
	metadata, err := r.fetch(id)
	if err != nil {
		return nil, err
	}
	streams, err := r.descramble(metadata)
	if err != nil {
		return nil, err
	}

	r.advance(StageFiltering, nil)
	candidates := Filter(streams.All(), req.Criteria)

	r.advance(StageSelecting, nil)
	stream, err := Select(candidates, len(streams) == 0, req.Criteria)
	if err != nil {
		return nil, r.fail(err)
	}
	r.log.Infow("selected stream", "stream", stream.String())

	target := ResolvePath(req.Filename, req.Dir, id)
	r.advance(StageTransferring, func(s *State) {
		s.Itag = stream.Itag
		s.Target = target
	})
	if err := r.ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	if err := r.guard(p.transferrer.Transfer(r.ctx, stream, target)); err != nil {
		return nil, r.fail(err)
	}

	r.advance(StageDone, nil)
	r.log.Infow("download complete", "target", target)
	return &DownloadResult{Info: metadata.Info(), Stream: stream, Target: target}, nil
}

// Fetch runs only as far as descrambling, returning everything known about the video. If only descrambling fails,
// the result still carries the video information alongside the error.
func (p *Pipeline) Fetch(ctx context.Context, identifier string) (*FetchResult, error) {
	r := p.newRun(ctx)
	r.log.Infow("starting fetch", "identifier", identifier)

	id, err := r.resolve(identifier)
	if err != nil {
		return nil, err
	}
	metadata, err := r.fetch(id)
	if err != nil {
		return nil, err
	}
	streams, err := r.descramble(metadata)
	if err != nil {
		return &FetchResult{Info: metadata.Info()}, err
	}

	r.advance(StageDone, nil)
	return &FetchResult{Info: metadata.Info(), Streams: streams}, nil
}

// run is the state of a single Pipeline invocation.
type run struct {
	*Pipeline
	ctx   context.Context
	log   *zap.SugaredLogger
	state State
}

func (p *Pipeline) newRun(ctx context.Context) *run {
	runID := uuid.NewString()
	return &run{
		Pipeline: p,
		ctx:      ctx,
		log:      Logger(ctx).Sugar().Named("pipeline").With("run_id", runID),
		state:    State{RunID: runID},
	}
}

func (r *run) resolve(identifier string) (VideoID, error) {
	r.advance(StageResolving, nil)
	id, err := ParseVideoID(identifier)
	if err != nil {
		return "", r.fail(err)
	}
	r.log = r.log.With("video_id", id)
	r.advance(StageResolving, func(s *State) { s.VideoID = id })
	return id, nil
}

func (r *run) fetch(id VideoID) (Metadata, error) {
	r.advance(StageFetching, nil)
	if err := r.ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	metadata, err := r.provider.Fetch(r.ctx, id)
	if err == nil && metadata == nil {
		err = errors.New("provider returned no metadata")
	}
	if err = r.guard(err); err != nil {
		return nil, r.fail(err)
	}
	r.log.Debugw("fetched video information", "title", metadata.Info().Title)
	return metadata, nil
}

func (r *run) descramble(metadata Metadata) (StreamSet, error) {
	r.advance(StageDescrambling, func(s *State) { s.Title = metadata.Info().Title })
	if err := r.ctx.Err(); err != nil {
		return nil, r.fail(err)
	}
	streams, err := metadata.Descramble(r.ctx)
	if err = r.guard(err); err != nil {
		return nil, r.fail(err)
	}
	r.advance(StageDescrambling, func(s *State) { s.Streams = len(streams) })
	r.log.Debugw("descrambled streams", "count", len(streams))
	return streams, nil
}

// guard makes sure a failed collaborator call is reported as the kind of error that belongs to the current stage,
// unless the run was cancelled, which is reported as-is.
func (r *run) guard(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if kind, ok := stageKinds[r.state.Stage]; ok {
		return wrapKind(kind, err)
	}
	return err
}

// advance moves the run to the next stage, applying any changes to the state and notifying the observer. Advancing
// to the current stage just reports the changes.
func (r *run) advance(stage Stage, update func(*State)) {
	old := r.state
	r.state.Stage = stage
	if update != nil {
		update(&r.state)
	}
	if old.Stage != stage {
		r.log.Debugf("stage %s -> %s", old.Stage, stage)
	}
	if r.observer != nil && r.state != old {
		r.observer(old, r.state)
	}
}

// fail ends the run at the current stage, returning the error to give to the caller.
func (r *run) fail(err error) error {
	stageErr := &StageError{Stage: r.state.Stage, Err: err}
	r.advance(StageFailed, func(s *State) {
		s.Error = err.Error()
		s.FailedAt = stageErr.Stage
		s.Target = ""
	})
	r.log.Errorw("run failed", "stage", stageErr.Stage, "error", err)
	return stageErr
}

type PipelineBuilder interface {
	Build() (*Pipeline, error)
	WithProvider(p MetadataProvider) PipelineBuilder
	WithTransferrer(t Transferrer) PipelineBuilder
	WithObserver(f ObserverFunc) PipelineBuilder
}

type pipelineBuilder struct {
	Pipeline
}

func NewPipelineBuilder() PipelineBuilder {
	return &pipelineBuilder{}
}

// Build returns the Pipeline, or an error if no MetadataProvider was set. A Transferrer is only needed by Download.
func (b *pipelineBuilder) Build() (*Pipeline, error) {
	if b.provider == nil {
		return nil, fmt.Errorf("must use WithProvider()")
	}
	p := b.Pipeline
	if p.transferrer == nil {
		p.transferrer = missingTransferrer{}
	}
	return &p, nil
}

func (b *pipelineBuilder) WithProvider(p MetadataProvider) PipelineBuilder {
	b.provider = p
	return b
}

func (b *pipelineBuilder) WithTransferrer(t Transferrer) PipelineBuilder {
	b.transferrer = t
	return b
}

func (b *pipelineBuilder) WithObserver(f ObserverFunc) PipelineBuilder {
	b.observer = f
	return b
}

type missingTransferrer struct{}

func (missingTransferrer) Transfer(context.Context, Stream, string) error {
	return errors.New("pipeline has no transferrer")
}
