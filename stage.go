package streamdl

type Stage string

const (
	StageUndefined    Stage = ""
	StageResolving    Stage = "resolving"
	StageFetching     Stage = "fetching"
	StageDescrambling Stage = "descrambling"
	StageFiltering    Stage = "filtering"
	StageSelecting    Stage = "selecting"
	StageTransferring Stage = "transferring"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// stageKinds is the error kind a collaborator failure is reported as, for stages that call collaborators.
var stageKinds = map[Stage]error{
	StageResolving:    ErrInvalidIdentifier,
	StageFetching:     ErrFetch,
	StageDescrambling: ErrDescramble,
	StageTransferring: ErrTransfer,
}

// IsTerminal returns true for the stages a run ends in.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

func (s Stage) String() string {
	if s == StageUndefined {
		return "undefined"
	}
	return string(s)
}

// State is a snapshot of a Pipeline run, reported to the observer on every stage transition.
type State struct {
	RunID   string
	Stage   Stage
	VideoID VideoID
	Title   string
	// Number of streams the video has, once descrambled.
	Streams int
	// Itag of the selected stream, once selected.
	Itag   int
	Target string
	// Error that moved the run to StageFailed, with FailedAt the stage it happened in.
	Error    string
	FailedAt Stage
}
