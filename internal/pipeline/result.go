package pipeline

import "fmt"

// Stage labels of the fixed processing order.
type Stage string

const (
	StageValidate        Stage = "Validate"
	StageHash            Stage = "Hash"
	StageExtractMetadata Stage = "ExtractMetadata"
	StageStore           Stage = "Store"
	StageGenerateReport  Stage = "GenerateReport"
	StageComplete        Stage = "Complete"
)

// Coarse progress checkpoints. Advisory only: monotonic within a run,
// never used for correctness.
var stageProgress = map[Stage]float64{
	StageValidate:        5,
	StageHash:            10,
	StageExtractMetadata: 30,
	StageStore:           60,
	StageGenerateReport:  90,
	StageComplete:        100,
}

// StageError is the result variant carried out of a failed stage. The
// orchestrator consumes it to decide the terminal job state; it never
// triggers cleanup of evidence collected by earlier stages.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
