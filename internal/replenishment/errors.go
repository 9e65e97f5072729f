package replenishment

import (
	"errors"
	"fmt"
)

var (
	ErrRunInProgress = errors.New("replenishment run already in progress for this run date")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("not found")
)

// Run stages, in execution order.
const (
	StageLock        = "lock"
	StageReadiness   = "readiness"
	StageSeasonality = "seasonality"
	StageCandidates  = "candidates"
	StagePreload     = "preload"
	StageCompute     = "compute"
	StageCommit      = "commit"
)

// RunError reports the stage at which a run failed. A failed run leaves the
// previously committed plan untouched.
type RunError struct {
	RunDate string
	Stage   string
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("replenishment run %s failed at %s: %v", e.RunDate, e.Stage, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
