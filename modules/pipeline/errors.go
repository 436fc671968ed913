package pipeline

import (
	"context"
	"errors"
	"fmt"

	"quel-shorts-studio/modules/common/model"
	"quel-shorts-studio/modules/generator"
)

// FailureMessage is the only failure text surfaced to users.
const FailureMessage = "Pipeline failure. Check API keys or credits."

// ErrPipelineBusy - 이미 실행 중인 파이프라인이 있음
var ErrPipelineBusy = errors.New("pipeline is already running")

// FailureKind - 실패 분류
type FailureKind string

const (
	FailureParse        FailureKind = "parse"
	FailureMissingAsset FailureKind = "missing_asset"
	FailureService      FailureKind = "service"
	FailureCancelled    FailureKind = "cancelled"
)

// RunError - 파이프라인 중단 사유 (로그/응답용, 사용자에게는 FailureMessage만 노출)
type RunError struct {
	RunID    string
	Phase    model.Phase
	Kind     FailureKind
	Fragment int // -1 outside the asset phase
	Err      error
}

func (e *RunError) Error() string {
	if e.Fragment >= 0 {
		return fmt.Sprintf("run %s failed in %s (fragment %d, %s): %v", e.RunID, e.Phase, e.Fragment, e.Kind, e.Err)
	}
	return fmt.Sprintf("run %s failed in %s (%s): %v", e.RunID, e.Phase, e.Kind, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func classify(err error) FailureKind {
	switch {
	case errors.Is(err, generator.ErrStoryboardParse), errors.Is(err, generator.ErrIncompleteStoryboard):
		return FailureParse
	case errors.Is(err, generator.ErrNoImage), errors.Is(err, generator.ErrNoAudio):
		return FailureMissingAsset
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return FailureCancelled
	default:
		return FailureService
	}
}
