package reconcile

import "fmt"

// Stage is a step of the receiving workflow
type Stage string

const (
	StageScan      Stage = "scan"
	StageReceipt   Stage = "receipt"
	StageReconcile Stage = "reconcile"
	StageSubmit    Stage = "submit"
	StageSubmitted Stage = "submitted"
	StageDiscarded Stage = "discarded"
)

// forward edges plus the correction back-edges; discard is allowed from any open stage
var transitions = map[Stage][]Stage{
	StageScan:      {StageReceipt},
	StageReceipt:   {StageReconcile},
	StageReconcile: {StageSubmit, StageReceipt, StageScan},
	StageSubmit:    {StageReconcile},
}

// Terminal reports whether no further transitions are possible
func (s Stage) Terminal() bool {
	return s == StageSubmitted || s == StageDiscarded
}

// CanTransition reports whether from -> to is a workflow edge
func CanTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageDiscarded {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ParseStage validates a stage name coming from a client
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageScan, StageReceipt, StageReconcile, StageSubmit, StageSubmitted, StageDiscarded:
		return st, nil
	}
	return "", fmt.Errorf("unknown stage %q", s)
}
