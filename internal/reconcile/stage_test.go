package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Stage
		want     bool
	}{
		{StageScan, StageReceipt, true},
		{StageReceipt, StageReconcile, true},
		{StageReconcile, StageSubmit, true},
		{StageReconcile, StageReceipt, true},
		{StageReconcile, StageScan, true},
		{StageSubmit, StageReconcile, true},
		{StageScan, StageReconcile, false},
		{StageReceipt, StageScan, false},
		{StageSubmit, StageScan, false},
		{StageScan, StageDiscarded, true},
		{StageSubmit, StageDiscarded, true},
		{StageDiscarded, StageScan, false},
		{StageSubmitted, StageDiscarded, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseStage(t *testing.T) {
	st, err := ParseStage("reconcile")
	require.NoError(t, err)
	assert.Equal(t, StageReconcile, st)

	_, err = ParseStage("shipping")
	assert.Error(t, err)
}
