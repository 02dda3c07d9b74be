// ABOUTME: Tests for pipeline stage transitions and grouping
// ABOUTME: Covers adjacent moves, terminal stages, and bucket partitioning
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceStage(t *testing.T) {
	next, err := AdvanceStage(StageLead)
	require.NoError(t, err)
	assert.Equal(t, StageProposal, next)

	next, err = AdvanceStage(StageProposal)
	require.NoError(t, err)
	assert.Equal(t, StageNegotiation, next)

	next, err = AdvanceStage(StageNegotiation)
	require.NoError(t, err)
	assert.Equal(t, StageClosedWon, next)
}

func TestAdvanceStageTerminal(t *testing.T) {
	_, err := AdvanceStage(StageClosedWon)
	assert.Error(t, err)

	_, err = AdvanceStage(StageClosedLost)
	assert.Error(t, err)
}

func TestRetreatStage(t *testing.T) {
	prev, err := RetreatStage(StageNegotiation)
	require.NoError(t, err)
	assert.Equal(t, StageProposal, prev)

	prev, err = RetreatStage(StageProposal)
	require.NoError(t, err)
	assert.Equal(t, StageLead, prev)
}

func TestRetreatStageRefusals(t *testing.T) {
	_, err := RetreatStage(StageLead)
	assert.Error(t, err, "first stage has no previous stage")

	_, err = RetreatStage(StageClosedWon)
	assert.Error(t, err, "no control moves out of a closed stage")

	_, err = RetreatStage(StageClosedLost)
	assert.Error(t, err)
}

func TestAdvanceRetreatUnknownStage(t *testing.T) {
	_, err := AdvanceStage("banana")
	assert.Error(t, err)

	_, err = RetreatStage("")
	assert.Error(t, err)
}

func TestAdvanceLandsOnAdjacentStage(t *testing.T) {
	// Every non-terminal stage advances exactly one position in the
	// fixed order.
	for i, stage := range PipelineStages {
		if stage.Terminal() {
			continue
		}
		next, err := AdvanceStage(stage)
		require.NoError(t, err)
		assert.Equal(t, PipelineStages[i+1], next)
	}
}

func TestGroupByStage(t *testing.T) {
	opps := []Opportunity{
		{ID: "a", Status: StageLead},
		{ID: "b", Status: StageLead},
		{ID: "c", Status: StageClosedWon},
		{ID: "d", Status: "bogus"},
	}

	buckets := GroupByStage(opps)

	assert.Len(t, buckets, len(PipelineStages))
	assert.Len(t, buckets[StageLead], 2)
	assert.Len(t, buckets[StageClosedWon], 1)
	assert.Empty(t, buckets[StageProposal])
	assert.Empty(t, buckets[StageNegotiation])
	assert.Empty(t, buckets[StageClosedLost])
}

func TestValidPipelineStage(t *testing.T) {
	for _, stage := range PipelineStages {
		assert.True(t, ValidPipelineStage(stage))
	}
	assert.False(t, ValidPipelineStage("open"))
}
