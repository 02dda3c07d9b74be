// ABOUTME: Tests for task board stage transitions
// ABOUTME: Covers adjacent moves and edge-of-board refusals
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceBoardStage(t *testing.T) {
	for i := 0; i < len(BoardStages)-1; i++ {
		next, err := AdvanceBoardStage(BoardStages[i])
		require.NoError(t, err)
		assert.Equal(t, BoardStages[i+1], next)
	}
}

func TestRetreatBoardStage(t *testing.T) {
	for i := len(BoardStages) - 1; i > 0; i-- {
		prev, err := RetreatBoardStage(BoardStages[i])
		require.NoError(t, err)
		assert.Equal(t, BoardStages[i-1], prev)
	}
}

func TestBoardEdgeRefusals(t *testing.T) {
	_, err := RetreatBoardStage(BoardBacklog)
	assert.Error(t, err, "backlog has nothing before it")

	_, err = AdvanceBoardStage(BoardReview)
	assert.Error(t, err, "revisao has nothing after it")
}

func TestBoardUnknownStage(t *testing.T) {
	_, err := AdvanceBoardStage("doing")
	assert.Error(t, err)

	_, err = RetreatBoardStage("")
	assert.Error(t, err)
}

func TestBoardHasNoTerminalStages(t *testing.T) {
	// Unlike the sales pipeline, every middle stage moves both ways.
	for i := 1; i < len(BoardStages)-1; i++ {
		_, err := AdvanceBoardStage(BoardStages[i])
		assert.NoError(t, err)
		_, err = RetreatBoardStage(BoardStages[i])
		assert.NoError(t, err)
	}
}

func TestGroupByBoardStage(t *testing.T) {
	tasks := []Task{
		{ID: "1", Status: BoardBacklog},
		{ID: "2", Status: BoardInProgress},
		{ID: "3", Status: BoardInProgress},
		{ID: "4", Status: "nope"},
	}

	buckets := GroupByBoardStage(tasks)

	assert.Len(t, buckets, len(BoardStages))
	assert.Len(t, buckets[BoardBacklog], 1)
	assert.Len(t, buckets[BoardInProgress], 2)
	assert.Empty(t, buckets[BoardDone])
	assert.Empty(t, buckets[BoardReview])
}
