// ABOUTME: Task board stage machine for project tasks
// ABOUTME: Four-stage lifecycle with adjacent-only moves and no terminal stages
package models

import "fmt"

// BoardStage is one of the four fixed states a project task passes through.
type BoardStage string

const (
	BoardBacklog    BoardStage = "backlog"
	BoardInProgress BoardStage = "em_andamento"
	BoardDone       BoardStage = "concluida"
	BoardReview     BoardStage = "revisao"
)

// BoardStages lists the four stages in board order.
var BoardStages = []BoardStage{
	BoardBacklog,
	BoardInProgress,
	BoardDone,
	BoardReview,
}

// ValidBoardStage reports whether s is one of the four stages.
func ValidBoardStage(s BoardStage) bool {
	for _, stage := range BoardStages {
		if s == stage {
			return true
		}
	}
	return false
}

// AdvanceBoardStage returns the next stage in board order. The last stage
// refuses to move; there are no terminal stages on the board.
func AdvanceBoardStage(s BoardStage) (BoardStage, error) {
	idx := boardIndex(s)
	if idx < 0 {
		return "", fmt.Errorf("unknown board stage: %s", s)
	}
	if idx == len(BoardStages)-1 {
		return "", fmt.Errorf("cannot advance from last stage %s", s)
	}
	return BoardStages[idx+1], nil
}

// RetreatBoardStage returns the previous stage in board order. The first
// stage refuses to move.
func RetreatBoardStage(s BoardStage) (BoardStage, error) {
	idx := boardIndex(s)
	if idx < 0 {
		return "", fmt.Errorf("unknown board stage: %s", s)
	}
	if idx == 0 {
		return "", fmt.Errorf("cannot retreat from first stage %s", s)
	}
	return BoardStages[idx-1], nil
}

func boardIndex(s BoardStage) int {
	for i, stage := range BoardStages {
		if s == stage {
			return i
		}
	}
	return -1
}

// GroupByBoardStage partitions tasks into one bucket per stage in board
// order, recomputed on every call.
func GroupByBoardStage(tasks []Task) map[BoardStage][]Task {
	buckets := make(map[BoardStage][]Task, len(BoardStages))
	for _, stage := range BoardStages {
		buckets[stage] = nil
	}
	for _, t := range tasks {
		if !ValidBoardStage(t.Status) {
			continue
		}
		buckets[t.Status] = append(buckets[t.Status], t)
	}
	return buckets
}
