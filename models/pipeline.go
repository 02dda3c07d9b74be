// ABOUTME: Pipeline stage machine for sales opportunities
// ABOUTME: Enforces the fixed stage order and adjacent-only transitions
package models

import "fmt"

// PipelineStage is one of the five fixed states an opportunity passes
// through.
type PipelineStage string

const (
	StageLead        PipelineStage = "lead"
	StageProposal    PipelineStage = "proposal"
	StageNegotiation PipelineStage = "negotiation"
	StageClosedWon   PipelineStage = "closed_won"
	StageClosedLost  PipelineStage = "closed_lost"
)

// PipelineStages lists all stages in display order: the linear path ending
// in closed_won, followed by the closed_lost branch.
var PipelineStages = []PipelineStage{
	StageLead,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// ValidPipelineStage reports whether s is one of the five stages.
func ValidPipelineStage(s PipelineStage) bool {
	for _, stage := range PipelineStages {
		if s == stage {
			return true
		}
	}
	return false
}

// Terminal reports whether the stage permits no further transitions through
// the advance/retreat controls. Direct stage edits through the generic
// update path are still allowed.
func (s PipelineStage) Terminal() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// AdvanceStage returns the next stage in the fixed order. Terminal stages
// and unknown stages refuse to move.
func AdvanceStage(s PipelineStage) (PipelineStage, error) {
	if !ValidPipelineStage(s) {
		return "", fmt.Errorf("unknown pipeline stage: %s", s)
	}
	if s.Terminal() {
		return "", fmt.Errorf("cannot advance from terminal stage %s", s)
	}
	idx := stageIndex(s)
	return PipelineStages[idx+1], nil
}

// RetreatStage returns the previous stage in the fixed order. The first
// stage and the terminal stages refuse to move.
func RetreatStage(s PipelineStage) (PipelineStage, error) {
	if !ValidPipelineStage(s) {
		return "", fmt.Errorf("unknown pipeline stage: %s", s)
	}
	if s.Terminal() {
		return "", fmt.Errorf("cannot retreat from terminal stage %s", s)
	}
	idx := stageIndex(s)
	if idx == 0 {
		return "", fmt.Errorf("cannot retreat from first stage %s", s)
	}
	return PipelineStages[idx-1], nil
}

func stageIndex(s PipelineStage) int {
	for i, stage := range PipelineStages {
		if s == stage {
			return i
		}
	}
	return -1
}

// GroupByStage partitions opportunities into one bucket per stage, in the
// fixed display order. Membership is a pure filter over status, recomputed
// from scratch on every call.
func GroupByStage(opps []Opportunity) map[PipelineStage][]Opportunity {
	buckets := make(map[PipelineStage][]Opportunity, len(PipelineStages))
	for _, stage := range PipelineStages {
		buckets[stage] = nil
	}
	for _, o := range opps {
		if !ValidPipelineStage(o.Status) {
			continue
		}
		buckets[o.Status] = append(buckets[o.Status], o)
	}
	return buckets
}
