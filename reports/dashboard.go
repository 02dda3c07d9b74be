// ABOUTME: Dashboard aggregates over pipeline, board, and client references
// ABOUTME: All lookups are dangling-safe and never error
package reports

import (
	"github.com/harperreed/opsdesk/models"
)

// PipelineCounts tallies opportunities per stage. Every stage appears,
// zero or not.
func PipelineCounts(opportunities []models.Opportunity) map[models.PipelineStage]int {
	counts := make(map[models.PipelineStage]int, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		counts[stage] = 0
	}
	for _, o := range opportunities {
		if models.ValidPipelineStage(o.Status) {
			counts[o.Status]++
		}
	}
	return counts
}

// PipelineValue sums opportunity values per stage.
func PipelineValue(opportunities []models.Opportunity) map[models.PipelineStage]float64 {
	values := make(map[models.PipelineStage]float64, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		values[stage] = 0
	}
	for _, o := range opportunities {
		if models.ValidPipelineStage(o.Status) {
			values[o.Status] += o.Value
		}
	}
	return values
}

// WonSummary is the closed-won rollup shown on the dashboard.
type WonSummary struct {
	Count int
	Value float64
}

// ClosedWon totals the opportunities that reached closed_won.
func ClosedWon(opportunities []models.Opportunity) WonSummary {
	var summary WonSummary
	for _, o := range opportunities {
		if o.Status == models.StageClosedWon {
			summary.Count++
			summary.Value += o.Value
		}
	}
	return summary
}

// BoardCounts tallies one project's tasks per board stage.
func BoardCounts(p models.Project) map[models.BoardStage]int {
	counts := make(map[models.BoardStage]int, len(models.BoardStages))
	for _, stage := range models.BoardStages {
		counts[stage] = 0
	}
	for _, task := range p.Tasks {
		if models.ValidBoardStage(task.Status) {
			counts[task.Status]++
		}
	}
	return counts
}

// ClientName resolves a weak client reference for display. Unknown ids
// yield an empty string, never an error.
func ClientName(clients []models.Client, clientID string) string {
	for _, c := range clients {
		if c.ID == clientID {
			return c.Name
		}
	}
	return ""
}

// ActiveProjects counts projects currently in the active status.
func ActiveProjects(projects []models.Project) int {
	count := 0
	for _, p := range projects {
		if p.Status == models.ProjectActive {
			count++
		}
	}
	return count
}
