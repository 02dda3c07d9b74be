// ABOUTME: Task actions for the project board
// ABOUTME: Client-generated ids, optimistic stage moves, status patch write-through
package actions

import (
	"fmt"
	"strings"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/store"
)

// AddTask creates a task under its parent project. Tasks get a
// client-generated id because they live under the parent path, never in
// their own top-level collection.
func (g *Gateway) AddTask(projectID string, task models.Task) error {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !models.ValidPriority(task.Priority) {
		return fmt.Errorf("unknown task priority %q", task.Priority)
	}
	if task.Status == "" {
		task.Status = models.BoardBacklog
	}
	if !models.ValidBoardStage(task.Status) {
		return fmt.Errorf("unknown board stage %q", task.Status)
	}
	project, ok := g.adapter.ProjectByID(projectID)
	if !ok {
		return fmt.Errorf("unknown project %q", projectID)
	}
	task.ID = models.NewToken()

	tasks := copyTasks(project.Tasks)
	tasks[task.ID] = task
	g.adapter.ApplyProjectTasks(projectID, tasks)
	if err := g.store().Write(store.TaskPath(projectID, task.ID), task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// UpdateTask replaces a task record under its parent, the generic edit
// path that also permits a direct arbitrary-stage status change.
func (g *Gateway) UpdateTask(projectID string, task models.Task) error {
	if err := requireField("id", task.ID); err != nil {
		return err
	}
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !models.ValidBoardStage(task.Status) {
		return fmt.Errorf("unknown board stage %q", task.Status)
	}
	if !models.ValidPriority(task.Priority) {
		return fmt.Errorf("unknown task priority %q", task.Priority)
	}
	project, ok := g.adapter.ProjectByID(projectID)
	if !ok {
		return fmt.Errorf("unknown project %q", projectID)
	}
	if _, ok := project.Tasks[task.ID]; !ok {
		return fmt.Errorf("unknown task %q in project %q", task.ID, projectID)
	}

	tasks := copyTasks(project.Tasks)
	tasks[task.ID] = task
	g.adapter.ApplyProjectTasks(projectID, tasks)
	if err := g.store().Write(store.TaskPath(projectID, task.ID), task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// AdvanceTask moves a task one board stage forward.
func (g *Gateway) AdvanceTask(projectID, taskID string) error {
	return g.moveTask(projectID, taskID, models.AdvanceBoardStage)
}

// RetreatTask moves a task one board stage back.
func (g *Gateway) RetreatTask(projectID, taskID string) error {
	return g.moveTask(projectID, taskID, models.RetreatBoardStage)
}

func (g *Gateway) moveTask(projectID, taskID string, step func(models.BoardStage) (models.BoardStage, error)) error {
	project, ok := g.adapter.ProjectByID(projectID)
	if !ok {
		return fmt.Errorf("unknown project %q", projectID)
	}
	task, ok := project.Tasks[taskID]
	if !ok {
		return fmt.Errorf("unknown task %q in project %q", taskID, projectID)
	}
	next, err := step(task.Status)
	if err != nil {
		return err
	}
	task.Status = next

	tasks := copyTasks(project.Tasks)
	tasks[taskID] = task
	g.adapter.ApplyProjectTasks(projectID, tasks)
	if err := g.store().Patch(store.TaskPath(projectID, taskID), map[string]any{"status": string(next)}); err != nil {
		return fmt.Errorf("failed to move task %s: %w", taskID, err)
	}
	return nil
}

// DeleteTask removes a task from its parent project.
func (g *Gateway) DeleteTask(projectID, taskID string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	project, ok := g.adapter.ProjectByID(projectID)
	if !ok {
		return fmt.Errorf("unknown project %q", projectID)
	}
	tasks := copyTasks(project.Tasks)
	delete(tasks, taskID)
	g.adapter.ApplyProjectTasks(projectID, tasks)
	if err := g.store().Remove(store.TaskPath(projectID, taskID)); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	return nil
}

func copyTasks(tasks map[string]models.Task) map[string]models.Task {
	copied := make(map[string]models.Task, len(tasks))
	for id, t := range tasks {
		copied[id] = t
	}
	return copied
}
