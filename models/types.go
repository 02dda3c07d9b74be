// ABOUTME: Data models for ops console entities
// ABOUTME: Defines Client, Opportunity, Project, Task, Transaction, and User structs
package models

import (
	"strings"

	"github.com/google/uuid"
)

// Client is a top-level entity keyed by a store-assigned id.
type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	TaxID     string `json:"cpf_cnpj,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// ContactHistory is owned by exactly one Opportunity and mutated only
// through the parent record.
type ContactHistory struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Type  string `json:"type"`
	Notes string `json:"notes"`
}

// Opportunity carries denormalized client fields captured at creation time.
// They are a frozen snapshot, not kept in sync with later Client edits.
type Opportunity struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	ClientID       string           `json:"client_id,omitempty"`
	ClientName     string           `json:"client_name,omitempty"`
	ClientEmail    string           `json:"client_email,omitempty"`
	ClientPhone    string           `json:"client_phone,omitempty"`
	Value          float64          `json:"value"`
	Status         PipelineStage    `json:"status"`
	Description    string           `json:"description,omitempty"`
	ContactHistory []ContactHistory `json:"contactHistory,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty"`
}

// Task lives under its parent project, never in a top-level collection.
// Its id is generated client-side.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      BoardStage `json:"status"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDate     string     `json:"dueDate,omitempty"`
}

type Project struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ClientID   string          `json:"client_id,omitempty"`
	ClientName string          `json:"client_name,omitempty"`
	Status     string          `json:"status"`
	Budget     float64         `json:"budget"`
	StartDate  string          `json:"startDate,omitempty"`
	Deadline   string          `json:"deadline"`
	Tasks      map[string]Task `json:"tasks,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

type Transaction struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	IsRecurring bool    `json:"is_recurring"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Project status constants.
const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectOnHold    = "on_hold"
	ProjectWon       = "won"
	ProjectLost      = "lost"
)

// Transaction type constants.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// ContactHistory type constants.
const (
	ContactEmail    = "email"
	ContactPhone    = "phone"
	ContactWhatsApp = "whatsapp"
	ContactVisit    = "visit"
	ContactOther    = "other"
)

// Task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// NewToken returns a fresh client-generated identifier for sub-entities
// (tasks, contact history records). Top-level entities get store-assigned
// keys instead.
func NewToken() string {
	return uuid.NewString()
}

// TaskList flattens a project's embedded task map into a slice ordered by
// task id, so two renders of the same snapshot agree.
func (p Project) TaskList() []Task {
	if len(p.Tasks) == 0 {
		return nil
	}
	tasks := make([]Task, 0, len(p.Tasks))
	for _, t := range p.Tasks {
		tasks = append(tasks, t)
	}
	sortTasks(tasks)
	return tasks
}

func sortTasks(tasks []Task) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j].ID < tasks[j-1].ID; j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}

// ValidContactType reports whether t is one of the five contact kinds.
func ValidContactType(t string) bool {
	switch t {
	case ContactEmail, ContactPhone, ContactWhatsApp, ContactVisit, ContactOther:
		return true
	}
	return false
}

// ValidProjectStatus reports whether s is a known project status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectWon, ProjectLost:
		return true
	}
	return false
}

// ValidPriority reports whether p is a known task priority. Empty is
// allowed; the field is optional.
func ValidPriority(p string) bool {
	switch p {
	case "", PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// NormalizeEmail lowercases and trims an address for allow-list comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
