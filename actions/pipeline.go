// ABOUTME: Opportunity actions for the sales pipeline
// ABOUTME: Stage moves by status patch, contact history via full-record write-back
package actions

import (
	"fmt"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/store"
)

// CreateOpportunity validates and writes a new opportunity. Client
// contact fields are captured at creation as a frozen snapshot; later
// client edits never propagate back.
func (g *Gateway) CreateOpportunity(o models.Opportunity, value string) error {
	if err := requireField("title", o.Title); err != nil {
		return err
	}
	parsed, err := ParseAmount(value)
	if err != nil {
		return err
	}
	if o.Status == "" {
		o.Status = models.StageLead
	}
	if !models.ValidPipelineStage(o.Status) {
		return fmt.Errorf("unknown pipeline stage %q", o.Status)
	}
	o.Value = parsed
	o.ID = ""
	o.ContactHistory = nil
	o.CreatedAt = g.timestamp()
	if client, ok := g.adapter.ClientByID(o.ClientID); ok {
		o.ClientName = client.Name
		o.ClientEmail = client.Email
		o.ClientPhone = client.Phone
	}
	if _, err := g.store().Create(store.CollectionOpportunities, o); err != nil {
		return fmt.Errorf("failed to create opportunity: %w", err)
	}
	return nil
}

// UpdateOpportunity replaces an opportunity record from an edit form.
// The denormalized client snapshot and the contact history are carried
// over from the current record; a form edit never rewrites them.
func (g *Gateway) UpdateOpportunity(o models.Opportunity, value string) error {
	if err := requireField("id", o.ID); err != nil {
		return err
	}
	if err := requireField("title", o.Title); err != nil {
		return err
	}
	parsed, err := ParseAmount(value)
	if err != nil {
		return err
	}
	if !models.ValidPipelineStage(o.Status) {
		return fmt.Errorf("unknown pipeline stage %q", o.Status)
	}
	o.Value = parsed
	if current, ok := g.adapter.OpportunityByID(o.ID); ok {
		o.ClientName = current.ClientName
		o.ClientEmail = current.ClientEmail
		o.ClientPhone = current.ClientPhone
		o.ContactHistory = current.ContactHistory
		o.CreatedAt = current.CreatedAt
	}
	if err := g.store().Write(store.RecordPath(store.CollectionOpportunities, o.ID), o); err != nil {
		return fmt.Errorf("failed to update opportunity: %w", err)
	}
	return nil
}

// DeleteOpportunity removes an opportunity and its contact history.
func (g *Gateway) DeleteOpportunity(id string, confirmed bool) error {
	return g.deleteRecord(store.CollectionOpportunities, id, confirmed)
}

// AdvanceOpportunity moves an opportunity one stage forward, optimistic
// apply first, then a status-only patch.
func (g *Gateway) AdvanceOpportunity(id string) error {
	return g.moveOpportunity(id, models.AdvanceStage)
}

// RetreatOpportunity moves an opportunity one stage back.
func (g *Gateway) RetreatOpportunity(id string) error {
	return g.moveOpportunity(id, models.RetreatStage)
}

func (g *Gateway) moveOpportunity(id string, step func(models.PipelineStage) (models.PipelineStage, error)) error {
	o, ok := g.adapter.OpportunityByID(id)
	if !ok {
		return fmt.Errorf("unknown opportunity %q", id)
	}
	next, err := step(o.Status)
	if err != nil {
		return err
	}
	o.Status = next
	g.adapter.ApplyOpportunity(o)
	if err := g.store().Patch(store.RecordPath(store.CollectionOpportunities, id), map[string]any{"status": string(next)}); err != nil {
		return fmt.Errorf("failed to move opportunity %s: %w", id, err)
	}
	return nil
}

// AddContact appends a contact record to an opportunity's history. The
// history lives inside the parent record, so the whole record is written
// back.
func (g *Gateway) AddContact(opportunityID string, contact models.ContactHistory) error {
	if !models.ValidContactType(contact.Type) {
		return fmt.Errorf("unknown contact type %q", contact.Type)
	}
	if err := requireField("date", contact.Date); err != nil {
		return err
	}
	if contact.ID == "" {
		contact.ID = models.NewToken()
	}
	return g.writeContactHistory(opportunityID, func(history []models.ContactHistory) ([]models.ContactHistory, error) {
		return append(history, contact), nil
	})
}

// UpdateContact replaces one contact record in place.
func (g *Gateway) UpdateContact(opportunityID string, contact models.ContactHistory) error {
	if err := requireField("id", contact.ID); err != nil {
		return err
	}
	if !models.ValidContactType(contact.Type) {
		return fmt.Errorf("unknown contact type %q", contact.Type)
	}
	return g.writeContactHistory(opportunityID, func(history []models.ContactHistory) ([]models.ContactHistory, error) {
		for i := range history {
			if history[i].ID == contact.ID {
				history[i] = contact
				return history, nil
			}
		}
		return nil, fmt.Errorf("unknown contact record %q", contact.ID)
	})
}

// RemoveContact deletes one contact record from the history.
func (g *Gateway) RemoveContact(opportunityID, contactID string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	return g.writeContactHistory(opportunityID, func(history []models.ContactHistory) ([]models.ContactHistory, error) {
		kept := history[:0]
		for _, c := range history {
			if c.ID != contactID {
				kept = append(kept, c)
			}
		}
		return kept, nil
	})
}

func (g *Gateway) writeContactHistory(opportunityID string, edit func([]models.ContactHistory) ([]models.ContactHistory, error)) error {
	o, ok := g.adapter.OpportunityByID(opportunityID)
	if !ok {
		return fmt.Errorf("unknown opportunity %q", opportunityID)
	}
	history := append([]models.ContactHistory(nil), o.ContactHistory...)
	edited, err := edit(history)
	if err != nil {
		return err
	}
	o.ContactHistory = edited
	g.adapter.ApplyOpportunity(o)
	if err := g.store().Write(store.RecordPath(store.CollectionOpportunities, opportunityID), o); err != nil {
		return fmt.Errorf("failed to write contact history for %s: %w", opportunityID, err)
	}
	return nil
}
