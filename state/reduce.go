// ABOUTME: Pure reducers turning raw snapshots into ordered entity slices
// ABOUTME: Each reducer rebuilds its slice from scratch, never patches in place
package state

import (
	"encoding/json"
	"log"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/store"
)

// nameCollator orders client names case-insensitively with locale-aware
// comparison, so accented names land where a person would look for them.
var nameCollator = collate.New(language.Und, collate.IgnoreCase)

// ReduceClients decodes a clients snapshot into a slice sorted by name.
// A nil snapshot reduces to an empty slice, never an error.
func ReduceClients(snap store.Snapshot) []models.Client {
	clients := make([]models.Client, 0, len(snap))
	for key, raw := range snap {
		var c models.Client
		if err := json.Unmarshal(raw, &c); err != nil {
			log.Printf("Skipping undecodable client %s: %v", key, err)
			continue
		}
		if c.ID == "" {
			c.ID = key
		}
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		if cmp := nameCollator.CompareString(clients[i].Name, clients[j].Name); cmp != 0 {
			return cmp < 0
		}
		return clients[i].ID < clients[j].ID
	})
	return clients
}

// ReduceOpportunities decodes an opportunities snapshot ordered by store
// key. Keys are chronologically sortable, so key order is creation order.
func ReduceOpportunities(snap store.Snapshot) []models.Opportunity {
	opportunities := make([]models.Opportunity, 0, len(snap))
	for _, key := range sortedKeys(snap) {
		var o models.Opportunity
		if err := json.Unmarshal(snap[key], &o); err != nil {
			log.Printf("Skipping undecodable opportunity %s: %v", key, err)
			continue
		}
		if o.ID == "" {
			o.ID = key
		}
		opportunities = append(opportunities, o)
	}
	return opportunities
}

// ReduceProjects decodes a projects snapshot ordered by store key.
func ReduceProjects(snap store.Snapshot) []models.Project {
	projects := make([]models.Project, 0, len(snap))
	for _, key := range sortedKeys(snap) {
		var p models.Project
		if err := json.Unmarshal(snap[key], &p); err != nil {
			log.Printf("Skipping undecodable project %s: %v", key, err)
			continue
		}
		if p.ID == "" {
			p.ID = key
		}
		projects = append(projects, p)
	}
	return projects
}

// ReduceTransactions decodes a transactions snapshot sorted by date
// descending, most recent first. Dates are ISO strings, so string order is
// date order; ties fall back to key order, newest key first.
func ReduceTransactions(snap store.Snapshot) []models.Transaction {
	transactions := make([]models.Transaction, 0, len(snap))
	for key, raw := range snap {
		var t models.Transaction
		if err := json.Unmarshal(raw, &t); err != nil {
			log.Printf("Skipping undecodable transaction %s: %v", key, err)
			continue
		}
		if t.ID == "" {
			t.ID = key
		}
		transactions = append(transactions, t)
	}
	sort.Slice(transactions, func(i, j int) bool {
		if transactions[i].Date != transactions[j].Date {
			return transactions[i].Date > transactions[j].Date
		}
		return transactions[i].ID > transactions[j].ID
	})
	return transactions
}

// ReduceUsers decodes a users snapshot ordered by store key.
func ReduceUsers(snap store.Snapshot) []models.User {
	users := make([]models.User, 0, len(snap))
	for _, key := range sortedKeys(snap) {
		var u models.User
		if err := json.Unmarshal(snap[key], &u); err != nil {
			log.Printf("Skipping undecodable user %s: %v", key, err)
			continue
		}
		if u.ID == "" {
			u.ID = key
		}
		users = append(users, u)
	}
	return users
}

func sortedKeys(snap store.Snapshot) []string {
	keys := make([]string, 0, len(snap))
	for key := range snap {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
