// ABOUTME: One-shot users collection seeding from the allow-list
// ABOUTME: Guarded by an existence check so it never re-runs
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/store"
)

// SeedUsers writes one user record per allow-list address when the users
// collection is absent. It returns the number of records created; zero
// means the collection already existed and nothing was written.
func SeedUsers(s store.Store, allowList []string) (int, error) {
	snap, err := s.ReadOnce(store.CollectionUsers)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(snap) > 0 {
		return 0, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	created := 0
	for _, email := range allowList {
		normalized := models.NormalizeEmail(email)
		if normalized == "" {
			continue
		}
		created++
		id := fmt.Sprintf("user_%d", created)
		user := models.User{
			ID:        id,
			Email:     normalized,
			Name:      localPart(normalized),
			CreatedAt: now,
		}
		if err := s.Write(store.RecordPath(store.CollectionUsers, id), user); err != nil {
			return created - 1, fmt.Errorf("failed to seed %s: %w", id, err)
		}
	}
	return created, nil
}

func localPart(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
