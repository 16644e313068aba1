package policy

import (
	"sort"
	"time"

	"github.com/projectpilot-dev/projectpilot/internal/models"
)

// ProjectMember is one entry of the resolved member list of a project. It is
// a computed view: the creator entry may not exist as a stored row.
type ProjectMember struct {
	UserID  uint      `json:"user_id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	AddedAt time.Time `json:"added_at"`
}

// ResolveProjectMembers merges the stored membership rows with the project's
// creator into the effective member list. The creator is always the first
// entry and always carries role "creator", whether or not a stored row exists
// for them; the remaining members are ordered most-recently-added first.
// Membership rows must have their User association loaded.
//
// The function is deterministic: the same inputs (including now, used to
// timestamp a synthetic creator entry) always produce the same list.
func ResolveProjectMembers(project *models.Project, creator *models.User, rows []models.ProjectMembership, now time.Time) []ProjectMember {
	members := make([]ProjectMember, 0, len(rows)+1)

	creatorEntry := ProjectMember{
		UserID:  creator.ID,
		Name:    creator.Name,
		Email:   creator.Email,
		Role:    RoleCreator,
		AddedAt: now,
	}

	rest := make([]models.ProjectMembership, 0, len(rows))

	for _, row := range rows {
		if row.UserID == creator.ID {
			// A stored row for the creator is folded into the creator
			// entry instead of appearing twice.
			creatorEntry.AddedAt = row.CreatedAt
			continue
		}
		rest = append(rest, row)
	}

	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].CreatedAt.Equal(rest[j].CreatedAt) {
			return rest[i].ID > rest[j].ID
		}
		return rest[i].CreatedAt.After(rest[j].CreatedAt)
	})

	members = append(members, creatorEntry)

	for _, row := range rest {
		members = append(members, ProjectMember{
			UserID:  row.UserID,
			Name:    row.User.Name,
			Email:   row.User.Email,
			Role:    row.Role,
			AddedAt: row.CreatedAt,
		})
	}

	return members
}
