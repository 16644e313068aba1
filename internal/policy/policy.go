// Package policy decides, for an actor and a target entity, which operations
// are permitted. Every function here is pure: callers load the records, the
// policy only looks at them, so permission is always settled before the first
// mutating store call.
package policy

import "github.com/projectpilot-dev/projectpilot/internal/models"

const (
	RoleCreator = "creator"
	RoleMember  = "member"
)

// IsCreatorBootstrap implements the registration bootstrap rule: the first
// registered identity becomes the creator, every later one a member.
func IsCreatorBootstrap(existingUserCount int64) bool {
	return existingUserCount == 0
}

// CanViewProject reports whether the actor is the project's creator or holds
// an explicit membership row for it.
func CanViewProject(actorID uint, project *models.Project, memberships []models.ProjectMembership) bool {
	if actorID == project.OwnerID {
		return true
	}

	for _, m := range memberships {
		if m.ProjectID == project.ID && m.UserID == actorID {
			return true
		}
	}

	return false
}

// CanManageProject is true only for the project's creator. It governs
// update/delete of the project itself, task mutation, and membership changes.
func CanManageProject(actorID uint, project *models.Project) bool {
	return actorID == project.OwnerID
}

// CanViewTask follows project visibility: every member sees every task of a
// visible project. Task assignment grants no extra visibility.
func CanViewTask(actorID uint, task *models.Task, project *models.Project, memberships []models.ProjectMembership) bool {
	if task.ProjectID != project.ID {
		return false
	}

	return CanViewProject(actorID, project, memberships)
}

// CanMutateTask is identical to CanManageProject: only the creator may
// create, edit or delete tasks, regardless of who they are assigned to.
func CanMutateTask(actorID uint, project *models.Project) bool {
	return CanManageProject(actorID, project)
}

// CanRemoveMembership allows the creator to remove members, but never the
// creator entry itself, not even for the creator acting on their own row.
func CanRemoveMembership(actorID uint, project *models.Project, member *ProjectMember) bool {
	if !CanManageProject(actorID, project) {
		return false
	}

	return member.Role != RoleCreator
}
