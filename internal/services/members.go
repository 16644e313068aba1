package services

import (
	"errors"
	"time"

	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/policy"
	"gorm.io/gorm"
)

// FetchProjectMembers loads the stored membership rows and the creator for a
// project and returns the resolved member list, creator first.
func FetchProjectMembers(project *models.Project) ([]policy.ProjectMember, error) {
	var rows []models.ProjectMembership

	if err := db.DB.Preload("User").Where("project_id = ?", project.ID).Find(&rows).Error; err != nil {
		return nil, err
	}

	var creator models.User

	if err := db.DB.First(&creator, project.OwnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policy.ErrNotFound
		}
		return nil, err
	}

	return policy.ResolveProjectMembers(project, &creator, rows, time.Now()), nil
}

// MembershipsForUser returns the actor's membership rows, the input for the
// policy visibility checks.
func MembershipsForUser(userID uint) ([]models.ProjectMembership, error) {
	var rows []models.ProjectMembership

	if err := db.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}

// IsProjectMember reports whether the user is the project's creator or holds
// an explicit membership row. Used to validate task assignees.
func IsProjectMember(project *models.Project, userID uint) (bool, error) {
	if userID == project.OwnerID {
		return true, nil
	}

	var count int64

	err := db.DB.Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
