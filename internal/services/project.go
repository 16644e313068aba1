package services

import (
	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"gorm.io/gorm"
)

// DeleteProjectCascade removes a project together with its tasks and
// membership rows in a single transaction, so a crash can never leave tasks
// referencing a deleted project.
func DeleteProjectCascade(project *models.Project) error {
	return db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		// Memberships are hard-deleted: a soft-deleted row would keep
		// occupying the (user_id, project_id) unique index.
		if err := tx.Unscoped().Where("project_id = ?", project.ID).Delete(&models.ProjectMembership{}).Error; err != nil {
			return err
		}

		return tx.Delete(project).Error
	})
}

// VisibleProjectIDs returns the ids of every project the user may view:
// the ones they created plus the ones they are a member of.
func VisibleProjectIDs(userID uint) ([]uint, error) {
	var ids []uint

	err := db.DB.Model(&models.Project{}).
		Where("owner_id = ?", userID).
		Pluck("id", &ids).Error

	if err != nil {
		return nil, err
	}

	var memberIDs []uint

	err = db.DB.Model(&models.ProjectMembership{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &memberIDs).Error

	if err != nil {
		return nil, err
	}

	return append(ids, memberIDs...), nil
}
