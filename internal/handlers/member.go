package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/policy"
	"github.com/projectpilot-dev/projectpilot/internal/services"
	"github.com/projectpilot-dev/projectpilot/internal/utils"
	"gorm.io/gorm"
)

type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ListMembers returns the resolved member list of a project. The creator is
// always the first entry with role "creator", whether or not a membership
// row exists for them.
func ListMembers(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadViewableProject(ctx, userID)

	if !ok {
		return
	}

	members, err := services.FetchProjectMembers(project)

	if err != nil {
		log.Printf("Failed to resolve project members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members. Please try again"})
		return
	}

	ctx.JSON(http.StatusOK, members)
}

// AddMember adds an existing identity to the project by email.
func AddMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body AddMemberRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var target models.User

	if err := db.DB.Where("email = ?", email).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "No user found with this email"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user. Please try again"})
		}
		return
	}

	if target.ID == project.OwnerID {
		ctx.JSON(http.StatusConflict, gin.H{"error": "This user is already a member of the project"})
		return
	}

	membership := models.ProjectMembership{
		UserID:    target.ID,
		ProjectID: project.ID,
		Role:      policy.RoleMember,
	}

	if err := db.DB.Create(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "This user is already a member of the project"})
			return
		}
		log.Printf("Failed to add member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member. Please try again"})
		return
	}

	ctx.JSON(http.StatusCreated, policy.ProjectMember{
		UserID:  target.ID,
		Name:    target.Name,
		Email:   target.Email,
		Role:    membership.Role,
		AddedAt: membership.CreatedAt,
	})
}

// RemoveMember removes a member from the project. The creator entry can
// never be removed, by anyone.
func RemoveMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	targetID, err := utils.GetMemberUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := policy.ProjectMember{UserID: uint(targetID), Role: policy.RoleMember}

	if uint(targetID) == project.OwnerID {
		target.Role = policy.RoleCreator
	}

	if !policy.CanRemoveMembership(userID, project, &target) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "The project creator cannot be removed"})
		return
	}

	var membership models.ProjectMembership

	if err := db.DB.Where("project_id = ? AND user_id = ?", project.ID, uint(targetID)).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership. Please try again"})
		}
		return
	}

	// Hard delete: a soft-deleted row would keep occupying the
	// (user_id, project_id) unique index and block re-adding the member.
	if err := db.DB.Unscoped().Delete(&membership).Error; err != nil {
		log.Printf("Failed to remove member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member. Please try again"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
