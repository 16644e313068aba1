package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/policy"
	"github.com/projectpilot-dev/projectpilot/internal/services"
	"github.com/projectpilot-dev/projectpilot/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type GetProjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `json:"owner_id"`
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	// IsCreator comes from the middleware's fresh load of the user row,
	// never from anything the client sent.
	if !currentUser.IsCreator {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only creators can create projects"})
		return
	}

	project := models.Project{
		Name:        body.Name,
		Description: body.Description,
		OwnerID:     currentUser.ID,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project. Please try again"})
		return
	}

	ctx.JSON(http.StatusCreated, GetProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
	})
}

// ListProjects returns every project visible to the actor: owned projects
// plus the ones they hold a membership for, ordered by name.
func ListProjects(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ids, err := services.VisibleProjectIDs(userID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects. Please try again"})
		return
	}

	var projects []models.Project

	if len(ids) > 0 {
		if err := db.DB.Where("id IN ?", ids).Order("name").Find(&projects).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects. Please try again"})
			return
		}
	}

	response := make([]GetProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, GetProjectResponse{
			ID:          project.ID,
			Name:        project.Name,
			Description: project.Description,
			OwnerID:     project.OwnerID,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadViewableProject(ctx, userID)

	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, GetProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
	})
}

func UpdateProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	project.Name = body.Name
	project.Description = body.Description

	if err := db.DB.Save(project).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project. Please try again"})
		return
	}

	ctx.JSON(http.StatusOK, GetProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
	})
}

func DeleteProject(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	if err := services.DeleteProjectCascade(project); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project. Please try again"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadViewableProject fetches the project from the path parameter and checks
// view permission. On failure it writes the response and returns ok=false.
func loadViewableProject(ctx *gin.Context, userID uint) (*models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project. Please try again"})
		}
		return nil, false
	}

	memberships, err := services.MembershipsForUser(userID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project. Please try again"})
		return nil, false
	}

	if !policy.CanViewProject(userID, &project, memberships) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project"})
		return nil, false
	}

	return &project, true
}

// loadManagedProject is loadViewableProject restricted to the creator.
func loadManagedProject(ctx *gin.Context, userID uint) (*models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project. Please try again"})
		}
		return nil, false
	}

	if !policy.CanManageProject(userID, &project) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the project creator can do this"})
		return nil, false
	}

	return &project, true
}
