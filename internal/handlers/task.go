package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/policy"
	"github.com/projectpilot-dev/projectpilot/internal/services"
	"github.com/projectpilot-dev/projectpilot/internal/types"
	"github.com/projectpilot-dev/projectpilot/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD, empty for none
	AssignedTo  *uint  `json:"assigned_to"`
}

type UpdateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"required"`
	DueDate     string `json:"due_date"`
	AssignedTo  *uint  `json:"assigned_to"`
}

type TaskAssignee struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TaskResponse struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	DueDate     string        `json:"due_date,omitempty"`
	ProjectID   uint          `json:"project_id"`
	ProjectName string        `json:"project_name,omitempty"`
	Assignee    *TaskAssignee `json:"assignee,omitempty"`
}

func taskToResponse(task *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		ProjectID:   task.ProjectID,
	}

	if task.DueDate != nil {
		resp.DueDate = time.Time(*task.DueDate).Format("2006-01-02")
	}

	if task.Project.ID != 0 {
		resp.ProjectName = task.Project.Name
	}

	if task.Assignee != nil {
		resp.Assignee = &TaskAssignee{
			ID:    task.Assignee.ID,
			Name:  task.Assignee.Name,
			Email: task.Assignee.Email,
		}
	}

	return resp
}

func parseDueDate(value string) (*datatypes.Date, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", value)

	if err != nil {
		return nil, policy.NewValidationError("Due date must be in YYYY-MM-DD format")
	}

	d := datatypes.Date(t)
	return &d, nil
}

// validateTaskFields checks the status enum and, when an assignee is set,
// that they are the creator or a member of the project. Both run before any
// mutating call.
func validateTaskFields(project *models.Project, status string, assignedTo *uint) error {
	if !types.IsValidTaskStatus(status) {
		return policy.NewValidationError("Status must be one of: To Do, In Progress, Completed, Blocked")
	}

	if assignedTo != nil {
		ok, err := services.IsProjectMember(project, *assignedTo)

		if err != nil {
			return err
		}

		if !ok {
			return policy.NewValidationError("Assignee must be a member of the project")
		}
	}

	return nil
}

func ListProjectTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadViewableProject(ctx, userID)

	if !ok {
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Assignee").Where("project_id = ?", project.ID).Order("created_at DESC").Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks. Please try again"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, taskToResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

// ListTasks returns every task of every project visible to the actor.
func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ids, err := services.VisibleProjectIDs(userID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks. Please try again"})
		return
	}

	var tasks []models.Task

	if len(ids) > 0 {
		if err := db.DB.Preload("Assignee").Preload("Project").Where("project_id IN ?", ids).Order("created_at DESC").Find(&tasks).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks. Please try again"})
			return
		}
	}

	response := make([]TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, taskToResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateTask(ctx *gin.Context) {
	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	if req.Status == "" {
		req.Status = types.TaskStatusToDo
	}

	if err := validateTaskFields(project, req.Status, req.AssignedTo); err != nil {
		respondTaskError(ctx, err)
		return
	}

	dueDate, err := parseDueDate(req.DueDate)

	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     dueDate,
		ProjectID:   project.ID,
		AssignedTo:  req.AssignedTo,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task. Please try again"})
		return
	}

	ctx.JSON(http.StatusCreated, taskToResponse(&task))
}

func UpdateTask(ctx *gin.Context) {
	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND project_id = ?", taskID, project.ID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task. Please try again"})
		}
		return
	}

	if err := validateTaskFields(project, req.Status, req.AssignedTo); err != nil {
		respondTaskError(ctx, err)
		return
	}

	dueDate, err := parseDueDate(req.DueDate)

	if err != nil {
		respondTaskError(ctx, err)
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	task.Status = req.Status
	task.DueDate = dueDate
	task.AssignedTo = req.AssignedTo

	if err := db.DB.Save(&task).Error; err != nil {
		log.Printf("Failed to update task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task. Please try again"})
		return
	}

	ctx.JSON(http.StatusOK, taskToResponse(&task))
}

func DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	project, ok := loadManagedProject(ctx, userID)

	if !ok {
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND project_id = ?", taskID, project.ID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task. Please try again"})
		}
		return
	}

	if err := db.DB.Delete(&task).Error; err != nil {
		log.Printf("Failed to delete task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task. Please try again"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func respondTaskError(ctx *gin.Context, err error) {
	var validationErr *policy.ValidationError

	if errors.As(err, &validationErr) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		return
	}

	log.Printf("Task validation failed: %v", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
}
