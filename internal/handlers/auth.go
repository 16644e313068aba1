package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/auth"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/policy"
	"github.com/projectpilot-dev/projectpilot/internal/services"
	"github.com/projectpilot-dev/projectpilot/internal/types"
	"github.com/projectpilot-dev/projectpilot/internal/utils"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Passcode string `json:"passcode" binding:"required"`
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

var (
	Domain = os.Getenv("DOMAIN")
)

// RegisterUser creates a new identity and returns the generated passcode.
// The passcode is shown in this response and never again.
func RegisterUser(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, passcode, err := services.RegisterIdentity(req.Name, req.Email)

	if err != nil {
		var validationErr *policy.ValidationError

		switch {
		case errors.As(err, &validationErr):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
		case errors.Is(err, policy.ErrConflict):
			ctx.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
		default:
			log.Printf("Failed to register user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user": types.UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			IsCreator: user.IsCreator,
		},
		"passcode": passcode,
	})
}

func LoginUser(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := services.Authenticate(req.Email, req.Passcode)

	if err != nil {
		if errors.Is(err, policy.ErrNotFound) || errors.Is(err, policy.ErrUnauthorized) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or passcode"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email)

	if err != nil {
		log.Printf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		return
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		Domain:   Domain,
		MaxAge:   60 * 60 * 24 * 7,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": types.UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			IsCreator: user.IsCreator,
		},
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:        currentUser.ID,
			Name:      currentUser.Name,
			Email:     currentUser.Email,
			IsCreator: currentUser.IsCreator,
		},
	})
}

func LogoutUser(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		Domain:   Domain,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func UpdateUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var dbUser models.User
	if err := db.DB.First(&dbUser, currentUser.ID).Error; err != nil {
		log.Printf("Failed to fetch user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		return
	}

	var updateReq UpdateUserRequest
	if err := ctx.BindJSON(&updateReq); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if updateReq.Name != "" {
		updates["name"] = strings.TrimSpace(updateReq.Name)
	}

	if updateReq.Email != "" {
		newEmail := strings.ToLower(strings.TrimSpace(updateReq.Email))

		if newEmail != dbUser.Email {
			var existingUser models.User
			err := db.DB.Where("email = ? AND id != ?", newEmail, dbUser.ID).First(&existingUser).Error
			if err == nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Database error when checking existing email: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
				return
			}
		}

		updates["email"] = newEmail
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(&dbUser).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		return
	}

	if err := db.DB.First(&dbUser, dbUser.ID).Error; err != nil {
		log.Printf("Failed to refresh user data: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user": types.UserResponse{
			ID:        dbUser.ID,
			Name:      dbUser.Name,
			Email:     dbUser.Email,
			IsCreator: dbUser.IsCreator,
		},
	})
}

// RegeneratePasscode replaces the caller's passcode and returns the new
// plaintext once. There is no password-change flow: passcodes are issued.
func RegeneratePasscode(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	passcode, err := services.RegeneratePasscode(userID)

	if err != nil {
		log.Printf("Failed to regenerate passcode: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error. Please try again"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"passcode": passcode})
}
