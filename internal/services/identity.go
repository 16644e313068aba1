package services

import (
	"errors"
	"strings"

	"github.com/projectpilot-dev/projectpilot/db"
	"github.com/projectpilot-dev/projectpilot/internal/auth"
	"github.com/projectpilot-dev/projectpilot/internal/models"
	"github.com/projectpilot-dev/projectpilot/internal/policy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterIdentity creates a new user and returns the generated plaintext
// passcode, which is shown to the user once and never stored.
//
// The first registered user becomes the creator. The count and the insert run
// in one transaction so two racing first registrations cannot both observe an
// empty table.
func RegisterIdentity(name, email string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, "", policy.NewValidationError("Name is required")
	}

	if email == "" {
		return nil, "", policy.NewValidationError("Email is required")
	}

	passcode, err := auth.GeneratePasscode()

	if err != nil {
		return nil, "", err
	}

	passcodeHash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)

	if err != nil {
		return nil, "", err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasscodeHash: string(passcodeHash),
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}

		user.IsCreator = policy.IsCreatorBootstrap(count)

		return tx.Create(&user).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", policy.ErrConflict
		}
		return nil, "", err
	}

	return &user, passcode, nil
}

// Authenticate resolves an identity by exact match of email and passcode.
func Authenticate(email, passcode string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User

	if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, policy.ErrNotFound
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasscodeHash), []byte(passcode)) != nil {
		return nil, policy.ErrUnauthorized
	}

	return &user, nil
}

// RegeneratePasscode issues a fresh passcode for an existing identity and
// returns the plaintext once. Passcodes are issued, never chosen.
func RegeneratePasscode(userID uint) (string, error) {
	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", policy.ErrNotFound
		}
		return "", err
	}

	passcode, err := auth.GeneratePasscode()

	if err != nil {
		return "", err
	}

	passcodeHash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	if err := db.DB.Model(&user).Update("passcode_hash", string(passcodeHash)).Error; err != nil {
		return "", err
	}

	return passcode, nil
}
