package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/uncommondata/server/internal/models"
	"github.com/uncommondata/server/internal/repositories"
	"github.com/uncommondata/server/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// POST /app/api/createUser/
// Form fields: email, user_name, password, is_curator ("0"/"1").
// Creates the account together with its profile in one transaction, logs
// the caller in, and answers 201 with a plain "success" body.
func CreateUser(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	username := strings.TrimSpace(r.FormValue("user_name"))
	password := r.FormValue("password")
	curatorStr := r.FormValue("is_curator")
	if curatorStr == "" {
		curatorStr = "0"
	}

	if email == "" || username == "" || password == "" {
		utils.JSONError(w, http.StatusBadRequest, "All fields (email, user_name, password) are required")
		return
	}

	var isCurator bool
	switch curatorStr {
	case "0":
		isCurator = false
	case "1":
		isCurator = true
	default:
		utils.JSONError(w, http.StatusBadRequest, "is_curator must be 0 or 1")
		return
	}

	var existing models.User
	if err := repositories.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.JSONError(w, http.StatusBadRequest, fmt.Sprintf("email %s already in use", email))
		return
	}
	if err := repositories.DB.Where("username = ?", username).First(&existing).Error; err == nil {
		utils.JSONError(w, http.StatusBadRequest, fmt.Sprintf("username %s already taken", username))
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
	}
	profile := models.Profile{
		ID:        uuid.New(),
		UserID:    user.ID,
		IsCurator: isCurator,
	}

	// Account and profile are created in one transaction: a user row
	// without its profile row must never be observable.
	err = repositories.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		// A racing registration with the same username or email loses
		// on the unique index and is reported as a validation failure.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.JSONError(w, http.StatusBadRequest, "email or username already in use")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, "Error creating user")
		return
	}

	user.Profile = profile

	// Log the new account in automatically.
	if err := issueSessionCookie(w, &user); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	fmt.Fprint(w, "success")
}
