package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uncommondata/server/internal/models"
	"github.com/uncommondata/server/internal/repositories"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testPassword = "pw123456"

// setupTestDB points the repositories at a fresh in-memory database and
// a temp-dir upload store for the duration of one test.
func setupTestDB(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	repositories.DB = db
	repositories.Uploads = &repositories.LocalStore{Dir: t.TempDir()}
}

func createTestUser(t *testing.T, username, email string, curator bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		ID:       uuid.New(),
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	profile := models.Profile{
		ID:        uuid.New(),
		UserID:    user.ID,
		IsCurator: curator,
	}
	require.NoError(t, repositories.DB.Create(&user).Error)
	require.NoError(t, repositories.DB.Create(&profile).Error)

	user.Profile = profile
	return &user
}

// sessionCookie logs the user in the same way the handlers do and
// returns the resulting session cookie.
func sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	require.NoError(t, issueSessionCookie(rec, user))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}
