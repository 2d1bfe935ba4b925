package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/uncommondata/server/internal/config"
	"github.com/uncommondata/server/internal/models"
	"github.com/uncommondata/server/internal/repositories"
	"github.com/uncommondata/server/internal/utils"
)

type contextKey string

const userKey contextKey = "currentUser"

var jwtSecret = config.Envs.JWTSecret

// CurrentUser returns the account attached to the request by RequireAuth.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}

// RequireAuth rejects requests without a valid session cookie with 401,
// otherwise loads the account (with its profile) onto the request context.
// It never answers 403 itself: authentication is always checked before role.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("token")
		if err != nil {
			utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		token, err := jwt.Parse(cookie.Value, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		idStr, ok := claims["userId"].(string)
		if !ok || idStr == "" {
			utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		userID, err := uuid.Parse(idStr)
		if err != nil {
			utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		var user models.User
		if err := repositories.DB.Preload("Profile").First(&user, "id = ?", userID).Error; err != nil {
			utils.JSONError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCurator composes RequireAuth, then rejects non-curator accounts
// with 403. Unauthenticated callers still get 401 from RequireAuth.
func RequireCurator(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok || !user.Profile.IsCurator {
			utils.JSONError(w, http.StatusForbidden, "Curator privileges required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireHarvester composes RequireAuth, then rejects curator accounts
// with 403. Curators read uploads through the dump endpoints, not the
// per-account uploads page.
func RequireHarvester(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok || user.Profile.IsCurator {
			utils.JSONError(w, http.StatusForbidden, "Harvester account required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
