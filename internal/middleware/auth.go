package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/ginblog"
)

// Authenticate verifies the bearer token and stores the caller on the
// request. Requests without a valid token are rejected with 401.
func Authenticate(verifier ginblog.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ginblog.ExtractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			ginblog.SendError(c, ginblog.ErrUnauthorized)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, ginblog.ErrInvalidToken) {
				slog.DebugContext(c.Request.Context(), "Rejected token", slog.Any("err", err))
				ginblog.SendError(c, ginblog.ErrUnauthorized)
				return
			}
			ginblog.SendError(c, err)
			return
		}
		if identity.UID == "" {
			ginblog.SendError(c, ginblog.ErrUnauthorized)
			return
		}

		ginblog.SetAuthContext(c, ginblog.AuthContext{
			UserID:    identity.UID,
			UserEmail: identity.Email,
			Name:      identity.Name,
			Picture:   identity.Picture,
			Roles:     []string{"user"},
		})
		c.Next()
	}
}

type AdminChecker interface {
	IsAdmin(ctx context.Context, uid, email string) (bool, error)
}

// RequireAdmin lets authenticated admins through and answers 403 to
// everybody else. Must run after Authenticate.
func RequireAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth, err := ginblog.GetAuthContext(c)
		if err != nil {
			ginblog.SendError(c, err)
			return
		}
		if !auth.HasRole(ginblog.RoleAdmin) {
			isAdmin, err := checker.IsAdmin(c.Request.Context(), auth.UserID, auth.UserEmail)
			if err != nil {
				ginblog.SendError(c, err)
				return
			}
			if !isAdmin {
				ginblog.SendError(c, ginblog.ErrForbidden)
				return
			}
			auth.Roles = append(auth.Roles, ginblog.RoleAdmin)
			ginblog.SetAuthContext(c, auth)
		}
		c.Next()
	}
}
