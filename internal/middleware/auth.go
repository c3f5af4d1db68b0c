package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/visadesk-io/visadesk/internal/auth"
	"github.com/visadesk-io/visadesk/pkg/errors"
	"github.com/visadesk-io/visadesk/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"
	CtxIsAdminKey  = "isAdmin"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Set(CtxIsAdminKey, claims.IsAdmin)

		c.Next()
	}
}

// RequireAdmin rejects requests whose token lacks the admin flag. Must run
// after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxIsAdminKey) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// BearerToken extracts the bearer token from the Authorization header, or ""
// when the header is absent or malformed.
func BearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authz[7:])
}
