package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/winterarc/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the account email inside Gin context.
	ContextEmailKey = "email"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return authenticate(false)
}

// StreamAuthRequired is AuthRequired for EventSource clients, which cannot set headers;
// the token may also arrive as the access_token query parameter.
func StreamAuthRequired() gin.HandlerFunc {
	return authenticate(true)
}

func authenticate(allowQuery bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, code, msg := bearerToken(ctx, allowQuery)
		if code != 0 {
			utils.Abort(ctx, http.StatusUnauthorized, code, msg)
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Abort(ctx, http.StatusUnauthorized, 40104, "token revoked")
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Abort(ctx, http.StatusUnauthorized, 40105, "invalid token")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextEmailKey, claims.Email)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context, allowQuery bool) (string, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if t := strings.TrimSpace(ctx.Query("access_token")); t != "" {
				return t, 0, ""
			}
		}
		return "", 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", 40103, "empty bearer token"
	}
	return tokenString, 0, ""
}

// CurrentUserID returns the authenticated user id set by AuthRequired.
func CurrentUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}
