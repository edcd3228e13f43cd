package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID       = "user_id"
	ContextUsername     = "username"
	ContextRole         = "role"
	ContextRestaurantID = "restaurant_id"
	ContextToken        = "token"
	ContextClaims       = "claims"
)

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
		return ""
	}
	// Browsers cannot set headers on a websocket handshake.
	return c.Query("token")
}

// AuthMiddleware requires a valid, non-revoked bearer token.
func AuthMiddleware(blacklist utils.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims.UserID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.Contains(c.Request.Context(), tokenString)
			if err != nil {
				utils.ErrorLogger.WithError(err).Error("token blacklist lookup failed")
				utils.RespondError(c, http.StatusServiceUnavailable, errors.New("unable to verify token"))
				c.Abort()
				return
			}
			if revoked {
				utils.RespondError(c, http.StatusUnauthorized, errors.New("token has been revoked"))
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextRestaurantID, claims.RestaurantID)
		c.Set(ContextToken, tokenString)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// Claims returns the token claims stored by AuthMiddleware.
func Claims(c *gin.Context) (*utils.CustomClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.CustomClaims)
	return claims, ok
}

// OptionalAuthMiddleware sets the caller's claims when a valid token is sent
// and otherwise lets the request through anonymously.
func OptionalAuthMiddleware(blacklist utils.TokenBlacklist) gin.HandlerFunc {
	required := AuthMiddleware(blacklist)
	return func(c *gin.Context) {
		if bearerToken(c) == "" {
			c.Next()
			return
		}
		required(c)
	}
}
