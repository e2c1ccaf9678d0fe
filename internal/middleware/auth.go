package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// JWTAuth JWT authentication middleware. Stores the caller as a domain.Principal.
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.V2ErrorResponse(c, http.StatusUnauthorized, "Vui lòng đăng nhập", nil)
			c.Abort()
			return
		}

		// 2. Parse Bearer token
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			common.V2ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		// 3. Verify token
		claims, err := jwtManager.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.V2ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.V2ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		// 4. Store principal in context
		c.Set(principalKey, domain.Principal{
			ID:   claims.UserID,
			Name: claims.Name,
			Role: domain.ParseRole(claims.Role),
		})

		c.Next()
	}
}

// GetPrincipal returns the authenticated caller. The second value is false when none is set.
func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	if !ok || p.ID == 0 {
		return domain.Principal{}, false
	}
	return p, true
}

// SetPrincipal stores p on the context
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(principalKey, p)
}
