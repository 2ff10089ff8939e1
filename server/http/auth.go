// SPDX-License-Identifier: ice License 1.0

package http

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type (
	AuthConfig struct {
		JWTSecret string `yaml:"jwtSecret"`
	}

	// AppClaims carries the caller's role next to the registered claims.
	AppClaims struct {
		Role string `json:"role,omitempty"`
		jwt.RegisteredClaims
	}
)

const (
	RoleAdmin     = "admin"
	RoleBloodBank = "bloodbank"
	RoleDonor     = "donor"

	ctxKeyClaims = "auth-claims"
)

// RequireRole parses the bearer token and rejects callers whose role is not listed.
// An empty role list only requires a valid token.
func RequireRole(secret string, roles ...string) gin.HandlerFunc {
	return func(ginCtx *gin.Context) {
		authHeader := ginCtx.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			ginCtx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})

			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}

			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			ginCtx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})

			return
		}

		claims, ok := token.Claims.(*AppClaims)
		if !ok || claims.Subject == "" {
			ginCtx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})

			return
		}
		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			ginCtx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})

			return
		}
		ginCtx.Set(ctxKeyClaims, claims)
		ginCtx.Next()
	}
}

// IssueToken mints an HS256 token, used by tests and the seeder.
func IssueToken(secret, subject, role string, ttl time.Duration) (string, error) {
	claims := &AppClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ClaimsFrom(ginCtx *gin.Context) *AppClaims {
	if claims, found := ginCtx.Get(ctxKeyClaims); found {
		if appClaims, ok := claims.(*AppClaims); ok {
			return appClaims
		}
	}

	return nil
}
