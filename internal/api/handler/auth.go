package handler

import (
	"net/http"
	"strings"
	"time"

	"civicchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
	tokenTTL  = 72 * time.Hour
	issuer    = "civicchat-service"
)

// GenerateToken issues an HS256 bearer token for the user. Token issuance
// flows (login, refresh) live in the auth collaborator; this exists for
// the ops CLI and tests.
func GenerateToken(secret []byte, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  float64(user.ID),
		"role": string(user.Role),
		"exp":  time.Now().Add(tokenTTL).Unix(),
		"iss":  issuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken validates the signature and extracts (userID, role).
func (h *Handler) parseToken(tokenString string) (uint, models.Role, bool) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub < 1 {
		return 0, "", false
	}
	role, _ := claims["role"].(string)
	return uint(sub), models.Role(role), true
}

// bearerToken pulls the token from the Authorization header, falling back
// to the ?token query parameter for WebSocket upgrades, where browsers
// cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// RequireAuth aborts with 401 unless the request carries a valid token.
// Step 1 of the gateway ordering.
func (h *Handler) RequireAuth(c *gin.Context) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		respondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, role, ok := h.parseToken(tokenString)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	c.Set(ctxUserID, userID)
	c.Set(ctxRole, role)
	c.Next()
}

// RequireAdmin aborts with 403 for citizen tokens. The service layer still
// re-checks jurisdiction against the database on every operation; this
// only keeps citizens off the admin surface.
func (h *Handler) RequireAdmin(c *gin.Context) {
	role := currentRole(c)
	switch role {
	case models.RoleAdmin, models.RoleSuperAdmin, models.RoleMasterAdmin:
		c.Next()
	default:
		respondError(c, http.StatusForbidden, "Admin access required")
	}
}

func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

func currentRole(c *gin.Context) models.Role {
	if v, ok := c.Get(ctxRole); ok {
		if role, ok := v.(models.Role); ok {
			return role
		}
	}
	return ""
}
