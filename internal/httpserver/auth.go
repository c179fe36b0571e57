package httpserver

import (
	"net/http"
	"strings"

	"homegoods/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// authMiddleware resolves the bearer token into the caller identity.
func authMiddleware(svc IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortWith(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		id, err := svc.Lookup(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			status, code := statusFor(err)
			if status == http.StatusInternalServerError {
				abortWith(c, status, code, "internal error")
				return
			}
			abortWith(c, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerOf(c).IsAdmin() {
			abortWith(c, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		c.Next()
	}
}

func callerOf(c *gin.Context) domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}
	}
	id, _ := v.(domain.Identity)
	return id
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	session, err := h.deps.IdentitySvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
