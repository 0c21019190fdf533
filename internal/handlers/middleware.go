package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const operatorCtxKey = "operatorId"

var (
	errMissingAuthHeader = errors.New("missing Authorization header")
	errBadAuthHeader     = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token from "Bearer <token>". The scheme is case-insensitive.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errMissingAuthHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

// operatorIDMiddleware authenticates /api/v1 requests and stores the operator id in the context.
func (h *Handler) operatorIDMiddleware(c *gin.Context) {
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	operatorID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(operatorCtxKey, operatorID)
	c.Next()
}

// operatorID returns the authenticated operator, or 0 outside the protected group.
func operatorID(c *gin.Context) int {
	return c.GetInt(operatorCtxKey)
}
