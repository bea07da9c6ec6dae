package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ilker/ledger-server/internal/middleware"
)

type ConfirmationHandler struct {
	auth *middleware.ConfirmAuth
}

func NewConfirmationHandler(auth *middleware.ConfirmAuth) *ConfirmationHandler {
	return &ConfirmationHandler{auth: auth}
}

type ConfirmationResponse struct {
	Token     string    `json:"token"`
	Scope     string    `json:"scope"`
	ExpiresAt time.Time `json:"expires_at"`
	Header    string    `json:"header"`
}

// POST /api/v1/backup/confirmation
func (h *ConfirmationHandler) Issue(c *gin.Context) {
	token, expires, err := h.auth.GenerateToken(middleware.ScopeRestore)
	if err != nil {
		InternalError(c, "Failed to generate confirmation token")
		return
	}

	Created(c, ConfirmationResponse{
		Token:     token,
		Scope:     middleware.ScopeRestore,
		ExpiresAt: expires.UTC(),
		Header:    middleware.ConfirmationHeader,
	})
}
