package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/wordbattle/internal/api/middleware"
	"github.com/mcoot/wordbattle/internal/api/request"
	"github.com/mcoot/wordbattle/internal/api/response"
	"github.com/mcoot/wordbattle/internal/services/auth"
)

// AdminHandler handles admin session endpoints
type AdminHandler struct {
	authService *auth.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *auth.Service) *AdminHandler {
	return &AdminHandler{authService: authService}
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	session, err := h.authService.Login(req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginFromSession(session))
}

// Logout handles POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := middleware.GetSession(r.Context()); session != nil {
		h.authService.Logout(session.Token)
	}
	response.NoContent(w)
}
