package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-register/internal/domain"
)

// SignUp handles POST /v1/auth/signup
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	cred, err := h.auth.SignUp(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":    cred.Subject,
		"email": cred.Email,
	})
}

// Login handles POST /v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Me(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
