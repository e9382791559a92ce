package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-register/internal/domain"
)

// CreateUser handles POST /v1/users. The account is created for the caller.
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Caller(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Create(r.Context(), caller, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Caller(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	u, err := h.users.GetByID(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, err := h.identity.Caller(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var patch domain.UserPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	u, err := h.users.Update(r.Context(), caller.ID, &patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// FindUser handles GET /v1/users?email=
func (h *Handlers) FindUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
