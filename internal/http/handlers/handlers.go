package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/diagnosis/visitor-register/internal/domain"
	"github.com/diagnosis/visitor-register/internal/http/response"
	"github.com/diagnosis/visitor-register/internal/service"
	"github.com/diagnosis/visitor-register/pkg/logger"
)

type Handlers struct {
	visitors service.VisitorService
	users    service.UserService
	auth     service.AuthService
	identity service.Identity
}

func New(
	visitors service.VisitorService,
	users service.UserService,
	auth service.AuthService,
	identity service.Identity,
) *Handlers {
	return &Handlers{
		visitors: visitors,
		users:    users,
		auth:     auth,
		identity: identity,
	}
}

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

// writeServiceError maps the domain error taxonomy onto HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		response.WriteErrorWithDetails(w, http.StatusBadRequest, ve.Error(), response.CodeInvalidInput, ve.Violations)
	case errors.As(err, &nf):
		response.NotFound(w, nf.Error())
	case errors.As(err, &ce):
		response.Conflict(w, ce.Message)
	case errors.Is(err, domain.ErrAlreadyCheckedOut):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeAlreadyCheckedOut)
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthenticated):
		response.Unauthorized(w, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}

// queryLimit returns 0 when the limit is absent or malformed so the service
// default applies.
func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
