package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/visitor-register/internal/domain"
)

// CheckIn handles POST /v1/visitors
func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.visitors.CheckIn(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// ListVisitors handles GET /v1/visitors
func (h *Handlers) ListVisitors(w http.ResponseWriter, r *http.Request) {
	visitors, err := h.visitors.ListRecent(r.Context(), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitors)
}

func (h *Handlers) GetVisitor(w http.ResponseWriter, r *http.Request) {
	v, err := h.visitors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// CheckOut handles PATCH /v1/visitors/{id}/checkout
func (h *Handlers) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.checkOut(w, r, chi.URLParam(r, "id"))
}

// CheckOutByBody handles PUT /v1/visitors with {"id": "..."}.
func (h *Handlers) CheckOutByBody(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.checkOut(w, r, req.ID)
}

func (h *Handlers) checkOut(w http.ResponseWriter, r *http.Request, id string) {
	v, err := h.visitors.CheckOut(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Board handles GET /v1/visitors/board
func (h *Handlers) Board(w http.ResponseWriter, r *http.Request) {
	board, err := h.visitors.Board(r.Context(), r.URL.Query().Get("search"), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// Analytics handles GET /v1/visitors/analytics
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.visitors.Analytics(r.Context(), r.URL.Query().Get("search"), queryLimit(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
