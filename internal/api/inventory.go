package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"pharmadesk/m/domain"
	"pharmadesk/m/internal/pharmacy"
	"pharmadesk/m/internal/reports"
)

type medicineResponse struct {
	domain.Medicine
	Status   string `json:"status"`
	LowStock bool   `json:"low_stock"`
}

func withStatus(m domain.Medicine) medicineResponse {
	return medicineResponse{Medicine: m, Status: reports.StockStatus(m), LowStock: m.IsLowStock()}
}

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListMedicines(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	out := make([]medicineResponse, len(list))
	for i, m := range list {
		out[i] = withStatus(m)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Categories(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetMedicine(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, withStatus(m))
}

func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req domain.Medicine
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.AddMedicine(r.Context(), req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, withStatus(m))
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	var patch pharmacy.MedicinePatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	m, err := h.svc.UpdateMedicine(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, withStatus(m))
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMedicine(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customer handlers

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCustomers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) customerSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.CustomerSummary(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.AddCustomer(r.Context(), domain.Customer{Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address})
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}
