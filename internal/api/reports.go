package api

import (
	"net/http"

	"pharmadesk/m/internal/pharmacy"
)

// Report handlers

const maxListLimit = 1000

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dash)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", pharmacy.MaxReportDays)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	top, err := queryInt(r, "top", maxListLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.svc.Summary(r.Context(), days, top)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.LowStock(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", pharmacy.MaxExpiryDays)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.Expiring(r.Context(), days)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) topSellers(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", maxListLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.TopSellers(r.Context(), limit)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) dailySales(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", pharmacy.MaxReportDays)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.svc.DailySales(r.Context(), days)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Revenue(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, total)
}
