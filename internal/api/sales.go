package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pharmadesk/m/internal/pharmacy"
	"pharmadesk/m/internal/receipt"
)

// Sales handlers

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req pharmacy.SaleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sale, err := h.svc.RecordSale(r.Context(), req)
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSales(r.Context())
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.svc.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) saleReceipt(w http.ResponseWriter, r *http.Request) {
	sale, err := h.svc.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondFailure(w, r, err)
		return
	}
	shop := ""
	if s, ok := sessionFromContext(r); ok && s.Registration != nil {
		shop = s.Registration.ShopName
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := receipt.Write(w, shop, sale); err != nil {
		h.logger.Warn("write receipt", zap.String("sale", sale.ID), zap.Error(err))
	}
}
