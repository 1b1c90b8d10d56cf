package http

import (
	"net/http"

	"SubletHubPlatform/internal/service"

	"github.com/gorilla/mux"
)

// CreateTip создает чаевые владельцу объявления
func (h *Handler) CreateTip(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tip, err := h.services.Tips.CreateTip(r.Context(), identityFrom(r), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tip)
}

// GetTip возвращает чаевые участнику или администратору
func (h *Handler) GetTip(w http.ResponseWriter, r *http.Request) {
	tip, err := h.services.Tips.GetTip(r.Context(), identityFrom(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

// UserTipTotal сумма завершенных чаевых, отправленных текущим пользователем
func (h *Handler) UserTipTotal(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	total, err := h.services.Tips.TotalForUser(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user_id": identity.UserID, "total": total})
}
