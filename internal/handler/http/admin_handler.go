package http

import (
	"net/http"

	"SubletHubPlatform/pkg/logger"

	"github.com/gorilla/mux"
)

type completeTipRequest struct {
	TransactionID string `json:"transaction_id"`
}

type failTipRequest struct {
	Reason string `json:"reason"`
}

// AdminStats сводка для панели администратора
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	report, err := h.services.Admin.Snapshot(r.Context(), identityFrom(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CompleteTip вручную подтверждает расчет
func (h *Handler) CompleteTip(w http.ResponseWriter, r *http.Request) {
	var req completeTipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tip, err := h.services.Tips.CompleteTip(r.Context(), mux.Vars(r)["id"], req.TransactionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Tip completed by admin",
		logger.CtxField(r.Context()),
		logger.String("tip_id", tip.ID),
		logger.String("admin_id", identityFrom(r).UserID),
	)
	writeJSON(w, http.StatusOK, tip)
}

// FailTip вручную отклоняет расчет; тело запроса необязательно
func (h *Handler) FailTip(w http.ResponseWriter, r *http.Request) {
	var req failTipRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	tip, err := h.services.Tips.FailTip(r.Context(), mux.Vars(r)["id"], req.Reason)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("Tip failed by admin",
		logger.CtxField(r.Context()),
		logger.String("tip_id", tip.ID),
		logger.String("admin_id", identityFrom(r).UserID),
	)
	writeJSON(w, http.StatusOK, tip)
}
