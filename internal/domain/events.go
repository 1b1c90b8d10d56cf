package domain

import "time"

// TipEventType тип события журнала чаевых, совпадает с ключом маршрутизации
type TipEventType string

const (
	TipEventCreated   TipEventType = "tip.created"
	TipEventCompleted TipEventType = "tip.completed"
	TipEventFailed    TipEventType = "tip.failed"
)

// TipEvent событие об изменении чаевых для внешних потребителей
type TipEvent struct {
	ID            string       `json:"id"`
	Type          TipEventType `json:"type"`
	TipID         string       `json:"tip_id"`
	ListingID     string       `json:"listing_id"`
	FromUserID    string       `json:"from_user_id"`
	ToUserID      string       `json:"to_user_id"`
	Amount        float64      `json:"amount"`
	Status        TipStatus    `json:"status"`
	TransactionID string       `json:"transaction_id,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
	OccurredAt    time.Time    `json:"occurred_at"`
}

// EventTypeFor возвращает тип события для статуса чаевых
func EventTypeFor(status TipStatus) TipEventType {
	switch status {
	case TipCompleted:
		return TipEventCompleted
	case TipFailed:
		return TipEventFailed
	default:
		return TipEventCreated
	}
}

// NewTipEvent строит событие из текущего состояния чаевых
func NewTipEvent(id string, tip *Tip, at time.Time) *TipEvent {
	return &TipEvent{
		ID:            id,
		Type:          EventTypeFor(tip.Status),
		TipID:         tip.ID,
		ListingID:     tip.ListingID,
		FromUserID:    tip.FromUserID,
		ToUserID:      tip.ToUserID,
		Amount:        tip.Amount,
		Status:        tip.Status,
		TransactionID: tip.TransactionID,
		FailureReason: tip.FailureReason,
		OccurredAt:    at,
	}
}

// Settlement результат расчета от платежного шлюза
type Settlement struct {
	TipID         string    `json:"tip_id"`
	Status        TipStatus `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}
