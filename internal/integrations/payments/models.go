package payments

import "github.com/m04kA/SMC-ReservationService/pkg/types"

// RefundRequest запрос на возврат оплаты
type RefundRequest struct {
	ReservationID string      `json:"reservation_id"`
	Amount        types.Money `json:"amount"`
}
