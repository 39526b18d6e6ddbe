package sepay

import "github.com/rs/zerolog"

// CallbackRequest is the payment notification body posted to the shop.
type CallbackRequest struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        int64  `json:"amount"`
	OrderID       string `json:"order_id,omitempty"`
	CustomerID    string `json:"customer_id"`
}

// MarshalZerologObject writes the loggable subset of the request.
// The customer id is left out.
func (r *CallbackRequest) MarshalZerologObject(e *zerolog.Event) {
	e.Str("transaction_id", r.TransactionID).
		Str("order_id", r.OrderID).
		Str("status", r.Status).
		Int64("amount", r.Amount)
}

// CallbackResponse is the acknowledgement returned by the shop.
type CallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
