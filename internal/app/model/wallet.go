package model

import "time"

type Wallet struct {
	CustomerID string    `json:"customer_id"`
	Balance    int64     `json:"balance"`
	UpdatedAt  time.Time `json:"updated_at"`
}
