package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"math"
	"strconv"
	"strings"
)

// Callback is the payment notification posted by the gateway.
type Callback struct {
	Status        string      `json:"status"`
	TransactionID string      `json:"transaction_id" validate:"required,max=128"`
	Amount        FlexibleInt `json:"amount" validate:"required,gt=0,max=100000000000"`
	OrderID       string      `json:"order_id" validate:"max=128"`
	CustomerID    string      `json:"customer_id" validate:"required,max=128"`
}

// Succeeded reports whether the gateway status is its success sentinel.
func (c *Callback) Succeeded() bool {
	s := strings.TrimSpace(c.Status)
	return strings.EqualFold(s, "success") || s == "200"
}

// MarshalZerologObject writes the loggable subset of the callback.
// Customer identifiers stay out of logs.
func (c *Callback) MarshalZerologObject(e *zerolog.Event) {
	e.Str("transaction_id", c.TransactionID).
		Str("order_id", c.OrderID).
		Str("status", c.Status).
		Int64("amount", int64(c.Amount))
}

const (
	maxFractionDigits  = 64
	maxIntegerExponent = 18
)

var (
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
	minInt64 = decimal.NewFromInt(math.MinInt64)
)

// FlexibleInt decodes an integer sent either as a JSON number or a numeric string.
type FlexibleInt int64

func (fi *FlexibleInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*fi = FlexibleInt(v)
		return nil
	}

	// integral values in float notation such as 200000.0 or 2e5
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("unable to parse %s as integer", string(data))
	}
	if d.Exponent() < -maxFractionDigits || d.Exponent() > maxIntegerExponent {
		return fmt.Errorf("%s is out of range", string(data))
	}
	if !d.Equal(d.Truncate(0)) {
		return fmt.Errorf("%s is not an integer", string(data))
	}
	if d.GreaterThan(maxInt64) || d.LessThan(minInt64) {
		return fmt.Errorf("%s is out of range", string(data))
	}

	*fi = FlexibleInt(d.IntPart())
	return nil
}
