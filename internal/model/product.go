package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProductInterest records one product a lead asked about.
type ProductInterest struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Category  string    `json:"category"`
	Product   string    `json:"product"`
	Quantity  Quantity  `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
}

// Quantity is the loosely typed amount a lead typed into a form.
// It accepts JSON numbers and strings and keeps the raw text so nothing is
// lost when the value is not a number at all ("a few pallets").
type Quantity struct {
	Raw     string
	Numeric bool
}

// NumericQuantity builds a Quantity from a number.
func NumericQuantity(n float64) Quantity {
	return Quantity{Raw: strconv.FormatFloat(n, 'f', -1, 64), Numeric: true}
}

// TextQuantity builds a Quantity from free text.
func TextQuantity(s string) Quantity {
	return Quantity{Raw: s}
}

// IsZero reports whether no quantity was given.
func (q Quantity) IsZero() bool {
	return q.Raw == ""
}

// Units returns the quantity as a count. JSON numbers count as their value.
// Text counts only when it is an integer, optionally surrounded by spaces.
func (q Quantity) Units() (float64, bool) {
	if q.Raw == "" {
		return 0, false
	}
	if q.Numeric {
		n, err := strconv.ParseFloat(q.Raw, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(q.Raw))
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

func (q Quantity) String() string {
	return q.Raw
}

// MarshalJSON writes numbers as numbers and everything else as strings.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Raw == "" {
		return []byte("null"), nil
	}
	if q.Numeric {
		return []byte(q.Raw), nil
	}
	return json.Marshal(q.Raw)
}

// UnmarshalJSON accepts a number, a string, or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = Quantity{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		*q = TextQuantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity must be a number or string: %w", err)
	}
	*q = Quantity{Raw: n.String(), Numeric: true}
	return nil
}
