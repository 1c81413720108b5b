package caddis

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SKU is the vendor product identifier and the join key between the catalog
// and the price lists. The API serializes it as a JSON string on some
// endpoints and as a bare number on others, so both decode to the same text.
type SKU string

func (s *SKU) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = SKU(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("sku must be a string or number, got %s", string(data))
	}
	*s = SKU(num.String())
	return nil
}

// Numeric is a float64 field that tolerates the vendor's loose typing:
// prices and tax rates arrive as JSON numbers, numeric strings, or null.
// Values that do not parse leave Valid false instead of failing the whole
// page decode; callers decide whether to skip the record.
type Numeric struct {
	Value float64
	Valid bool
}

func (n *Numeric) UnmarshalJSON(data []byte) error {
	n.Value, n.Valid = 0, false

	if string(data) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.Value, n.Valid = f, true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	n.Value, n.Valid = f, true
	return nil
}

// Article is one catalog record from /v1/articulos. Field names follow the
// vendor's Spanish JSON contract.
type Article struct {
	SKU    SKU    `json:"sku"`
	Name   string `json:"nombre"`
	Type   string `json:"tipo"`
	Brand  string `json:"marca"`
	Group  string `json:"grupo"`
	Status string `json:"estado"`
}

// PriceEntry is one record from /v1/articulos/precios for a single price
// list. The payload does not carry the list ID; the client stamps it from
// the request parameters.
type PriceEntry struct {
	SKU       SKU     `json:"sku"`
	ListID    int     `json:"-"`
	TaxRate   Numeric `json:"iva_tasa"`
	UnitPrice Numeric `json:"precio_unitario"`
}

// The articles endpoint wraps its page in a bare array body, the prices
// endpoint in an object with an "articulos" array.
type articlesResponse struct {
	Body []Article `json:"body"`
}

type pricesResponse struct {
	Body pricesBody `json:"body"`
}

type pricesBody struct {
	Articles []PriceEntry `json:"articulos"`
}
