// Package flight holds the canonical flight-listing record shape and the
// per-field cleaning rules applied to every raw record before loading.
package flight

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/width"
)

// Canonical field names. Raw files use the original (Chinese) listing keys;
// the parser's header_map translates them to these names.
const (
	FieldDeparture   = "departure"
	FieldDestination = "destination"
	FieldFlightType  = "flight_type"
	FieldFlightDate  = "flight_date"
	FieldFlightCode  = "flight_code"
	FieldPrice       = "price"
)

// Every record in the source feed is a domestic listing; the field is fixed
// rather than derived from input.
const flightTypeDomestic = "国内航班"

// priceSentinels are placeholder strings the listing pages emit when a fare
// is unavailable. Compared case-insensitively after trimming.
var priceSentinels = map[string]struct{}{
	"无价格":      {},
	"暂无":       {},
	"na":       {},
	"n/a":      {},
	"no price": {},
}

// Cleaned is one normalized record. Pointer fields are nil when the raw value
// was missing, empty, or failed coercion; Valid reports whether the record
// survives the required-field filter.
type Cleaned struct {
	Departure   *string
	Destination *string
	FlightType  string
	FlightDate  *string
	FlightCode  *string
	Price       *int64
}

// Normalize maps a raw record (canonical key -> raw value) to a Cleaned
// record, applying the field rules:
//
//   - departure / destination: trim whitespace; empty -> nil.
//   - flight_type: constant for every record.
//   - flight_date: must parse as an ISO date (YYYY-MM-DD); otherwise nil.
//   - flight_code: trim; empty -> nil.
//   - price: fullwidth forms narrowed, currency symbol / thousands separators /
//     whitespace stripped; sentinel or non-integer -> nil.
func Normalize(raw map[string]any) Cleaned {
	c := Cleaned{
		Departure:   trimmedOrNil(stringValue(raw[FieldDeparture])),
		Destination: trimmedOrNil(stringValue(raw[FieldDestination])),
		FlightType:  flightTypeDomestic,
		FlightCode:  trimmedOrNil(stringValue(raw[FieldFlightCode])),
	}

	if d, ok := parseISODate(stringValue(raw[FieldFlightDate])); ok {
		c.FlightDate = &d
	}
	if p, ok := parsePrice(stringValue(raw[FieldPrice])); ok {
		c.Price = &p
	}
	return c
}

// Valid reports whether the record passes the required-field filter: all of
// departure, destination, flight_date, flight_code and price must be non-nil
// after normalization.
func (c Cleaned) Valid() bool {
	return c.Departure != nil &&
		c.Destination != nil &&
		c.FlightDate != nil &&
		c.FlightCode != nil &&
		c.Price != nil
}

// stringValue coerces a raw JSON value into its string form. json.Number is
// preserved verbatim (the decoder runs with UseNumber), everything else falls
// back to fmt.Sprint.
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseISODate accepts only strict YYYY-MM-DD values.
func parseISODate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", false
	}
	return s, true
}

// parsePrice normalizes a raw fare string to an integer amount.
//
// Listing pages mix halfwidth and fullwidth punctuation (￥１,２３０ vs
// ¥1,230), so the string is width-folded first; after that a single pass
// removes the currency symbol, thousands separators and whitespace.
func parsePrice(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if _, sentinel := priceSentinels[strings.ToLower(s)]; sentinel {
		return 0, false
	}

	s = width.Narrow.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '¥' || r == ',':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
