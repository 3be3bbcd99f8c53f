// Package json parses flight-listing files and streams raw records with
// canonical field names.
package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"flightetl/internal/config"
	"flightetl/internal/flight"
)

// DefaultListKey is the envelope field that holds the record array when the
// file root is an object rather than a bare array.
const DefaultListKey = "航班列表"

// DefaultHeaderMap maps the original listing keys to canonical field names.
// A config-provided header_map replaces it entirely.
func DefaultHeaderMap() map[string]string {
	return map[string]string{
		"出发地":  flight.FieldDeparture,
		"目的地":  flight.FieldDestination,
		"航班日期": flight.FieldFlightDate,
		"航班代码": flight.FieldFlightCode,
		"价格":   flight.FieldPrice,
	}
}

// StreamRecords parses JSON from r according to parserOpts and calls emit for
// each record object, keyed by canonical field names.
//
// Streaming behavior:
//   - If the root is a JSON array, each object element is one record.
//   - If the root is an object, only the list-key field ("list_key" option,
//     default 航班列表) is streamed as records; every other envelope field is
//     skipped without being materialized.
//   - A root object without the list key yields zero records and no error.
//
// parserOpts:
//   - list_key: envelope field holding the record array.
//   - header_map: map original key -> canonical field name.
//
// The decoder runs with UseNumber so numeric fares survive coercion without
// float64 round-trips.
func StreamRecords(
	ctx context.Context,
	r io.Reader,
	parserOpts config.Options,
	emit func(rec map[string]any) error,
) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	headerMap := readHeaderMap(parserOpts)
	listKey := parserOpts.String("list_key", DefaultListKey)
	if listKey == "" {
		listKey = DefaultListKey
	}

	emitObject := func(obj map[string]any) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return emit(canonicalRecord(obj, headerMap))
	}

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("json: read first token: %w", err)
	}

	d, ok := tok.(json.Delim)
	if !ok {
		return fmt.Errorf("json: unsupported root token %T (want object or array)", tok)
	}

	switch d {
	case '[':
		if err := streamArrayOfObjects(dec, emitObject); err != nil {
			return err
		}
		if end, err := dec.Token(); err != nil {
			return fmt.Errorf("json: read array end: %w", err)
		} else if end != json.Delim(']') {
			return fmt.Errorf("json: expected array end ']', got %v", end)
		}
		return nil

	case '{':
		if err := streamEnvelope(dec, listKey, emitObject); err != nil {
			return err
		}
		if end, err := dec.Token(); err != nil {
			return fmt.Errorf("json: read object end: %w", err)
		} else if end != json.Delim('}') {
			return fmt.Errorf("json: expected object end '}', got %v", end)
		}
		return nil

	default:
		return fmt.Errorf("json: unsupported root delimiter %q", d)
	}
}

// streamArrayOfObjects streams elements of the current array (after '[' has
// been consumed). nil elements are skipped; non-object elements are an error.
func streamArrayOfObjects(dec *json.Decoder, emit func(map[string]any) error) error {
	for dec.More() {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("json: decode array element: %w", err)
		}
		if raw == nil {
			continue
		}
		obj, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("json: array element not an object (got %T)", raw)
		}
		if err := emit(obj); err != nil {
			return err
		}
	}
	return nil
}

// streamEnvelope walks a root object (after '{' has been consumed), streaming
// the list-key array and skipping everything else token-by-token.
func streamEnvelope(dec *json.Decoder, listKey string, emit func(map[string]any) error) error {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read envelope key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("json: envelope key not a string (got %T)", keyTok)
		}

		if key != listKey {
			if err := skipNextValue(dec); err != nil {
				return err
			}
			continue
		}

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read %q value token: %w", listKey, err)
		}
		if delim, ok := valTok.(json.Delim); !ok || delim != '[' {
			return fmt.Errorf("json: envelope field %q is not an array", listKey)
		}

		if err := streamArrayOfObjects(dec, emit); err != nil {
			return err
		}
		end, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: read %q array end: %w", listKey, err)
		}
		if end != json.Delim(']') {
			return fmt.Errorf("json: expected ']' after %q array, got %v", listKey, end)
		}
	}
	return nil
}

// skipNextValue skips the next JSON value from the decoder, without
// materializing it.
func skipNextValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("json: skip value token: %w", err)
	}
	return skipValueFromFirstToken(dec, tok)
}

func skipValueFromFirstToken(dec *json.Decoder, tok any) error {
	d, ok := tok.(json.Delim)
	if !ok {
		// scalar token; nothing else to consume
		return nil
	}

	switch d {
	case '{':
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return fmt.Errorf("json: skip object key: %w", err)
			}
			if err := skipNextValue(dec); err != nil {
				return err
			}
		}
		end, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: skip object end: %w", err)
		}
		if end != json.Delim('}') {
			return fmt.Errorf("json: expected '}', got %v", end)
		}
		return nil

	case '[':
		for dec.More() {
			if err := skipNextValue(dec); err != nil {
				return err
			}
		}
		end, err := dec.Token()
		if err != nil {
			return fmt.Errorf("json: skip array end: %w", err)
		}
		if end != json.Delim(']') {
			return fmt.Errorf("json: expected ']', got %v", end)
		}
		return nil

	default:
		return fmt.Errorf("json: unexpected delimiter %q", d)
	}
}

// canonicalRecord rewrites a raw object's keys through the header map. Keys
// already in canonical form pass through; unmapped keys are dropped so the
// normalizer only ever sees fields it knows.
func canonicalRecord(obj map[string]any, headerMap map[string]string) map[string]any {
	out := make(map[string]any, len(headerMap))
	for orig, canonical := range headerMap {
		if v, ok := obj[orig]; ok {
			out[canonical] = v
			continue
		}
		if v, ok := obj[canonical]; ok {
			out[canonical] = v
		}
	}
	return out
}

// readHeaderMap extracts header_map from parser options, falling back to the
// default original-key mapping.
func readHeaderMap(opts config.Options) map[string]string {
	m := opts.StringMap("header_map")
	if len(m) == 0 {
		return DefaultHeaderMap()
	}
	return m
}
