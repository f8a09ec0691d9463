// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// MaxAttributeLength bounds the length of keys and values
// given as an attributes list.
const MaxAttributeLength = 255

// AttributeValidationError occurs when an attributes list
// contains a key or value which is not allowed.
type AttributeValidationError struct {
	Key    string
	Value  string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e AttributeValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid resource attribute %q: %s: %s", e.Key, e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid resource attribute %q: %s", e.Key, e.Reason)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e AttributeValidationError) Unwrap() error {
	return e.Cause
}

// ParseList parses a comma separated list of key=value pairs, the format of
// OTEL_RESOURCE_ATTRIBUTES. Keys and values are trimmed, surrounding quotes
// are removed from values and %-escapes are decoded. Entries which do not
// contain exactly one "=" are skipped. Values are always strings.
//
// Keys must be non empty and both keys and values must be at most
// [MaxAttributeLength] printable ASCII characters, excluding
// ',', ';' and '\'. Any violation fails the whole list.
func ParseList(raw string) ([]attribute.KeyValue, error) {
	if raw == "" {
		return nil, nil
	}

	var kvs []attribute.KeyValue
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 {
			continue
		}

		k := strings.TrimSpace(parts[0])
		v := strings.TrimSpace(parts[1])
		v = strings.TrimPrefix(v, `"`)
		v = strings.TrimSuffix(v, `"`)

		if k == "" {
			return nil, AttributeValidationError{Key: k, Reason: "key must not be empty"}
		}
		if !isValid(k) {
			return nil, AttributeValidationError{
				Key:    k,
				Reason: fmt.Sprintf("key must be an ASCII string of at most %d characters", MaxAttributeLength),
			}
		}
		if !isValid(v) {
			return nil, AttributeValidationError{
				Key:    k,
				Value:  v,
				Reason: fmt.Sprintf("value must be an ASCII string of at most %d characters", MaxAttributeLength),
			}
		}

		decoded, err := url.PathUnescape(v)
		if err != nil {
			return nil, AttributeValidationError{
				Key:    k,
				Value:  v,
				Reason: "value is not properly escaped",
				Cause:  err,
			}
		}
		kvs = append(kvs, attribute.String(k, decoded))
	}
	return kvs, nil
}

func isValid(s string) bool {
	return len(s) <= MaxAttributeLength && isBaggageOctetString(s)
}

// see https://www.w3.org/TR/baggage/#definition
func isBaggageOctetString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x21 || c == ',' || c == ';' || c == '\\' || c > 0x7e {
			return false
		}
	}
	return true
}
