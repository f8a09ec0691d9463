// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/z5labs/otelcompose/config/key"

	"github.com/go-viper/mapstructure/v2"
)

// DecodeError occurs when a Node can not be decoded into a Go value.
type DecodeError struct {
	Path  key.Chain
	Cause error
}

// Error implements the error interface.
func (e DecodeError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("failed to decode config: %s", e.Cause)
	}
	return fmt.Sprintf("failed to decode config at %s: %s", e.Path.Key(), e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e DecodeError) Unwrap() error {
	return e.Cause
}

// Decode decodes this Node into v using the "config" struct tag.
//
// Strings are decoded into [encoding.TextUnmarshaler] fields and
// [time.Duration] fields accept either a duration string, e.g. "5s",
// or an integer number of milliseconds.
func (n Node) Decode(v any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "config",
		Result:  v,
		DecodeHook: composeDecodeHooks(
			textUnmarshalerHookFunc(),
			timeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	err = dec.Decode(n.Interface())
	if err != nil {
		return DecodeError{Path: n.path, Cause: err}
	}
	return nil
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when attempting to decode a config
// value to a struct field whose type does not match the config
// value type, up to, coercion.
type TypeCoercionError struct {
	from  reflect.Value
	to    reflect.Value
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.from.Type(), e.to.Type(), e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

func composeDecodeHooks(hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		if !f.IsValid() {
			return nil, nil
		}
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if errors.Is(err, errInvalidDecodeCondition) {
				continue
			}
			return nil, TypeCoercionError{
				from:  f,
				to:    t,
				Cause: err,
			}
		}
		return f.Interface(), nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t).Interface()
		u, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(data.(string)))
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(data.(string))
		case reflect.Int, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Millisecond, nil
		case reflect.Float64:
			return time.Duration(data.(float64) * float64(time.Millisecond)), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}
