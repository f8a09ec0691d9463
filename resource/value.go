// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"fmt"

	"github.com/z5labs/otelcompose/config"

	"go.opentelemetry.io/otel/attribute"
)

// Type is the declared type of a configured attribute value.
type Type string

const (
	TypeInfer       Type = ""
	TypeString      Type = "string"
	TypeBool        Type = "bool"
	TypeInt         Type = "int"
	TypeDouble      Type = "double"
	TypeStringArray Type = "string_array"
	TypeBoolArray   Type = "bool_array"
	TypeIntArray    Type = "int_array"
	TypeDoubleArray Type = "double_array"
)

// UnknownTypeError occurs when an attribute declares a type which is not supported.
type UnknownTypeError struct {
	Type Type
}

// Error implements the error interface.
func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown attribute type: %q", string(e.Type))
}

// ValueOf converts a configuration node into an attribute value.
//
// With [TypeInfer] the type follows the node, a sequence is typed
// after its first item. Integral numbers coerced from substituted
// text are floats, declare [TypeInt] to record them as integers.
func ValueOf(n config.Node, typ Type) (attribute.Value, error) {
	if typ == TypeInfer {
		var err error
		typ, err = inferType(n)
		if err != nil {
			return attribute.Value{}, err
		}
	}

	switch typ {
	case TypeString:
		s, err := n.AsString()
		return attribute.StringValue(s), err
	case TypeBool:
		b, err := n.AsBool()
		return attribute.BoolValue(b), err
	case TypeInt:
		i, err := n.AsInt()
		return attribute.Int64Value(i), err
	case TypeDouble:
		f, err := n.AsFloat()
		return attribute.Float64Value(f), err
	case TypeStringArray:
		ss, err := sliceOf(n, config.Node.AsString)
		return attribute.StringSliceValue(ss), err
	case TypeBoolArray:
		bs, err := sliceOf(n, config.Node.AsBool)
		return attribute.BoolSliceValue(bs), err
	case TypeIntArray:
		is, err := sliceOf(n, config.Node.AsInt)
		return attribute.Int64SliceValue(is), err
	case TypeDoubleArray:
		fs, err := sliceOf(n, config.Node.AsFloat)
		return attribute.Float64SliceValue(fs), err
	default:
		return attribute.Value{}, UnknownTypeError{Type: typ}
	}
}

func inferType(n config.Node) (Type, error) {
	switch n.Kind() {
	case config.KindScalar:
		return scalarType(n.Interface())
	case config.KindSequence:
		if n.Len() == 0 {
			return TypeStringArray, nil
		}
		t, err := scalarType(n.Index(0).Interface())
		if err != nil {
			return TypeInfer, err
		}
		return t + "_array", nil
	default:
		return TypeInfer, config.UnexpectedTypeError{
			Path:     n.Path(),
			Expected: "scalar or sequence of scalars",
			Value:    n.Interface(),
		}
	}
}

func scalarType(v any) (Type, error) {
	switch v.(type) {
	case string:
		return TypeString, nil
	case bool:
		return TypeBool, nil
	case int, int64:
		return TypeInt, nil
	case float64:
		return TypeDouble, nil
	default:
		return TypeInfer, UnknownTypeError{Type: Type(fmt.Sprintf("%T", v))}
	}
}

func sliceOf[T any](n config.Node, f func(config.Node) (T, error)) ([]T, error) {
	if n.Kind() != config.KindSequence {
		return nil, config.UnexpectedTypeError{
			Path:     n.Path(),
			Expected: "sequence",
			Value:    n.Interface(),
		}
	}
	items := n.Items()
	vs := make([]T, 0, len(items))
	for _, item := range items {
		v, err := f(item)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	return vs, nil
}
