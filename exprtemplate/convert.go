package exprtemplate

import (
	"fmt"
	"math"
	"reflect"
)

// convert turns an expression result into O. Numeric results convert
// between numeric kinds only when no information is lost: a fractional,
// out-of-range or negative-into-unsigned value is an error. Float targets
// accept any numeric result at their own precision. Anything else must be
// assignable.
func convert[O any](result any) (O, error) {
	var out O
	target := reflect.TypeOf((*O)(nil)).Elem()

	if result == nil {
		return out, nil
	}
	value := reflect.ValueOf(result)

	switch {
	case value.Type().AssignableTo(target):
		reflect.ValueOf(&out).Elem().Set(value)
		return out, nil
	case isNumeric(value.Kind()) && isNumeric(target.Kind()):
		converted, err := convertNumber(value, target)
		if err != nil {
			return out, err
		}
		reflect.ValueOf(&out).Elem().Set(converted)
		return out, nil
	case value.Kind() == reflect.String && target.Kind() == reflect.String:
		reflect.ValueOf(&out).Elem().Set(value.Convert(target))
		return out, nil
	}
	return out, fmt.Errorf("cannot use %T as %s", result, target)
}

func convertNumber(value reflect.Value, target reflect.Type) (reflect.Value, error) {
	if isFloat(target.Kind()) {
		return value.Convert(target), nil
	}
	if isUnsigned(target.Kind()) && isNegative(value) {
		return reflect.Value{}, fmt.Errorf("cannot use negative %v as %s", value.Interface(), target)
	}
	if isFloat(value.Kind()) {
		f := value.Float()
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return reflect.Value{}, fmt.Errorf("cannot use %v as %s without truncation", f, target)
		}
	}
	converted := value.Convert(target)
	if converted.Convert(value.Type()).Interface() != value.Interface() {
		return reflect.Value{}, fmt.Errorf("%v overflows %s", value.Interface(), target)
	}
	return converted, nil
}

func isNegative(value reflect.Value) bool {
	switch {
	case isFloat(value.Kind()):
		return value.Float() < 0
	case isUnsigned(value.Kind()):
		return false
	default:
		return value.Int() < 0
	}
}

func isFloat(kind reflect.Kind) bool {
	return kind == reflect.Float32 || kind == reflect.Float64
}

func isUnsigned(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
