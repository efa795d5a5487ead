package router

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// convert 把提取出的值转换为处理方法参数的类型。
//
// 依次尝试：直接赋值、底层上下文、数值/字符串的类型转换、字符串解析为标量、
// 以及经 JSON 重新解码为结构体、映射或切片。
func convert(v any, want reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(want), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(want) {
		return rv, nil
	}

	if n, ok := v.(Native); ok {
		if nv := reflect.ValueOf(n.Native()); nv.IsValid() && nv.Type().AssignableTo(want) {
			return nv, nil
		}
	}

	// 多值查询参数只有一个目标时取第一个
	if values, ok := v.([]string); ok && want.Kind() != reflect.Slice {
		if len(values) == 0 {
			return reflect.Zero(want), nil
		}
		return convert(values[0], want)
	}

	if isNumber(rv.Kind()) && isNumber(want.Kind()) {
		return convertNumber(rv, want)
	}
	if rv.Kind() == reflect.String && want.Kind() == reflect.String {
		return rv.Convert(want), nil
	}

	if s, ok := v.(string); ok {
		if out, ok, err := parseScalar(s, want); ok {
			return out, err
		}
	}

	switch want.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Ptr, reflect.Interface:
		return redecode(v, want)
	}
	return reflect.Value{}, fmt.Errorf("unsupported conversion")
}

// convertNumber 在数值类型之间转换，不接受截断小数或超出目标范围的值
func convertNumber(rv reflect.Value, want reflect.Type) (reflect.Value, error) {
	out := reflect.New(want).Elem()
	switch want.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		switch {
		case rv.CanInt():
			n = rv.Int()
		case rv.CanUint():
			u := rv.Uint()
			if u > math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("value %d overflows %v", u, want)
			}
			n = int64(u)
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return reflect.Value{}, fmt.Errorf("value %v is not a valid %v", f, want)
			}
			n = int64(f)
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %v", n, want)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		switch {
		case rv.CanUint():
			n = rv.Uint()
		case rv.CanInt():
			i := rv.Int()
			if i < 0 {
				return reflect.Value{}, fmt.Errorf("negative value %d for %v", i, want)
			}
			n = uint64(i)
		default:
			f := rv.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return reflect.Value{}, fmt.Errorf("value %v is not a valid %v", f, want)
			}
			n = uint64(f)
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("value %d overflows %v", n, want)
		}
		out.SetUint(n)
	default:
		var f float64
		switch {
		case rv.CanInt():
			f = float64(rv.Int())
		case rv.CanUint():
			f = float64(rv.Uint())
		default:
			f = rv.Float()
		}
		if out.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("value %v overflows %v", f, want)
		}
		out.SetFloat(f)
	}
	return out, nil
}

// parseScalar 把字符串解析为标量类型，第二个返回值表示目标是否为标量
func parseScalar(s string, want reflect.Type) (reflect.Value, bool, error) {
	out := reflect.New(want).Elem()
	switch want.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, want.Bits())
		if err != nil {
			return reflect.Value{}, true, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, want.Bits())
		if err != nil {
			return reflect.Value{}, true, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, want.Bits())
		if err != nil {
			return reflect.Value{}, true, err
		}
		out.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, true, err
		}
		out.SetBool(b)
	default:
		return reflect.Value{}, false, nil
	}
	return out, true, nil
}

// redecode 经 JSON 往返把通用值解码为目标类型
func redecode(v any, want reflect.Type) (reflect.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(want)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return out.Elem(), nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
