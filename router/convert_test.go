package router

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nativeCtx struct{ raw *int }

func (n nativeCtx) Native() any { return n.raw }

func TestConvert(t *testing.T) {
	type named string

	cases := []struct {
		name string
		in   any
		want reflect.Type
		out  any
	}{
		{"nil", nil, reflect.TypeOf(0), 0},
		{"assignable", "x", reflect.TypeOf(""), "x"},
		{"named string", "x", reflect.TypeOf(named("")), named("x")},
		{"json number", float64(3), reflect.TypeOf(int64(0)), int64(3)},
		{"parse int", "12", reflect.TypeOf(0), 12},
		{"parse bool", "true", reflect.TypeOf(false), true},
		{"parse float", "1.5", reflect.TypeOf(float32(0)), float32(1.5)},
		{"first of many", []string{"3", "4"}, reflect.TypeOf(uint8(0)), uint8(3)},
		{"empty many", []string{}, reflect.TypeOf(""), ""},
		{"keep many", []string{"a", "b"}, reflect.TypeOf([]string{}), []string{"a", "b"}},
		{"redecode map", map[string]any{"a": float64(1)}, reflect.TypeOf(map[string]int{}), map[string]int{"a": 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := convert(tc.in, tc.want)
			require.NoError(t, err)
			assert.Equal(t, tc.out, v.Interface())
		})
	}
}

func TestConvertNative(t *testing.T) {
	n := 5
	v, err := convert(nativeCtx{raw: &n}, reflect.TypeOf(&n))
	require.NoError(t, err)
	assert.Same(t, &n, v.Interface())
}

func TestConvertErrors(t *testing.T) {
	_, err := convert("abc", reflect.TypeOf(0))
	assert.Error(t, err)

	_, err = convert(true, reflect.TypeOf(""))
	assert.Error(t, err)

	_, err = convert("x", reflect.TypeOf(struct{ A int }{}))
	assert.Error(t, err)
}

func TestConvertNumberRange(t *testing.T) {
	rejected := []struct {
		name string
		in   any
		want reflect.Type
	}{
		{"fraction to int", 2.7, reflect.TypeOf(0)},
		{"int8 overflow", float64(300), reflect.TypeOf(int8(0))},
		{"int8 underflow", float64(-129), reflect.TypeOf(int8(0))},
		{"negative to uint", float64(-1), reflect.TypeOf(uint(0))},
		{"negative int to uint", -1, reflect.TypeOf(uint8(0))},
		{"uint8 overflow", 256, reflect.TypeOf(uint8(0))},
		{"uint64 to int64", uint64(1 << 63), reflect.TypeOf(int64(0))},
		{"float32 overflow", 1e300, reflect.TypeOf(float32(0))},
		{"huge float to int64", 1e19, reflect.TypeOf(int64(0))},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			_, err := convert(tc.in, tc.want)
			assert.Error(t, err)
		})
	}

	accepted := []struct {
		name string
		in   any
		want reflect.Type
		out  any
	}{
		{"whole float to int8", float64(-128), reflect.TypeOf(int8(0)), int8(-128)},
		{"whole float to uint", float64(7), reflect.TypeOf(uint(0)), uint(7)},
		{"int to float", 3, reflect.TypeOf(float64(0)), float64(3)},
		{"uint8 max", 255, reflect.TypeOf(uint8(0)), uint8(255)},
	}
	for _, tc := range accepted {
		t.Run(tc.name, func(t *testing.T) {
			v, err := convert(tc.in, tc.want)
			require.NoError(t, err)
			assert.Equal(t, tc.out, v.Interface())
		})
	}
}
