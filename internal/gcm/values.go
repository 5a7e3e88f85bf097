package gcm

import (
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

func widen[T number](src []T) []float64 {
	dst := make([]float64, len(src))
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

// float64s converts the values of a one-dimensional variable or attribute.
func float64s(v any) ([]float64, error) {
	switch v := v.(type) {
	case []float64:
		return widen(v), nil
	case []float32:
		return widen(v), nil
	case []int64:
		return widen(v), nil
	case []int32:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []int8:
		return widen(v), nil
	case []uint8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []uint32:
		return widen(v), nil
	case []uint64:
		return widen(v), nil
	case float64:
		return []float64{v}, nil
	case float32:
		return []float64{float64(v)}, nil
	case int32:
		return []float64{float64(v)}, nil
	case int16:
		return []float64{float64(v)}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func flatten[T number](plane [][]T) ([]float64, int, int) {
	rows := len(plane)
	if rows == 0 {
		return nil, 0, 0
	}
	cols := len(plane[0])
	dst := make([]float64, 0, rows*cols)
	for _, row := range plane {
		for _, v := range row {
			dst = append(dst, float64(v))
		}
	}
	return dst, rows, cols
}

func first[T number](v [][][]T) ([]float64, int, int, error) {
	if len(v) == 0 {
		return nil, 0, 0, fmt.Errorf("empty time step")
	}
	vals, r, c := flatten(v[0])
	return vals, r, c, nil
}

// plane extracts the first 2-D plane of a [time][row][col] slice as returned
// by VarGetter.GetSlice.
func plane(v any) ([]float64, int, int, error) {
	switch v := v.(type) {
	case [][][]float32:
		return first(v)
	case [][][]float64:
		return first(v)
	case [][][]int8:
		return first(v)
	case [][][]uint8:
		return first(v)
	case [][][]int16:
		return first(v)
	case [][][]uint16:
		return first(v)
	case [][][]int32:
		return first(v)
	case [][][]uint32:
		return first(v)
	case [][][]int64:
		return first(v)
	case [][][]uint64:
		return first(v)
	}
	return nil, 0, 0, fmt.Errorf("unsupported field type %T", v)
}

func attrString(am api.AttributeMap, key string) string {
	if am == nil {
		return ""
	}
	v, ok := am.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func attrFloat(am api.AttributeMap, key string) (float64, bool) {
	if am == nil {
		return 0, false
	}
	v, ok := am.Get(key)
	if !ok {
		return 0, false
	}
	vals, err := float64s(v)
	if err != nil || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// packing applies CF masking and packing attributes to raw variable values:
// _FillValue and missing_value become NaN, then scale_factor and add_offset
// are applied.
type packing struct {
	missing []float64
	scale   float64
	offset  float64
}

func newPacking(am api.AttributeMap) packing {
	p := packing{scale: 1}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if am == nil {
			break
		}
		if v, ok := am.Get(key); ok {
			vals, err := float64s(v)
			if err == nil {
				p.missing = append(p.missing, vals...)
			}
		}
	}
	if v, ok := attrFloat(am, "scale_factor"); ok {
		p.scale = v
	}
	if v, ok := attrFloat(am, "add_offset"); ok {
		p.offset = v
	}
	return p
}

func (p packing) apply(values []float64) {
	for i, v := range values {
		for _, m := range p.missing {
			if v == m {
				v = math.NaN()
				break
			}
		}
		values[i] = v*p.scale + p.offset
	}
}
