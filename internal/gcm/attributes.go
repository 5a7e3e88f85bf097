package gcm

import "fmt"

// Attributes is an insertion-ordered attribute map for writing NetCDF
// variables and groups. It satisfies api.AttributeMap.
type Attributes struct {
	keys   []string
	values map[string]any
}

// NewAttributes creates an attribute map from alternating key/value pairs.
func NewAttributes(kv ...any) *Attributes {
	a := &Attributes{values: map[string]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		a.Add(kv[i].(string), kv[i+1])
	}
	return a
}

// Add sets key to val, appending key if it is new.
func (a *Attributes) Add(key string, val any) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = val
}

// Keys returns the keys in insertion order.
func (a *Attributes) Keys() []string {
	return a.keys
}

// Get returns the value of key.
func (a *Attributes) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// GetType returns the CDL type of the value of key.
func (a *Attributes) GetType(key string) (string, bool) {
	v, ok := a.values[key]
	if !ok {
		return "", false
	}
	switch v.(type) {
	case string:
		return "char", true
	case int8, []int8:
		return "byte", true
	case int16, []int16:
		return "short", true
	case int32, []int32:
		return "int", true
	case int64, []int64:
		return "int64", true
	case float32, []float32:
		return "float", true
	case float64, []float64:
		return "double", true
	}
	return "", false
}

// GetGoType returns the Go type of the value of key.
func (a *Attributes) GetGoType(key string) (string, bool) {
	v, ok := a.values[key]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%T", v), true
}
