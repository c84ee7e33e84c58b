package pixiv

import (
	"fmt"
	"maps"
	"net/url"

	"github.com/spf13/cast"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// P creates a Param, the value is converted to a string.
// It panics if the value cannot be converted.
func P(key string, value any) Param {
	str, err := cast.ToStringE(value)
	if err != nil {
		panic(fmt.Errorf(`cannot convert value of the parameter "%s" to string: %w`, key, err))
	}
	return Param{Key: key, Value: str}
}

// Params is an immutable set of query parameters, keys are unique.
// Each modification returns a new value, the original value is never changed.
// The zero value is an empty set.
type Params struct {
	values map[string]string
}

// NewParams creates Params from the pairs, a later pair overwrites an earlier one with the same key.
func NewParams(pairs ...Param) Params {
	return Params{}.Extend(pairs...)
}

// Set inserts or overwrites the value of the key.
func (p Params) Set(key, value string) Params {
	out := p.clone(1)
	out.values[key] = value
	return out
}

// SeedDefaults sets the default values in the given order.
func (p Params) SeedDefaults(defaults []Param) Params {
	return p.Extend(defaults...)
}

// Extend sets computed values, for example an id list or a search query.
func (p Params) Extend(extra ...Param) Params {
	out := p.clone(len(extra))
	for _, param := range extra {
		out.values[param.Key] = param.Value
	}
	return out
}

// Get returns the value of the key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p Params) Len() int {
	return len(p.values)
}

// ToMap returns a copy of the parameters.
func (p Params) ToMap() map[string]string {
	return maps.Clone(p.values)
}

// Values converts the parameters to url.Values.
func (p Params) Values() url.Values {
	out := make(url.Values, len(p.values))
	for k, v := range p.values {
		out.Set(k, v)
	}
	return out
}

// Encode returns the parameters in the URL query form, sorted by key.
func (p Params) Encode() string {
	return p.Values().Encode()
}

func (p Params) clone(extraCap int) Params {
	out := Params{values: make(map[string]string, len(p.values)+extraCap)}
	maps.Copy(out.values, p.values)
	return out
}
