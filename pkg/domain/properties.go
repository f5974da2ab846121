package domain

import (
	"encoding/json"
	"fmt"
)

// Properties is an insertion-ordered mapping of free-form construct metadata.
// The zero value is ready to use.
type Properties struct {
	keys   []string
	values map[string]Value
}

// NewProperties builds a property set from alternating key/value pairs.
func NewProperties(pairs ...any) (Properties, error) {
	var p Properties
	if len(pairs)%2 != 0 {
		return p, fmt.Errorf("properties: odd number of arguments")
	}
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return p, fmt.Errorf("properties: key %v is not a string", pairs[i])
		}
		v, err := ValueOf(pairs[i+1])
		if err != nil {
			return p, fmt.Errorf("properties: %s: %w", key, err)
		}
		p.Set(key, v)
	}
	return p, nil
}

// Set stores v under key, keeping the first-seen position of key.
func (p *Properties) Set(key string, v Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value under key.
func (p Properties) Get(key string) (Value, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (p Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len reports the number of keys.
func (p Properties) Len() int { return len(p.keys) }

// Copy returns an independent property set.
func (p Properties) Copy() Properties {
	var cp Properties
	for _, k := range p.keys {
		cp.Set(k, p.values[k])
	}
	return cp
}

type propertyJSON struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// MarshalJSON encodes the properties as an ordered list of key/value pairs.
func (p Properties) MarshalJSON() ([]byte, error) {
	out := make([]propertyJSON, 0, len(p.keys))
	for _, k := range p.keys {
		out = append(out, propertyJSON{Key: k, Value: p.values[k]})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the ordered pair list.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var in []propertyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var decoded Properties
	for _, kv := range in {
		decoded.Set(kv.Key, kv.Value)
	}
	*p = decoded
	return nil
}
