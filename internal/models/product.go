package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field names of the core product attributes.
const (
	FieldID    = "_id"
	FieldName  = "name"
	FieldPrice = "price"
	FieldEmail = "email"
)

// Product is a catalog record: a few required attributes plus whatever
// extra fields the creator supplied.
type Product struct {
	ID     string
	Name   string
	Price  float64
	Email  string
	Fields map[string]any
}

// OwnedBy reports whether email is the product's owner.
func (p *Product) OwnedBy(email string) bool {
	return email != "" && p.Email == email
}

// Document returns the flat field map of the product without its id.
func (p *Product) Document() map[string]any {
	doc := make(map[string]any, len(p.Fields)+3)
	for k, v := range p.Fields {
		doc[k] = v
	}
	doc[FieldName] = p.Name
	doc[FieldPrice] = p.Price
	doc[FieldEmail] = p.Email
	return doc
}

// MarshalJSON flattens extra fields next to the core ones.
func (p Product) MarshalJSON() ([]byte, error) {
	doc := p.Document()
	doc[FieldID] = p.ID
	return json.Marshal(doc)
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	p.Fields = cloneMap(p.Fields)
	return p
}

// IsCoreField reports whether key names an attribute with a dedicated slot.
func IsCoreField(key string) bool {
	switch key {
	case FieldID, "id", FieldName, FieldPrice, FieldEmail:
		return true
	}
	return false
}

// ExtraFields copies every non-core key of raw, normalizing decoded numbers.
func ExtraFields(raw map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range raw {
		if IsCoreField(k) {
			continue
		}
		out[k] = Normalize(v)
	}
	return out
}

// ParsePrice converts a decoded JSON value into a price.
func ParsePrice(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Normalize turns json.Number values (recursively) into int64 or float64.
func Normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Normalize(e)
		}
		return out
	}
	return v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
