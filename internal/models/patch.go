package models

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidPatch is returned by NewPatch for values a product cannot hold.
var ErrInvalidPatch = errors.New("invalid patch")

// Patch is a partial update: only the fields it carries change.
type Patch struct {
	Name   *string
	Price  *float64
	Email  *string
	Fields map[string]any
}

// NewPatch builds a Patch from a decoded JSON object. Identity keys are
// dropped since the id never changes.
func NewPatch(raw map[string]any) (Patch, error) {
	var p Patch
	if v, ok := raw[FieldName]; ok {
		s, ok := v.(string)
		if !ok {
			return Patch{}, fmt.Errorf("%w: name must be a string", ErrInvalidPatch)
		}
		p.Name = &s
	}
	if v, ok := raw[FieldEmail]; ok {
		s, ok := v.(string)
		if !ok {
			return Patch{}, fmt.Errorf("%w: email must be a string", ErrInvalidPatch)
		}
		p.Email = &s
	}
	if v, ok := raw[FieldPrice]; ok {
		f, ok := ParsePrice(v)
		if !ok {
			return Patch{}, fmt.Errorf("%w: price must be numeric", ErrInvalidPatch)
		}
		p.Price = &f
	}
	if extra := ExtraFields(raw); len(extra) > 0 {
		p.Fields = extra
	}
	return p, nil
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Email == nil && len(p.Fields) == 0
}

// Set returns the patch as a flat field map, the shape of a $set document.
func (p Patch) Set() map[string]any {
	set := make(map[string]any, len(p.Fields)+3)
	for k, v := range p.Fields {
		set[k] = v
	}
	if p.Name != nil {
		set[FieldName] = *p.Name
	}
	if p.Price != nil {
		set[FieldPrice] = *p.Price
	}
	if p.Email != nil {
		set[FieldEmail] = *p.Email
	}
	return set
}

// Apply merges the patch into prod and reports whether anything changed.
func (p Patch) Apply(prod *Product) bool {
	changed := false
	if p.Name != nil && *p.Name != prod.Name {
		prod.Name = *p.Name
		changed = true
	}
	if p.Price != nil && *p.Price != prod.Price {
		prod.Price = *p.Price
		changed = true
	}
	if p.Email != nil && *p.Email != prod.Email {
		prod.Email = *p.Email
		changed = true
	}
	for k, v := range p.Fields {
		if prod.Fields == nil {
			prod.Fields = make(map[string]any)
		}
		if old, ok := prod.Fields[k]; ok && reflect.DeepEqual(old, v) {
			continue
		}
		prod.Fields[k] = cloneValue(v)
		changed = true
	}
	return changed
}
