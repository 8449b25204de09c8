package cclnav

import (
	"context"
	"strconv"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// Attributes is the validated key/value view of a group. Values are read
// from the store on every call.
type Attributes struct {
	group Group
}

// Group returns the owning group
func (a Attributes) Group() Group { return a.group }

// All returns every attribute in store order
func (a Attributes) All(ctx context.Context) (ccl.Attributes, error) {
	return a.group.store().Attributes(ctx, a.group.path)
}

// Keys returns the attribute keys in store order
func (a Attributes) Keys(ctx context.Context) ([]string, error) {
	all, err := a.All(ctx)
	if err != nil {
		return nil, err
	}
	return all.Keys(), nil
}

// Get returns the raw value of key, CodeNotFound when absent
func (a Attributes) Get(ctx context.Context, key string) (string, error) {
	return a.group.store().Attribute(ctx, a.group.path, key)
}

// Has reports whether key is present
func (a Attributes) Has(ctx context.Context, key string) (bool, error) {
	all, err := a.All(ctx)
	if err != nil {
		return false, err
	}
	return all.Has(key), nil
}

// Set updates an existing attribute. The key must exist and the new value
// must keep the shape of the current one unless the current value is empty.
func (a Attributes) Set(ctx context.Context, key, value string) error {
	current, err := a.Get(ctx, key)
	if err != nil {
		return err
	}
	have, want := ShapeOf(current), ShapeOf(value)
	if have != ShapeEmpty && have != want {
		return cfderror.Newf(cfderror.CodeTypeMismatch, "attribute %q holds a %s, got a %s", key, have, want).
			WithDetail("path", a.group.String()).
			WithDetail("current", current).
			WithDetail("value", value)
	}
	return a.group.store().SetAttribute(ctx, a.group.path, key, value)
}

// Add creates a new attribute. An existing key is CodeAlreadyExists.
func (a Attributes) Add(ctx context.Context, key, value string) error {
	ok, err := a.Has(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		return cfderror.Newf(cfderror.CodeAlreadyExists, "attribute %q already exists on %s", key, a.group)
	}
	return a.group.store().SetAttribute(ctx, a.group.path, key, value)
}

// Delete removes an attribute, CodeNotFound when absent
func (a Attributes) Delete(ctx context.Context, key string) error {
	return a.group.store().DeleteAttribute(ctx, a.group.path, key)
}

// Quantity parses the value of key as a quantity
func (a Attributes) Quantity(ctx context.Context, key string) (Quantity, error) {
	v, err := a.Get(ctx, key)
	if err != nil {
		return Quantity{}, err
	}
	q, err := ParseQuantity(v)
	if err != nil {
		return Quantity{}, cfderror.Wrap(err, "attribute "+key).WithDetail("path", a.group.String())
	}
	return q, nil
}

// Float returns the numeric part of a number or quantity value
func (a Attributes) Float(ctx context.Context, key string) (float64, error) {
	q, err := a.Quantity(ctx, key)
	if err != nil {
		return 0, err
	}
	return q.Value, nil
}

// Int parses the value of key as an integer
func (a Attributes) Int(ctx context.Context, key string) (int, error) {
	v, err := a.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, cfderror.Newf(cfderror.CodeTypeMismatch, "attribute %q is not an integer: %q", key, v).
			WithDetail("path", a.group.String())
	}
	return n, nil
}

// SetQuantity writes q over an existing number or quantity value. A q
// without a unit keeps the unit of the current value.
func (a Attributes) SetQuantity(ctx context.Context, key string, q Quantity) error {
	if q.Unit == "" {
		current, err := a.Get(ctx, key)
		if err != nil {
			return err
		}
		if cq, err := ParseQuantity(current); err == nil {
			q.Unit = cq.Unit
		}
	}
	return a.Set(ctx, key, q.String())
}

// SetInt writes n over an existing number value
func (a Attributes) SetInt(ctx context.Context, key string, n int) error {
	return a.Set(ctx, key, strconv.Itoa(n))
}
