package cclnav

import (
	"context"
	"strings"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

const domainMotion = "DOMAIN MODELS/DOMAIN MOTION"

// Domain is the view of a "DOMAIN: <name>" group
type Domain struct {
	Group
}

// Name returns the domain name without the DOMAIN tag
func (d Domain) Name() string {
	return d.Label()
}

// Flow returns the enclosing flow
func (d Domain) Flow() Flow {
	return Flow{Group: d.Parent()}
}

// DomainType returns the Domain Type attribute, e.g. "Fluid"
func (d Domain) DomainType(ctx context.Context) (string, error) {
	return d.Attributes().Get(ctx, "Domain Type")
}

// Boundaries returns the BOUNDARY groups of the domain
func (d Domain) Boundaries(ctx context.Context) ([]Boundary, error) {
	groups, err := d.ChildrenOfType(ctx, "BOUNDARY")
	if err != nil {
		return nil, err
	}
	out := make([]Boundary, len(groups))
	for i, g := range groups {
		out[i] = Boundary{Group: g}
	}
	return out, nil
}

// Boundary returns the boundary with the given name
func (d Domain) Boundary(ctx context.Context, name string) (Boundary, error) {
	g, err := d.Child(ctx, "BOUNDARY: "+name)
	if err != nil {
		return Boundary{}, err
	}
	return Boundary{Group: g}, nil
}

// BoundariesOfType filters the domain's boundaries by Boundary Type
func (d Domain) BoundariesOfType(ctx context.Context, boundaryType string, squeeze bool) (Selection, error) {
	all, err := d.Boundaries(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectBoundaries(ctx, all, boundaryType, squeeze)
}

// IsRotating reports whether the domain motion option is Rotating. A domain
// without a DOMAIN MOTION group is stationary.
func (d Domain) IsRotating(ctx context.Context) (bool, error) {
	motion, err := d.Get(ctx, domainMotion)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	option, err := motion.Attributes().Get(ctx, "Option")
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return strings.EqualFold(option, "Rotating"), nil
}

// Selection is the result of a boundary filter. With squeeze set and
// exactly one match, One holds it and All is nil.
type Selection struct {
	One *Boundary
	All []Boundary
}

// Len returns the number of selected boundaries
func (s Selection) Len() int {
	if s.One != nil {
		return 1
	}
	return len(s.All)
}

// List returns the selection as a slice regardless of squeezing
func (s Selection) List() []Boundary {
	if s.One != nil {
		return []Boundary{*s.One}
	}
	return s.All
}

func selectBoundaries(ctx context.Context, boundaries []Boundary, boundaryType string, squeeze bool) (Selection, error) {
	matches := []Boundary{}
	for _, b := range boundaries {
		typ, err := b.Type(ctx)
		if cfderror.HasCode(err, cfderror.CodeNotFound) {
			continue
		}
		if err != nil {
			return Selection{}, err
		}
		if strings.EqualFold(typ, boundaryType) {
			matches = append(matches, b)
		}
	}
	if squeeze && len(matches) == 1 {
		return Selection{One: &matches[0]}, nil
	}
	return Selection{All: matches}, nil
}
