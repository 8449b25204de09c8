package cclnav

import (
	"context"
	"strings"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

const boundaryConditions = "BOUNDARY CONDITIONS"

// Boundary is the view of a "BOUNDARY: <name>" group
type Boundary struct {
	Group
}

// Name returns the boundary name without the BOUNDARY tag
func (b Boundary) Name() string {
	return b.Label()
}

// Domain returns the enclosing domain
func (b Boundary) Domain() Domain {
	return Domain{Group: b.Parent()}
}

// Type returns the Boundary Type attribute, e.g. "INLET". It shadows the
// group type tag, which is always BOUNDARY here.
func (b Boundary) Type(ctx context.Context) (string, error) {
	return b.Attributes().Get(ctx, "Boundary Type")
}

// Location returns the mesh region the boundary is applied to
func (b Boundary) Location(ctx context.Context) (string, error) {
	return b.Attributes().Get(ctx, "Location")
}

// Condition returns the child group holding the boundary conditions
func (b Boundary) Condition(ctx context.Context) (Group, error) {
	children, err := b.Children(ctx)
	if err != nil {
		return Group{}, err
	}
	for _, c := range children {
		if strings.Contains(strings.ToUpper(c.Name()), boundaryConditions) {
			return c, nil
		}
	}
	return Group{}, cfderror.Newf(cfderror.CodeNotFound, "boundary %s has no %s group", b.Name(), boundaryConditions).
		WithDetail("path", b.String())
}

// SetCondition writes c onto the boundary and sets its Boundary Type, so
// any boundary can be turned into an inlet. Only the condition groups c owns
// are replaced; others such as HEAT TRANSFER are kept. The boundary is
// swapped in as a whole, so a failed write leaves it unchanged.
func (b Boundary) SetCondition(ctx context.Context, c Condition) error {
	tree, err := b.Load(ctx)
	if err != nil {
		return err
	}
	tree.Attributes.Set("Boundary Type", c.BoundaryType())

	var bc *ccl.Group
	for _, child := range tree.Children {
		if strings.Contains(strings.ToUpper(child.Name), boundaryConditions) {
			bc = child
			break
		}
	}
	if bc == nil {
		bc = ccl.NewGroup(boundaryConditions)
		tree.Children = append(tree.Children, bc)
	}
	if err := c.apply(bc); err != nil {
		return cfderror.Wrap(err, "invalid boundary condition").WithDetail("path", b.String())
	}
	return b.Parent().replace(ctx, tree)
}

// InletCondition reads the inlet settings of the boundary
func (b Boundary) InletCondition(ctx context.Context) (Condition, error) {
	cond, err := b.Condition(ctx)
	if err != nil {
		return nil, err
	}
	mm, err := cond.Child(ctx, massAndMomentum)
	if err != nil {
		return nil, err
	}
	attrs := mm.Attributes()
	option, err := attrs.Get(ctx, "Option")
	if err != nil {
		return nil, err
	}
	regime, err := optionOf(ctx, cond, flowRegime)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.EqualFold(option, optNormalSpeed):
		speed, err := attrs.Quantity(ctx, optNormalSpeed)
		if err != nil {
			return nil, err
		}
		turb, err := optionOf(ctx, cond, turbulence)
		if err != nil {
			return nil, err
		}
		return NormalSpeedInlet{Speed: speed, Regime: regime, Turbulence: turb}, nil

	case strings.EqualFold(option, optMassFlowRate):
		rate, err := attrs.Quantity(ctx, optMassFlowRate)
		if err != nil {
			return nil, err
		}
		area, err := optionalAttr(ctx, attrs, keyRateArea)
		if err != nil {
			return nil, err
		}
		dir, err := readFlowDirection(ctx, cond)
		if err != nil {
			return nil, err
		}
		return MassFlowInlet{Rate: rate, Direction: dir, Regime: regime, RateArea: area}, nil

	case strings.EqualFold(option, optCartesianVel):
		c := CartesianVelocityInlet{Regime: regime}
		for _, comp := range []struct {
			key string
			dst *string
		}{{"U", &c.U}, {"V", &c.V}, {"W", &c.W}} {
			if *comp.dst, err = attrs.Get(ctx, comp.key); err != nil {
				return nil, err
			}
		}
		if c.Turbulence, err = optionOf(ctx, cond, turbulence); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, cfderror.Newf(cfderror.CodeInvalidFormat, "unsupported inlet option %q", option).
		WithDetail("path", mm.String())
}

// optionOf returns the Option of the named child, "" when the child or the
// option is missing
func optionOf(ctx context.Context, g Group, child string) (string, error) {
	c, err := g.Child(ctx, child)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return optionalAttr(ctx, c.Attributes(), "Option")
}

func optionalAttr(ctx context.Context, attrs Attributes, key string) (string, error) {
	v, err := attrs.Get(ctx, key)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return "", nil
	}
	return v, err
}

func readFloats(ctx context.Context, attrs Attributes, keys []string, dst ...*float64) error {
	for i, key := range keys {
		v, err := attrs.Float(ctx, key)
		if err != nil {
			return err
		}
		*dst[i] = v
	}
	return nil
}

func readFlowDirection(ctx context.Context, cond Group) (FlowDirection, error) {
	fd, err := cond.Child(ctx, flowDirection)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return NormalToBoundary{}, nil
	}
	if err != nil {
		return nil, err
	}
	attrs := fd.Attributes()
	option, err := attrs.Get(ctx, "Option")
	if err != nil {
		return nil, err
	}

	switch {
	case strings.EqualFold(option, optCartesian):
		var c Cartesian
		err := readFloats(ctx, attrs,
			[]string{"Unit Vector X Component", "Unit Vector Y Component", "Unit Vector Z Component"},
			&c.X, &c.Y, &c.Z)
		if err != nil {
			return nil, err
		}
		return c, nil

	case strings.EqualFold(option, optCylindrical):
		var c Cylindrical
		err := readFloats(ctx, attrs,
			[]string{"Unit Vector Axial Component", "Unit Vector Radial Component", "Unit Vector Theta Component"},
			&c.Axial, &c.Radial, &c.Theta)
		if err != nil {
			return nil, err
		}
		if c.Axis, err = readAxis(ctx, fd); err != nil {
			return nil, err
		}
		return c, nil
	}
	return NormalToBoundary{}, nil
}

// readAxis returns the axis definition below fd, nil when there is none
func readAxis(ctx context.Context, fd Group) (AxisDefinition, error) {
	ax, err := fd.Child(ctx, axisDefinition)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	attrs := ax.Attributes()
	option, err := attrs.Get(ctx, "Option")
	if err != nil {
		return nil, err
	}

	switch {
	case strings.EqualFold(option, optCoordinateAxis):
		axis, err := attrs.Get(ctx, "Rotation Axis")
		if err != nil {
			return nil, err
		}
		return CoordinateAxis{RotationAxis: axis}, nil

	case strings.EqualFold(option, optTwoPoints):
		var a TwoPointAxis
		for _, end := range []struct {
			key string
			dst *[3]float64
		}{{"Rotation Axis From", &a.From}, {"Rotation Axis To", &a.To}} {
			v, err := attrs.Get(ctx, end.key)
			if err != nil {
				return nil, err
			}
			if *end.dst, err = parsePoint(v); err != nil {
				return nil, err
			}
		}
		return a, nil
	}
	return nil, cfderror.Newf(cfderror.CodeInvalidFormat, "unsupported axis definition %q", option).
		WithDetail("path", ax.String())
}
