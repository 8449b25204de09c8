package cclnav

import (
	"strconv"
	"strings"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

const (
	massAndMomentum = "MASS AND MOMENTUM"
	flowDirection   = "FLOW DIRECTION"
	flowRegime      = "FLOW REGIME"
	turbulence      = "TURBULENCE"
	axisDefinition  = "AXIS DEFINITION"

	optNormalSpeed      = "Normal Speed"
	optMassFlowRate     = "Mass Flow Rate"
	optCartesianVel     = "Cartesian Velocity Components"
	optNormalToBoundary = "Normal to Boundary Condition"
	optCartesian        = "Cartesian Components"
	optCylindrical      = "Cylindrical Components"
	optCoordinateAxis   = "Coordinate Axis"
	optTwoPoints        = "Two Points"

	keyRateArea = "Mass Flow Rate Area"
)

// Defaults applied when a condition leaves the field empty
const (
	DefaultFlowRegime = "Subsonic"
	DefaultTurbulence = "Medium Intensity and Eddy Viscosity Ratio"
	DefaultRateArea   = RateAreaAsSpecified
)

// Mass flow rate area settings
const (
	RateAreaAsSpecified = "As Specified"
	RateAreaAllSectors  = "Total for All Sectors"
)

// Condition is a boundary condition that can be written onto a boundary
type Condition interface {
	// BoundaryType is the Boundary Type the boundary is given
	BoundaryType() string
	apply(bc *ccl.Group) error
}

// FlowDirection is the direction setting of a mass flow inlet
type FlowDirection interface {
	group() (*ccl.Group, error)
}

// AxisDefinition is the axis cylindrical components refer to
type AxisDefinition interface {
	group() *ccl.Group
}

// NormalToBoundary lets the flow enter normal to the boundary face
type NormalToBoundary struct{}

func (NormalToBoundary) group() (*ccl.Group, error) {
	g := ccl.NewGroup(flowDirection)
	g.Attributes.Set("Option", optNormalToBoundary)
	return g, nil
}

// Cartesian is a flow direction given as unit vector components
type Cartesian struct {
	X, Y, Z float64
}

func (c Cartesian) group() (*ccl.Group, error) {
	g := ccl.NewGroup(flowDirection)
	g.Attributes.Set("Option", optCartesian)
	g.Attributes.Set("Unit Vector X Component", formatFloat(c.X))
	g.Attributes.Set("Unit Vector Y Component", formatFloat(c.Y))
	g.Attributes.Set("Unit Vector Z Component", formatFloat(c.Z))
	return g, nil
}

// Cylindrical is a flow direction given as components about an axis
type Cylindrical struct {
	Axial, Radial, Theta float64
	Axis                 AxisDefinition
}

func (c Cylindrical) group() (*ccl.Group, error) {
	if c.Axis == nil {
		return nil, cfderror.New("cylindrical flow direction needs an axis definition").WithCode(cfderror.CodeInvalidInput)
	}
	g := ccl.NewGroup(flowDirection)
	g.Attributes.Set("Option", optCylindrical)
	g.Attributes.Set("Unit Vector Axial Component", formatFloat(c.Axial))
	g.Attributes.Set("Unit Vector Radial Component", formatFloat(c.Radial))
	g.Attributes.Set("Unit Vector Theta Component", formatFloat(c.Theta))
	g.AddChild(c.Axis.group())
	return g, nil
}

// CoordinateAxis names an axis of a coordinate frame, e.g. "Global Z"
type CoordinateAxis struct {
	RotationAxis string
}

func (a CoordinateAxis) group() *ccl.Group {
	g := ccl.NewGroup(axisDefinition)
	g.Attributes.Set("Option", optCoordinateAxis)
	g.Attributes.Set("Rotation Axis", a.RotationAxis)
	return g
}

// TwoPointAxis runs through two points given in metres
type TwoPointAxis struct {
	From, To [3]float64
}

func (a TwoPointAxis) group() *ccl.Group {
	g := ccl.NewGroup(axisDefinition)
	g.Attributes.Set("Option", optTwoPoints)
	g.Attributes.Set("Rotation Axis From", formatPoint(a.From))
	g.Attributes.Set("Rotation Axis To", formatPoint(a.To))
	return g
}

// NormalSpeedInlet prescribes the inflow speed normal to the boundary
type NormalSpeedInlet struct {
	Speed      Quantity
	Regime     string // default Subsonic
	Turbulence string // default Medium Intensity and Eddy Viscosity Ratio
}

func (NormalSpeedInlet) BoundaryType() string { return "INLET" }

func (c NormalSpeedInlet) apply(bc *ccl.Group) error {
	setChild(bc, regimeGroup(c.Regime))

	mm := ccl.NewGroup(massAndMomentum)
	mm.Attributes.Set(optNormalSpeed, c.Speed.String())
	mm.Attributes.Set("Option", optNormalSpeed)
	setChild(bc, mm)

	setChild(bc, turbulenceGroup(c.Turbulence))
	removeChild(bc, flowDirection)
	return nil
}

// MassFlowInlet prescribes the mass flow rate and its direction
type MassFlowInlet struct {
	Rate      Quantity
	Direction FlowDirection // default NormalToBoundary
	Regime    string        // default Subsonic
	RateArea  string        // As Specified (default) or Total for All Sectors
}

func (MassFlowInlet) BoundaryType() string { return "INLET" }

func (c MassFlowInlet) apply(bc *ccl.Group) error {
	area := c.RateArea
	if area == "" {
		area = DefaultRateArea
	}
	if area != RateAreaAsSpecified && area != RateAreaAllSectors {
		return cfderror.Newf(cfderror.CodeInvalidInput, "mass flow rate area must be %q or %q, got %q",
			RateAreaAsSpecified, RateAreaAllSectors, c.RateArea)
	}
	dir := c.Direction
	if dir == nil {
		dir = NormalToBoundary{}
	}
	fd, err := dir.group()
	if err != nil {
		return err
	}

	setChild(bc, regimeGroup(c.Regime))

	mm := ccl.NewGroup(massAndMomentum)
	mm.Attributes.Set(optMassFlowRate, c.Rate.String())
	mm.Attributes.Set(keyRateArea, area)
	mm.Attributes.Set("Option", optMassFlowRate)
	setChild(bc, mm)

	setChild(bc, fd)
	return nil
}

// CartesianVelocityInlet prescribes the velocity components. Each component
// is a quantity such as "2 [m s^-1]" or an expression, e.g. a profile
// function "inlet.Velocity u(r)".
type CartesianVelocityInlet struct {
	U, V, W    string
	Regime     string
	Turbulence string
}

func (CartesianVelocityInlet) BoundaryType() string { return "INLET" }

// Velocity formats a speed in metres per second as a component value
func Velocity(v float64) string {
	return Quantity{Value: v, Unit: "m s^-1"}.String()
}

func (c CartesianVelocityInlet) apply(bc *ccl.Group) error {
	for _, comp := range []struct{ name, value string }{{"U", c.U}, {"V", c.V}, {"W", c.W}} {
		if strings.TrimSpace(comp.value) == "" {
			return cfderror.Newf(cfderror.CodeInvalidInput, "velocity component %s is empty", comp.name)
		}
	}

	setChild(bc, regimeGroup(c.Regime))

	mm := ccl.NewGroup(massAndMomentum)
	mm.Attributes.Set("Option", optCartesianVel)
	mm.Attributes.Set("U", strings.TrimSpace(c.U))
	mm.Attributes.Set("V", strings.TrimSpace(c.V))
	mm.Attributes.Set("W", strings.TrimSpace(c.W))
	setChild(bc, mm)

	setChild(bc, turbulenceGroup(c.Turbulence))
	removeChild(bc, flowDirection)
	return nil
}

func regimeGroup(regime string) *ccl.Group {
	if regime == "" {
		regime = DefaultFlowRegime
	}
	g := ccl.NewGroup(flowRegime)
	g.Attributes.Set("Option", capitalize(regime))
	return g
}

func turbulenceGroup(option string) *ccl.Group {
	if option == "" {
		option = DefaultTurbulence
	}
	g := ccl.NewGroup(turbulence)
	g.Attributes.Set("Option", option)
	return g
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// setChild replaces the child with the same name in place or appends c
func setChild(parent *ccl.Group, c *ccl.Group) {
	for i, existing := range parent.Children {
		if strings.EqualFold(existing.Name, c.Name) {
			parent.Children[i] = c
			return
		}
	}
	parent.Children = append(parent.Children, c)
}

func removeChild(parent *ccl.Group, name string) {
	kept := parent.Children[:0]
	for _, c := range parent.Children {
		if !strings.EqualFold(c.Name, name) {
			kept = append(kept, c)
		}
	}
	parent.Children = kept
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPoint(p [3]float64) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = Quantity{Value: v, Unit: "m"}.String()
	}
	return strings.Join(parts, ", ")
}

func parsePoint(s string) ([3]float64, error) {
	var p [3]float64
	parts := strings.Split(s, ",")
	if len(parts) != len(p) {
		return p, cfderror.Newf(cfderror.CodeTypeMismatch, "not a point: %q", s)
	}
	for i, part := range parts {
		q, err := ParseQuantity(part)
		if err != nil {
			return p, err
		}
		p[i] = q.Value
	}
	return p, nil
}
