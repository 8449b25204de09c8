package cclnav

import (
	"context"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// CCL locations of the solver settings exposed by Flow
const (
	convergenceControl = "SOLVER CONTROL/CONVERGENCE CONTROL"
	timeSteps          = "ANALYSIS TYPE/TIME STEPS"
	timeDuration       = "ANALYSIS TYPE/TIME DURATION"
	monitorObjects     = "OUTPUT CONTROL/MONITOR OBJECTS"

	keyMaxIterations       = "Maximum Number of Iterations"
	keyMaxCoefficientLoops = "Maximum Number of Coefficient Loops"
	keyTimesteps           = "Timesteps"
	keyTotalTime           = "Total Time"
)

// Flow is the view of a "FLOW: <name>" group
type Flow struct {
	Group
}

// AnalysisType classifies the flow from its ANALYSIS TYPE group. A flow
// without that group is AnalysisUnknown.
func (f Flow) AnalysisType(ctx context.Context) (ccl.AnalysisType, error) {
	at, err := f.Child(ctx, ccl.AnalysisTypeGroup)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return ccl.AnalysisUnknown, nil
	}
	if err != nil {
		return ccl.AnalysisUnknown, err
	}
	attrs, err := at.Attributes().All(ctx)
	if err != nil {
		return ccl.AnalysisUnknown, err
	}
	if len(attrs) == 0 {
		return ccl.AnalysisUnknown, nil
	}
	option, ok := attrs.Get("Option")
	if !ok {
		option = attrs[0].Value
	}
	return ccl.ClassifyOption(option), nil
}

// IsSteadyState reports whether the flow is a steady state analysis
func (f Flow) IsSteadyState(ctx context.Context) (bool, error) {
	at, err := f.AnalysisType(ctx)
	return at == ccl.AnalysisSteadyState, err
}

func (f Flow) requireSteady(ctx context.Context, setting string) error {
	at, err := f.AnalysisType(ctx)
	if err != nil {
		return err
	}
	if at != ccl.AnalysisSteadyState {
		return cfderror.Newf(cfderror.CodeNotSteadyState, "%s requires a steady state analysis, flow is %s", setting, at).
			WithDetail("path", f.String())
	}
	return nil
}

func (f Flow) requireTransient(ctx context.Context, setting string) error {
	at, err := f.AnalysisType(ctx)
	if err != nil {
		return err
	}
	if at != ccl.AnalysisTransient {
		return cfderror.Newf(cfderror.CodeNotTransient, "%s requires a transient analysis, flow is %s", setting, at).
			WithDetail("path", f.String())
	}
	return nil
}

// Domains returns the DOMAIN groups of the flow
func (f Flow) Domains(ctx context.Context) ([]Domain, error) {
	groups, err := f.ChildrenOfType(ctx, "DOMAIN")
	if err != nil {
		return nil, err
	}
	domains := make([]Domain, len(groups))
	for i, g := range groups {
		domains[i] = Domain{Group: g}
	}
	return domains, nil
}

// Domain returns the domain with the given name
func (f Flow) Domain(ctx context.Context, name string) (Domain, error) {
	g, err := f.Child(ctx, "DOMAIN: "+name)
	if err != nil {
		return Domain{}, err
	}
	return Domain{Group: g}, nil
}

// Boundaries returns the boundaries of all domains in domain order
func (f Flow) Boundaries(ctx context.Context) ([]Boundary, error) {
	domains, err := f.Domains(ctx)
	if err != nil {
		return nil, err
	}
	var all []Boundary
	for _, d := range domains {
		b, err := d.Boundaries(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, b...)
	}
	return all, nil
}

// BoundariesOfType filters the boundaries of all domains by Boundary Type
func (f Flow) BoundariesOfType(ctx context.Context, boundaryType string, squeeze bool) (Selection, error) {
	all, err := f.Boundaries(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectBoundaries(ctx, all, boundaryType, squeeze)
}

func (f Flow) setting(ctx context.Context, group string) (Attributes, error) {
	g, err := f.Get(ctx, group)
	if err != nil {
		return Attributes{}, err
	}
	return g.Attributes(), nil
}

// MaxIterations returns the iteration limit of a steady state run
func (f Flow) MaxIterations(ctx context.Context) (int, error) {
	if err := f.requireSteady(ctx, keyMaxIterations); err != nil {
		return 0, err
	}
	attrs, err := f.setting(ctx, convergenceControl)
	if err != nil {
		return 0, err
	}
	return attrs.Int(ctx, keyMaxIterations)
}

// SetMaxIterations updates the iteration limit of a steady state run
func (f Flow) SetMaxIterations(ctx context.Context, n int) error {
	if err := f.requireSteady(ctx, keyMaxIterations); err != nil {
		return err
	}
	attrs, err := f.setting(ctx, convergenceControl)
	if err != nil {
		return err
	}
	return attrs.SetInt(ctx, keyMaxIterations, n)
}

// MaxCoefficientLoops returns the inner loop limit of a transient run
func (f Flow) MaxCoefficientLoops(ctx context.Context) (int, error) {
	if err := f.requireTransient(ctx, keyMaxCoefficientLoops); err != nil {
		return 0, err
	}
	attrs, err := f.setting(ctx, convergenceControl)
	if err != nil {
		return 0, err
	}
	return attrs.Int(ctx, keyMaxCoefficientLoops)
}

// SetMaxCoefficientLoops updates the inner loop limit of a transient run
func (f Flow) SetMaxCoefficientLoops(ctx context.Context, n int) error {
	if err := f.requireTransient(ctx, keyMaxCoefficientLoops); err != nil {
		return err
	}
	attrs, err := f.setting(ctx, convergenceControl)
	if err != nil {
		return err
	}
	return attrs.SetInt(ctx, keyMaxCoefficientLoops, n)
}

// Timestep returns the time step of a transient run
func (f Flow) Timestep(ctx context.Context) (Quantity, error) {
	return f.transientQuantity(ctx, timeSteps, keyTimesteps)
}

// SetTimestep updates the time step of a transient run
func (f Flow) SetTimestep(ctx context.Context, q Quantity) error {
	return f.setTransientQuantity(ctx, timeSteps, keyTimesteps, q)
}

// TotalTime returns the simulated duration of a transient run
func (f Flow) TotalTime(ctx context.Context) (Quantity, error) {
	return f.transientQuantity(ctx, timeDuration, keyTotalTime)
}

// SetTotalTime updates the simulated duration of a transient run
func (f Flow) SetTotalTime(ctx context.Context, q Quantity) error {
	return f.setTransientQuantity(ctx, timeDuration, keyTotalTime, q)
}

func (f Flow) transientQuantity(ctx context.Context, group, key string) (Quantity, error) {
	if err := f.requireTransient(ctx, key); err != nil {
		return Quantity{}, err
	}
	attrs, err := f.setting(ctx, group)
	if err != nil {
		return Quantity{}, err
	}
	return attrs.Quantity(ctx, key)
}

func (f Flow) setTransientQuantity(ctx context.Context, group, key string, q Quantity) error {
	if err := f.requireTransient(ctx, key); err != nil {
		return err
	}
	attrs, err := f.setting(ctx, group)
	if err != nil {
		return err
	}
	return attrs.SetQuantity(ctx, key, q)
}
