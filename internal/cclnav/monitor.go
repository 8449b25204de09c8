package cclnav

import (
	"context"

	"github.com/msto63/cfdkit/internal/ccl"
	"github.com/msto63/cfdkit/internal/cclstore"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// DefaultCoordFrame is the global coordinate frame
const DefaultCoordFrame = "Coord 0"

// MonitorPoint is an expression monitored during the solver run
type MonitorPoint struct {
	Name       string
	Expression string
	CoordFrame string
}

func (m MonitorPoint) group() *ccl.Group {
	frame := m.CoordFrame
	if frame == "" {
		frame = DefaultCoordFrame
	}
	g := ccl.NewGroup("MONITOR POINT: " + m.Name)
	g.Attributes.Set("Coord Frame", frame)
	g.Attributes.Set("Expression Value", m.Expression)
	g.Attributes.Set("Option", "Expression")
	return g
}

// MonitorPoints returns the monitor points of the flow. A flow without
// monitor objects has none.
func (f Flow) MonitorPoints(ctx context.Context) ([]MonitorPoint, error) {
	objects, err := f.Get(ctx, monitorObjects)
	if cfderror.HasCode(err, cfderror.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	groups, err := objects.ChildrenOfType(ctx, "MONITOR POINT")
	if err != nil {
		return nil, err
	}

	points := make([]MonitorPoint, 0, len(groups))
	for _, g := range groups {
		attrs, err := g.Attributes().All(ctx)
		if err != nil {
			return nil, err
		}
		mp := MonitorPoint{Name: g.Label()}
		mp.Expression, _ = attrs.Get("Expression Value")
		mp.CoordFrame, _ = attrs.Get("Coord Frame")
		points = append(points, mp)
	}
	return points, nil
}

// AddMonitorPoint adds an expression monitor point, creating the output
// control groups when missing. A point with the same name is
// CodeAlreadyExists.
func (f Flow) AddMonitorPoint(ctx context.Context, mp MonitorPoint) error {
	if mp.Name == "" {
		return cfderror.New("monitor point name must not be empty").WithCode(cfderror.CodeInvalidInput)
	}
	if mp.Expression == "" {
		return cfderror.Newf(cfderror.CodeInvalidInput, "monitor point %s has no expression", mp.Name)
	}

	output, err := f.ensureChild(ctx, "OUTPUT CONTROL")
	if err != nil {
		return err
	}
	objects, err := output.ensureChild(ctx, "MONITOR OBJECTS")
	if err != nil {
		return err
	}

	_, err = f.store().Materialize(ctx, mp.group(), cclstore.MaterializeOptions{
		Parent:   objects.Path(),
		Conflict: cclstore.ConflictFail,
	})
	return err
}
