package cclnav

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/msto63/cfdkit/internal/ccl"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
	"github.com/msto63/cfdkit/foundation/utils/filex"
	"github.com/msto63/cfdkit/pkg/core/logging"
)

func testOptions() Options {
	return Options{Logger: logging.NewWithWriter("cclnav", io.Discard)}
}

// copySample copies a testdata file into a temp dir and returns its path
func copySample(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func openSample(t *testing.T, name string) *File {
	t.Helper()
	f, err := Open(context.Background(), copySample(t, name), testOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func flowOf(t *testing.T, f *File) Flow {
	t.Helper()
	flow, err := f.Flow(context.Background())
	if err != nil {
		t.Fatalf("Flow() error = %v", err)
	}
	return flow
}

func TestFlowScenario(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")
	flow := flowOf(t, f)

	if got := flow.Label(); got != "Flow Analysis 1" {
		t.Errorf("Label() = %q, want %q", got, "Flow Analysis 1")
	}
	if got := flow.Type(); got != "FLOW" {
		t.Errorf("Type() = %q, want FLOW", got)
	}
	at, err := flow.AnalysisType(ctx)
	if err != nil {
		t.Fatalf("AnalysisType() error = %v", err)
	}
	if at != ccl.AnalysisSteadyState {
		t.Errorf("AnalysisType() = %v, want Steady State", at)
	}
	if steady, _ := flow.IsSteadyState(ctx); !steady {
		t.Error("IsSteadyState() = false, want true")
	}

	tf := openSample(t, "transient.ccl")
	if steady, _ := flowOf(t, tf).IsSteadyState(ctx); steady {
		t.Error("IsSteadyState() = true for transient flow")
	}
}

func TestOpen_Dispatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	txt := filepath.Join(dir, "notes.txt")
	os.WriteFile(txt, []byte("x"), 0o644)
	if _, err := Open(ctx, txt, testOptions()); !cfderror.HasCode(err, cfderror.CodeInvalidFormat) {
		t.Errorf("Open(.txt) error = %v, want INVALID_FORMAT", err)
	}

	def := filepath.Join(dir, "case.def")
	os.WriteFile(def, []byte("binary"), 0o644)
	if _, err := Open(ctx, def, testOptions()); !cfderror.HasCode(err, cfderror.CodeInvalidOperation) {
		t.Errorf("Open(.def) without generator error = %v, want INVALID_OPERATION", err)
	}

	if _, err := Open(ctx, filepath.Join(dir, "missing.ccl"), testOptions()); !cfderror.HasCode(err, cfderror.CodeNotFound) {
		t.Errorf("Open(missing .ccl) error = %v, want NOT_FOUND", err)
	}

	f := openSample(t, "steady.ccl")
	if !strings.HasSuffix(f.Path(), ".ccldb") {
		t.Errorf("Path() = %q, want .ccldb store", f.Path())
	}
	if !filex.Exists(f.Path()) {
		t.Errorf("store %s was not built", f.Path())
	}
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")
	root := f.Root()

	if !root.IsRoot() || root.Name() != "root" {
		t.Errorf("Root() = %v (%q), want root", root, root.Name())
	}
	if root.Parent() != root {
		t.Error("root.Parent() != root")
	}

	names, err := root.ChildNames(ctx)
	if err != nil {
		t.Fatalf("ChildNames() error = %v", err)
	}
	if want := []string{"LIBRARY", "FLOW: Flow Analysis 1"}; !reflect.DeepEqual(names, want) {
		t.Errorf("ChildNames() = %v, want %v", names, want)
	}

	flow := flowOf(t, f)
	sc, err := flow.Child(ctx, "solver control")
	if err != nil {
		t.Fatalf("Child(lower case) error = %v", err)
	}
	if sc.Path() != "FLOW: Flow Analysis 1/SOLVER CONTROL" {
		t.Errorf("Child().Path() = %q", sc.Path())
	}
	if sc.Parent() != flow.Group {
		t.Errorf("Parent() = %v, want %v", sc.Parent(), flow.Group)
	}

	if _, err := flow.Child(ctx, "NO SUCH GROUP"); !cfderror.HasCode(err, cfderror.CodeNotFound) {
		t.Errorf("Child(missing) error = %v, want NOT_FOUND", err)
	}
	if _, err := flow.Child(ctx, "a/b"); !cfderror.HasCode(err, cfderror.CodeInvalidInput) {
		t.Errorf("Child(a/b) error = %v, want INVALID_INPUT", err)
	}

	cc, err := f.Get(ctx, "/FLOW: Flow Analysis 1/SOLVER CONTROL/CONVERGENCE CONTROL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cc.Name() != "CONVERGENCE CONTROL" {
		t.Errorf("Name() = %q", cc.Name())
	}
}

func TestBoundariesOfType(t *testing.T) {
	ctx := context.Background()
	flow := flowOf(t, openSample(t, "steady.ccl"))

	tests := []struct {
		typ     string
		squeeze bool
		wantOne string
		wantAll []string
	}{
		{typ: "INLET", squeeze: true, wantOne: "inlet"},
		{typ: "INLET", squeeze: false, wantAll: []string{"inlet"}},
		{typ: "outlet", squeeze: true, wantOne: "outlet"},
		{typ: "WALL", squeeze: false, wantAll: []string{"wall"}},
		{typ: "OPENING", squeeze: true, wantAll: []string{}},
		{typ: "OPENING", squeeze: false, wantAll: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			sel, err := flow.BoundariesOfType(ctx, tt.typ, tt.squeeze)
			if err != nil {
				t.Fatalf("BoundariesOfType() error = %v", err)
			}
			if tt.wantOne != "" {
				if sel.One == nil {
					t.Fatalf("One = nil, All = %v", sel.All)
				}
				if sel.One.Name() != tt.wantOne {
					t.Errorf("One.Name() = %q, want %q", sel.One.Name(), tt.wantOne)
				}
				return
			}
			if sel.One != nil {
				t.Errorf("One = %v, want nil", sel.One)
			}
			if sel.All == nil {
				t.Fatal("All = nil, want a non-nil slice")
			}
			var got []string
			for _, b := range sel.All {
				got = append(got, b.Name())
			}
			if len(got) != len(tt.wantAll) || (len(got) > 0 && !reflect.DeepEqual(got, tt.wantAll)) {
				t.Errorf("All = %v, want %v", got, tt.wantAll)
			}
			if sel.Len() != len(tt.wantAll) {
				t.Errorf("Len() = %d, want %d", sel.Len(), len(tt.wantAll))
			}
		})
	}
}

func TestDomain(t *testing.T) {
	ctx := context.Background()

	steady := flowOf(t, openSample(t, "steady.ccl"))
	d, err := steady.Domain(ctx, "Default Domain")
	if err != nil {
		t.Fatalf("Domain() error = %v", err)
	}
	if d.Name() != "Default Domain" {
		t.Errorf("Name() = %q", d.Name())
	}
	if typ, _ := d.DomainType(ctx); typ != "Fluid" {
		t.Errorf("DomainType() = %q, want Fluid", typ)
	}
	if rot, err := d.IsRotating(ctx); err != nil || rot {
		t.Errorf("IsRotating() = %v, %v, want false", rot, err)
	}
	b, err := d.Boundary(ctx, "outlet")
	if err != nil {
		t.Fatalf("Boundary() error = %v", err)
	}
	if b.Domain() != d {
		t.Errorf("Boundary().Domain() = %v, want %v", b.Domain(), d)
	}
	if loc, _ := b.Location(ctx); loc != "F2" {
		t.Errorf("Location() = %q, want F2", loc)
	}

	transient := flowOf(t, openSample(t, "transient.ccl"))
	rotor, err := transient.Domain(ctx, "rotor")
	if err != nil {
		t.Fatalf("Domain(rotor) error = %v", err)
	}
	if rot, err := rotor.IsRotating(ctx); err != nil || !rot {
		t.Errorf("IsRotating() = %v, %v, want true", rot, err)
	}
	domains, _ := transient.Domains(ctx)
	if len(domains) != 1 || domains[0] != rotor {
		t.Errorf("Domains() = %v, want [%v]", domains, rotor)
	}
}

func TestAttributes(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")
	inlet, err := f.Get(ctx, "FLOW: Flow Analysis 1/DOMAIN: Default Domain/BOUNDARY: inlet")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	attrs := inlet.Attributes()

	keys, _ := attrs.Keys(ctx)
	if want := []string{"Boundary Type", "Location"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}

	if _, err := attrs.Get(ctx, "Missing"); !cfderror.HasCode(err, cfderror.CodeNotFound) {
		t.Errorf("Get(missing) error = %v, want NOT_FOUND", err)
	}
	if err := attrs.Set(ctx, "Missing", "1"); !cfderror.HasCode(err, cfderror.CodeNotFound) {
		t.Errorf("Set(missing) error = %v, want NOT_FOUND", err)
	}
	if err := attrs.Delete(ctx, "Missing"); !cfderror.HasCode(err, cfderror.CodeNotFound) {
		t.Errorf("Delete(missing) error = %v, want NOT_FOUND", err)
	}
	if err := attrs.Set(ctx, "Location", "F9"); err != nil {
		t.Errorf("Set(Location) error = %v", err)
	}
	if v, _ := attrs.Get(ctx, "Location"); v != "F9" {
		t.Errorf("Location = %q, want F9", v)
	}
	if v, _ := attrs.Get(ctx, "Boundary Type"); v != "INLET" {
		t.Errorf("Boundary Type after Set(Location) = %q, want INLET", v)
	}
	if err := attrs.Add(ctx, "Location", "F1"); !cfderror.HasCode(err, cfderror.CodeAlreadyExists) {
		t.Errorf("Add(existing) error = %v, want ALREADY_EXISTS", err)
	}

	mm, err := inlet.Get(ctx, "BOUNDARY CONDITIONS/MASS AND MOMENTUM")
	if err != nil {
		t.Fatalf("Get(MASS AND MOMENTUM) error = %v", err)
	}
	mattrs := mm.Attributes()

	mismatches := []struct {
		key   string
		value string
	}{
		{"Normal Speed", "fast"},
		{"Normal Speed", "2"},
		{"Normal Speed", "1, 0, 0"},
		{"Option", "3 [m s^-1]"},
	}
	for _, tt := range mismatches {
		err := mattrs.Set(ctx, tt.key, tt.value)
		if !cfderror.HasCode(err, cfderror.CodeTypeMismatch) {
			t.Errorf("Set(%q, %q) error = %v, want TYPE_MISMATCH", tt.key, tt.value, err)
		}
	}

	if err := mattrs.SetQuantity(ctx, "Normal Speed", Quantity{Value: 3.5, Unit: "m s^-1"}); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	q, err := mattrs.Quantity(ctx, "Normal Speed")
	if err != nil {
		t.Fatalf("Quantity() error = %v", err)
	}
	if q != (Quantity{Value: 3.5, Unit: "m s^-1"}) {
		t.Errorf("Quantity() = %+v", q)
	}
	if v, _ := mattrs.Float(ctx, "Normal Speed"); v != 3.5 {
		t.Errorf("Float() = %v, want 3.5", v)
	}

	// a unitless quantity keeps the current unit
	if err := mattrs.SetQuantity(ctx, "Normal Speed", Quantity{Value: 4}); err != nil {
		t.Fatalf("SetQuantity(unitless) error = %v", err)
	}
	if v, _ := mattrs.Get(ctx, "Normal Speed"); v != "4 [m s^-1]" {
		t.Errorf("Normal Speed after unitless SetQuantity = %q, want 4 [m s^-1]", v)
	}
	if _, err := mattrs.Int(ctx, "Option"); !cfderror.HasCode(err, cfderror.CodeTypeMismatch) {
		t.Errorf("Int(Option) error = %v, want TYPE_MISMATCH", err)
	}

	// an empty value takes any shape
	if err := attrs.Add(ctx, "Note", ""); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := attrs.Set(ctx, "Note", "5 [s]"); err != nil {
		t.Errorf("Set(empty, quantity) error = %v", err)
	}

	if err := attrs.Delete(ctx, "Note"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if ok, _ := attrs.Has(ctx, "Note"); ok {
		t.Error("Has(Note) = true after Delete")
	}
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")
	d, err := flowOf(t, f).Domain(ctx, "Default Domain")
	if err != nil {
		t.Fatalf("Domain() error = %v", err)
	}

	if _, err := f.Root().Rename(ctx, "top"); !cfderror.HasCode(err, cfderror.CodeInvalidOperation) {
		t.Errorf("root.Rename() error = %v, want INVALID_OPERATION", err)
	}

	outlet, _ := d.Boundary(ctx, "outlet")
	if _, err := outlet.Rename(ctx, "BOUNDARY: inlet"); !cfderror.HasCode(err, cfderror.CodeAlreadyExists) {
		t.Errorf("Rename(taken) error = %v, want ALREADY_EXISTS", err)
	}

	wall, _ := d.Boundary(ctx, "wall")
	renamed, err := wall.Rename(ctx, "BOUNDARY: side")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name() != "BOUNDARY: side" {
		t.Errorf("Name() = %q", renamed.Name())
	}
	if ok, _ := wall.Exists(ctx); ok {
		t.Error("old path still exists after Rename")
	}
	boundaries, _ := d.Boundaries(ctx)
	var names []string
	for _, b := range boundaries {
		names = append(names, b.Name())
	}
	if want := []string{"inlet", "outlet", "side"}; !reflect.DeepEqual(names, want) {
		t.Errorf("Boundaries() = %v, want %v", names, want)
	}

	if err := renamed.Delete(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := renamed.Exists(ctx); ok {
		t.Error("node exists after Delete")
	}
}

func TestSteadySettings(t *testing.T) {
	ctx := context.Background()
	flow := flowOf(t, openSample(t, "steady.ccl"))

	n, err := flow.MaxIterations(ctx)
	if err != nil || n != 100 {
		t.Errorf("MaxIterations() = %d, %v, want 100", n, err)
	}
	if err := flow.SetMaxIterations(ctx, 250); err != nil {
		t.Fatalf("SetMaxIterations() error = %v", err)
	}
	if n, _ := flow.MaxIterations(ctx); n != 250 {
		t.Errorf("MaxIterations() = %d, want 250", n)
	}

	if _, err := flow.Timestep(ctx); !cfderror.HasCode(err, cfderror.CodeNotTransient) {
		t.Errorf("Timestep() error = %v, want NOT_TRANSIENT", err)
	}
	if err := flow.SetTotalTime(ctx, Quantity{Value: 1, Unit: "s"}); !cfderror.HasCode(err, cfderror.CodeNotTransient) {
		t.Errorf("SetTotalTime() error = %v, want NOT_TRANSIENT", err)
	}
	if _, err := flow.MaxCoefficientLoops(ctx); !cfderror.HasCode(err, cfderror.CodeNotTransient) {
		t.Errorf("MaxCoefficientLoops() error = %v, want NOT_TRANSIENT", err)
	}
}

func TestTransientSettings(t *testing.T) {
	ctx := context.Background()
	flow := flowOf(t, openSample(t, "transient.ccl"))

	if _, err := flow.MaxIterations(ctx); !cfderror.HasCode(err, cfderror.CodeNotSteadyState) {
		t.Errorf("MaxIterations() error = %v, want NOT_STEADY_STATE", err)
	}
	if err := flow.SetMaxIterations(ctx, 10); !cfderror.HasCode(err, cfderror.CodeNotSteadyState) {
		t.Errorf("SetMaxIterations() error = %v, want NOT_STEADY_STATE", err)
	}

	ts, err := flow.Timestep(ctx)
	if err != nil || ts != (Quantity{Value: 0.01, Unit: "s"}) {
		t.Errorf("Timestep() = %+v, %v, want 0.01 [s]", ts, err)
	}
	if err := flow.SetTimestep(ctx, Quantity{Value: 0.005, Unit: "s"}); err != nil {
		t.Fatalf("SetTimestep() error = %v", err)
	}
	raw, _ := flow.Group.Get(ctx, timeSteps)
	if v, _ := raw.Attributes().Get(ctx, keyTimesteps); v != "0.005 [s]" {
		t.Errorf("stored Timesteps = %q, want %q", v, "0.005 [s]")
	}

	total, err := flow.TotalTime(ctx)
	if err != nil || total != (Quantity{Value: 10, Unit: "s"}) {
		t.Errorf("TotalTime() = %+v, %v, want 10 [s]", total, err)
	}

	loops, err := flow.MaxCoefficientLoops(ctx)
	if err != nil || loops != 5 {
		t.Errorf("MaxCoefficientLoops() = %d, %v, want 5", loops, err)
	}
	if err := flow.SetMaxCoefficientLoops(ctx, 8); err != nil {
		t.Fatalf("SetMaxCoefficientLoops() error = %v", err)
	}
	if loops, _ := flow.MaxCoefficientLoops(ctx); loops != 8 {
		t.Errorf("MaxCoefficientLoops() = %d, want 8", loops)
	}
}

func TestMonitorPoints(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")
	flow := flowOf(t, f)

	points, err := flow.MonitorPoints(ctx)
	if err != nil {
		t.Fatalf("MonitorPoints() error = %v", err)
	}
	want := []MonitorPoint{{Name: "p1", Expression: "areaAve(Pressure)@inlet", CoordFrame: "Coord 0"}}
	if !reflect.DeepEqual(points, want) {
		t.Errorf("MonitorPoints() = %+v, want %+v", points, want)
	}

	p2 := MonitorPoint{Name: "p2", Expression: "maxVal(Velocity)@outlet"}
	if err := flow.AddMonitorPoint(ctx, p2); err != nil {
		t.Fatalf("AddMonitorPoint() error = %v", err)
	}
	if err := flow.AddMonitorPoint(ctx, p2); !cfderror.HasCode(err, cfderror.CodeAlreadyExists) {
		t.Errorf("AddMonitorPoint(duplicate) error = %v, want ALREADY_EXISTS", err)
	}
	if err := flow.AddMonitorPoint(ctx, MonitorPoint{Name: "p3"}); !cfderror.HasCode(err, cfderror.CodeInvalidInput) {
		t.Errorf("AddMonitorPoint(no expression) error = %v, want INVALID_INPUT", err)
	}

	points, _ = flow.MonitorPoints(ctx)
	if len(points) != 2 || points[1].Name != "p2" || points[1].CoordFrame != DefaultCoordFrame {
		t.Errorf("MonitorPoints() = %+v", points)
	}

	var buf bytes.Buffer
	if err := f.Regenerate(ctx, &buf); err != nil {
		t.Fatalf("Regenerate() error = %v", err)
	}
	if !strings.Contains(buf.String(), "      MONITOR POINT: p2\n        Coord Frame = Coord 0\n") {
		t.Errorf("regenerated text misses p2:\n%s", buf.String())
	}

	transient := flowOf(t, openSample(t, "transient.ccl"))
	if points, err := transient.MonitorPoints(ctx); err != nil || len(points) != 0 {
		t.Errorf("MonitorPoints() = %v, %v, want none", points, err)
	}
	if err := transient.AddMonitorPoint(ctx, MonitorPoint{Name: "torque", Expression: "torque()@blade", CoordFrame: "Coord 1"}); err != nil {
		t.Fatalf("AddMonitorPoint() error = %v", err)
	}
	points, _ = transient.MonitorPoints(ctx)
	if len(points) != 1 || points[0].CoordFrame != "Coord 1" {
		t.Errorf("MonitorPoints() = %+v", points)
	}
}

func TestSetCondition(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")
	d, err := flowOf(t, f).Domain(ctx, "Default Domain")
	if err != nil {
		t.Fatalf("Domain() error = %v", err)
	}
	inlet, _ := d.Boundary(ctx, "inlet")

	got, err := inlet.InletCondition(ctx)
	if err != nil {
		t.Fatalf("InletCondition() error = %v", err)
	}
	if want := (NormalSpeedInlet{Speed: Quantity{Value: 2, Unit: "m s^-1"}}); got != want {
		t.Errorf("InletCondition() = %+v, want %+v", got, want)
	}

	tests := []struct {
		name     string
		cond     Condition
		want     Condition
		children []string
	}{
		{
			name: "mass flow cartesian",
			cond: MassFlowInlet{
				Rate:      Quantity{Value: 1.5, Unit: "kg s^-1"},
				Direction: Cartesian{X: 1, Y: 0, Z: 0},
			},
			want: MassFlowInlet{
				Rate:      Quantity{Value: 1.5, Unit: "kg s^-1"},
				Direction: Cartesian{X: 1, Y: 0, Z: 0},
				Regime:    DefaultFlowRegime,
				RateArea:  RateAreaAsSpecified,
			},
			children: []string{"MASS AND MOMENTUM", "FLOW REGIME", "FLOW DIRECTION"},
		},
		{
			name: "mass flow cylindrical about a coordinate axis",
			cond: MassFlowInlet{
				Rate:      Quantity{Value: 2, Unit: "kg s^-1"},
				Direction: Cylindrical{Axial: 0.8, Radial: 0, Theta: 0.6, Axis: CoordinateAxis{RotationAxis: "Global Z"}},
				Regime:    "SUPERSONIC",
				RateArea:  RateAreaAllSectors,
			},
			want: MassFlowInlet{
				Rate:      Quantity{Value: 2, Unit: "kg s^-1"},
				Direction: Cylindrical{Axial: 0.8, Radial: 0, Theta: 0.6, Axis: CoordinateAxis{RotationAxis: "Global Z"}},
				Regime:    "Supersonic",
				RateArea:  RateAreaAllSectors,
			},
			children: []string{"MASS AND MOMENTUM", "FLOW REGIME", "FLOW DIRECTION"},
		},
		{
			name: "mass flow cylindrical about two points",
			cond: MassFlowInlet{
				Rate:      Quantity{Value: 2, Unit: "kg s^-1"},
				Direction: Cylindrical{Axial: 1, Axis: TwoPointAxis{To: [3]float64{0, 0, 1}}},
			},
			want: MassFlowInlet{
				Rate:      Quantity{Value: 2, Unit: "kg s^-1"},
				Direction: Cylindrical{Axial: 1, Axis: TwoPointAxis{To: [3]float64{0, 0, 1}}},
				Regime:    DefaultFlowRegime,
				RateArea:  RateAreaAsSpecified,
			},
			children: []string{"MASS AND MOMENTUM", "FLOW REGIME", "FLOW DIRECTION"},
		},
		{
			name: "normal speed",
			cond: NormalSpeedInlet{Speed: Quantity{Value: 3, Unit: "m s^-1"}, Turbulence: "Low Intensity and Eddy Viscosity Ratio"},
			want: NormalSpeedInlet{
				Speed:      Quantity{Value: 3, Unit: "m s^-1"},
				Regime:     DefaultFlowRegime,
				Turbulence: "Low Intensity and Eddy Viscosity Ratio",
			},
			children: []string{"MASS AND MOMENTUM", "FLOW REGIME", "TURBULENCE"},
		},
		{
			name: "cartesian velocity",
			cond: CartesianVelocityInlet{U: Velocity(1.5), V: "0 [m s^-1]", W: "inlet.Velocity w(r)"},
			want: CartesianVelocityInlet{
				U:          "1.5 [m s^-1]",
				V:          "0 [m s^-1]",
				W:          "inlet.Velocity w(r)",
				Regime:     DefaultFlowRegime,
				Turbulence: DefaultTurbulence,
			},
			children: []string{"MASS AND MOMENTUM", "FLOW REGIME", "TURBULENCE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := inlet.SetCondition(ctx, tt.cond); err != nil {
				t.Fatalf("SetCondition() error = %v", err)
			}
			got, err := inlet.InletCondition(ctx)
			if err != nil {
				t.Fatalf("InletCondition() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("InletCondition() = %+v, want %+v", got, tt.want)
			}
			bc, _ := inlet.Condition(ctx)
			names, _ := bc.ChildNames(ctx)
			if !reflect.DeepEqual(names, tt.children) {
				t.Errorf("condition children = %v, want %v", names, tt.children)
			}
			if loc, _ := inlet.Location(ctx); loc != "F1" {
				t.Errorf("Location = %q, want F1", loc)
			}
		})
	}

	mm, _ := inlet.Get(ctx, "BOUNDARY CONDITIONS/MASS AND MOMENTUM")
	if ok, _ := mm.Attributes().Has(ctx, "Normal Speed"); ok {
		t.Error("Normal Speed kept after switching to cartesian velocity")
	}

	// the boundary keeps its place among its siblings
	boundaries, _ := d.Boundaries(ctx)
	if len(boundaries) != 3 || boundaries[0] != inlet {
		t.Errorf("Boundaries() = %v, want inlet first", boundaries)
	}

	for _, bad := range []Condition{
		MassFlowInlet{Rate: Quantity{Value: 1, Unit: "kg s^-1"}, RateArea: "Per Sector"},
		MassFlowInlet{Rate: Quantity{Value: 1, Unit: "kg s^-1"}, Direction: Cylindrical{Axial: 1}},
		CartesianVelocityInlet{U: "1 [m s^-1]", V: "", W: "0 [m s^-1]"},
	} {
		if err := inlet.SetCondition(ctx, bad); !cfderror.HasCode(err, cfderror.CodeInvalidInput) {
			t.Errorf("SetCondition(%+v) error = %v, want INVALID_INPUT", bad, err)
		}
	}
	if got, _ := inlet.InletCondition(ctx); !reflect.DeepEqual(got, tests[len(tests)-1].want) {
		t.Errorf("InletCondition() after rejected writes = %+v", got)
	}

	// an outlet becomes an inlet; its pressure settings go with the old condition
	outlet, _ := d.Boundary(ctx, "outlet")
	speed := NormalSpeedInlet{Speed: Quantity{Value: 3, Unit: "m s^-1"}}
	if err := outlet.SetCondition(ctx, speed); err != nil {
		t.Fatalf("SetCondition(outlet) error = %v", err)
	}
	if typ, _ := outlet.Type(ctx); typ != "INLET" {
		t.Errorf("outlet Boundary Type = %q, want INLET", typ)
	}
	omm, _ := outlet.Get(ctx, "BOUNDARY CONDITIONS/MASS AND MOMENTUM")
	if ok, _ := omm.Attributes().Has(ctx, "Relative Pressure"); ok {
		t.Error("Relative Pressure kept on the converted outlet")
	}

	// a boundary without conditions gets a BOUNDARY CONDITIONS group
	wall, _ := d.Boundary(ctx, "wall")
	if _, err := wall.Condition(ctx); !cfderror.HasCode(err, cfderror.CodeNotFound) {
		t.Errorf("wall.Condition() error = %v, want NOT_FOUND", err)
	}
	if err := wall.SetCondition(ctx, speed); err != nil {
		t.Fatalf("SetCondition(wall) error = %v", err)
	}
	if got, err := wall.InletCondition(ctx); err != nil || got.(NormalSpeedInlet).Speed != speed.Speed {
		t.Errorf("wall.InletCondition() = %+v, %v", got, err)
	}
	inlets, _ := d.BoundariesOfType(ctx, "INLET", false)
	if inlets.Len() != 3 {
		t.Errorf("BoundariesOfType(INLET) = %d boundaries, want 3", inlets.Len())
	}
}

func TestRegenerate_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := openSample(t, "steady.ccl")

	orig, err := ccl.ParseFile(filepath.Join("testdata", "steady.ccl"), ccl.DefaultBuildOptions())
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.ccl")
	if err := f.WriteText(ctx, out); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	again, err := ccl.ParseFile(out, ccl.DefaultBuildOptions())
	if err != nil {
		t.Fatalf("ParseFile(regenerated) error = %v", err)
	}
	if !again.Root.Equal(orig.Root) {
		t.Errorf("regenerated tree differs:\n%s", again.String())
	}
}

// fakeGenerator writes fixed CCL text next to its input
type fakeGenerator struct {
	text  string
	calls int
}

func (g *fakeGenerator) GenerateCCL(ctx context.Context, input string) (string, error) {
	g.calls++
	out := filex.ChangeSuffix(input, ".ccl")
	return out, os.WriteFile(out, []byte(g.text), 0o644)
}

// setAge moves the mtime of path and its WAL companion
func setAge(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	for _, p := range []string{path, path + "-wal"} {
		if !filex.Exists(p) {
			continue
		}
		if err := os.Chtimes(p, mtime, mtime); err != nil {
			t.Fatalf("Chtimes() error = %v", err)
		}
	}
}

func TestStaleness(t *testing.T) {
	ctx := context.Background()
	data, _ := os.ReadFile(filepath.Join("testdata", "steady.ccl"))
	gen := &fakeGenerator{text: string(data)}

	dir := t.TempDir()
	def := filepath.Join(dir, "case.def")
	os.WriteFile(def, []byte("binary"), 0o644)

	opts := testOptions()
	opts.Generator = gen

	f, err := Open(ctx, def, opts)
	if err != nil {
		t.Fatalf("Open(.def) error = %v", err)
	}
	storePath := f.Path()
	f.Close()
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}

	now := time.Now()
	opts.SourcePath = def

	t.Run("fresh store is reused", func(t *testing.T) {
		setAge(t, def, now.Add(-2*time.Hour))
		setAge(t, storePath, now.Add(-time.Hour))

		f, err := Open(ctx, storePath, opts)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer f.Close()
		if gen.calls != 1 || f.Regenerations() != 0 {
			t.Errorf("calls = %d, regenerations = %d, want no regeneration", gen.calls, f.Regenerations())
		}
	})

	t.Run("stale store is regenerated", func(t *testing.T) {
		setAge(t, def, now.Add(-time.Hour))
		setAge(t, storePath, now.Add(-2*time.Hour))

		f, err := Open(ctx, storePath, opts)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer f.Close()
		if gen.calls != 2 || f.Regenerations() != 1 {
			t.Errorf("calls = %d, regenerations = %d, want one regeneration", gen.calls, f.Regenerations())
		}
		if _, err := f.Flow(ctx); err != nil {
			t.Errorf("Flow() after regeneration error = %v", err)
		}
	})

	t.Run("EnsureFresh", func(t *testing.T) {
		f, err := Open(ctx, storePath, opts)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer f.Close()
		calls := gen.calls

		if err := f.EnsureFresh(ctx); err != nil || gen.calls != calls {
			t.Errorf("EnsureFresh() = %v, calls %d -> %d, want no regeneration", err, calls, gen.calls)
		}

		future := time.Now().Add(time.Hour)
		setAge(t, def, future)
		if err := f.EnsureFresh(ctx); err != nil {
			t.Fatalf("EnsureFresh() error = %v", err)
		}
		if gen.calls != calls+1 || f.Regenerations() != 1 {
			t.Errorf("calls = %d, regenerations = %d, want one regeneration", gen.calls, f.Regenerations())
		}
		if _, err := f.Flow(ctx); err != nil {
			t.Errorf("Flow() after EnsureFresh error = %v", err)
		}
	})

	t.Run("stale without generator", func(t *testing.T) {
		setAge(t, storePath, now.Add(-2*time.Hour))
		setAge(t, def, now.Add(-time.Hour))

		_, err := Open(ctx, storePath, Options{SourcePath: def, Logger: opts.Logger})
		if !cfderror.HasCode(err, cfderror.CodeStaleStore) {
			t.Errorf("Open() error = %v, want STALE_STORE", err)
		}
	})
}

func TestShapeOf(t *testing.T) {
	tests := []struct {
		value string
		want  Shape
	}{
		{"", ShapeEmpty},
		{"  ", ShapeEmpty},
		{"100", ShapeNumber},
		{"-1.5e-3", ShapeNumber},
		{"2 [m s^-1]", ShapeQuantity},
		{"0 [Pa]", ShapeQuantity},
		{"1500 [rev min^-1]", ShapeQuantity},
		{"1, 0, 0", ShapeVector},
		{"0 [m], 1 [m], 0 [m]", ShapeVector},
		{"[rad]", ShapeText},
		{"Steady State", ShapeText},
		{"areaAve(Pressure)@inlet", ShapeText},
		{"NaN", ShapeText},
		{"a, b", ShapeText},
	}

	for _, tt := range tests {
		if got := ShapeOf(tt.value); got != tt.want {
			t.Errorf("ShapeOf(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestQuantity(t *testing.T) {
	parse := []struct {
		in      string
		want    Quantity
		wantErr bool
	}{
		{in: "10 [s]", want: Quantity{10, "s"}},
		{in: "0.01 [s]", want: Quantity{0.01, "s"}},
		{in: "2[m s^-1]", want: Quantity{2, "m s^-1"}},
		{in: "5", want: Quantity{Value: 5}},
		{in: "[rad]", wantErr: true},
		{in: "fast", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range parse {
		got, err := ParseQuantity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseQuantity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil {
			if !cfderror.HasCode(err, cfderror.CodeTypeMismatch) {
				t.Errorf("ParseQuantity(%q) error code = %v, want TYPE_MISMATCH", tt.in, cfderror.GetCode(err))
			}
			continue
		}
		if got != tt.want {
			t.Errorf("ParseQuantity(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	format := []struct {
		q    Quantity
		want string
	}{
		{Quantity{10, "s"}, "10 [s]"},
		{Quantity{0.005, "s"}, "0.005 [s]"},
		{Quantity{1e-5, "s"}, "1e-05 [s]"},
		{Quantity{Value: 3}, "3"},
	}
	for _, tt := range format {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.q, got, tt.want)
		}
	}
}

func TestOpen_FormatChange(t *testing.T) {
	ctx := context.Background()
	f, err := Open(ctx, copySample(t, "steady.ccl"), testOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := f.Store().SetMeta(ctx, "format_version", "0"); err != nil {
		t.Fatalf("SetMeta() error = %v", err)
	}
	storePath, source := f.Path(), f.Source()
	f.Close()

	opts := testOptions()
	opts.SourcePath = source
	reopened, err := Open(ctx, storePath, opts)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()
	if reopened.Regenerations() != 1 {
		t.Errorf("Regenerations() = %d, want 1", reopened.Regenerations())
	}
	if _, err := reopened.Flow(ctx); err != nil {
		t.Errorf("Flow() error = %v", err)
	}

	// without a rebuildable source the store is reported stale
	cfx := filex.ChangeSuffix(storePath, ".cfx")
	os.WriteFile(cfx, []byte("case"), 0o644)
	setAge(t, cfx, time.Now().Add(-time.Hour))
	reopened.Store().SetMeta(ctx, "format_version", "0")
	reopened.Close()
	if _, err := Open(ctx, storePath, testOptions()); !cfderror.HasCode(err, cfderror.CodeStaleStore) {
		t.Errorf("Open(old format) error = %v, want STALE_STORE", err)
	}
}
