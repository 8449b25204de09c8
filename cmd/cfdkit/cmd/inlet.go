package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/cfdkit/internal/cclnav"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

var (
	inletDomain    string
	inletSpeed     string
	inletMassFlow  string
	inletDirection string
	inletVelocity  string
	inletAxis      string
	inletRegime    string
	inletTurb      string
	inletRateArea  string
)

var inletCmd = &cobra.Command{
	Use:   "inlet <file> <boundary>",
	Short: "Show or set the condition of an inlet",
	Long: `Without flags the current inlet condition is printed. --speed sets a
normal speed inlet; --velocity u,v,w sets the cartesian velocity
components, each a quantity or an expression; --mass-flow sets a mass flow
inlet whose direction is normal to the boundary or given by --direction
x,y,z (cartesian) or, together with --axis, axial,radial,theta
(cylindrical). The boundary becomes an INLET if it is not one already.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := openFile(ctx, args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		flow, err := f.Flow(ctx)
		if err != nil {
			return err
		}
		b, err := findBoundary(cmd, flow, args[1])
		if err != nil {
			return err
		}

		var cond cclnav.Condition
		set := 0
		for _, v := range []string{inletSpeed, inletMassFlow, inletVelocity} {
			if v != "" {
				set++
			}
		}
		switch {
		case set > 1:
			return cfderror.New("--speed, --mass-flow and --velocity are exclusive").WithCode(cfderror.CodeInvalidInput)
		case inletSpeed != "":
			q, err := cclnav.ParseQuantity(inletSpeed)
			if err != nil {
				return err
			}
			cond = cclnav.NormalSpeedInlet{Speed: q, Regime: inletRegime, Turbulence: inletTurb}
		case inletVelocity != "":
			parts := strings.Split(inletVelocity, ",")
			if len(parts) != 3 {
				return cfderror.Newf(cfderror.CodeInvalidInput, "velocity needs three components: %q", inletVelocity)
			}
			cond = cclnav.CartesianVelocityInlet{U: parts[0], V: parts[1], W: parts[2], Regime: inletRegime, Turbulence: inletTurb}
		case inletMassFlow != "":
			q, err := cclnav.ParseQuantity(inletMassFlow)
			if err != nil {
				return err
			}
			dir, err := parseDirection(inletDirection, inletAxis)
			if err != nil {
				return err
			}
			cond = cclnav.MassFlowInlet{Rate: q, Direction: dir, Regime: inletRegime, RateArea: inletRateArea}
		}

		if cond != nil {
			if err := b.SetCondition(ctx, cond); err != nil {
				return err
			}
		}
		current, err := b.InletCondition(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render(b.Name()), describeCondition(current))
		return nil
	},
}

func init() {
	inletCmd.Flags().StringVar(&inletDomain, "domain", "", "domain of the boundary (default: search all)")
	inletCmd.Flags().StringVar(&inletSpeed, "speed", "", `normal speed, e.g. "2 [m s^-1]"`)
	inletCmd.Flags().StringVar(&inletMassFlow, "mass-flow", "", `mass flow rate, e.g. "1.5 [kg s^-1]"`)
	inletCmd.Flags().StringVar(&inletDirection, "direction", "", "flow direction components x,y,z or axial,radial,theta")
	inletCmd.Flags().StringVar(&inletAxis, "axis", "", `rotation axis of cylindrical components, e.g. "Global Z"`)
	inletCmd.Flags().StringVar(&inletVelocity, "velocity", "", "cartesian velocity components u,v,w")
	inletCmd.Flags().StringVar(&inletRegime, "regime", "", "flow regime (default Subsonic)")
	inletCmd.Flags().StringVar(&inletTurb, "turbulence", "", "turbulence option (default Medium Intensity and Eddy Viscosity Ratio)")
	inletCmd.Flags().StringVar(&inletRateArea, "rate-area", "", `mass flow rate area: "As Specified" or "Total for All Sectors"`)
	rootCmd.AddCommand(inletCmd)
}

func findBoundary(cmd *cobra.Command, flow cclnav.Flow, name string) (cclnav.Boundary, error) {
	ctx := cmd.Context()
	if inletDomain != "" {
		d, err := flow.Domain(ctx, inletDomain)
		if err != nil {
			return cclnav.Boundary{}, err
		}
		return d.Boundary(ctx, name)
	}
	all, err := flow.Boundaries(ctx)
	if err != nil {
		return cclnav.Boundary{}, err
	}
	for _, b := range all {
		if b.Name() == name {
			return b, nil
		}
	}
	return cclnav.Boundary{}, cfderror.Newf(cfderror.CodeNotFound, "boundary not found: %s", name)
}

func parseDirection(s, axis string) (cclnav.FlowDirection, error) {
	if s == "" {
		return cclnav.NormalToBoundary{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, cfderror.Newf(cfderror.CodeInvalidInput, "direction needs three components: %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, cfderror.Newf(cfderror.CodeInvalidInput, "invalid direction component %q", p)
		}
		v[i] = f
	}
	if axis != "" {
		return cclnav.Cylindrical{Axial: v[0], Radial: v[1], Theta: v[2], Axis: cclnav.CoordinateAxis{RotationAxis: axis}}, nil
	}
	return cclnav.Cartesian{X: v[0], Y: v[1], Z: v[2]}, nil
}

func describeCondition(c cclnav.Condition) string {
	switch c := c.(type) {
	case cclnav.NormalSpeedInlet:
		return "normal speed " + c.Speed.String()
	case cclnav.CartesianVelocityInlet:
		return fmt.Sprintf("velocity (%s, %s, %s)", c.U, c.V, c.W)
	case cclnav.MassFlowInlet:
		dir := "normal to boundary"
		switch d := c.Direction.(type) {
		case cclnav.Cartesian:
			dir = fmt.Sprintf("direction (%g, %g, %g)", d.X, d.Y, d.Z)
		case cclnav.Cylindrical:
			dir = fmt.Sprintf("cylindrical (%g, %g, %g)", d.Axial, d.Radial, d.Theta)
		}
		return "mass flow " + c.Rate.String() + " " + c.RateArea + ", " + dir
	}
	return fmt.Sprintf("%v", c)
}
