// Package viz renders trajectories and the running search in the
// terminal.
package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/sim"
)

const (
	plotWidth  = 80
	plotHeight = 10
)

// PlotTrajectory renders the normalized transition path, one panel per
// state variable, the terminal analogue of the paper's Figure 3.
func PlotTrajectory(traj sim.Trajectory, ss model.SteadyState) string {
	if len(traj) == 0 {
		return "no data to plot\n"
	}

	kn, bn, qn := traj.Normalized(ss)

	var sb strings.Builder
	for _, panel := range []struct {
		caption string
		data    []float64
	}{
		{"q_t / q*  (land price)", qn},
		{"K_t / K*  (landholding)", kn},
		{"B_t / B*  (debt)", bn},
	} {
		sb.WriteString(asciigraph.Plot(panel.data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Precision(4),
			asciigraph.Caption(panel.caption),
		))
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// Sparkline renders a single compact series, used by the live view.
func Sparkline(data []float64, caption string) string {
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(64),
		asciigraph.Precision(4),
		asciigraph.Caption(caption),
	)
}

// SteadyStateSummary formats the fixed point for terminal output.
func SteadyStateSummary(p model.Params, ss model.SteadyState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "q* = %.6f\n", ss.Q)
	fmt.Fprintf(&sb, "K* = %.6f\n", ss.K)
	fmt.Fprintf(&sb, "B* = %.6f\n", ss.B)
	fmt.Fprintf(&sb, "nu = %.6f\n", p.Nu)
	return sb.String()
}
