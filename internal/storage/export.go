package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"

	"github.com/mkerins/creditcycle/internal/model"
	"github.com/mkerins/creditcycle/internal/sim"
)

// WriteCSV writes the trajectory with both raw and steady-state-normalized
// columns, the form the figure is drawn from.
func WriteCSV(w io.Writer, traj sim.Trajectory, ss model.SteadyState) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"t", "K", "B", "q", "K_norm", "B_norm", "q_norm"}
	if err := cw.Write(header); err != nil {
		return err
	}

	kn, bn, qn := traj.Normalized(ss)
	for i, pt := range traj {
		row := []string{
			strconv.Itoa(pt.T),
			strconv.FormatFloat(pt.K, 'f', 9, 64),
			strconv.FormatFloat(pt.B, 'f', 9, 64),
			strconv.FormatFloat(pt.Q, 'f', 9, 64),
			strconv.FormatFloat(kn[i], 'f', 9, 64),
			strconv.FormatFloat(bn[i], 'f', 9, 64),
			strconv.FormatFloat(qn[i], 'f', 9, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	if err := cw.Error(); err != nil {
		return err
	}
	return nil
}

type jsonExport struct {
	Metadata   RunMetadata `json:"metadata"`
	Trajectory []sim.Point `json:"trajectory"`
}

// ExportJSONStdout writes a run as indented JSON to stdout.
func ExportJSONStdout(meta RunMetadata, traj sim.Trajectory) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonExport{Metadata: meta, Trajectory: traj})
}
