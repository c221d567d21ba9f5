package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
	"github.com/likhith1253/chemicalanalyzer/internal/dataset/ingest"
)

type analysisView struct {
	File             string                `json:"file"`
	TotalCount       int                   `json:"total_count"`
	RejectedCount    int                   `json:"rejected_count"`
	AvgFlowrate      *float64              `json:"avg_flowrate"`
	AvgPressure      *float64              `json:"avg_pressure"`
	AvgTemperature   *float64              `json:"avg_temperature"`
	TypeDistribution map[string]int        `json:"type_distribution"`
	PreviewRows      []entity.EquipmentRow `json:"preview_rows,omitempty"`
}

func newAnalyzeCommand(rt *runtime) *cobra.Command {
	var preview int

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Compute dataset statistics for a CSV locally, without a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := rt.fs.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			res, err := ingest.Analyze(cmd.Context(), f, ingest.Options{PreviewLimit: preview})
			if err != nil {
				return err
			}

			view := analysisView{
				File:             args[0],
				TotalCount:       res.Summary.TotalCount,
				RejectedCount:    res.Rejected,
				AvgFlowrate:      round2(res.Summary.AvgFlowrate),
				AvgPressure:      round2(res.Summary.AvgPressure),
				AvgTemperature:   round2(res.Summary.AvgTemperature),
				TypeDistribution: res.Summary.TypeDistribution,
			}
			if preview > 0 {
				view.PreviewRows = res.Preview
			}

			return printValue(cmd.OutOrStdout(), rt.v.GetString("output"), view)
		},
	}

	cmd.Flags().IntVar(&preview, "preview", 0, "include the first N accepted rows")

	return cmd
}

func round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}
