package main

import (
	"fmt"
	"io"
	"math/rand"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/raykavin/pikachart/pkg/core"
	"github.com/raykavin/pikachart/pkg/metric"
)

const (
	histogramBins   = 15
	bootstrapRounds = 2000
)

var inspectBackend string

func buildInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarise the series the configured card would render",
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVarP(&inspectBackend, "backend", "b", "", "Backend override (gochart, svg, echarts)")
	return inspectCmd
}

func runInspect(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd.Context(), sessionOptions{backend: inspectBackend, width: 800})
	if err != nil {
		return err
	}
	defer s.Close()

	series := s.card.Manager().LastSeries()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "backend: %s\n", s.card.Backend())
	printSummary(out, series)
	printDistributions(out, series, rand.New(rand.NewSource(1)))
	return nil
}

func values(s core.Series) []float64 {
	return lo.Map(s.Data, func(p core.DataPoint, _ int) float64 { return p.Y })
}

func printSummary(out io.Writer, series []core.Series) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Series", "Type", "Axis", "Points", "Min", "Max", "Mean", "Std", "Last", "Unit"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	total := 0
	for _, s := range series {
		summary := metric.Summarize(values(s))
		total += summary.Count
		name := s.Name
		if s.Hidden {
			name += " (hidden)"
		}
		table.Append([]string{
			name,
			string(s.EffectiveType(core.TypeLine)),
			s.YAxisID,
			strconv.Itoa(summary.Count),
			fmt.Sprintf("%.2f", summary.Min),
			fmt.Sprintf("%.2f", summary.Max),
			fmt.Sprintf("%.2f", summary.Mean),
			fmt.Sprintf("%.2f", summary.StdDev),
			fmt.Sprintf("%.2f", summary.Last),
			s.Unit,
		})
	}
	table.SetFooter([]string{"TOTAL", "", "", strconv.Itoa(total), "", "", "", "", "", ""})
	table.Render()
}

func printDistributions(out io.Writer, series []core.Series, rng *rand.Rand) {
	for _, s := range series {
		vals := values(s)
		if len(vals) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n------ %s -------\n", s.Name)
		hist := histogram.Hist(histogramBins, vals)
		if err := histogram.Fprint(out, hist, histogram.Linear(10)); err != nil {
			fmt.Fprintf(out, "histogram unavailable: %v\n", err)
		}

		mean := metric.Bootstrap(vals, metric.Mean, bootstrapRounds, 0.95, rng)
		median := metric.Bootstrap(vals, metric.Median, bootstrapRounds, 0.95, rng)
		fmt.Fprintf(out, "MEAN:   %.2f (%.2f ~ %.2f)\n", mean.Mean, mean.Lower, mean.Upper)
		fmt.Fprintf(out, "MEDIAN: %.2f (%.2f ~ %.2f)\n", median.Mean, median.Lower, median.Upper)
	}
}
