package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/driver"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
)

var (
	raceOpts       runFlags
	raceAlgorithms []string
	raceParallel   int
)

var raceCmd = &cobra.Command{
	Use:   "race",
	Short: "Race several algorithms on the same dataset",
	Long: `Runs every selected algorithm concurrently on one dataset with the same settings
and ranks them by best loss. --algorithm is ignored; use --algorithms instead.`,
	RunE: runRace,
}

func init() {
	raceOpts.register(raceCmd)
	raceCmd.Flags().StringSliceVar(&raceAlgorithms, "algorithms", opt.Names(), "Algorithms to race")
	raceCmd.Flags().IntVar(&raceParallel, "parallel", 0, "Maximum concurrent runs (0 = all)")

	rootCmd.AddCommand(raceCmd)
}

func runRace(cmd *cobra.Command, args []string) error {
	cfg, err := raceOpts.resolve(cmd)
	if err != nil {
		return err
	}

	points := cfg.Dataset()
	entries, err := driver.Race(commandContext(cmd), raceAlgorithms, cfg.Options(points), raceParallel)
	if err != nil {
		return err
	}

	printRace(cmd.OutOrStdout(), entries, len(points))
	return nil
}

func printRace(out io.Writer, entries []driver.RaceEntry, numPoints int) {
	fmt.Fprintf(out, "Raced %d algorithm(s) on %d point(s)\n\n", len(entries), numPoints)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tALGORITHM\tBEST LOSS\tSTEPS\tSTOPPED\tTIME\tCURVE")
	fmt.Fprintln(w, "----\t---------\t---------\t-----\t-------\t----\t-----")

	for i, e := range entries {
		if e.Err != nil {
			fmt.Fprintf(w, "-\t%s\terror\t-\t-\t-\t%v\n", e.Algorithm, e.Err)
			continue
		}
		r := e.Result
		fmt.Fprintf(w, "%d\t%s\t%.6g\t%d\t%s\t%s\t%s\n",
			i+1,
			e.Algorithm,
			r.BestLoss,
			r.Steps,
			stopLabel(r.Reason),
			r.Duration.Round(time.Millisecond),
			fit.FormatPolynomial(r.BestWeights),
		)
	}

	w.Flush()
}
