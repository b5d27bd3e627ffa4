package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bugVanisher/bkrcodec/internal/bkrerrs"
	"github.com/bugVanisher/bkrcodec/internal/stats"
	"github.com/bugVanisher/bkrcodec/internal/stream"
)

// throughputWriter discards everything it's given while feeding a rolling
// Throughput counter, so the stats command can report a payload rate
// alongside the one-shot health snapshot.
type throughputWriter struct {
	rate *stats.Throughput
}

func (w throughputWriter) Write(p []byte) (int, error) {
	w.rate.Add(len(p))
	return len(p), nil
}

func newStatsCmd() *cobra.Command {
	var skipBad bool
	var mf *modeFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Decode stdin and print its health counters as JSON, discarding payload bytes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := mf.resolve()
			if err != nil {
				return err
			}

			rate := stats.NewThroughput()
			report, decErr := stream.Decode(throughputWriter{rate: rate}, os.Stdin, skipBad, stream.WithMode(mode))
			snap := report.Counters.Snapshot(&stats.FrameHealth{
				WorstKey:    report.Frame.WorstKey,
				BestNonKey:  report.Frame.BestNonKey,
				SmallestGap: report.Frame.SmallestGap,
				LargestGap:  report.Frame.LargestGap,
				FrameErrors: report.Frame.FrameErrors,
			})
			out, err := snap.JSON()
			if err != nil {
				return bkrerrs.Wrapf(err, "cmd: marshal stats")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			fmt.Fprintf(cmd.OutOrStdout(), "%d bytes payload, %d B/s\n", rate.Total(), rate.BytesPerSecond())
			if decErr != nil {
				return bkrerrs.Wrapf(decErr, "cmd: stats")
			}
			return nil
		},
	}
	mf = addModeFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&skipBad, "skip-bad", "s", false, "continue past uncorrectable sectors instead of stopping")
	return cmd
}

var _ io.Writer = throughputWriter{}

func init() {
	rootCmd.AddCommand(newStatsCmd())
}
